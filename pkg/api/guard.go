// pkg/api/guard.go

package api

import (
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// loopbackHosts are always accepted in Host and Origin.
var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

// guard refuses requests a browser could send on behalf of another site.
// The API has no authentication, so Host pins it to the listen address
// (DNS rebinding), Origin pins it to loopback pages, and a JSON body is
// required on writes so a plain form or text/plain POST cannot reach it.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := otelzap.Ctx(r.Context())

		if !s.hostAllowed(hostname(r.Host)) {
			logger.Warn("Rejected request for foreign host", zap.String("host", r.Host), zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, ErrorBody{Kind: "forbidden_host", Error: "host " + r.Host + " is not served here"})
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" && !s.originAllowed(origin) {
			logger.Warn("Rejected cross-origin request", zap.String("origin", origin), zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, ErrorBody{Kind: "forbidden_origin", Error: "origin " + origin + " is not allowed"})
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				writeJSON(w, http.StatusUnsupportedMediaType, ErrorBody{
					Kind:  "unsupported_media_type",
					Error: "request body must be application/json",
				})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// allowHost adds the host part of a listen address to the accepted set.
// Wildcard addresses add nothing; clients must then use a loopback name.
func (s *Server) allowHost(addr string) {
	h := hostname(addr)
	if h == "" {
		return
	}
	if ip := net.ParseIP(h); ip != nil && ip.IsUnspecified() {
		return
	}
	s.hostsMu.Lock()
	s.hosts[strings.ToLower(h)] = struct{}{}
	s.hostsMu.Unlock()
}

func (s *Server) hostAllowed(h string) bool {
	if h == "" {
		return false
	}
	h = strings.ToLower(h)
	if ip := net.ParseIP(h); ip != nil && ip.IsLoopback() {
		return true
	}
	s.hostsMu.RLock()
	defer s.hostsMu.RUnlock()
	_, ok := s.hosts[h]
	return ok
}

func (s *Server) originAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		// includes the opaque "null" origin
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return s.hostAllowed(u.Hostname())
}

// hostname strips the port and IPv6 brackets from a Host header or address.
func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}
