package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/config"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/overwrite"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sanitize"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *httptest.Server
	system  string
	usb     string
	journal *disk_safety.JournalStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{system: t.TempDir(), usb: t.TempDir()}

	catalog := volumes.NewCatalog(volumes.EnumeratorFunc(func(context.Context) ([]volumes.Descriptor, error) {
		return []volumes.Descriptor{
			{Identifier: f.system, Label: "OS", IsSystem: true},
			{Identifier: f.usb, Label: "USB", CapacityBytes: 1 << 30},
		}, nil
	}))
	engine, err := overwrite.NewEngine(config.OverwriteConfig{
		BlockSize: 4 * datasize.KB, MaxIterations: 2,
		IterationPolicy: config.PolicyFixed, ScratchName: config.DefaultScratchName,
	})
	require.NoError(t, err)
	f.journal, err = disk_safety.NewJournalStorage(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)

	svc := sanitize.NewService(catalog, engine, sanitize.WithJournal(f.journal))
	f.srv = httptest.NewServer(NewServer(svc, f.journal))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// send issues a raw request so tests control every header.
func (f *fixture) send(t *testing.T, method, path, contentType, body string, header http.Header, host string) (int, ErrorBody) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if host != "" {
		req.Host = host
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ErrorBody
	if resp.StatusCode >= 400 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestVolumesEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var vols []volumes.Descriptor
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/volumes", &vols))
	require.Len(t, vols, 2)
	assert.True(t, vols[0].IsSystem)
	assert.Equal(t, "USB", vols[1].Label)
}

func TestSafetyEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		id     string
		status int
		kind   string
	}{
		{"removable", f.usb, http.StatusOK, ""},
		{"system", f.system, http.StatusForbidden, "system_volume_protected"},
		{"absent", "/nope", http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			status := f.get(t, "/api/v1/safety?id="+url.QueryEscape(tt.id), &body)
			assert.Equal(t, tt.status, status)
			if tt.kind == "" {
				assert.Equal(t, true, body["safe"])
				return
			}
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSanitizeEndpointWait(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var st TaskStatus
	status := f.post(t, "/api/v1/sanitize?wait=true", sanitize.Request{Identifier: f.usb, Confirmed: true}, &st)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, TaskDone, st.State)
	require.NotNil(t, st.Outcome)
	assert.Equal(t, int64(3*2*4096), st.Outcome.BytesWritten)
	assert.Nil(t, st.Error)

	var history historyResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/history", &history))
	require.Len(t, history.Archived, 1)
	assert.Equal(t, st.Outcome.JournalID, history.Archived[0].ID)
}

func TestSanitizeEndpointRefusals(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		req    sanitize.Request
		status int
		kind   string
	}{
		{"unconfirmed", sanitize.Request{Identifier: f.usb}, http.StatusPreconditionFailed, "confirmation_required"},
		{"system", sanitize.Request{Identifier: f.system, Confirmed: true}, http.StatusForbidden, "system_volume_protected"},
		{"absent", sanitize.Request{Identifier: "/nope", Confirmed: true}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st TaskStatus
			status := f.post(t, "/api/v1/sanitize?wait=true", tt.req, &st)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, st.Error)
			assert.Equal(t, tt.kind, st.Error.Kind)
		})
	}
	testutil.AssertDirEntries(t, f.usb)
	testutil.AssertDirEntries(t, f.system)
}

func TestSanitizeEndpointBackground(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var started TaskStatus
	require.Equal(t, http.StatusAccepted, f.post(t, "/api/v1/sanitize", sanitize.Request{Identifier: f.usb, Confirmed: true}, &started))
	require.NotEmpty(t, started.ID)

	var st TaskStatus
	testutil.Eventually(t, func() bool {
		f.get(t, "/api/v1/tasks/"+started.ID, &st)
		return st.State == TaskDone
	}, 5*time.Second, 10*time.Millisecond)
	require.NotNil(t, st.Outcome)
	assert.Nil(t, st.Error)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/tasks/unknown", nil))
}

func TestSanitizeEndpointBadBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var body ErrorBody
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/api/v1/sanitize", map[string]any{"identifier": f.usb, "force": true}, &body))
	assert.Equal(t, "bad_request", body.Kind)

	assert.Equal(t, http.StatusBadRequest, f.post(t, "/api/v1/sanitize", map[string]any{"confirmed": true}, &body))
}

func TestSanitizeEndpointRateLimited(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for i := 0; i < SanitizeBurst; i++ {
		var st TaskStatus
		require.Equal(t, http.StatusPreconditionFailed,
			f.post(t, "/api/v1/sanitize?wait=true", sanitize.Request{Identifier: f.usb}, &st))
	}

	var body ErrorBody
	assert.Equal(t, http.StatusTooManyRequests, f.post(t, "/api/v1/sanitize", sanitize.Request{Identifier: f.usb}, &body))
	assert.Equal(t, "rate_limited", body.Kind)
}

func TestProbeAndSpecsEndpoints(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var probe probeResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/probe", &probe))
	assert.Contains(t, probe.Message, "System test successful")

	var specs map[string]any
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/specs", &specs))
	assert.NotEmpty(t, specs["os"])
}

func TestCrossSiteRequestsRefused(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	confirmed := `{"identifier":` + strconv.Quote(f.usb) + `,"confirmed":true}`

	type request struct {
		method      string
		path        string
		contentType string
		origin      string
		host        string
		status      int
		kind        string
	}
	tests := []testutil.TableTest[request]{
		{
			Name: "text/plain from a foreign page",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "text/plain",
				origin: "https://evil.example", status: http.StatusForbidden, kind: "forbidden_origin",
			},
		},
		{
			Name: "text/plain without origin",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "text/plain",
				status: http.StatusUnsupportedMediaType, kind: "unsupported_media_type",
			},
		},
		{
			Name: "form post",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "application/x-www-form-urlencoded",
				status: http.StatusUnsupportedMediaType, kind: "unsupported_media_type",
			},
		},
		{
			Name: "json from a foreign page",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "application/json",
				origin: "https://evil.example", status: http.StatusForbidden, kind: "forbidden_origin",
			},
		},
		{
			Name: "opaque origin",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "application/json",
				origin: "null", status: http.StatusForbidden, kind: "forbidden_origin",
			},
		},
		{
			Name: "rebound host name",
			Input: request{
				method: http.MethodPost, path: "/api/v1/sanitize?wait=true", contentType: "application/json",
				host: "evil.example:7788", status: http.StatusForbidden, kind: "forbidden_host",
			},
		},
		{
			Name: "rebound host reading volumes",
			Input: request{
				method: http.MethodGet, path: "/api/v1/volumes",
				host: "evil.example", status: http.StatusForbidden, kind: "forbidden_host",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			in := tt.Input
			var header http.Header
			if in.origin != "" {
				header = http.Header{"Origin": {in.origin}}
			}
			body := ""
			if in.method == http.MethodPost {
				body = confirmed
			}
			status, errBody := f.send(t, in.method, in.path, in.contentType, body, header, in.host)
			assert.Equal(t, in.status, status)
			assert.Equal(t, in.kind, errBody.Kind)
		})
	}

	testutil.AssertDirEntries(t, f.usb)
	history, err := f.journal.ListArchived()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLoopbackOriginAllowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []testutil.TableTest[string]{
		{Name: "localhost dev server", Input: "http://localhost:5173"},
		{Name: "ipv4 loopback", Input: "http://127.0.0.1:7788"},
		{Name: "ipv6 loopback", Input: "http://[::1]:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			status, _ := f.send(t, http.MethodGet, "/api/v1/volumes", "", "", http.Header{"Origin": {tt.Input}}, "")
			assert.Equal(t, http.StatusOK, status)
		})
	}

	body := `{"identifier":` + strconv.Quote(f.usb) + `,"confirmed":true}`
	status, _ := f.send(t, http.MethodPost, "/api/v1/sanitize?wait=true", "application/json; charset=utf-8", body,
		http.Header{"Origin": {"http://localhost:5173"}}, "localhost")
	assert.Equal(t, http.StatusOK, status)
}

func TestListenAddressHostAllowed(t *testing.T) {
	t.Parallel()
	s := NewServer(nil, nil)

	assert.False(t, s.hostAllowed("sanitizer.lan"))
	s.allowHost("sanitizer.lan:7788")
	assert.True(t, s.hostAllowed("sanitizer.lan"))
	assert.True(t, s.hostAllowed("SANITIZER.LAN"))

	s.allowHost("0.0.0.0:7788")
	assert.False(t, s.hostAllowed("0.0.0.0"))
	s.allowHost(":7788")
	assert.False(t, s.hostAllowed(""))
	assert.True(t, s.hostAllowed("localhost"))
}

func TestHistoryEntryEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var st TaskStatus
	require.Equal(t, http.StatusOK, f.post(t, "/api/v1/sanitize?wait=true", sanitize.Request{Identifier: f.usb, Confirmed: true}, &st))
	require.NotNil(t, st.Outcome)

	var entry disk_safety.JournalEntry
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/history/"+st.Outcome.JournalID, &entry))
	assert.Equal(t, f.usb, entry.Target.Identifier)
	assert.Equal(t, disk_safety.StatusCompleted, entry.Status)
	assert.False(t, entry.Tampered)

	var body ErrorBody
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/history/00000000-0000-0000-0000-000000000000", &body))
	assert.Equal(t, "not_found", body.Kind)
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()
	catalog := volumes.NewCatalog(volumes.EnumeratorFunc(func(context.Context) ([]volumes.Descriptor, error) {
		return nil, nil
	}))
	srv := httptest.NewServer(NewServer(sanitize.NewService(catalog, nil), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
