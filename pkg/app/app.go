// pkg/app/app.go

package app

import (
	"sync"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/api"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/config"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/overwrite"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sanitize"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	cerr "github.com/cockroachdb/errors"
)

var (
	mu          sync.RWMutex
	current     *config.Config
	defaultOpts []Option
)

// SetConfig records the configuration resolved for this process.
func SetConfig(cfg *config.Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Config returns the configuration recorded by SetConfig, or the defaults.
func Config() *config.Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return config.Default()
	}
	return current
}

// SetDefaultOptions sets the options FromConfig applies. Tests use it to
// swap in a fake enumerator.
func SetDefaultOptions(opts ...Option) {
	mu.Lock()
	defer mu.Unlock()
	defaultOpts = opts
}

// FromConfig builds an App from the recorded configuration.
func FromConfig() (*App, error) {
	mu.RLock()
	opts := defaultOpts
	mu.RUnlock()
	return New(Config(), opts...)
}

// App holds the components one command invocation works with.
type App struct {
	Config  *config.Config
	Catalog *volumes.Catalog
	Engine  *overwrite.Engine
	// Journal is nil when journaling is disabled.
	Journal *disk_safety.JournalStorage
	Service *sanitize.Service
}

type Option func(*options)

type options struct {
	enumerator volumes.VolumeEnumerator
}

// WithEnumerator replaces the platform enumerator.
func WithEnumerator(e volumes.VolumeEnumerator) Option {
	return func(o *options) { o.enumerator = e }
}

// New builds the catalog, engine, journal and service described by cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	engine, err := overwrite.NewEngine(cfg.Overwrite)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Catalog: volumes.NewCatalog(o.enumerator),
		Engine:  engine,
	}

	var svcOpts []sanitize.ServiceOption
	if cfg.Journal.Enabled {
		a.Journal, err = disk_safety.NewJournalStorage(cfg.Journal.Dir)
		if err != nil {
			return nil, cerr.Wrap(err, "failed to open journal")
		}
		svcOpts = append(svcOpts, sanitize.WithJournal(a.Journal))
	}

	a.Service = sanitize.NewService(a.Catalog, a.Engine, svcOpts...)
	return a, nil
}

// Server exposes the service over HTTP.
func (a *App) Server() *api.Server {
	if a.Journal == nil {
		return api.NewServer(a.Service, nil)
	}
	return api.NewServer(a.Service, a.Journal)
}
