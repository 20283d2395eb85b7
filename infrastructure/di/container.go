// Package di wires the application together. Construction order matters:
// config first, then observability, persistence, the remote client, and
// finally the repositories that depend on all of the above.
package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lugares-client/application/repositories"
	"lugares-client/infrastructure/acl"
	"lugares-client/infrastructure/config"
	"lugares-client/infrastructure/observability"
	"lugares-client/infrastructure/persistence/prefs"
	"lugares-client/infrastructure/remote"
	"lugares-client/infrastructure/session"
)

// Container holds every long-lived component of the client.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Prefs    prefs.Store
	Sessions *session.Store
	Client   remote.Client
	Places   *repositories.PlacesRepository
	Routes   *repositories.RoutesRepository
	Auth     *repositories.AuthRepository

	watcher *config.Watcher
}

// NewContainer builds the full dependency graph from cfg.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	var store prefs.Store
	if cfg.PrefsPath != "" {
		sqlStore, err := prefs.NewSQLiteStore(cfg.PrefsPath)
		if err != nil {
			return nil, fmt.Errorf("opening preferences store: %w", err)
		}
		store = sqlStore
	} else {
		store = prefs.NewMemoryStore()
	}

	sessions := session.NewStore(store, logger)

	client, err := remote.NewHTTPClient(remote.HTTPClientOptions{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
		Breaker: cfg.Breaker,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating remote client: %w", err)
	}

	normalizer := acl.NewNormalizer(logger, metrics)

	places := repositories.NewPlacesRepository(client, normalizer, cfg.PlacesTTL, logger, metrics)
	routes := repositories.NewRoutesRepository(client, normalizer, cfg.RoutesTTL, logger, metrics)
	auth := repositories.NewAuthRepository(client, normalizer, sessions, logger, metrics)

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Prefs:    store,
		Sessions: sessions,
		Client:   client,
		Places:   places,
		Routes:   routes,
		Auth:     auth,
	}

	if cfg.OverridesPath != "" {
		watcher, err := config.NewWatcher(cfg.OverridesPath, logger)
		if err != nil {
			logger.Warn("overrides watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(c.applyOverrides)
			c.watcher = watcher
		}
	}

	return c, nil
}

func (c *Container) applyOverrides(o *config.Overrides) {
	if ttl := o.PlacesTTL(); ttl > 0 {
		c.Logger.Info("applying places cache TTL override", zap.Duration("ttl", ttl))
		c.Places.SetCacheTTL(ttl)
	}
	if ttl := o.RoutesTTL(); ttl > 0 {
		c.Logger.Info("applying routes cache TTL override", zap.Duration("ttl", ttl))
		c.Routes.SetCacheTTL(ttl)
	}
}

// Shutdown releases held resources. Errors are logged, not returned, so a
// failing close never blocks process exit.
func (c *Container) Shutdown() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.Prefs != nil {
		if err := c.Prefs.Close(); err != nil {
			c.Logger.Warn("closing preferences store", zap.Error(err))
		}
	}
	_ = c.Logger.Sync()
}
