package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/seatrove/syncdock/config"
	"github.com/seatrove/syncdock/internal/core"
	"github.com/seatrove/syncdock/internal/data"
	"github.com/seatrove/syncdock/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Connectors *service.ConnectorService
	SyncJobs   *service.SyncJobService
	Store      core.ManagedStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewDocumentStore builds the document store adapter for the configured
// backend.
//
//nolint:ireturn // returning core.ManagedStore lets us pick the postgres or redis adapter at runtime.
func NewDocumentStore(deps *ServiceDeps) (core.ManagedStore, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("store configuration is required")
	}

	backend, err := deps.Config.Store.GetBackend()
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.StoreBackendPostgres:
		if deps.DB == nil {
			return nil, errors.New("postgres store backend requires a database connection")
		}
		store, err := data.NewPGStore(data.PGStoreOptions{DB: deps.DB, Logger: deps.Logger})
		if err != nil {
			return nil, fmt.Errorf("build postgres store: %w", err)
		}
		return store, nil
	case config.StoreBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis store backend requires a redis client")
		}
		store, err := data.NewRedisStore(data.RedisStoreOptions{
			Client:    deps.RedisClient,
			KeyPrefix: deps.Config.Store.KeyPrefix,
			Logger:    deps.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

// BuildServices wires the connector and sync-job services over an
// already-built store; no connection handling here.
func BuildServices(store core.ManagedStore, cfg config.StoreConfig, logger *slog.Logger) ServiceContainer {
	connectors := service.MustNewConnectorService(service.ConnectorServiceOptions{
		Store:  store,
		Index:  cfg.ConnectorIndex,
		Logger: logger,
	})
	syncJobs := service.MustNewSyncJobService(service.SyncJobServiceOptions{
		Store:      store,
		Connectors: connectors,
		Index:      cfg.SyncJobIndex,
		Logger:     logger,
	})

	return ServiceContainer{
		Connectors: connectors,
		SyncJobs:   syncJobs,
		Store:      store,
	}
}

// NewServices initializes the service container for the configured backend.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := NewDocumentStore(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	return BuildServices(store, deps.Config.Store, logger), nil
}
