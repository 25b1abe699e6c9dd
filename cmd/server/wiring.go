package main

import (
	"context"
	"fmt"
	"log/slog"

	"campusdocs/internal/config"
	"campusdocs/internal/domain/services"
	"campusdocs/internal/metrics"
	"campusdocs/internal/notify"
	"campusdocs/internal/repository/memory"
	"campusdocs/internal/repository/postgres"
	postgresDocsys "campusdocs/internal/repository/postgres/docsystem"
	serviceDocsys "campusdocs/internal/service/docsystem"
	"campusdocs/internal/storage"
)

// openRepositories connects the configured storage driver.
// The returned closer releases the connection pool.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (serviceDocsys.Repositories, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("STORAGE_DRIVER=memory: data is lost on restart")
		store := memory.NewStore()
		return serviceDocsys.Repositories{
			Documents: memory.NewDocumentRepository(store),
			Versions:  memory.NewVersionRepository(store),
			Grants:    memory.NewGrantRepository(store),
			Shares:    memory.NewShareRepository(store),
			Audit:     memory.NewAuditRepository(store),
			Requests:  memory.NewRequestRepository(store),
			TxManager: memory.NewTransactionManager(store),
		}, func() {}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return serviceDocsys.Repositories{}, nil, err
	}
	logger.Info("database connected", "table_prefix", cfg.TablePrefix)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return serviceDocsys.Repositories{}, nil, fmt.Errorf("migrate: %w", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return serviceDocsys.Repositories{
		Documents: postgresDocsys.NewDocumentRepository(repoConfig),
		Versions:  postgresDocsys.NewVersionRepository(repoConfig),
		Grants:    postgresDocsys.NewGrantRepository(repoConfig),
		Shares:    postgresDocsys.NewShareRepository(repoConfig),
		Audit:     postgresDocsys.NewAuditRepository(repoConfig),
		Requests:  postgresDocsys.NewRequestRepository(repoConfig),
		TxManager: postgres.NewTransactionManager(pool, logger),
	}, pool.Close, nil
}

// openBlobStore builds the configured byte storage, instrumented with metrics
func openBlobStore(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (services.BlobStore, error) {
	var (
		store services.BlobStore
		err   error
	)
	switch cfg.BlobDriver {
	case config.BlobDriverS3:
		store, err = storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, logger)
	case config.BlobDriverMemory:
		logger.Warn("BLOB_DRIVER=memory: stored bytes are lost on restart")
		store = storage.NewMemoryStore()
	default:
		store, err = storage.NewLocalStore(cfg.BlobLocalDir, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", cfg.BlobDriver, err)
	}
	return storage.NewInstrumented(store, m), nil
}

// openNotifier publishes to Redis when REDIS_URL is set, otherwise only logs
func openNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Notifier, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set - notifications are logged only")
		return notify.NewLogNotifier(logger), func() {}, nil
	}

	n, err := notify.NewRedisNotifier(ctx, cfg.RedisURL, cfg.NotifyChannel, logger)
	if err != nil {
		return nil, nil, err
	}
	return n, func() {
		if err := n.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}, nil
}
