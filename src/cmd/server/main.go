package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"

	httpadapter "assetgraph/src/adapters/http"
	"assetgraph/src/helper/env"
	"assetgraph/src/infra/kafka"
	"assetgraph/src/infra/postgres"
	"assetgraph/src/infra/redis"
	"assetgraph/src/repositories"
	"assetgraph/src/services/authz"
	"assetgraph/src/services/events"
	"assetgraph/src/services/links"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting API server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newRedisClient,
			newKafkaProducer,
			newAssetLinkRepository,
			newAssetCatalogRepository,
			newCachedAssetCatalogRepository,
			newLinkMetadataRepository,
			newPermissionRepository,
			newLinkEventPublisher,
			newLinksConfig,
			newLinkService,
			newServer,
		),

		// Invocations
		fx.Invoke(registerInfraHooks, registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newReadWriteClient() (*postgres.ReadWriteClient, error) {
	dbReadHost := env.MustGetString("DB_READ_HOST")
	dbWriteHost := env.MustGetString("DB_WRITE_HOST")
	dbReadPort := env.GetString("DB_READ_PORT", "5432")
	dbWritePort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	return postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
}

func newRedisClient() *redis.RedisClient {
	redisHosts := env.MustGetString("REDIS_HOSTS")
	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTLSeconds := env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)
	redisDefaultTTL := time.Duration(redisDefaultTTLSeconds) * time.Second

	return redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL)
}

func newKafkaProducer() (*kafka.KafkaClient, error) {
	return kafka.NewKafkaProducer(env.MustGetString("KAFKA_BROKERS"))
}

func newAssetLinkRepository(readWriteClient *postgres.ReadWriteClient) *repositories.AssetLinkRepository {
	return repositories.NewAssetLinkRepository(readWriteClient.GetWritePool())
}

func newAssetCatalogRepository(readWriteClient *postgres.ReadWriteClient) *repositories.AssetCatalogRepository {
	return repositories.NewAssetCatalogRepository(readWriteClient.GetReadPool())
}

func newCachedAssetCatalogRepository(
	assetCatalogRepository *repositories.AssetCatalogRepository,
	redisClient *redis.RedisClient,
) *repositories.CachedAssetCatalogRepository {
	return repositories.NewCachedAssetCatalogRepository(assetCatalogRepository, redisClient)
}

func newLinkMetadataRepository(readWriteClient *postgres.ReadWriteClient) *repositories.LinkMetadataRepository {
	return repositories.NewLinkMetadataRepository(readWriteClient.GetWritePool())
}

func newPermissionRepository(readWriteClient *postgres.ReadWriteClient) *repositories.PermissionRepository {
	return repositories.NewPermissionRepository(readWriteClient.GetReadPool())
}

func newLinkEventPublisher(logger *slog.Logger, kafkaClient *kafka.KafkaClient) *events.LinkEventPublisher {
	topic := env.GetString("KAFKA_LINK_EVENTS_TOPIC", "asset-link-events")
	return events.NewLinkEventPublisher(logger, kafkaClient, topic)
}

func newLinksConfig() links.Config {
	defaults := links.DefaultConfig()

	return links.Config{
		MaxCycleCheckVisits: env.GetInt("LINKS_MAX_CYCLE_CHECK_VISITS", defaults.MaxCycleCheckVisits),
		CycleCheckTimeout:   env.GetMillis("LINKS_CYCLE_CHECK_TIMEOUT_MS", defaults.CycleCheckTimeout),
		MaxTreeDepth:        env.GetInt("LINKS_MAX_TREE_DEPTH", defaults.MaxTreeDepth),
		MaxTreeNodes:        env.GetInt("LINKS_MAX_TREE_NODES", defaults.MaxTreeNodes),
		ResolveBatchSize:    env.GetInt("LINKS_RESOLVE_BATCH_SIZE", defaults.ResolveBatchSize),
		ResolveConcurrency:  env.GetInt("LINKS_RESOLVE_CONCURRENCY", defaults.ResolveConcurrency),
	}
}

func newLinkService(
	logger *slog.Logger,
	assetLinkRepository *repositories.AssetLinkRepository,
	cachedAssetCatalogRepository *repositories.CachedAssetCatalogRepository,
	linkMetadataRepository *repositories.LinkMetadataRepository,
	linkEventPublisher *events.LinkEventPublisher,
	config links.Config,
) *links.LinkService {
	return links.NewLinkService(
		logger,
		assetLinkRepository,
		cachedAssetCatalogRepository,
		authz.NewGrantAuthorizer(),
		linkMetadataRepository,
		linkEventPublisher,
		config,
	)
}

func newServer(
	logger *slog.Logger,
	linkService *links.LinkService,
	permissionRepository *repositories.PermissionRepository,
) *httpadapter.Server {
	addr := env.GetString("SERVER_ADDR", ":8888")

	return httpadapter.NewServer(logger, addr, linkService, permissionRepository)
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, srv *httpadapter.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			log.Println("Shutting down server...")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
				return err
			}
			log.Println("Server exited gracefully")
			return nil
		},
	})
}

// registerInfraHooks é registrado antes do servidor para que o fx o pare por último
func registerInfraHooks(
	lc fx.Lifecycle,
	logger *slog.Logger,
	readWriteClient *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
	kafkaClient *kafka.KafkaClient,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := redisClient.HealthCheck(ctx); err != nil {
				logger.Warn("Redis is unreachable, catalog cache will miss", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
			}
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
			readWriteClient.Close()
			return nil
		},
	})
}
