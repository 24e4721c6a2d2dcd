package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"assetgraph/src/adapters/kafka/consumers"
	"assetgraph/src/helper/env"
	"assetgraph/src/infra/kafka"
	"assetgraph/src/infra/redis"
	"assetgraph/src/repositories"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting Asset Events Consumer with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newRedisClient,
			newKafkaClient,
			newCachedAssetCatalogRepository,
			newAssetEventsConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	// Start the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start consumer application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down asset events consumer...")

	// Stop the application
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Asset events consumer shutdown complete")
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

func newRedisClient() *redis.RedisClient {
	redisHosts := env.MustGetString("REDIS_HOSTS")
	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTLSeconds := env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)
	redisDefaultTTL := time.Duration(redisDefaultTTLSeconds) * time.Second

	return redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL)
}

func newKafkaClient() (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_ASSET_EVENTS_CONSUMER_GROUP_ID")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 100)

	return kafka.NewKafkaClient(brokers, groupID, batchSize)
}

// o consumer só invalida, não precisa do banco
func newCachedAssetCatalogRepository(redisClient *redis.RedisClient) *repositories.CachedAssetCatalogRepository {
	return repositories.NewCachedAssetCatalogRepository(nil, redisClient)
}

func newAssetEventsConsumer(
	logger *slog.Logger,
	cachedAssetCatalogRepository *repositories.CachedAssetCatalogRepository,
) *consumers.AssetEventsConsumer {
	return consumers.NewAssetEventsConsumer(logger, cachedAssetCatalogRepository)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	redisClient *redis.RedisClient,
	assetEventsConsumer *consumers.AssetEventsConsumer,
) {
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.GetString("KAFKA_ASSET_EVENTS_TOPIC", "asset-events")
			logger.Info("Starting asset events consumer", "topic", topic)

			// Start consumer in background
			go func() {
				if err := assetEventsConsumer.Start(consumerCtx, kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelConsumer()

			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}

			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}

			logger.Info("Kafka client shut down gracefully")
			return nil
		},
	})
}
