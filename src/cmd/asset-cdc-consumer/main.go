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
	"assetgraph/src/infra/debezium"
	"assetgraph/src/infra/kafka"
	"assetgraph/src/infra/redis"
	"assetgraph/src/repositories"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting Asset CDC Consumer with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newRedisClient,
			newKafkaClient,
			newCDCClient,
			newCachedAssetCatalogRepository,
			newAssetCDCConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start asset CDC consumer application: %v", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down asset CDC consumer...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Asset CDC consumer shutdown complete")
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newRedisClient() *redis.RedisClient {
	redisHosts := env.MustGetString("REDIS_HOSTS")
	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTL := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)) * time.Second

	return redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL)
}

func newKafkaClient() (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_CDC_CONSUMER_GROUP_ID")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 100)

	return kafka.NewKafkaClient(brokers, groupID, batchSize)
}

func newCDCClient(logger *slog.Logger, kafkaClient *kafka.KafkaClient) *debezium.CDCClient {
	topic := env.MustGetString("KAFKA_CDC_TOPIC")
	serializer := &debezium.CDCSerializer{
		IncludeTables: env.GetStrings("KAFKA_CDC_TABLES", "assets"),
		SkipSnapshots: env.GetBool("KAFKA_CDC_SKIP_SNAPSHOTS", true),
	}

	return debezium.NewCDCClient(logger, topic, kafkaClient, serializer)
}

func newCachedAssetCatalogRepository(redisClient *redis.RedisClient) *repositories.CachedAssetCatalogRepository {
	return repositories.NewCachedAssetCatalogRepository(nil, redisClient)
}

func newAssetCDCConsumer(
	logger *slog.Logger,
	cdcClient *debezium.CDCClient,
	cachedAssetCatalogRepository *repositories.CachedAssetCatalogRepository,
) *consumers.AssetCDCConsumer {
	return consumers.NewAssetCDCConsumer(logger, cdcClient, cachedAssetCatalogRepository)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	redisClient *redis.RedisClient,
	cdcConsumer *consumers.AssetCDCConsumer,
) {
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := cdcConsumer.Start(consumerCtx); err != nil {
					logger.Error("Asset CDC consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelConsumer()

			logger.Info("Shutting down asset CDC consumer...")
			if err := cdcConsumer.Close(); err != nil {
				logger.Error("Failed to close asset CDC consumer", "error", err)
				return err
			}

			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}

			return nil
		},
	})
}
