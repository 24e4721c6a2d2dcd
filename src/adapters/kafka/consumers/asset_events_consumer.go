package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/kafka"
)

const (
	assetEventCreated    = "asset.created"
	assetEventUpdated    = "asset.updated"
	assetEventDeleted    = "asset.deleted"
	databaseEventDeleted = "database.deleted"
	databaseEventUpdated = "database.updated"
)

// KafkaAssetMessage representa o schema da mensagem de alteração de asset publicada pelo catálogo
type KafkaAssetMessage struct {
	EventType  string `json:"event_type"`
	DatabaseID string `json:"database_id"`
	AssetID    string `json:"asset_id"`
}

type CatalogCacheInvalidator interface {
	InvalidateAssets(ctx context.Context, keys []entities.AssetKey) error
	InvalidateDatabases(ctx context.Context, databaseIDs []string) error
}

// AssetEventsConsumer mantém o cache do catálogo coerente com as alterações de
// asset. Nome e tags do asset entram nas respostas de listagem e na autorização.
type AssetEventsConsumer struct {
	logger      *slog.Logger
	invalidator CatalogCacheInvalidator
}

func NewAssetEventsConsumer(
	logger *slog.Logger,
	invalidator CatalogCacheInvalidator,
) *AssetEventsConsumer {
	return &AssetEventsConsumer{
		logger:      logger,
		invalidator: invalidator,
	}
}

func (c *AssetEventsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting asset events consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.handleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

func (c *AssetEventsConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing messages batch", "count", len(messages))

	assetKeys := make(map[entities.AssetKey]struct{})
	databaseIDs := make(map[string]struct{})

	for _, msg := range messages {
		var assetMessage KafkaAssetMessage
		if err := json.Unmarshal(msg.Value, &assetMessage); err != nil {
			// mensagem inválida nunca vai passar, não trava a partição
			c.logger.Error("Failed to unmarshal message, skipping",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			continue
		}

		if assetMessage.EventType == "" {
			assetMessage.EventType = msg.Headers["event_type"]
		}

		switch assetMessage.EventType {
		case assetEventCreated, assetEventUpdated, assetEventDeleted:
			if assetMessage.DatabaseID == "" || assetMessage.AssetID == "" {
				c.logger.Warn("Skipping asset event with missing fields",
					"key", msg.Key,
					"event_type", assetMessage.EventType)
				continue
			}
			assetKeys[entities.AssetKey{DatabaseID: assetMessage.DatabaseID, AssetID: assetMessage.AssetID}] = struct{}{}

		case databaseEventUpdated, databaseEventDeleted:
			if assetMessage.DatabaseID == "" {
				c.logger.Warn("Skipping database event without database id", "key", msg.Key)
				continue
			}
			databaseIDs[assetMessage.DatabaseID] = struct{}{}

		default:
			c.logger.Debug("Ignoring event", "key", msg.Key, "event_type", assetMessage.EventType)
		}
	}

	if len(assetKeys) > 0 {
		keys := make([]entities.AssetKey, 0, len(assetKeys))
		for key := range assetKeys {
			keys = append(keys, key)
		}

		if err := c.invalidator.InvalidateAssets(ctx, keys); err != nil {
			return fmt.Errorf("AssetEventsConsumer.handleMessages - failed to invalidate %d assets: %w", len(keys), err)
		}
	}

	if len(databaseIDs) > 0 {
		ids := make([]string, 0, len(databaseIDs))
		for id := range databaseIDs {
			ids = append(ids, id)
		}

		if err := c.invalidator.InvalidateDatabases(ctx, ids); err != nil {
			return fmt.Errorf("AssetEventsConsumer.handleMessages - failed to invalidate %d databases: %w", len(ids), err)
		}
	}

	c.logger.Info("Successfully invalidated catalog cache",
		"assets", len(assetKeys),
		"databases", len(databaseIDs))

	return nil
}
