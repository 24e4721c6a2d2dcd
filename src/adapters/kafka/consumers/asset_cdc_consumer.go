package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/debezium"
)

const assetsTable = "assets"

// AssetCDCConsumer invalida o cache do catálogo a partir do CDC da tabela assets,
// para ambientes onde o catálogo não publica eventos de domínio.
type AssetCDCConsumer struct {
	logger      *slog.Logger
	cdcClient   *debezium.CDCClient
	invalidator CatalogCacheInvalidator
}

func NewAssetCDCConsumer(
	logger *slog.Logger,
	cdcClient *debezium.CDCClient,
	invalidator CatalogCacheInvalidator,
) *AssetCDCConsumer {
	return &AssetCDCConsumer{
		logger:      logger,
		cdcClient:   cdcClient,
		invalidator: invalidator,
	}
}

func (c *AssetCDCConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting asset CDC consumer")
	return c.cdcClient.ConsumeCDCEventsBatch(ctx, c.HandleCDCEvents)
}

func (c *AssetCDCConsumer) HandleCDCEvents(ctx context.Context, cdcEvents []*debezium.CDCEvent) error {
	seen := make(map[entities.AssetKey]struct{}, len(cdcEvents))
	keys := make([]entities.AssetKey, 0, len(cdcEvents))

	for _, event := range cdcEvents {
		if event.Source.Table != assetsTable {
			continue
		}

		key := entities.AssetKey{
			DatabaseID: event.StringColumn("database_id"),
			AssetID:    event.StringColumn("asset_id"),
		}
		if key.DatabaseID == "" || key.AssetID == "" {
			c.logger.Warn("Skipping CDC event without asset key",
				"operation", event.Operation,
				"ts_ms", event.TsMs)
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.invalidator.InvalidateAssets(ctx, keys); err != nil {
		return fmt.Errorf("AssetCDCConsumer.HandleCDCEvents - failed to invalidate %d assets: %w", len(keys), err)
	}

	c.logger.Info("Invalidated catalog cache from CDC", "assets", len(keys))
	return nil
}

func (c *AssetCDCConsumer) Close() error {
	return c.cdcClient.Close()
}
