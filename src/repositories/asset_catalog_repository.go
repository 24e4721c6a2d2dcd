package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/postgres"
)

// AssetCatalogRepository lê os assets da réplica.
type AssetCatalogRepository struct {
	readPool *pgxpool.Pool
}

func NewAssetCatalogRepository(readPool *pgxpool.Pool) *AssetCatalogRepository {
	return &AssetCatalogRepository{readPool: readPool}
}

func (r *AssetCatalogRepository) Resolve(ctx context.Context, key entities.AssetKey) (entities.AssetNode, error) {
	query := `
		SELECT
			database_id,
			asset_id,
			name,
			type,
			tags
		FROM
			assets
		WHERE
			database_id = $1
			AND asset_id = $2`

	node, err := scanAssetNode(r.readPool.QueryRow(ctx, query, key.DatabaseID, key.AssetID))
	if postgres.IsNoRows(err) {
		return entities.AssetNode{}, domain.ErrAssetNotFound
	}
	if err != nil {
		return entities.AssetNode{}, fmt.Errorf("AssetCatalogRepository.Resolve - failed to get asset %s: %w", key.String(), err)
	}

	return node, nil
}

// ResolveBatch resolve todas as chaves numa única query. Chaves sem asset
// simplesmente não aparecem no mapa.
func (r *AssetCatalogRepository) ResolveBatch(ctx context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error) {
	nodes := make(map[entities.AssetKey]entities.AssetNode, len(keys))
	if len(keys) == 0 {
		return nodes, nil
	}

	databaseIDs := make([]string, len(keys))
	assetIDs := make([]string, len(keys))
	for i, key := range keys {
		databaseIDs[i] = key.DatabaseID
		assetIDs[i] = key.AssetID
	}

	query := `
		SELECT
			a.database_id,
			a.asset_id,
			a.name,
			a.type,
			a.tags
		FROM
			unnest($1::text[], $2::text[]) AS k(database_id, asset_id)
		JOIN
			assets a ON a.database_id = k.database_id AND a.asset_id = k.asset_id`

	rows, err := r.readPool.Query(ctx, query, databaseIDs, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("AssetCatalogRepository.ResolveBatch - failed to query %d assets: %w", len(keys), err)
	}
	defer rows.Close()

	for rows.Next() {
		node, err := scanAssetNode(rows)
		if err != nil {
			return nil, fmt.Errorf("AssetCatalogRepository.ResolveBatch - failed to scan asset: %w", err)
		}
		nodes[node.Key()] = node
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AssetCatalogRepository.ResolveBatch - rows error: %w", err)
	}

	return nodes, nil
}

func scanAssetNode(row pgx.Row) (entities.AssetNode, error) {
	var node entities.AssetNode
	err := row.Scan(&node.DatabaseID, &node.AssetID, &node.Name, &node.Type, &node.Tags)
	return node, err
}
