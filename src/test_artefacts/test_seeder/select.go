package test_seeder

import (
	"context"

	"assetgraph/src/domain/entities"
)

func (ts TestSeeder) CountLinks(ctx context.Context) int {
	var count int
	if err := ts.pool.QueryRow(ctx, `SELECT COUNT(*) FROM asset_links`).Scan(&count); err != nil {
		panic(err)
	}
	return count
}

func (ts TestSeeder) CountMetadata(ctx context.Context, linkID string) int {
	var count int
	err := ts.pool.QueryRow(ctx, `SELECT COUNT(*) FROM asset_link_metadata WHERE link_id = $1`, linkID).Scan(&count)
	if err != nil {
		panic(err)
	}
	return count
}

// SelectUniquenessKey returns the stored conditional-write key of a link
func (ts TestSeeder) SelectUniquenessKey(ctx context.Context, linkID string) (string, error) {
	var key string
	err := ts.pool.QueryRow(ctx, `SELECT uniqueness_key FROM asset_links WHERE id = $1`, linkID).Scan(&key)
	return key, err
}

// SelectMetadata returns the metadata rows of a link ordered by key
func (ts TestSeeder) SelectMetadata(ctx context.Context, linkID string) []entities.AssetLinkMetadata {
	rows, err := ts.pool.Query(ctx, `
		SELECT link_id, metadata_key, value, value_type
		FROM asset_link_metadata
		WHERE link_id = $1
		ORDER BY metadata_key`, linkID)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	metadata := make([]entities.AssetLinkMetadata, 0)
	for rows.Next() {
		var (
			item      entities.AssetLinkMetadata
			valueType string
		)
		if err := rows.Scan(&item.LinkID, &item.Key, &item.Value, &valueType); err != nil {
			panic(err)
		}
		item.ValueType = entities.MetadataValueType(valueType)
		metadata = append(metadata, item)
	}
	if err := rows.Err(); err != nil {
		panic(err)
	}

	return metadata
}
