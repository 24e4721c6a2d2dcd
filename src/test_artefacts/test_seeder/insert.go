package test_seeder

import (
	"context"
	"fmt"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// InsertAsset inserts a catalog asset for testing
func (ts TestSeeder) InsertAsset(ctx context.Context, node entities.AssetNode) {
	query := `
		INSERT INTO assets (database_id, asset_id, name, type, tags)
		VALUES ($1, $2, $3, $4, $5)`

	tags := node.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := ts.pool.Exec(ctx, query, node.DatabaseID, node.AssetID, node.Name, node.Type, tags)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertAsset failed: %v", err))
	}
}

// InsertMetadata inserts one metadata row for a link
func (ts TestSeeder) InsertMetadata(ctx context.Context, metadata entities.AssetLinkMetadata) {
	query := `
		INSERT INTO asset_link_metadata (link_id, metadata_key, value, value_type)
		VALUES ($1, $2, $3, $4)`

	_, err := ts.pool.Exec(ctx, query, metadata.LinkID, metadata.Key, metadata.Value, string(metadata.ValueType))
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertMetadata failed: %v", err))
	}
}

// InsertGrant inserts a role permission row
func (ts TestSeeder) InsertGrant(ctx context.Context, role string, grant domain.Grant) {
	actions := make([]string, len(grant.Actions))
	for i, action := range grant.Actions {
		actions[i] = string(action)
	}

	tags := grant.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO asset_permissions (role, database_id, tags, actions)
		VALUES ($1, $2, $3, $4)`

	_, err := ts.pool.Exec(ctx, query, role, grant.DatabaseID, tags, actions)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertGrant failed: %v", err))
	}
}
