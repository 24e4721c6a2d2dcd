package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LinkMetadataRepository struct {
	writePool *pgxpool.Pool
}

func NewLinkMetadataRepository(writePool *pgxpool.Pool) *LinkMetadataRepository {
	return &LinkMetadataRepository{writePool: writePool}
}

func (r *LinkMetadataRepository) DeleteAll(ctx context.Context, linkID string) error {
	_, err := r.writePool.Exec(ctx, `DELETE FROM asset_link_metadata WHERE link_id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("LinkMetadataRepository.DeleteAll - failed to delete metadata of link %s: %w", linkID, err)
	}
	return nil
}
