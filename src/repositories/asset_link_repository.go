package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/postgres"
)

const assetLinkColumns = `
	id,
	from_database_id,
	from_asset_id,
	to_database_id,
	to_asset_id,
	relationship_type,
	alias_id,
	tags,
	created_at,
	updated_at`

// AssetLinkRepository é o LinkStore em Postgres. Usa o pool do primário: a
// validação precisa enxergar as arestas que acabaram de ser gravadas.
type AssetLinkRepository struct {
	writePool *pgxpool.Pool
}

func NewAssetLinkRepository(writePool *pgxpool.Pool) *AssetLinkRepository {
	return &AssetLinkRepository{writePool: writePool}
}

func (r *AssetLinkRepository) Get(ctx context.Context, linkID string) (entities.AssetLink, error) {
	query := `SELECT ` + assetLinkColumns + ` FROM asset_links WHERE id = $1`

	link, err := scanAssetLink(r.writePool.QueryRow(ctx, query, linkID))
	if postgres.IsNoRows(err) {
		return entities.AssetLink{}, domain.ErrLinkNotFound
	}
	if err != nil {
		return entities.AssetLink{}, fmt.Errorf("AssetLinkRepository.Get - failed to get link %s: %w", linkID, err)
	}

	return link, nil
}

func (r *AssetLinkRepository) QueryByFrom(ctx context.Context, from entities.AssetKey) ([]entities.AssetLink, error) {
	query := `SELECT ` + assetLinkColumns + ` FROM asset_links WHERE from_key = $1`

	links, err := r.queryLinks(ctx, query, from.String())
	if err != nil {
		return nil, fmt.Errorf("AssetLinkRepository.QueryByFrom - failed to query links from %s: %w", from.String(), err)
	}
	return links, nil
}

func (r *AssetLinkRepository) QueryByTo(ctx context.Context, to entities.AssetKey) ([]entities.AssetLink, error) {
	query := `SELECT ` + assetLinkColumns + ` FROM asset_links WHERE to_key = $1`

	links, err := r.queryLinks(ctx, query, to.String())
	if err != nil {
		return nil, fmt.Errorf("AssetLinkRepository.QueryByTo - failed to query links to %s: %w", to.String(), err)
	}
	return links, nil
}

func (r *AssetLinkRepository) QueryByFromAndTo(
	ctx context.Context,
	from, to entities.AssetKey,
	relationshipType entities.RelationshipType,
) ([]entities.AssetLink, error) {
	query := `
		SELECT ` + assetLinkColumns + `
		FROM
			asset_links
		WHERE
			from_key = $1
			AND to_key = $2
			AND relationship_type = $3`

	links, err := r.queryLinks(ctx, query, from.String(), to.String(), string(relationshipType))
	if err != nil {
		return nil, fmt.Errorf("AssetLinkRepository.QueryByFromAndTo - failed to query links %s -> %s: %w", from.String(), to.String(), err)
	}
	return links, nil
}

// Put só grava se nenhuma aresta tiver a mesma uniqueness_key. Quem perde a
// corrida recebe domain.ErrLinkConflict.
func (r *AssetLinkRepository) Put(ctx context.Context, link entities.AssetLink) error {
	query := `
		INSERT INTO asset_links (
			id, from_database_id, from_asset_id, to_database_id, to_asset_id,
			relationship_type, alias_id, tags, uniqueness_key, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (uniqueness_key) DO NOTHING`

	tag, err := r.writePool.Exec(ctx, query,
		link.ID,
		link.From.DatabaseID,
		link.From.AssetID,
		link.To.DatabaseID,
		link.To.AssetID,
		string(link.RelationshipType),
		postgres.NewNullString(link.AliasID),
		nonNilTags(link.Tags),
		link.UniquenessKey(),
		link.CreatedAt,
		link.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("AssetLinkRepository.Put - link %s: %w", link.ID, domain.ErrLinkConflict)
	}
	if err != nil {
		return fmt.Errorf("AssetLinkRepository.Put - failed to insert link %s: %w", link.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("AssetLinkRepository.Put - link %s: %w", link.ID, domain.ErrLinkConflict)
	}

	return nil
}

// Update só altera os campos mutáveis. Trocar o alias muda a uniqueness_key.
func (r *AssetLinkRepository) Update(ctx context.Context, link entities.AssetLink) error {
	query := `
		UPDATE asset_links
		SET
			alias_id = $2,
			tags = $3,
			uniqueness_key = $4,
			updated_at = $5
		WHERE
			id = $1`

	tag, err := r.writePool.Exec(ctx, query,
		link.ID,
		postgres.NewNullString(link.AliasID),
		nonNilTags(link.Tags),
		link.UniquenessKey(),
		link.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("AssetLinkRepository.Update - link %s: %w", link.ID, domain.ErrLinkConflict)
	}
	if err != nil {
		return fmt.Errorf("AssetLinkRepository.Update - failed to update link %s: %w", link.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

func (r *AssetLinkRepository) Delete(ctx context.Context, linkID string) error {
	tag, err := r.writePool.Exec(ctx, `DELETE FROM asset_links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("AssetLinkRepository.Delete - failed to delete link %s: %w", linkID, err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

func (r *AssetLinkRepository) queryLinks(ctx context.Context, query string, args ...any) ([]entities.AssetLink, error) {
	rows, err := r.writePool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]entities.AssetLink, 0)
	for rows.Next() {
		link, err := scanAssetLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func scanAssetLink(row pgx.Row) (entities.AssetLink, error) {
	var (
		link             entities.AssetLink
		relationshipType string
		aliasID          pgtype.Text
	)

	err := row.Scan(
		&link.ID,
		&link.From.DatabaseID,
		&link.From.AssetID,
		&link.To.DatabaseID,
		&link.To.AssetID,
		&relationshipType,
		&aliasID,
		&link.Tags,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return entities.AssetLink{}, err
	}

	link.RelationshipType = entities.RelationshipType(relationshipType)
	if aliasID.Status == pgtype.Present {
		link.AliasID = aliasID.String
	}

	return link, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
