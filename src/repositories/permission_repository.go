package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"assetgraph/src/domain"
)

// PermissionRepository carrega os grants dos papéis do chamador. É chamado
// uma vez por requisição, antes de qualquer operação do LinkService.
type PermissionRepository struct {
	readPool *pgxpool.Pool
}

func NewPermissionRepository(readPool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{readPool: readPool}
}

func (r *PermissionRepository) GrantsForRoles(ctx context.Context, roles []string) ([]domain.Grant, error) {
	grants := make([]domain.Grant, 0)
	if len(roles) == 0 {
		return grants, nil
	}

	query := `
		SELECT
			database_id,
			tags,
			actions
		FROM
			asset_permissions
		WHERE
			role = ANY($1)`

	rows, err := r.readPool.Query(ctx, query, roles)
	if err != nil {
		return nil, fmt.Errorf("PermissionRepository.GrantsForRoles - failed to query grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			grant   domain.Grant
			actions []string
		)
		if err := rows.Scan(&grant.DatabaseID, &grant.Tags, &actions); err != nil {
			return nil, fmt.Errorf("PermissionRepository.GrantsForRoles - failed to scan grant: %w", err)
		}

		grant.Actions = make([]domain.Action, len(actions))
		for i, action := range actions {
			grant.Actions[i] = domain.Action(action)
		}

		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PermissionRepository.GrantsForRoles - rows error: %w", err)
	}

	return grants, nil
}
