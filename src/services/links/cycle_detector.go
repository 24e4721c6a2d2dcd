package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/metrics"
)

var errVisitBudgetExceeded = errors.New("cycle check visit budget exceeded")

// CycleDetector responde: se a aresta from->to for criada, já existe um caminho
// to ~> from pelas arestas parentChild (todos os aliases fundidos)?
type CycleDetector struct {
	logger    *slog.Logger
	store     LinkStore
	maxVisits int
	timeout   time.Duration
}

func NewCycleDetector(logger *slog.Logger, store LinkStore, maxVisits int, timeout time.Duration) *CycleDetector {
	return &CycleDetector{
		logger:    logger,
		store:     store,
		maxVisits: maxVisits,
		timeout:   timeout,
	}
}

// Check devolve nil quando a aresta é segura. Qualquer falha durante a busca
// (erro do store, timeout, orçamento de visitas) rejeita a aresta como ciclo.
func (d *CycleDetector) Check(ctx context.Context, from, to entities.AssetKey) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	found, visited, err := d.pathExists(ctx, to, from)

	metrics.CycleCheckDuration.Observe(time.Since(start).Seconds())
	metrics.CycleCheckVisitedNodes.Observe(float64(visited))

	if err != nil {
		d.logger.Warn("Cycle check could not complete, rejecting link",
			"from", from.String(),
			"to", to.String(),
			"visited", visited,
			"error", err)

		return domain.NewValidationError(domain.RuleCycle, "Could not verify that this parent-child relationship does not create a cycle").WithCause(err)
	}

	if found {
		return domain.NewValidationError(domain.RuleCycle, "Creating this parent-child relationship would create a cycle")
	}

	return nil
}

// pathExists é uma DFS com pilha explícita e visited global: um nó já expandido
// sem achar o alvo não vai achá-lo numa segunda visita.
func (d *CycleDetector) pathExists(ctx context.Context, start, target entities.AssetKey) (bool, int, error) {
	if start == target {
		return true, 0, nil
	}

	visited := map[entities.AssetKey]struct{}{start: {}}
	stack := []entities.AssetKey{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(visited) > d.maxVisits {
			return false, len(visited), fmt.Errorf("%w (%d)", errVisitBudgetExceeded, d.maxVisits)
		}

		if err := ctx.Err(); err != nil {
			return false, len(visited), err
		}

		outgoing, err := d.store.QueryByFrom(ctx, current)
		if err != nil {
			return false, len(visited), fmt.Errorf("failed to expand %s: %w", current.String(), err)
		}

		for _, link := range outgoing {
			if link.RelationshipType != entities.RelationshipParentChild {
				continue
			}

			if link.To == target {
				return true, len(visited), nil
			}

			if _, seen := visited[link.To]; seen {
				continue
			}

			visited[link.To] = struct{}{}
			stack = append(stack, link.To)
		}
	}

	return false, len(visited), nil
}
