package links

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/metrics"
)

// nodeResolver busca os atributos de exibição das pontas em lotes, evitando
// uma consulta por aresta.
type nodeResolver struct {
	logger      *slog.Logger
	catalog     AssetCatalog
	batchSize   int
	concurrency int
}

func newNodeResolver(logger *slog.Logger, catalog AssetCatalog, batchSize int, concurrency int) *nodeResolver {
	return &nodeResolver{
		logger:      logger,
		catalog:     catalog,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// resolve devolve os nós encontrados. Chaves inexistentes ficam fora do mapa;
// quem chama decide se isso é um erro de integridade.
func (r *nodeResolver) resolve(ctx context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error) {
	unique := dedupeKeys(keys)
	nodes := make(map[entities.AssetKey]entities.AssetNode, len(unique))
	if len(unique) == 0 {
		return nodes, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)

	for start := 0; start < len(unique); start += r.batchSize {
		end := min(start+r.batchSize, len(unique))
		batch := unique[start:end]

		group.Go(func() error {
			resolved, err := r.resolveBatch(groupCtx, batch)
			if err != nil {
				return err
			}

			mu.Lock()
			for key, node := range resolved {
				nodes[key] = node
			}
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return nodes, nil
}

// resolveBatch cai para busca item a item só no lote que falhou.
func (r *nodeResolver) resolveBatch(ctx context.Context, batch []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error) {
	resolved, err := r.catalog.ResolveBatch(ctx, batch)
	if err == nil {
		return resolved, nil
	}

	if ctx.Err() != nil {
		return nil, domain.StorageError("nodeResolver.resolveBatch", ctx.Err())
	}

	metrics.CatalogBatchFallbacks.Inc()
	r.logger.Warn("Catalog batch lookup failed, falling back to single lookups",
		"batch_size", len(batch),
		"error", err)

	resolved = make(map[entities.AssetKey]entities.AssetNode, len(batch))
	for _, key := range batch {
		node, err := r.catalog.Resolve(ctx, key)
		if errors.Is(err, domain.ErrAssetNotFound) {
			continue
		}
		if err != nil {
			return nil, domain.StorageError("nodeResolver.resolveBatch", err)
		}
		resolved[key] = node
	}

	return resolved, nil
}

func dedupeKeys(keys []entities.AssetKey) []entities.AssetKey {
	seen := make(map[entities.AssetKey]struct{}, len(keys))
	unique := make([]entities.AssetKey, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	return unique
}
