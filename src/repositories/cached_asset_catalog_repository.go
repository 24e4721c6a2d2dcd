package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/metrics"
	"assetgraph/src/infra/redis"
)

type AssetReader interface {
	Resolve(ctx context.Context, key entities.AssetKey) (entities.AssetNode, error)
	ResolveBatch(ctx context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error)
}

// CachedAssetCatalogRepository guarda cada asset numa chave própria e registra
// a chave no set do database, para invalidar um database inteiro de uma vez.
// Ausências não são cacheadas.
type CachedAssetCatalogRepository struct {
	assetReader AssetReader
	redisClient *redis.RedisClient
}

func NewCachedAssetCatalogRepository(
	assetReader AssetReader,
	redisClient *redis.RedisClient,
) *CachedAssetCatalogRepository {
	return &CachedAssetCatalogRepository{
		assetReader: assetReader,
		redisClient: redisClient,
	}
}

func assetCacheKey(key entities.AssetKey) string {
	return fmt.Sprintf("asset:node:%s", key.String())
}

func databaseRegistryKey(databaseID string) string {
	return fmt.Sprintf("registry:database:%s", databaseID)
}

func (r *CachedAssetCatalogRepository) Resolve(ctx context.Context, key entities.AssetKey) (entities.AssetNode, error) {
	if r.redisClient == nil {
		return r.assetReader.Resolve(ctx, key)
	}

	cacheKey := assetCacheKey(key)

	cachedJSON, found, err := r.redisClient.GetKey(ctx, cacheKey)
	if err != nil {
		// erro de cache nunca derruba a leitura
		log.Printf("Cache error for key %s: %v", cacheKey, err)
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
	}

	if found && err == nil {
		var node entities.AssetNode
		if err := json.Unmarshal([]byte(cachedJSON), &node); err == nil {
			metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
			return node, nil
		}
		log.Printf("Failed to unmarshal cached asset for key %s", cacheKey)
	}

	metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()

	node, err := r.assetReader.Resolve(ctx, key)
	if err != nil {
		return entities.AssetNode{}, err
	}

	r.setInCacheAsync([]entities.AssetNode{node})

	return node, nil
}

func (r *CachedAssetCatalogRepository) ResolveBatch(ctx context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error) {
	if r.redisClient == nil || len(keys) == 0 {
		return r.assetReader.ResolveBatch(ctx, keys)
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = assetCacheKey(key)
	}

	cached, err := r.redisClient.GetMultiple(ctx, cacheKeys)
	if err != nil {
		log.Printf("Cache error for batch of %d assets: %v", len(keys), err)
		metrics.CatalogCacheLookups.WithLabelValues("error").Add(float64(len(keys)))
		cached = map[string]string{}
	}

	nodes := make(map[entities.AssetKey]entities.AssetNode, len(keys))
	misses := make([]entities.AssetKey, 0, len(keys))

	for i, key := range keys {
		cachedJSON, ok := cached[cacheKeys[i]]
		if !ok {
			misses = append(misses, key)
			continue
		}

		var node entities.AssetNode
		if err := json.Unmarshal([]byte(cachedJSON), &node); err != nil {
			misses = append(misses, key)
			continue
		}
		nodes[key] = node
	}

	metrics.CatalogCacheLookups.WithLabelValues("hit").Add(float64(len(nodes)))
	metrics.CatalogCacheLookups.WithLabelValues("miss").Add(float64(len(misses)))

	if len(misses) == 0 {
		return nodes, nil
	}

	resolved, err := r.assetReader.ResolveBatch(ctx, misses)
	if err != nil {
		return nil, err
	}

	toCache := make([]entities.AssetNode, 0, len(resolved))
	for key, node := range resolved {
		nodes[key] = node
		toCache = append(toCache, node)
	}

	r.setInCacheAsync(toCache)

	return nodes, nil
}

func (r *CachedAssetCatalogRepository) setInCacheAsync(nodes []entities.AssetNode) {
	if len(nodes) == 0 {
		return
	}

	go func() {
		// Timeout de 30 segundos para operação de cache
		ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		r.setInCache(ctxWithTimeout, nodes)
	}()
}

func (r *CachedAssetCatalogRepository) setInCache(ctx context.Context, nodes []entities.AssetNode) {
	keyValues := make(map[string]string, len(nodes))
	registryKeys := make(map[string][]string)

	for _, node := range nodes {
		dataJSON, err := json.Marshal(node)
		if err != nil {
			log.Printf("Failed to marshal asset %s for cache: %v", node.Key().String(), err)
			continue
		}

		cacheKey := assetCacheKey(node.Key())
		keyValues[cacheKey] = string(dataJSON)

		registryKey := databaseRegistryKey(node.DatabaseID)
		registryKeys[registryKey] = append(registryKeys[registryKey], cacheKey)
	}

	if err := r.redisClient.SetWithRegistry(ctx, keyValues, registryKeys); err != nil {
		log.Printf("Failed to set %d assets in cache: %v", len(keyValues), err)
		return
	}

	log.Printf("Cache SET with registry for %d assets", len(keyValues))
}

func (r *CachedAssetCatalogRepository) InvalidateAssets(ctx context.Context, keys []entities.AssetKey) error {
	if r.redisClient == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = assetCacheKey(key)
	}

	log.Printf("Invalidating %d asset cache keys", len(cacheKeys))
	return r.redisClient.InvalidateKeys(ctx, cacheKeys)
}

// InvalidateDatabases apaga todos os assets cacheados dos databases e os próprios registries.
func (r *CachedAssetCatalogRepository) InvalidateDatabases(ctx context.Context, databaseIDs []string) error {
	if r.redisClient == nil || len(databaseIDs) == 0 {
		return nil
	}

	registryKeys := make([]string, len(databaseIDs))
	for i, databaseID := range databaseIDs {
		registryKeys[i] = databaseRegistryKey(databaseID)
	}

	registryResults, err := r.redisClient.GetMultipleSetMembers(ctx, registryKeys)
	if err != nil {
		return fmt.Errorf("CachedAssetCatalogRepository.InvalidateDatabases - failed to get registry data: %w", err)
	}

	allKeysToDelete := make(map[string]bool)
	for registryKey, relatedKeys := range registryResults {
		allKeysToDelete[registryKey] = true
		for _, relatedKey := range relatedKeys {
			allKeysToDelete[relatedKey] = true
		}
	}

	keysToDelete := make([]string, 0, len(allKeysToDelete))
	for key := range allKeysToDelete {
		keysToDelete = append(keysToDelete, key)
	}

	log.Printf("Invalidating %d cache keys for %d databases", len(keysToDelete), len(databaseIDs))
	return r.redisClient.InvalidateKeys(ctx, keysToDelete)
}
