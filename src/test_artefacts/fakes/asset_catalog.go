package fakes

import (
	"context"
	"sync"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

type AssetCatalog struct {
	mu    sync.Mutex
	nodes map[entities.AssetKey]entities.AssetNode

	ResolveErr error
	BatchErr   error

	ResolveCalls int
	BatchSizes   []int
}

func NewAssetCatalog(nodes ...entities.AssetNode) *AssetCatalog {
	catalog := &AssetCatalog{nodes: make(map[entities.AssetKey]entities.AssetNode)}
	catalog.Add(nodes...)
	return catalog
}

func (c *AssetCatalog) Add(nodes ...entities.AssetNode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range nodes {
		c.nodes[node.Key()] = node
	}
}

func (c *AssetCatalog) Remove(key entities.AssetKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodes, key)
}

func (c *AssetCatalog) Resolve(_ context.Context, key entities.AssetKey) (entities.AssetNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ResolveCalls++
	if c.ResolveErr != nil {
		return entities.AssetNode{}, c.ResolveErr
	}

	node, ok := c.nodes[key]
	if !ok {
		return entities.AssetNode{}, domain.ErrAssetNotFound
	}
	return node, nil
}

func (c *AssetCatalog) ResolveBatch(_ context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.BatchSizes = append(c.BatchSizes, len(keys))
	if c.BatchErr != nil {
		return nil, c.BatchErr
	}

	result := make(map[entities.AssetKey]entities.AssetNode, len(keys))
	for _, key := range keys {
		if node, ok := c.nodes[key]; ok {
			result[key] = node
		}
	}
	return result, nil
}

func (c *AssetCatalog) Stats() (resolveCalls int, batchSizes []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ResolveCalls, append([]int(nil), c.BatchSizes...)
}
