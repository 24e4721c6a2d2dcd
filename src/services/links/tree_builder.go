package links

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/metrics"
)

// TreeBuilder monta a árvore de filhos de um asset. Diferente do CycleDetector,
// cada alias é um ramo próprio e o visited é só a cadeia de ancestrais do ramo,
// então um mesmo asset pode aparecer em ramos irmãos (diamante).
type TreeBuilder struct {
	logger   *slog.Logger
	store    LinkStore
	resolver *nodeResolver
	maxDepth int
	maxNodes int
}

func NewTreeBuilder(logger *slog.Logger, store LinkStore, resolver *nodeResolver, maxDepth int, maxNodes int) *TreeBuilder {
	return &TreeBuilder{
		logger:   logger,
		store:    store,
		resolver: resolver,
		maxDepth: maxDepth,
		maxNodes: maxNodes,
	}
}

type ChildTree struct {
	Roots        []*domain.AssetTreeNode
	Unauthorized int
	Truncated    bool
}

type ancestorChain struct {
	key    entities.AssetKey
	parent *ancestorChain
}

func (c *ancestorChain) contains(key entities.AssetKey) bool {
	for current := c; current != nil; current = current.parent {
		if current.key == key {
			return true
		}
	}
	return false
}

type treeFrame struct {
	key       entities.AssetKey
	depth     int
	ancestors *ancestorChain
	// owner recebe os filhos deste frame; nil no frame raiz.
	owner *domain.AssetTreeNode
}

func (b *TreeBuilder) Build(ctx context.Context, root entities.AssetKey, access *accessChecker) (*ChildTree, error) {
	result := &ChildTree{Roots: []*domain.AssetTreeNode{}}
	nodeCount := 0

	stack := []treeFrame{{key: root, ancestors: &ancestorChain{key: root}}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, domain.StorageError("TreeBuilder.Build", err)
		}

		children, err := b.childLinks(ctx, frame.key)
		if err != nil {
			return nil, err
		}

		keys := make([]entities.AssetKey, 0, len(children))
		for _, link := range children {
			keys = append(keys, link.To)
		}

		nodes, err := b.resolver.resolve(ctx, keys)
		if err != nil {
			return nil, err
		}

		siblings := make([]*domain.AssetTreeNode, 0, len(children))
		var pending []treeFrame

		for _, link := range children {
			if frame.ancestors.contains(link.To) {
				b.logger.Error("Parent-child cycle found while building tree, skipping branch",
					"root", root.String(),
					"link_id", link.ID,
					"asset", link.To.String())
				continue
			}

			node, ok := nodes[link.To]
			if !ok {
				return nil, domain.IntegrityError("TreeBuilder.Build", "link %s points to missing asset %s", link.ID, link.To.String())
			}

			if !access.allowed(node) {
				result.Unauthorized++
				continue
			}

			if nodeCount >= b.maxNodes {
				b.markTruncated(frame.owner, result)
				break
			}
			nodeCount++

			child := &domain.AssetTreeNode{
				LinkedAsset: toLinkedAsset(link, node),
				Children:    []*domain.AssetTreeNode{},
			}
			siblings = append(siblings, child)

			if frame.depth+1 < b.maxDepth {
				pending = append(pending, treeFrame{
					key:       link.To,
					depth:     frame.depth + 1,
					ancestors: &ancestorChain{key: link.To, parent: frame.ancestors},
					owner:     child,
				})
				continue
			}

			hasChildren, err := b.hasVisibleChildren(ctx, link.To, &ancestorChain{key: link.To, parent: frame.ancestors}, access)
			if err != nil {
				return nil, err
			}
			if hasChildren {
				b.markTruncated(child, result)
			}
		}

		if frame.owner == nil {
			result.Roots = siblings
		} else {
			frame.owner.Children = siblings
		}

		// empilha ao contrário para expandir na ordem em que os irmãos aparecem
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}

	metrics.TreeNodes.Observe(float64(nodeCount))

	return result, nil
}

func (b *TreeBuilder) markTruncated(node *domain.AssetTreeNode, result *ChildTree) {
	if node != nil {
		node.Truncated = true
	}
	result.Truncated = true
}

// childLinks devolve as arestas parentChild que saem de key em ordem estável.
func (b *TreeBuilder) childLinks(ctx context.Context, key entities.AssetKey) ([]entities.AssetLink, error) {
	outgoing, err := b.store.QueryByFrom(ctx, key)
	if err != nil {
		return nil, domain.StorageError("TreeBuilder.childLinks", err)
	}

	children := make([]entities.AssetLink, 0, len(outgoing))
	for _, link := range outgoing {
		if link.RelationshipType == entities.RelationshipParentChild {
			children = append(children, link)
		}
	}

	slices.SortFunc(children, func(a, b entities.AssetLink) int {
		return cmp.Or(
			cmp.Compare(a.To.String(), b.To.String()),
			cmp.Compare(a.AliasID, b.AliasID),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return children, nil
}

// hasVisibleChildren decide o truncated no limite de profundidade: só conta
// filhos que seriam renderizados, ou seja, legíveis e fora da cadeia de
// ancestrais. Filhos ilegíveis abaixo do corte não entram em Unauthorized,
// já que o nível deles não é percorrido.
func (b *TreeBuilder) hasVisibleChildren(ctx context.Context, key entities.AssetKey, ancestors *ancestorChain, access *accessChecker) (bool, error) {
	children, err := b.childLinks(ctx, key)
	if err != nil {
		return false, err
	}

	keys := make([]entities.AssetKey, 0, len(children))
	for _, link := range children {
		if !ancestors.contains(link.To) {
			keys = append(keys, link.To)
		}
	}
	if len(keys) == 0 {
		return false, nil
	}

	nodes, err := b.resolver.resolve(ctx, keys)
	if err != nil {
		return false, err
	}

	for _, key := range keys {
		if node, ok := nodes[key]; ok && access.allowed(node) {
			return true, nil
		}
	}
	return false, nil
}

func toLinkedAsset(link entities.AssetLink, node entities.AssetNode) domain.LinkedAsset {
	return domain.LinkedAsset{
		LinkID:     link.ID,
		AssetID:    node.AssetID,
		AssetName:  node.Name,
		DatabaseID: node.DatabaseID,
		AliasID:    link.AliasID,
	}
}
