package links

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

type linkCategory int

const (
	categoryRelated linkCategory = iota
	categoryParents
	categoryChildren
)

type candidate struct {
	category linkCategory
	link     entities.AssetLink
	other    entities.AssetKey
}

// ListForAsset devolve os vizinhos do asset separados por categoria. Nós que o
// chamador não pode ler ficam de fora e são contados em UnauthorizedCounts.
func (s *LinkService) ListForAsset(ctx context.Context, caller domain.Caller, key entities.AssetKey, treeView bool) (result *domain.AssetLinks, err error) {
	defer func() { s.observe("list", err) }()

	if err := requireCaller(caller, domain.ActionRead); err != nil {
		return nil, err
	}

	if !key.IsValid() {
		return nil, domain.NewValidationError(domain.RuleInvalidAssetKey, "Database ID and asset ID must be valid identifiers")
	}

	asset, err := s.catalog.Resolve(ctx, key)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return nil, fmt.Errorf("LinkService.ListForAsset - asset %s: %w", key.String(), domain.ErrAssetNotFound)
	}
	if err != nil {
		return nil, domain.StorageError("LinkService.ListForAsset", err)
	}

	access := newAccessChecker(ctx, s.authorizer, caller, domain.ActionRead)
	if !access.allowed(asset) {
		return nil, domain.NewPermissionError(domain.ActionRead, "Not authorized to read this asset")
	}

	var outgoing, incoming []entities.AssetLink

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		links, err := s.store.QueryByFrom(groupCtx, key)
		outgoing = links
		return err
	})
	group.Go(func() error {
		links, err := s.store.QueryByTo(groupCtx, key)
		incoming = links
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, domain.StorageError("LinkService.ListForAsset", err)
	}

	candidates := partition(key, outgoing, incoming, treeView)

	keys := make([]entities.AssetKey, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.other)
	}

	nodes, err := s.resolver.resolve(ctx, keys)
	if err != nil {
		return nil, err
	}

	result = &domain.AssetLinks{
		Related: []domain.LinkedAsset{},
		Parents: []domain.LinkedAsset{},
	}
	if !treeView {
		result.Children = []domain.LinkedAsset{}
	}

	for _, c := range candidates {
		node, ok := nodes[c.other]
		if !ok {
			return nil, domain.IntegrityError("LinkService.ListForAsset", "link %s points to missing asset %s", c.link.ID, c.other.String())
		}

		if !access.allowed(node) {
			switch c.category {
			case categoryRelated:
				result.UnauthorizedCounts.Related++
			case categoryParents:
				result.UnauthorizedCounts.Parents++
			case categoryChildren:
				result.UnauthorizedCounts.Children++
			}
			continue
		}

		linked := toLinkedAsset(c.link, node)
		switch c.category {
		case categoryRelated:
			result.Related = append(result.Related, linked)
		case categoryParents:
			result.Parents = append(result.Parents, linked)
		case categoryChildren:
			result.Children = append(result.Children, linked)
		}
	}

	sortLinkedAssets(result.Related)
	sortLinkedAssets(result.Parents)
	sortLinkedAssets(result.Children)

	if treeView {
		tree, err := s.trees.Build(ctx, key, access)
		if err != nil {
			return nil, err
		}

		result.ChildTree = tree.Roots
		result.TreeTruncated = tree.Truncated
		result.UnauthorizedCounts.Children = tree.Unauthorized
	}

	return result, nil
}

// partition classifica as arestas do asset. Em related a outra ponta é o
// resultado independente da direção gravada.
func partition(key entities.AssetKey, outgoing, incoming []entities.AssetLink, skipChildren bool) []candidate {
	candidates := make([]candidate, 0, len(outgoing)+len(incoming))

	for _, link := range outgoing {
		switch link.RelationshipType {
		case entities.RelationshipRelated:
			candidates = append(candidates, candidate{category: categoryRelated, link: link, other: link.Other(key)})
		case entities.RelationshipParentChild:
			if !skipChildren {
				candidates = append(candidates, candidate{category: categoryChildren, link: link, other: link.To})
			}
		}
	}

	for _, link := range incoming {
		switch link.RelationshipType {
		case entities.RelationshipRelated:
			candidates = append(candidates, candidate{category: categoryRelated, link: link, other: link.Other(key)})
		case entities.RelationshipParentChild:
			candidates = append(candidates, candidate{category: categoryParents, link: link, other: link.From})
		}
	}

	return candidates
}

func sortLinkedAssets(assets []domain.LinkedAsset) {
	slices.SortFunc(assets, func(a, b domain.LinkedAsset) int {
		return cmp.Or(
			cmp.Compare(a.DatabaseID, b.DatabaseID),
			cmp.Compare(a.AssetID, b.AssetID),
			cmp.Compare(a.AliasID, b.AliasID),
			cmp.Compare(a.LinkID, b.LinkID),
		)
	})
}
