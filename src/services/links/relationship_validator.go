package links

import (
	"context"
	"errors"
	"fmt"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// RelationshipValidator faz as checagens anteriores à escrita de uma aresta.
type RelationshipValidator struct {
	store   LinkStore
	catalog AssetCatalog
}

func NewRelationshipValidator(store LinkStore, catalog AssetCatalog) *RelationshipValidator {
	return &RelationshipValidator{store: store, catalog: catalog}
}

func (v *RelationshipValidator) CheckSelfLink(from, to entities.AssetKey) error {
	if from == to {
		return domain.NewValidationError(domain.RuleSelfLink, "Cannot create asset link to the same asset")
	}
	return nil
}

// AssetsExist resolve as duas pontas no catálogo e devolve os nós para a checagem de permissão.
func (v *RelationshipValidator) AssetsExist(ctx context.Context, from, to entities.AssetKey) (entities.AssetNode, entities.AssetNode, error) {
	fromNode, err := v.resolve(ctx, from)
	if err != nil {
		return entities.AssetNode{}, entities.AssetNode{}, err
	}

	toNode, err := v.resolve(ctx, to)
	if err != nil {
		return entities.AssetNode{}, entities.AssetNode{}, err
	}

	return fromNode, toNode, nil
}

func (v *RelationshipValidator) resolve(ctx context.Context, key entities.AssetKey) (entities.AssetNode, error) {
	node, err := v.catalog.Resolve(ctx, key)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return entities.AssetNode{}, domain.NewValidationError(domain.RuleAssetNotFound, "One or both assets do not exist")
	}
	if err != nil {
		return entities.AssetNode{}, domain.StorageError("RelationshipValidator.AssetsExist", err)
	}
	return node, nil
}

// ConflictExists aplica as regras de unicidade. excludeLinkID permite que um
// update não conflite com o próprio registro.
func (v *RelationshipValidator) ConflictExists(
	ctx context.Context,
	from, to entities.AssetKey,
	relationshipType entities.RelationshipType,
	aliasID string,
	excludeLinkID string,
) error {
	switch relationshipType {
	case entities.RelationshipRelated:
		return v.relatedConflict(ctx, from, to, excludeLinkID)
	case entities.RelationshipParentChild:
		return v.parentChildConflict(ctx, from, to, aliasID, excludeLinkID)
	default:
		return domain.NewValidationError(domain.RuleInvalidRelationshipType, fmt.Sprintf("Relationship type %s isn't supported", relationshipType))
	}
}

// related é não direcionado: a aresta pode estar gravada em qualquer sentido.
func (v *RelationshipValidator) relatedConflict(ctx context.Context, from, to entities.AssetKey, excludeLinkID string) error {
	for _, pair := range [][2]entities.AssetKey{{from, to}, {to, from}} {
		existing, err := v.store.QueryByFromAndTo(ctx, pair[0], pair[1], entities.RelationshipRelated)
		if err != nil {
			return domain.StorageError("RelationshipValidator.ConflictExists", err)
		}

		if len(without(existing, excludeLinkID)) > 0 {
			return domain.NewValidationError(domain.RuleDuplicateRelated, "A relationship already exists between these assets")
		}
	}

	return nil
}

func (v *RelationshipValidator) parentChildConflict(ctx context.Context, from, to entities.AssetKey, aliasID string, excludeLinkID string) error {
	existing, err := v.store.QueryByFromAndTo(ctx, from, to, entities.RelationshipParentChild)
	if err != nil {
		return domain.StorageError("RelationshipValidator.ConflictExists", err)
	}

	for _, link := range without(existing, excludeLinkID) {
		if link.AliasID == aliasID {
			return domain.NewValidationError(domain.RuleDuplicateAlias, "A parent-child relationship already exists between these assets with provided alias")
		}
	}

	// A direção entre um par é fixa na rede inteira, independente do alias.
	reverse, err := v.store.QueryByFromAndTo(ctx, to, from, entities.RelationshipParentChild)
	if err != nil {
		return domain.StorageError("RelationshipValidator.ConflictExists", err)
	}

	if len(reverse) > 0 {
		return domain.NewValidationError(domain.RuleReverseDirection, "A parent-child relationship already exists in the opposite direction between these assets")
	}

	return nil
}

func without(links []entities.AssetLink, linkID string) []entities.AssetLink {
	if linkID == "" {
		return links
	}

	filtered := make([]entities.AssetLink, 0, len(links))
	for _, link := range links {
		if link.ID != linkID {
			filtered = append(filtered, link)
		}
	}
	return filtered
}
