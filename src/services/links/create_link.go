package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

type CreateLinkRequest struct {
	From             entities.AssetKey
	To               entities.AssetKey
	RelationshipType entities.RelationshipType
	AliasID          string
	Tags             []string
}

// Create valida e grava uma nova aresta. Nenhuma escrita acontece se qualquer
// checagem falhar.
func (s *LinkService) Create(ctx context.Context, caller domain.Caller, request CreateLinkRequest) (linkID string, err error) {
	defer func() { s.observe("create", err) }()

	if err := requireCaller(caller, domain.ActionCreate); err != nil {
		return "", err
	}

	if !request.RelationshipType.IsValid() {
		return "", domain.NewValidationError(domain.RuleInvalidRelationshipType,
			fmt.Sprintf("Relationship type %s isn't supported", request.RelationshipType))
	}

	if !request.From.IsValid() || !request.To.IsValid() {
		return "", domain.NewValidationError(domain.RuleInvalidAssetKey, "Database ID and asset ID must be valid identifiers")
	}

	aliasID := strings.TrimSpace(request.AliasID)
	if aliasID != "" && request.RelationshipType != entities.RelationshipParentChild {
		return "", domain.NewValidationError(domain.RuleAliasNotAllowed, "Alias is only supported for parent-child relationships")
	}

	tags, err := normalizeTags(request.Tags)
	if err != nil {
		return "", err
	}

	if err := s.validator.CheckSelfLink(request.From, request.To); err != nil {
		return "", err
	}

	fromNode, toNode, err := s.validator.AssetsExist(ctx, request.From, request.To)
	if err != nil {
		return "", err
	}

	access := newAccessChecker(ctx, s.authorizer, caller, domain.ActionCreate)
	if err := access.requireBoth(fromNode, toNode); err != nil {
		return "", err
	}

	// Uma aresta inversa é um caminho to ~> from de tamanho 1: no create ela é ciclo, nunca reverse_direction.
	if request.RelationshipType == entities.RelationshipParentChild {
		if err := s.cycles.Check(ctx, request.From, request.To); err != nil {
			return "", err
		}
	}

	if err := s.validator.ConflictExists(ctx, request.From, request.To, request.RelationshipType, aliasID, ""); err != nil {
		return "", err
	}

	now := s.now()
	link := entities.AssetLink{
		ID:               s.newID(),
		From:             request.From,
		To:               request.To,
		RelationshipType: request.RelationshipType,
		AliasID:          aliasID,
		Tags:             tags,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Put(ctx, link); err != nil {
		if errors.Is(err, domain.ErrLinkConflict) {
			return "", conflictError(link.RelationshipType).WithCause(err)
		}
		return "", domain.StorageError("LinkService.Create", err)
	}

	s.logger.Info("Asset link created",
		"link_id", link.ID,
		"from", link.From.String(),
		"to", link.To.String(),
		"relationship_type", link.RelationshipType,
		"actor", caller.UserID)

	s.publish(ctx, caller, domain.EventLinkCreated, link)

	return link.ID, nil
}

// conflictError traduz a perda da escrita condicional para a regra equivalente.
func conflictError(relationshipType entities.RelationshipType) *domain.ValidationError {
	if relationshipType == entities.RelationshipRelated {
		return domain.NewValidationError(domain.RuleDuplicateRelated, "A relationship already exists between these assets")
	}
	return domain.NewValidationError(domain.RuleDuplicateAlias, "A parent-child relationship already exists between these assets with provided alias")
}
