package links

import (
	"context"
	"errors"
	"strings"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// Campos nil não são alterados.
type UpdateLinkRequest struct {
	Tags    *[]string
	AliasID *string
}

func (s *LinkService) Update(ctx context.Context, caller domain.Caller, linkID string, request UpdateLinkRequest) (err error) {
	defer func() { s.observe("update", err) }()

	if err := requireCaller(caller, domain.ActionUpdate); err != nil {
		return err
	}

	link, err := s.loadLink(ctx, "LinkService.Update", linkID)
	if err != nil {
		return err
	}

	if err := s.authorizeLink(ctx, caller, link, domain.ActionUpdate); err != nil {
		return err
	}

	updated := link

	if request.Tags != nil {
		tags, err := normalizeTags(*request.Tags)
		if err != nil {
			return err
		}
		updated.Tags = tags
	}

	if request.AliasID != nil {
		aliasID := strings.TrimSpace(*request.AliasID)

		if aliasID != link.AliasID {
			if link.RelationshipType != entities.RelationshipParentChild {
				return domain.NewValidationError(domain.RuleAliasNotAllowed, "Alias is only supported for parent-child relationships")
			}

			// trocar o alias não muda a adjacência mesclada, então o ciclo não precisa ser reavaliado
			if err := s.validator.ConflictExists(ctx, link.From, link.To, link.RelationshipType, aliasID, link.ID); err != nil {
				return err
			}

			updated.AliasID = aliasID
		}
	}

	updated.UpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, domain.ErrLinkConflict):
			return conflictError(updated.RelationshipType).WithCause(err)
		case errors.Is(err, domain.ErrLinkNotFound):
			return err
		default:
			return domain.StorageError("LinkService.Update", err)
		}
	}

	s.publish(ctx, caller, domain.EventLinkUpdated, updated)

	return nil
}
