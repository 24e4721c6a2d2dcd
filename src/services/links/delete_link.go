package links

import (
	"context"
	"errors"

	"assetgraph/src/domain"
)

// Delete remove a aresta e depois tenta limpar os metadados. A limpeza é
// best-effort: a aresta já foi removida e não é restaurada.
func (s *LinkService) Delete(ctx context.Context, caller domain.Caller, linkID string) (err error) {
	defer func() { s.observe("delete", err) }()

	if err := requireCaller(caller, domain.ActionDelete); err != nil {
		return err
	}

	link, err := s.loadLink(ctx, "LinkService.Delete", linkID)
	if err != nil {
		return err
	}

	if err := s.authorizeLink(ctx, caller, link, domain.ActionDelete); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return err
		}
		return domain.StorageError("LinkService.Delete", err)
	}

	if err := s.metadata.DeleteAll(context.WithoutCancel(ctx), link.ID); err != nil {
		s.logger.Error("Failed to delete asset link metadata",
			"link_id", link.ID,
			"error", err)
	}

	s.publish(ctx, caller, domain.EventLinkDeleted, link)

	return nil
}
