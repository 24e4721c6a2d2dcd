package links

import (
	"context"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// Get só devolve a aresta se o chamador puder ler as duas pontas.
func (s *LinkService) Get(ctx context.Context, caller domain.Caller, linkID string) (link entities.AssetLink, err error) {
	defer func() { s.observe("get", err) }()

	if err := requireCaller(caller, domain.ActionRead); err != nil {
		return entities.AssetLink{}, err
	}

	link, err = s.loadLink(ctx, "LinkService.Get", linkID)
	if err != nil {
		return entities.AssetLink{}, err
	}

	if err := s.authorizeLink(ctx, caller, link, domain.ActionRead); err != nil {
		return entities.AssetLink{}, err
	}

	return link, nil
}
