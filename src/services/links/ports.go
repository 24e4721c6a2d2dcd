package links

import (
	"context"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// LinkStore é a tabela de arestas com índices por from e por to.
// Nenhuma ordem é garantida nos resultados.
type LinkStore interface {
	Get(ctx context.Context, linkID string) (entities.AssetLink, error)
	QueryByFrom(ctx context.Context, from entities.AssetKey) ([]entities.AssetLink, error)
	QueryByTo(ctx context.Context, to entities.AssetKey) ([]entities.AssetLink, error)
	QueryByFromAndTo(ctx context.Context, from, to entities.AssetKey, relationshipType entities.RelationshipType) ([]entities.AssetLink, error)
	// Put só insere se a chave canônica da aresta ainda não existir (domain.ErrLinkConflict).
	Put(ctx context.Context, link entities.AssetLink) error
	Update(ctx context.Context, link entities.AssetLink) error
	Delete(ctx context.Context, linkID string) error
}

type AssetCatalog interface {
	Resolve(ctx context.Context, key entities.AssetKey) (entities.AssetNode, error)
	// ResolveBatch omite do mapa as chaves que não existem.
	ResolveBatch(ctx context.Context, keys []entities.AssetKey) (map[entities.AssetKey]entities.AssetNode, error)
}

type Authorizer interface {
	CanAccess(ctx context.Context, caller domain.Caller, node entities.AssetNode, action domain.Action) bool
}

type MetadataStore interface {
	DeleteAll(ctx context.Context, linkID string) error
}

type EventPublisher interface {
	PublishLinkEvent(ctx context.Context, event domain.LinkEvent) error
}
