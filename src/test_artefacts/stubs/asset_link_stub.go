package stubs

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"assetgraph/src/domain/entities"
)

type AssetLinkStub struct {
	link entities.AssetLink
}

func NewAssetLinkStub() AssetLinkStub {
	now := time.Now().UTC().Truncate(time.Microsecond)

	link := entities.AssetLink{
		ID:               gofakeit.UUID(),
		From:             NewAssetNodeStub().Get().Key(),
		To:               NewAssetNodeStub().Get().Key(),
		RelationshipType: entities.RelationshipParentChild,
		Tags:             []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return AssetLinkStub{link: link}
}

func (s AssetLinkStub) WithID(id string) AssetLinkStub {
	s.link.ID = id
	return s
}

func (s AssetLinkStub) From(key entities.AssetKey) AssetLinkStub {
	s.link.From = key
	return s
}

func (s AssetLinkStub) To(key entities.AssetKey) AssetLinkStub {
	s.link.To = key
	return s
}

func (s AssetLinkStub) Related() AssetLinkStub {
	s.link.RelationshipType = entities.RelationshipRelated
	s.link.AliasID = ""
	return s
}

func (s AssetLinkStub) WithAlias(aliasID string) AssetLinkStub {
	s.link.AliasID = aliasID
	return s
}

func (s AssetLinkStub) WithTags(tags ...string) AssetLinkStub {
	s.link.Tags = tags
	return s
}

func (s AssetLinkStub) Get() entities.AssetLink {
	return s.link
}
