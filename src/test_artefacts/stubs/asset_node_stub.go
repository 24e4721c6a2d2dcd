package stubs

import (
	"github.com/brianvoe/gofakeit/v6"

	"assetgraph/src/domain/entities"
)

type AssetNodeStub struct {
	node entities.AssetNode
}

func NewAssetNodeStub() AssetNodeStub {
	node := entities.AssetNode{
		DatabaseID: gofakeit.Word() + "-db",
		AssetID:    gofakeit.UUID(),
		Name:       gofakeit.ProductName(),
		Type:       gofakeit.RandomString([]string{"model", "pointcloud", "image", "document"}),
		Tags:       []string{},
	}

	return AssetNodeStub{node: node}
}

func (s AssetNodeStub) WithDatabaseID(databaseID string) AssetNodeStub {
	s.node.DatabaseID = databaseID
	return s
}

func (s AssetNodeStub) WithAssetID(assetID string) AssetNodeStub {
	s.node.AssetID = assetID
	return s
}

func (s AssetNodeStub) WithName(name string) AssetNodeStub {
	s.node.Name = name
	return s
}

func (s AssetNodeStub) WithTags(tags ...string) AssetNodeStub {
	s.node.Tags = tags
	return s
}

func (s AssetNodeStub) Get() entities.AssetNode {
	return s.node
}
