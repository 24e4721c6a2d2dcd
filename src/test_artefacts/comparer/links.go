package comparer

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

func IgnoreFieldsFor[T any](fields ...string) cmp.Option {
	var t T
	return cmpopts.IgnoreFields(t, fields...)
}

// AssetLinkIgnoringTimestamps compara arestas pela identidade e pelos campos mutáveis
func AssetLinkIgnoringTimestamps() cmp.Option {
	return cmp.Options{
		IgnoreFieldsFor[entities.AssetLink]("CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
	}
}

// LinkedAssetsByAsset compara listagens sem depender da ordem
func LinkedAssetsByAsset() cmp.Option {
	return cmpopts.SortSlices(func(a, b domain.LinkedAsset) bool {
		if a.AssetID != b.AssetID {
			return a.AssetID < b.AssetID
		}
		return a.AliasID < b.AliasID
	})
}
