package entities

// AssetNode é a visão somente-leitura de um asset, resolvida pelo catálogo.
type AssetNode struct {
	DatabaseID string   `json:"database_id"`
	AssetID    string   `json:"asset_id"`
	Name       string   `json:"asset_name"`
	Type       string   `json:"asset_type"`
	Tags       []string `json:"tags"`
}

func (n AssetNode) Key() AssetKey {
	return AssetKey{DatabaseID: n.DatabaseID, AssetID: n.AssetID}
}
