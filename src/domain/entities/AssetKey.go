package entities

import "regexp"

// Os separadores ":" e "|" das chaves compostas nunca aparecem num identificador.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][-_.A-Za-z0-9]{0,255}$`)

// AssetKey identifica um asset dentro do catálogo: (databaseId, assetId).
type AssetKey struct {
	DatabaseID string `json:"database_id"`
	AssetID    string `json:"asset_id"`
}

// String devolve a chave composta usada nos índices "databaseId:assetId".
func (k AssetKey) String() string {
	return k.DatabaseID + ":" + k.AssetID
}

// IsValid garante que String é injetiva para a chave.
func (k AssetKey) IsValid() bool {
	return IsValidIdentifier(k.DatabaseID) && IsValidIdentifier(k.AssetID)
}

func IsValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}
