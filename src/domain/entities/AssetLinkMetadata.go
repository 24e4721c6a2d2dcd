package entities

type MetadataValueType string

const (
	MetadataString  MetadataValueType = "string"
	MetadataNumber  MetadataValueType = "number"
	MetadataBoolean MetadataValueType = "boolean"
	MetadataDate    MetadataValueType = "date"
	MetadataXYZ     MetadataValueType = "xyz"
)

// Metadado pertencente a uma única aresta, apagado junto com ela.
type AssetLinkMetadata struct {
	LinkID    string            `json:"asset_link_id"`
	Key       string            `json:"metadata_key"`
	Value     string            `json:"metadata_value"`
	ValueType MetadataValueType `json:"metadata_value_type"`
}
