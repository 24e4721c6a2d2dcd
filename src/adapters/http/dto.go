package http

import (
	"time"

	"assetgraph/src/domain/entities"
)

type CreateAssetLinkRequest struct {
	FromAssetID         string   `json:"from_asset_id" validate:"required,asset_identifier"`
	FromAssetDatabaseID string   `json:"from_asset_database_id" validate:"required,asset_identifier"`
	ToAssetID           string   `json:"to_asset_id" validate:"required,asset_identifier"`
	ToAssetDatabaseID   string   `json:"to_asset_database_id" validate:"required,asset_identifier"`
	RelationshipType    string   `json:"relationship_type" validate:"required,oneof=related parentChild"`
	AliasID             string   `json:"alias_id,omitempty" validate:"max=256"`
	Tags                []string `json:"tags" validate:"max=100,dive,max=256"`
}

// Campos ausentes não são alterados.
type UpdateAssetLinkRequest struct {
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=100,dive,max=256"`
	AliasID *string   `json:"alias_id,omitempty" validate:"omitempty,max=256"`
}

type CreateAssetLinkResponse struct {
	AssetLinkID string `json:"asset_link_id"`
	Message     string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AssetLinkDTO struct {
	AssetLinkID         string    `json:"asset_link_id"`
	FromAssetID         string    `json:"from_asset_id"`
	FromAssetDatabaseID string    `json:"from_asset_database_id"`
	ToAssetID           string    `json:"to_asset_id"`
	ToAssetDatabaseID   string    `json:"to_asset_database_id"`
	RelationshipType    string    `json:"relationship_type"`
	AliasID             string    `json:"alias_id,omitempty"`
	Tags                []string  `json:"tags"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type GetAssetLinkResponse struct {
	AssetLink AssetLinkDTO `json:"asset_link"`
	Message   string       `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

func (r CreateAssetLinkRequest) fromKey() entities.AssetKey {
	return entities.AssetKey{DatabaseID: r.FromAssetDatabaseID, AssetID: r.FromAssetID}
}

func (r CreateAssetLinkRequest) toKey() entities.AssetKey {
	return entities.AssetKey{DatabaseID: r.ToAssetDatabaseID, AssetID: r.ToAssetID}
}

func MapAssetLinkToResponse(link entities.AssetLink) AssetLinkDTO {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}

	return AssetLinkDTO{
		AssetLinkID:         link.ID,
		FromAssetID:         link.From.AssetID,
		FromAssetDatabaseID: link.From.DatabaseID,
		ToAssetID:           link.To.AssetID,
		ToAssetDatabaseID:   link.To.DatabaseID,
		RelationshipType:    string(link.RelationshipType),
		AliasID:             link.AliasID,
		Tags:                tags,
		CreatedAt:           link.CreatedAt,
		UpdatedAt:           link.UpdatedAt,
	}
}
