package entities

import (
	"strings"
	"time"
)

type RelationshipType string

const (
	RelationshipRelated     RelationshipType = "related"
	RelationshipParentChild RelationshipType = "parentChild"
)

func (t RelationshipType) IsValid() bool {
	return t == RelationshipRelated || t == RelationshipParentChild
}

// É a "aresta" entre dois assets do catálogo.
type AssetLink struct {
	ID               string           `json:"asset_link_id"`
	From             AssetKey         `json:"from"`
	To               AssetKey         `json:"to"`
	RelationshipType RelationshipType `json:"relationship_type"`
	// Só faz sentido em parentChild. Vazio é a identidade "sem alias".
	AliasID   string    `json:"alias_id,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Other devolve a ponta oposta a key. Para arestas related a direção não importa.
func (l AssetLink) Other(key AssetKey) AssetKey {
	if l.From == key {
		return l.To
	}
	return l.From
}

// UniquenessKey é a representação canônica usada na escrita condicional:
// related é um par não ordenado, parentChild é (from, to, alias).
func (l AssetLink) UniquenessKey() string {
	from, to := l.From.String(), l.To.String()

	if l.RelationshipType == RelationshipRelated {
		if to < from {
			from, to = to, from
		}
		return strings.Join([]string{string(RelationshipRelated), from, to}, "|")
	}

	return strings.Join([]string{string(l.RelationshipType), from, to, l.AliasID}, "|")
}
