package domain

import (
	"encoding/json"
	"time"

	"assetgraph/src/domain/entities"
)

// ############################################################
// ################ CONTEXTO DE AUTORIZAÇÃO ###################
// ############################################################

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Grant libera um conjunto de ações sobre os assets de um database ("*" para todos).
// Quando Tags não está vazio o asset precisa carregar ao menos uma delas.
type Grant struct {
	DatabaseID string
	Tags       []string
	Actions    []Action
}

// Caller é o chamador da operação. Ele é passado explicitamente para cada
// operação do LinkService, nunca guardado em estado global.
type Caller struct {
	UserID string
	Roles  []string
	Grants []Grant
}

func (c Caller) IsAnonymous() bool {
	return c.UserID == ""
}

// ############################################################
// ############### PROCESSO DE LEITURA DO GRAFO ###############
// ############################################################

// LinkedAsset é uma ponta de aresta como aparece nas listagens.
type LinkedAsset struct {
	LinkID     string `json:"asset_link_id"`
	AssetID    string `json:"asset_id"`
	AssetName  string `json:"asset_name"`
	DatabaseID string `json:"database_id"`
	AliasID    string `json:"alias_id,omitempty"`
}

// AssetTreeNode é um nó da árvore de filhos. O mesmo asset pode aparecer em
// ramos diferentes (diamante), cada aparição é um nó próprio.
type AssetTreeNode struct {
	LinkedAsset
	Children []*AssetTreeNode `json:"children"`
	// Truncated indica que existem filhos que não foram expandidos por causa dos limites.
	Truncated bool `json:"truncated,omitempty"`
}

type UnauthorizedCounts struct {
	Related  int `json:"related"`
	Parents  int `json:"parents"`
	Children int `json:"children"`
}

// AssetLinks é o resultado de ListForAsset. Em treeView, ChildTree substitui Children.
type AssetLinks struct {
	Related            []LinkedAsset      `json:"related"`
	Parents            []LinkedAsset      `json:"parents"`
	Children           []LinkedAsset      `json:"children,omitempty"`
	ChildTree          []*AssetTreeNode   `json:"child_tree,omitempty"`
	TreeTruncated      bool               `json:"tree_truncated,omitempty"`
	UnauthorizedCounts UnauthorizedCounts `json:"unauthorized_counts"`
}

// MarshalJSON sempre emite a categoria de filhos do modo pedido, mesmo vazia:
// "child_tree" em treeView, "children" no modo plano.
func (l AssetLinks) MarshalJSON() ([]byte, error) {
	type assetLinks AssetLinks

	if l.ChildTree != nil {
		return json.Marshal(struct {
			assetLinks
			ChildTree []*AssetTreeNode `json:"child_tree"`
		}{assetLinks(l), l.ChildTree})
	}

	children := l.Children
	if children == nil {
		children = []LinkedAsset{}
	}
	return json.Marshal(struct {
		assetLinks
		Children []LinkedAsset `json:"children"`
	}{assetLinks(l), children})
}

// ############################################################
// ################### EVENTOS DE DOMÍNIO #####################
// ############################################################

const (
	EventLinkCreated = "asset_link.created"
	EventLinkUpdated = "asset_link.updated"
	EventLinkDeleted = "asset_link.deleted"
)

type LinkEvent struct {
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	ActorID    string             `json:"actor_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Link       entities.AssetLink `json:"asset_link"`
}
