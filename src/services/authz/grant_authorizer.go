package authz

import (
	"context"
	"slices"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

const wildcardDatabase = "*"

// GrantAuthorizer decide acesso só com os grants que já vieram no Caller.
// Os grants são carregados uma vez por requisição (PermissionRepository).
type GrantAuthorizer struct{}

func NewGrantAuthorizer() *GrantAuthorizer {
	return &GrantAuthorizer{}
}

func (a *GrantAuthorizer) CanAccess(_ context.Context, caller domain.Caller, node entities.AssetNode, action domain.Action) bool {
	if caller.IsAnonymous() {
		return false
	}

	for _, grant := range caller.Grants {
		if grantCovers(grant, node, action) {
			return true
		}
	}

	return false
}

func grantCovers(grant domain.Grant, node entities.AssetNode, action domain.Action) bool {
	if grant.DatabaseID != wildcardDatabase && grant.DatabaseID != node.DatabaseID {
		return false
	}

	if !slices.Contains(grant.Actions, action) {
		return false
	}

	if len(grant.Tags) == 0 {
		return true
	}

	for _, tag := range node.Tags {
		if slices.Contains(grant.Tags, tag) {
			return true
		}
	}

	return false
}
