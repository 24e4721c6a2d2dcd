package links

import (
	"context"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// accessChecker memoriza a decisão por nó: cada nó passa pelo Authorizer no
// máximo uma vez por operação. Não é seguro para uso concorrente.
type accessChecker struct {
	ctx        context.Context
	authorizer Authorizer
	caller     domain.Caller
	action     domain.Action
	decisions  map[entities.AssetKey]bool
}

func newAccessChecker(ctx context.Context, authorizer Authorizer, caller domain.Caller, action domain.Action) *accessChecker {
	return &accessChecker{
		ctx:        ctx,
		authorizer: authorizer,
		caller:     caller,
		action:     action,
		decisions:  make(map[entities.AssetKey]bool),
	}
}

func (a *accessChecker) allowed(node entities.AssetNode) bool {
	key := node.Key()
	if decision, ok := a.decisions[key]; ok {
		return decision
	}

	decision := !a.caller.IsAnonymous() && a.authorizer.CanAccess(a.ctx, a.caller, node, a.action)
	a.decisions[key] = decision
	return decision
}

// requireBoth exige permissão nas duas pontas, com a mesma mensagem nos dois casos.
func (a *accessChecker) requireBoth(from, to entities.AssetNode) error {
	if !a.allowed(from) || !a.allowed(to) {
		return domain.NewPermissionError(a.action, "Not authorized to "+string(a.action)+" this asset link")
	}
	return nil
}
