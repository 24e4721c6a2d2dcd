package http

import (
	"net/http"
	"strings"

	"assetgraph/src/domain"
)

const (
	headerUserID    = "X-User-Id"
	headerUserRoles = "X-User-Roles"
)

// resolveCaller monta o Caller a partir dos headers do gateway. Sem X-User-Id
// o chamador é anônimo e o LinkService recusa a operação.
func (s *Server) resolveCaller(r *http.Request) (domain.Caller, error) {
	caller := domain.Caller{
		UserID: strings.TrimSpace(r.Header.Get(headerUserID)),
	}
	if caller.IsAnonymous() {
		return caller, nil
	}

	for _, role := range strings.Split(r.Header.Get(headerUserRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			caller.Roles = append(caller.Roles, role)
		}
	}

	grants, err := s.grantsLoader.GrantsForRoles(r.Context(), caller.Roles)
	if err != nil {
		return domain.Caller{}, err
	}
	caller.Grants = grants

	return caller, nil
}
