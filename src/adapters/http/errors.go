package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"assetgraph/src/domain"
)

// writeError traduz a taxonomia de erros do domínio. Erros de storage e de
// integridade nunca expõem o texto interno.
func (s *Server) writeError(w http.ResponseWriter, operation string, err error) {
	var permissionErr *domain.PermissionError

	if validationErr, ok := domain.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: validationErr.Message, Rule: string(validationErr.Rule)})
		return
	}

	switch {
	case errors.As(err, &permissionErr):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Message: permissionErr.Message})
	case errors.Is(err, domain.ErrLinkNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Asset link not found"})
	case errors.Is(err, domain.ErrAssetNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Asset not found"})
	default:
		s.logger.Error("Request failed", "operation", operation, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: domain.ErrUnavailableServer.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: Failed to write JSON response: %v", err)
	}
}
