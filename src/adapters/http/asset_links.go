package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"assetgraph/src/domain/entities"
	"assetgraph/src/services/links"
)

func (s *Server) CreateAssetLink(w http.ResponseWriter, r *http.Request) {
	var request CreateAssetLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := s.validate.Struct(request); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	caller, err := s.resolveCaller(r)
	if err != nil {
		s.writeError(w, "create", err)
		return
	}

	linkID, err := s.linkService.Create(r.Context(), caller, links.CreateLinkRequest{
		From:             request.fromKey(),
		To:               request.toKey(),
		RelationshipType: entities.RelationshipType(request.RelationshipType),
		AliasID:          request.AliasID,
		Tags:             request.Tags,
	})
	if err != nil {
		s.writeError(w, "create", err)
		return
	}

	writeJSON(w, http.StatusOK, CreateAssetLinkResponse{AssetLinkID: linkID, Message: "Asset link created successfully"})
}

func (s *Server) GetAssetLink(w http.ResponseWriter, r *http.Request) {
	linkID := r.PathValue("linkId")
	if linkID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Asset link ID is required"})
		return
	}

	caller, err := s.resolveCaller(r)
	if err != nil {
		s.writeError(w, "get", err)
		return
	}

	link, err := s.linkService.Get(r.Context(), caller, linkID)
	if err != nil {
		s.writeError(w, "get", err)
		return
	}

	writeJSON(w, http.StatusOK, GetAssetLinkResponse{AssetLink: MapAssetLinkToResponse(link), Message: "Success"})
}

func (s *Server) UpdateAssetLink(w http.ResponseWriter, r *http.Request) {
	linkID := r.PathValue("linkId")
	if linkID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Asset link ID is required"})
		return
	}

	var request UpdateAssetLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := s.validate.Struct(request); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	caller, err := s.resolveCaller(r)
	if err != nil {
		s.writeError(w, "update", err)
		return
	}

	err = s.linkService.Update(r.Context(), caller, linkID, links.UpdateLinkRequest{
		Tags:    request.Tags,
		AliasID: request.AliasID,
	})
	if err != nil {
		s.writeError(w, "update", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Asset link updated successfully"})
}

func (s *Server) DeleteAssetLink(w http.ResponseWriter, r *http.Request) {
	linkID := r.PathValue("linkId")
	if linkID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Asset link ID is required"})
		return
	}

	caller, err := s.resolveCaller(r)
	if err != nil {
		s.writeError(w, "delete", err)
		return
	}

	if err := s.linkService.Delete(r.Context(), caller, linkID); err != nil {
		s.writeError(w, "delete", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Asset link deleted successfully"})
}

func (s *Server) ListAssetLinks(w http.ResponseWriter, r *http.Request) {
	key := entities.AssetKey{
		DatabaseID: r.PathValue("databaseId"),
		AssetID:    r.PathValue("assetId"),
	}
	if key.DatabaseID == "" || key.AssetID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Database ID and asset ID are required"})
		return
	}
	if !key.IsValid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid database ID or asset ID"})
		return
	}

	treeView := false
	if treeViewStr := r.URL.Query().Get("childTreeView"); treeViewStr != "" {
		var err error
		treeView, err = strconv.ParseBool(treeViewStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid childTreeView format"})
			return
		}
	}

	caller, err := s.resolveCaller(r)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	result, err := s.linkService.ListForAsset(r.Context(), caller, key, treeView)
	if err != nil {
		s.writeError(w, "list", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
