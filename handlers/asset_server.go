package handlers

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/camden-git/attendsysbackend/media"
	"github.com/go-chi/chi/v5"
)

// AssetHandler serves stored enrollment snapshots and thumbnails.
type AssetHandler struct {
	Store media.Store
}

func NewAssetHandler(store media.Store) *AssetHandler {
	return &AssetHandler{Store: store}
}

// Serve streams a stored asset by its store-relative path.
func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	relativePath := chi.URLParam(r, "*")
	if relativePath == "" || strings.Contains(relativePath, "..") {
		WriteAPIError(w, http.StatusBadRequest, "invalid_path", "invalid asset path")
		return
	}

	fullPath, err := h.Store.GetFullPath(relativePath)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_path", "invalid asset path")
		return
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "asset not found")
			return
		}
		log.Printf("asset handler: failed to stat asset %s: %v", relativePath, err)
		WriteAPIError(w, http.StatusInternalServerError, "storage_error", "failed to open asset")
		return
	}

	http.ServeFile(w, r, fullPath)
}
