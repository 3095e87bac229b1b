package handler

import (
	"net/http"
	"strconv"

	"photon/internal/storage"
	"photon/pkg/response"

	"github.com/gorilla/mux"
)

// MediaHandler serves images kept by the in-memory image store. Deployments
// backed by S3 hand out bucket URLs instead and never route here.
type MediaHandler struct {
	store *storage.MemoryStore
}

func NewMediaHandler(store *storage.MemoryStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := h.store.Get(mux.Vars(r)["key"])
	if !ok {
		response.NotFound(w, "Media not found")
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
