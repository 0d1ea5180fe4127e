package handlers

import (
	"net/http"

	"taskjar/internal/uploads"
)

// UploadHandler handles image uploads to the object store
type UploadHandler struct {
	store   uploads.ImageStore
	maxSize int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store uploads.ImageStore, maxSize int64) *UploadHandler {
	return &UploadHandler{store: store, maxSize: maxSize}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage stores a multipart image and returns its public URL
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.store.IsEnabled() {
		writeError(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "image too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
	default:
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	url, err := h.store.Store(r.Context(), file, contentType)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
