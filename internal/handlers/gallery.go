package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/middleware"
)

// Gallery is the image gallery service as the HTTP layer uses it.
type Gallery interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID string, urls []string) (int, error)
	Remove(ctx context.Context, userID string, urls []string) (int, error)
}

type GalleryHandler struct {
	gallery Gallery
	log     *zap.Logger
}

func NewGalleryHandler(gallery Gallery, log *zap.Logger) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, log: log}
}

type ImagesRequest struct {
	Images []string `json:"images"`
}

type ImagesResponse struct {
	Images []string `json:"images"`
}

type ImagesChangedResponse struct {
	Success bool `json:"success"`
	Added   *int `json:"added,omitempty"`
	Removed *int `json:"removed,omitempty"`
}

// List handles GET /api/images.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.gallery.List(r.Context(), middleware.UserEmail(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to fetch images")
		return
	}
	writeJSON(w, http.StatusOK, ImagesResponse{Images: images})
}

// Add handles POST /api/images.
func (h *GalleryHandler) Add(w http.ResponseWriter, r *http.Request) {
	urls, ok := decodeImages(w, r)
	if !ok {
		return
	}

	added, err := h.gallery.Add(r.Context(), middleware.UserEmail(r.Context()), urls)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add images")
		return
	}
	writeJSON(w, http.StatusOK, ImagesChangedResponse{Success: true, Added: &added})
}

// Remove handles DELETE /api/images.
func (h *GalleryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	urls, ok := decodeImages(w, r)
	if !ok {
		return
	}

	removed, err := h.gallery.Remove(r.Context(), middleware.UserEmail(r.Context()), urls)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to remove images")
		return
	}
	writeJSON(w, http.StatusOK, ImagesChangedResponse{Success: true, Removed: &removed})
}

func decodeImages(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return nil, false
	}
	if len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, "Images array is required")
		return nil, false
	}
	return req.Images, true
}
