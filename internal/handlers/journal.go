package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/models"
)

// JournalStore is the journal service as the HTTP layer uses it.
type JournalStore interface {
	GetEntries(ctx context.Context, userID string) ([]models.JournalEntry, error)
	GetEntriesCount(ctx context.Context, userID string) int
	AddEntry(ctx context.Context, userID, text string, images []string) (models.JournalEntry, error)
	UpdateEntry(ctx context.Context, userID, entryID, text string) (models.JournalEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) (bool, error)
	AddImagesToEntry(ctx context.Context, userID, entryID string, images []string) (models.JournalEntry, error)
}

type JournalHandler struct {
	journal JournalStore
	log     *zap.Logger
}

func NewJournalHandler(journal JournalStore, log *zap.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, log: log}
}

type CreateEntryRequest struct {
	Text   string   `json:"text" validate:"required,max=5000"`
	Images []string `json:"images" validate:"omitempty,dive,url"`
}

type UpdateEntryRequest struct {
	EntryID string `json:"entryId" validate:"required"`
	Text    string `json:"text" validate:"required,max=5000"`
}

type DeleteEntryRequest struct {
	EntryID string `json:"entryId" validate:"required"`
}

type AddImagesRequest struct {
	EntryID string   `json:"entryId" validate:"required"`
	Images  []string `json:"images" validate:"required,min=1,dive,url"`
}

type EntriesResponse struct {
	Entries []models.JournalEntry `json:"entries"`
	Error   bool                  `json:"error"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type EntryResponse struct {
	Success bool                 `json:"success"`
	Entry   *models.JournalEntry `json:"entry,omitempty"`
}

// GetEntries handles GET /api/entries and GET /api/entries?count=true.
// A failed load is reported in the body so the client can show an error state.
func (h *JournalHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmail(r.Context())

	if r.URL.Query().Get("count") == "true" {
		writeJSON(w, http.StatusOK, CountResponse{Count: h.journal.GetEntriesCount(r.Context(), email)})
		return
	}

	entries, err := h.journal.GetEntries(r.Context(), email)
	if err != nil {
		writeJSON(w, http.StatusOK, EntriesResponse{Entries: []models.JournalEntry{}, Error: true})
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}

// CreateEntry handles POST /api/entries.
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.journal.AddEntry(r.Context(), middleware.UserEmail(r.Context()), req.Text, req.Images)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add journal entry. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: &entry})
}

// UpdateEntry handles PUT /api/entries.
func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.journal.UpdateEntry(r.Context(), middleware.UserEmail(r.Context()), req.EntryID, req.Text)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update journal entry. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: &entry})
}

// DeleteEntry handles DELETE /api/entries.
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req DeleteEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.journal.DeleteEntry(r.Context(), middleware.UserEmail(r.Context()), req.EntryID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to delete journal entry. Please try again.")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true})
}

// AddImages handles PATCH /api/entries.
func (h *JournalHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	var req AddImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.journal.AddImagesToEntry(r.Context(), middleware.UserEmail(r.Context()), req.EntryID, req.Images)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to add images to journal entry. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: &entry})
}
