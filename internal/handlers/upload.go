package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/metrics"
	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/services"
)

// multipartOverhead leaves room for form boundaries and small fields on top of the file bytes.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploader services.ImageUploader
	gallery  Gallery
	journal  JournalStore
	maxBytes int64
	maxFiles int
	log      *zap.Logger
}

// NewUploadHandler builds the upload endpoint. uploader may be nil when no image host
// is configured, in which case uploads answer 503.
func NewUploadHandler(uploader services.ImageUploader, gallery Gallery, journal JournalStore, maxBytes int64, maxFiles int, log *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		gallery:  gallery,
		journal:  journal,
		maxBytes: maxBytes,
		maxFiles: maxFiles,
		log:      log,
	}
}

// UploadResponse lists the hosted URLs. When storing them fails after the upload,
// Error is set and URLs still lists them so the client can retry without re-uploading.
type UploadResponse struct {
	Success bool     `json:"success"`
	URLs    []string `json:"urls"`
	Error   string   `json:"error,omitempty"`
}

var errNotImage = errors.New("only image files can be uploaded")

// Upload handles POST /api/upload. Every file in the "file" field is stored with the
// image host and added to the gallery; with an entryId the URLs are also attached to that entry.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "File uploads are not available")
		return
	}

	email := middleware.UserEmail(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(h.maxFiles)+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	switch {
	case len(files) == 0:
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	case len(files) > h.maxFiles:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("At most %d files can be uploaded at once", h.maxFiles))
		return
	}
	for _, fh := range files {
		if fh.Size > h.maxBytes {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s is larger than %d bytes", fh.Filename, h.maxBytes))
			return
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.uploadOne(r, fh)
		metrics.RecordUpload(err == nil)
		if errors.Is(err, errNotImage) {
			writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("%s is not an image", fh.Filename))
			return
		}
		if err != nil {
			h.log.Sugar().Errorw("image upload failed", "user", email, "file", fh.Filename, "err", err)
			writeError(w, http.StatusBadGateway, "Failed to upload file")
			return
		}
		urls = append(urls, url)
	}

	if _, err := h.gallery.Add(r.Context(), email, urls); err != nil {
		h.log.Sugar().Warnw("uploaded images not added to gallery", "user", email, "urls", urls, "err", err)
		h.writeStoreError(w, err, urls, "Failed to store image")
		return
	}

	if entryID := strings.TrimSpace(r.FormValue("entryId")); entryID != "" {
		if _, err := h.journal.AddImagesToEntry(r.Context(), email, entryID, urls); err != nil {
			h.writeStoreError(w, err, urls, "Failed to add images to journal entry. Please try again.")
			return
		}
	}

	writeJSON(w, http.StatusOK, UploadResponse{Success: true, URLs: urls})
}

// writeStoreError reports a failure that happened after the files were hosted.
func (h *UploadHandler) writeStoreError(w http.ResponseWriter, err error, urls []string, fallback string) {
	status, message := serviceError(h.log, err, fallback)
	writeJSON(w, status, UploadResponse{URLs: urls, Error: message})
}

func (h *UploadHandler) uploadOne(r *http.Request, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return "", errNotImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return h.uploader.UploadImage(r.Context(), file, fh.Filename)
}
