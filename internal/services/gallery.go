package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/models"
)

// GalleryKeyPrefix is the record key prefix for a user's uploaded image URLs.
const GalleryKeyPrefix = "images:"

// GalleryService keeps every image a user uploaded, newest first, independent of entries.
type GalleryService struct {
	store database.Store
	codec *Codec
	log   *zap.Logger
}

func NewGalleryService(store database.Store, codec *Codec, log *zap.Logger) *GalleryService {
	return &GalleryService{store: store, codec: codec, log: log}
}

func galleryKey(userID string) string {
	return GalleryKeyPrefix + userID
}

func (s *GalleryService) List(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}

	images := []string{}
	if _, err := loadRecord(ctx, s.store, s.codec, galleryKey(userID), &images); err != nil {
		s.log.Sugar().Errorw("failed to load gallery", "user", userID, "err", err)
		return nil, err
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}

// Add prepends each valid URL in order, so the last one given ends up first.
// Blank or malformed URLs are skipped. It returns how many were stored.
func (s *GalleryService) Add(ctx context.Context, userID string, urls []string) (int, error) {
	if userID == "" {
		return 0, models.ErrUnauthorized
	}

	var fresh []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if models.IsImageURL(u) {
			fresh = append(fresh, u)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	key := galleryKey(userID)
	images := []string{}
	version, err := loadRecord(ctx, s.store, s.codec, key, &images)
	if err != nil {
		return 0, err
	}

	next := make([]string, 0, len(images)+len(fresh))
	for i := len(fresh) - 1; i >= 0; i-- {
		next = append(next, fresh[i])
	}
	next = append(next, images...)

	if err := saveRecord(ctx, s.store, s.codec, key, version, next); err != nil {
		s.log.Sugar().Warnw("failed to add gallery images", "user", userID, "err", err)
		return 0, err
	}
	return len(fresh), nil
}

// Remove drops every occurrence of each URL and returns how many of the given URLs were present.
func (s *GalleryService) Remove(ctx context.Context, userID string, urls []string) (int, error) {
	if userID == "" {
		return 0, models.ErrUnauthorized
	}

	key := galleryKey(userID)
	images := []string{}
	version, err := loadRecord(ctx, s.store, s.codec, key, &images)
	if err != nil {
		return 0, err
	}

	drop := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			drop[u] = true
		}
	}

	removed := make(map[string]bool)
	kept := make([]string, 0, len(images))
	for _, img := range images {
		if drop[img] {
			removed[img] = true
			continue
		}
		kept = append(kept, img)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := saveRecord(ctx, s.store, s.codec, key, version, kept); err != nil {
		s.log.Sugar().Warnw("failed to remove gallery images", "user", userID, "err", err)
		return 0, err
	}
	return len(removed), nil
}
