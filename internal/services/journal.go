package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/metrics"
	"github.com/AnshRaj112/grow-backend/internal/models"
)

// JournalKeyPrefix is the record key prefix for a user's entry list.
const JournalKeyPrefix = "journal:"

// errNoChange aborts a mutation without writing.
var errNoChange = errors.New("no change")

// EventPublisher receives journal change events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, event models.JournalEvent) error
}

// JournalService stores each user's entries as one versioned record and applies every
// mutation as read, modify, compare-and-swap.
type JournalService struct {
	store  database.Store
	codec  *Codec
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewJournalService wires the service. events may be nil.
func NewJournalService(store database.Store, codec *Codec, events EventPublisher, log *zap.Logger) *JournalService {
	return &JournalService{
		store:  store,
		codec:  codec,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

func journalKey(userID string) string {
	return JournalKeyPrefix + userID
}

// GetEntries returns the user's entries newest first. A user with no record has no entries.
func (s *JournalService) GetEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}

	entries, _, err := s.load(ctx, userID)
	metrics.RecordJournalOperation("get", outcome(err))
	if err != nil {
		s.log.Sugar().Errorw("failed to load journal entries", "user", userID, "err", err)
		return nil, err
	}
	return entries, nil
}

// GetEntriesCount never fails; any error counts as zero entries.
func (s *JournalService) GetEntriesCount(ctx context.Context, userID string) int {
	entries, err := s.GetEntries(ctx, userID)
	if err != nil {
		return 0
	}
	return len(entries)
}

func (s *JournalService) AddEntry(ctx context.Context, userID, text string, images []string) (models.JournalEntry, error) {
	if userID == "" {
		return models.JournalEntry{}, models.ErrUnauthorized
	}

	entry, err := models.NewJournalEntry(text, images, s.now())
	if err != nil {
		metrics.RecordJournalOperation("add", outcome(err))
		return models.JournalEntry{}, err
	}

	err = s.mutate(ctx, userID, "add", func(entries []models.JournalEntry) ([]models.JournalEntry, error) {
		return append([]models.JournalEntry{entry}, entries...), nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}

	s.publish(ctx, userID, models.EventEntryCreated, entry.ID)
	return entry, nil
}

// UpdateEntry replaces the text of an entry, keeping its id, dateTime and images.
func (s *JournalService) UpdateEntry(ctx context.Context, userID, entryID, text string) (models.JournalEntry, error) {
	if userID == "" {
		return models.JournalEntry{}, models.ErrUnauthorized
	}

	var updated models.JournalEntry
	err := s.mutate(ctx, userID, "update", func(entries []models.JournalEntry) ([]models.JournalEntry, error) {
		i := models.FindEntry(entries, entryID)
		if i < 0 {
			return nil, models.ErrEntryNotFound
		}
		next, err := entries[i].WithText(text)
		if err != nil {
			return nil, err
		}
		entries[i] = next
		updated = next
		return entries, nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}

	s.publish(ctx, userID, models.EventEntryUpdated, entryID)
	return updated, nil
}

// DeleteEntry removes an entry and reports whether anything was removed.
// Nothing is written when the id is unknown.
func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID string) (bool, error) {
	if userID == "" {
		return false, models.ErrUnauthorized
	}

	err := s.mutate(ctx, userID, "delete", func(entries []models.JournalEntry) ([]models.JournalEntry, error) {
		kept := make([]models.JournalEntry, 0, len(entries))
		for _, e := range entries {
			if e.ID != entryID {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(entries) {
			return nil, errNoChange
		}
		return kept, nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.publish(ctx, userID, models.EventEntryDeleted, entryID)
	return true, nil
}

// AddImagesToEntry appends images after the entry's existing ones.
func (s *JournalService) AddImagesToEntry(ctx context.Context, userID, entryID string, images []string) (models.JournalEntry, error) {
	if userID == "" {
		return models.JournalEntry{}, models.ErrUnauthorized
	}

	var updated models.JournalEntry
	err := s.mutate(ctx, userID, "add_images", func(entries []models.JournalEntry) ([]models.JournalEntry, error) {
		i := models.FindEntry(entries, entryID)
		if i < 0 {
			return nil, models.ErrEntryNotFound
		}
		next, err := entries[i].WithImages(images)
		if err != nil {
			return nil, err
		}
		entries[i] = next
		updated = next
		return entries, nil
	})
	if err != nil {
		return models.JournalEntry{}, err
	}

	s.publish(ctx, userID, models.EventImagesAdded, entryID)
	return updated, nil
}

// load reads and decodes the user's list, sorted newest first.
func (s *JournalService) load(ctx context.Context, userID string) ([]models.JournalEntry, int64, error) {
	entries := []models.JournalEntry{}
	version, err := loadRecord(ctx, s.store, s.codec, journalKey(userID), &entries)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	models.SortNewestFirst(entries)
	return entries, version, nil
}

// mutate runs one read-modify-write cycle. The whole list is validated before it is
// written, and the write only lands if no one else wrote the record in between.
func (s *JournalService) mutate(ctx context.Context, userID, op string, fn func([]models.JournalEntry) ([]models.JournalEntry, error)) error {
	err := s.mutateOnce(ctx, userID, fn)
	metrics.RecordJournalOperation(op, outcome(err))

	switch {
	case err == nil, errors.Is(err, errNoChange):
	case errors.Is(err, models.ErrConflict):
		s.log.Sugar().Warnw("journal write conflict", "user", userID, "op", op)
	case errors.Is(err, models.ErrStorage):
		s.log.Sugar().Errorw("journal write failed", "user", userID, "op", op, "err", err)
	}
	return err
}

func (s *JournalService) mutateOnce(ctx context.Context, userID string, fn func([]models.JournalEntry) ([]models.JournalEntry, error)) error {
	entries, version, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	next, err := fn(entries)
	if err != nil {
		return err
	}
	for _, e := range next {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	return saveRecord(ctx, s.store, s.codec, journalKey(userID), version, next)
}

func (s *JournalService) publish(ctx context.Context, userID string, typ models.JournalEventType, entryID string) {
	if s.events == nil {
		return
	}
	event := models.JournalEvent{Type: typ, EntryID: entryID, Timestamp: s.now().UTC()}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		s.log.Sugar().Warnw("failed to publish journal event", "user", userID, "entry_id", entryID, "err", err)
	}
}

// outcome labels an error for the operations counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errNoChange):
		return "noop"
	case errors.Is(err, models.ErrStorage):
		return "storage_error"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	}
	return "error"
}
