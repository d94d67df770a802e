package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateTimeLayout is how entry timestamps are written: UTC with exactly three
// fractional digits, e.g. 2024-05-02T10:00:00.000Z.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// MaxEntryTextLength is enforced on incoming requests; the store itself only requires non-empty text.
const MaxEntryTextLength = 5000

// JournalEntry represents a private, dated journal entry for a user
type JournalEntry struct {
	ID       string    `json:"id" validate:"required"`
	DateTime time.Time `json:"dateTime" validate:"required"`
	Text     string    `json:"text" validate:"required"`
	Images   []string  `json:"images" validate:"dive,url"`
}

// NewJournalEntry builds a validated entry with a fresh id and the given creation time.
func NewJournalEntry(text string, images []string, now time.Time) (JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return JournalEntry{}, &ValidationError{Field: "text", Message: "Entry text cannot be empty"}
	}

	entry := JournalEntry{
		ID:       uuid.NewString(),
		DateTime: now.UTC().Truncate(time.Millisecond),
		Text:     text,
		Images:   append([]string{}, images...),
	}
	if err := entry.Validate(); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// WithText returns a copy of the entry with its text replaced. Id, dateTime and images are kept.
func (e JournalEntry) WithText(text string) (JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return JournalEntry{}, &ValidationError{Field: "text", Message: "Entry text cannot be empty"}
	}

	updated := JournalEntry{
		ID:       e.ID,
		DateTime: e.DateTime,
		Text:     text,
		Images:   append([]string{}, e.Images...),
	}
	if err := updated.Validate(); err != nil {
		return JournalEntry{}, err
	}
	return updated, nil
}

// WithImages returns a copy of the entry with images appended after the existing ones.
func (e JournalEntry) WithImages(images []string) (JournalEntry, error) {
	all := make([]string, 0, len(e.Images)+len(images))
	all = append(all, e.Images...)
	all = append(all, images...)

	updated := JournalEntry{
		ID:       e.ID,
		DateTime: e.DateTime,
		Text:     e.Text,
		Images:   all,
	}
	if err := updated.Validate(); err != nil {
		return JournalEntry{}, err
	}
	return updated, nil
}

// Validate checks the entry against the journal schema.
func (e JournalEntry) Validate() error {
	if strings.TrimSpace(e.Text) == "" {
		return &ValidationError{Field: "text", Message: "Entry text cannot be empty"}
	}
	return validateStruct(e)
}

// MarshalJSON writes dateTime in DateTimeLayout so rewritten entries keep the stored format.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	type wire JournalEntry
	return json.Marshal(struct {
		wire
		DateTime string `json:"dateTime"`
	}{
		wire:     wire(e),
		DateTime: e.DateTime.UTC().Format(DateTimeLayout),
	})
}

// UnmarshalJSON decodes an entry and rejects it unless it satisfies the schema,
// so an invalid entry can never be loaded from storage.
func (e *JournalEntry) UnmarshalJSON(data []byte) error {
	type wire JournalEntry
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	entry := JournalEntry(w)
	if entry.Images == nil {
		entry.Images = []string{}
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	*e = entry
	return nil
}

// SortNewestFirst orders entries by dateTime descending.
func SortNewestFirst(entries []JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DateTime.After(entries[j].DateTime)
	})
}

// FindEntry returns the index of the entry with the given id, or -1.
func FindEntry(entries []JournalEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
