package models

import "time"

// JournalEventType names a change to a user's journal.
type JournalEventType string

const (
	EventEntryCreated JournalEventType = "created"
	EventEntryUpdated JournalEventType = "updated"
	EventEntryDeleted JournalEventType = "deleted"
	EventImagesAdded  JournalEventType = "images_added"
)

// JournalEvent is published after every successful journal write and streamed to the owner's sockets.
type JournalEvent struct {
	Type      JournalEventType `json:"type"`
	EntryID   string           `json:"entryId"`
	Timestamp time.Time        `json:"timestamp"`
}
