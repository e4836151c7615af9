package queue

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one captured form submission. Entries are immutable once created.
type Entry struct {
	ID         string    `json:"id,omitempty"`
	Action     string    `json:"action"`
	Method     string    `json:"method"`
	URLEncoded string    `json:"urlEncoded"`
	QueuedAt   time.Time `json:"queued_at,omitzero"`
}

// NewEntry builds an entry with a fresh identity for the given submission.
func NewEntry(action, method, urlEncoded string) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Action:     action,
		Method:     method,
		URLEncoded: urlEncoded,
		QueuedAt:   time.Now().UTC(),
	}
}

// IsPlaceholder reports whether the entry carries no submission at all.
func (e Entry) IsPlaceholder() bool {
	return e.Action == "" && e.Method == "" && e.URLEncoded == ""
}

// Remove returns a copy of entries without the first entry whose ID matches.
// The input slice is never modified.
func Remove(entries []Entry, id string) []Entry {
	out := make([]Entry, 0, len(entries))
	removed := false
	for _, entry := range entries {
		if !removed && entry.ID == id {
			removed = true
			continue
		}
		out = append(out, entry)
	}
	return out
}
