package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"offlineform/internal/form"
	"offlineform/internal/queue"
)

// FromEntry converts a queue entry to its API representation.
func FromEntry(entry queue.Entry) QueueEntry {
	return QueueEntry{
		ID:       entry.ID,
		Action:   entry.Action,
		Method:   entry.Method,
		Body:     entry.URLEncoded,
		QueuedAt: FormatTime(entry.QueuedAt),
	}
}

// FromEntries converts entries, never returning nil.
func FromEntries(entries []queue.Entry) []QueueEntry {
	out := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// FormatTime renders t for API payloads; zero times render empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// Form builds the form described by the request. A verbatim body must be
// well-formed URL encoding and cannot be combined with fields.
func (r SubmitRequest) Form() (*form.Form, error) {
	if strings.TrimSpace(r.Action) == "" && strings.TrimSpace(r.PageURL) == "" {
		return nil, errors.New("action or pageUrl is required")
	}
	if r.Body != "" {
		if len(r.Fields) > 0 {
			return nil, errors.New("body and fields are mutually exclusive")
		}
		if _, err := form.ParseFields(r.Body); err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
	}
	f := &form.Form{
		Action:  strings.TrimSpace(r.Action),
		Method:  r.Method,
		Encoded: r.Body,
	}
	for _, field := range r.Fields {
		f.Fields = append(f.Fields, form.Field{Name: field.Name, Value: field.Value})
	}
	return f, nil
}
