package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const recordVersion = 1

var (
	// ErrCorrupt indicates the stored value is not a queue record.
	ErrCorrupt = errors.New("queue record is corrupt")
	// ErrUnsupportedVersion indicates a record written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported queue record version")
)

type record struct {
	Version int      `json:"version"`
	Entries []*Entry `json:"entries"`
}

// encode serializes entries as a versioned record.
func encode(entries []Entry) (string, error) {
	rec := record{Version: recordVersion, Entries: make([]*Entry, 0, len(entries))}
	for i := range entries {
		rec.Entries = append(rec.Entries, &entries[i])
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode queue record: %w", err)
	}
	return string(data), nil
}

// decode parses a stored value, filtering placeholders and assigning missing
// identifiers. Both versioned records and legacy bare arrays are accepted.
// assigned reports whether any identifier was generated, meaning the stored
// value must be rewritten for identities to survive the next read.
func decode(raw string) ([]Entry, bool, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Entry{}, false, nil
	}

	var items []*Entry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	case '{':
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if rec.Version != recordVersion {
			return nil, false, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
		}
		items = rec.Entries
	default:
		return nil, false, fmt.Errorf("%w: unexpected leading %q", ErrCorrupt, data[0])
	}

	entries := make([]Entry, 0, len(items))
	var assigned bool
	for _, item := range items {
		if item == nil || item.IsPlaceholder() {
			continue
		}
		entry := *item
		if entry.ID == "" {
			entry.ID = uuid.NewString()
			assigned = true
		}
		entries = append(entries, entry)
	}
	return entries, assigned, nil
}
