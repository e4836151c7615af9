package queue

import (
	"context"
	"fmt"
)

// KV is the durable key/value storage holding the queue record.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Update atomically rewrites the value under key. fn may run more than
	// once when the store is contended.
	Update(ctx context.Context, key string, fn func(old string, ok bool) (string, error)) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Queue reads and writes the submission queue stored under one key.
type Queue struct {
	kv  KV
	key string
}

// New returns a queue stored under key in kv.
func New(kv KV, key string) *Queue {
	return &Queue{kv: kv, key: key}
}

// Key returns the storage key holding the queue.
func (q *Queue) Key() string {
	return q.key
}

// Load returns the filtered entries. exists is false when no queue has been
// persisted yet; an absent queue is not an error. Entries stored without an
// identity are given one and written back, so identities stay stable
// across loads.
func (q *Queue) Load(ctx context.Context) (entries []Entry, exists bool, err error) {
	raw, ok, err := q.kv.Get(ctx, q.key)
	if err != nil {
		return nil, false, fmt.Errorf("load queue: %w", err)
	}
	if !ok {
		return []Entry{}, false, nil
	}
	entries, assigned, err := decode(raw)
	if err != nil {
		return nil, true, fmt.Errorf("load queue %q: %w", q.key, err)
	}
	if assigned {
		entries, err = q.Update(ctx, func(current []Entry) ([]Entry, error) {
			return current, nil
		})
		if err != nil {
			return nil, true, err
		}
	}
	return entries, true, nil
}

// Update applies fn to the stored entries and persists the result in one
// atomic step, so a concurrent writer on another connection or process is
// never overwritten. fn may run more than once and must not have side
// effects. The persisted entries are returned.
func (q *Queue) Update(ctx context.Context, fn func(current []Entry) ([]Entry, error)) ([]Entry, error) {
	var result []Entry
	err := q.kv.Update(ctx, q.key, func(old string, ok bool) (string, error) {
		current := []Entry{}
		if ok {
			decoded, _, err := decode(old)
			if err != nil {
				return "", err
			}
			current = decoded
		}
		next, err := fn(current)
		if err != nil {
			return "", err
		}
		raw, err := encode(next)
		if err != nil {
			return "", err
		}
		result = next
		return raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update queue %q: %w", q.key, err)
	}
	return result, nil
}

// Append adds entry at the tail and returns the new queue contents.
func (q *Queue) Append(ctx context.Context, entry Entry) ([]Entry, error) {
	return q.Update(ctx, func(current []Entry) ([]Entry, error) {
		return append(current, entry), nil
	})
}

// Drop removes the entry with id and returns the remaining entries.
func (q *Queue) Drop(ctx context.Context, id string) ([]Entry, error) {
	return q.Update(ctx, func(current []Entry) ([]Entry, error) {
		return Remove(current, id), nil
	})
}

// Clear deletes the persisted queue and reports whether one existed.
func (q *Queue) Clear(ctx context.Context) (bool, error) {
	removed, err := q.kv.Delete(ctx, q.key)
	if err != nil {
		return false, fmt.Errorf("clear queue: %w", err)
	}
	return removed, nil
}
