// Package naming turns function names into collision-free output slot names.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// MaxBaseLen is the maximum length of a sanitized base identifier.
const MaxBaseLen = 50

// Store is the persisted namespace slots are allocated in.
// Create must fail with an error wrapping fs.ErrExist when the slot is taken.
type Store interface {
	Exists(name string) (bool, error)
	Create(name string, data []byte) error
}

// Sanitize replaces every character outside [A-Za-z0-9_] with '_' and
// truncates the result to MaxBaseLen characters.
func Sanitize(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == MaxBaseLen {
			break
		}
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}

// Table tracks the next sequence number for every base identifier in a run.
// A Table is not safe for concurrent use; a run places its records one at a
// time so probing stays monotonic.
type Table struct {
	next map[string]int
}

// NewTable returns an empty allocation table.
func NewTable() *Table {
	return &Table{next: make(map[string]int)}
}

// Next reports the sequence number the next record for base would probe first.
func (t *Table) Next(base string) int {
	if n, ok := t.next[base]; ok {
		return n
	}
	return 1
}

// Slot formats the slot name for base and sequence n.
func Slot(base string, n int, ext string) string {
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// Place writes data under the first free slot "{base}_{n}{ext}" for the
// function name and returns the slot. The store is probed on every call,
// even when the table is ahead, because the namespace may hold output from
// an earlier run. On success the counter for base moves past the slot.
func (t *Table) Place(function, ext string, data []byte, store Store) (string, error) {
	base := Sanitize(function)
	n := t.Next(base)
	for {
		slot := Slot(base, n, ext)
		taken, err := store.Exists(slot)
		if err != nil {
			t.next[base] = n
			return "", fmt.Errorf("probe %s: %w", slot, err)
		}
		if taken {
			n++
			continue
		}
		if err := store.Create(slot, data); err != nil {
			if errors.Is(err, fs.ErrExist) {
				n++
				continue
			}
			// Slots below n are known to be taken; keep n for the next try.
			t.next[base] = n
			return "", fmt.Errorf("create %s: %w", slot, err)
		}
		t.next[base] = n + 1
		return slot, nil
	}
}
