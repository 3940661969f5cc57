/*
Package cache owns the single completion snapshot of the active document.

A Snapshot is persisted wholesale through a Store under one key. The Manager
stamps it on every Update, reports expiry after a TTL, and decides when a
refresh is needed. Consistency is last-write-wins: two refreshes that finish
in sequence leave the later snapshot in place.
*/
package cache

import (
	"errors"
)

// ErrNotFound is returned by a Store when the key holds no value.
var ErrNotFound = errors.New("cache: key not found")

// Snapshot is the cached token state of one source document. Its fields are
// limited to strings, numbers, arrays and maps so it stays JSON-serializable.
type Snapshot struct {
	SourcePath string         `msgpack:"cachedPath" json:"cachedPath"`
	CapturedAt int64          `msgpack:"date" json:"date"` // unix milliseconds
	Words      []string       `msgpack:"words" json:"words"`
	Lines      []string       `msgpack:"lines" json:"lines"`
	WordCount  map[string]int `msgpack:"wordCount" json:"wordCount"`
}

// Field names a Snapshot field for Manager.Get.
type Field string

const (
	FieldSourcePath Field = "cachedPath"
	FieldCapturedAt Field = "date"
	FieldWords      Field = "words"
	FieldLines      Field = "lines"
	FieldWordCount  Field = "wordCount"
)

// Value returns the field's value, or false for an unknown field.
func (s Snapshot) Value(f Field) (any, bool) {
	switch f {
	case FieldSourcePath:
		return s.SourcePath, true
	case FieldCapturedAt:
		return s.CapturedAt, true
	case FieldWords:
		return s.Words, true
	case FieldLines:
		return s.Lines, true
	case FieldWordCount:
		return s.WordCount, true
	}
	return nil, false
}

// Empty reports whether the snapshot carries no tokens.
func (s Snapshot) Empty() bool {
	return len(s.Words) == 0 && len(s.Lines) == 0
}

func (s Snapshot) withDefaults() Snapshot {
	if s.Words == nil {
		s.Words = []string{}
	}
	if s.Lines == nil {
		s.Lines = []string{}
	}
	if s.WordCount == nil {
		s.WordCount = map[string]int{}
	}
	return s
}
