// Package document provides the text-buffer collaborator consumed by
// completion providers: immutable snapshots with rune-boundary-safe
// slicing, anchors, and per-language editing settings.
package document

import (
	"sync/atomic"
	"unicode/utf8"
)

// BufferID identifies a buffer for the lifetime of the process.
type BufferID uint64

// Anchor is a stable logical position in a document, resolved to a byte
// offset against the snapshot it was created from. Anchors compare with ==.
type Anchor struct {
	Offset int
}

// LanguageSettings are the effective editing settings at a position.
type LanguageSettings struct {
	TabSize      int
	InsertSpaces bool
}

// DefaultSettings returns the settings used when a buffer has none.
func DefaultSettings() LanguageSettings {
	return LanguageSettings{TabSize: 4, InsertSpaces: true}
}

// Buffer is the document model a completion provider reads from.
type Buffer interface {
	ID() BufferID
	// Snapshot returns an immutable view of the current text.
	Snapshot() Snapshot
	// LanguageAt returns the language name at the anchor, or "" when unknown.
	LanguageAt(a Anchor) string
	// SettingsAt returns the effective editing settings at the anchor.
	SettingsAt(a Anchor) LanguageSettings
	// Path returns the file's logical path, or "" for unsaved buffers.
	Path() string
}

// Snapshot is an immutable view of buffer text supporting
// rune-boundary-safe slicing.
type Snapshot struct {
	text string
}

// NewSnapshot wraps text in a snapshot.
func NewSnapshot(text string) Snapshot { return Snapshot{text: text} }

// Text returns the full text.
func (s Snapshot) Text() string { return s.text }

// Len returns the text length in bytes.
func (s Snapshot) Len() int { return len(s.text) }

// IsBoundary reports whether off is a valid rune boundary.
func (s Snapshot) IsBoundary(off int) bool {
	if off <= 0 || off >= len(s.text) {
		return true
	}
	return utf8.RuneStart(s.text[off])
}

// BoundaryBefore snaps off to the nearest rune boundary at or before it.
func (s Snapshot) BoundaryBefore(off int) int {
	if off < 0 {
		return 0
	}
	if off > len(s.text) {
		return len(s.text)
	}
	for off > 0 && !utf8.RuneStart(s.text[off]) {
		off--
	}
	return off
}

// BoundaryAfter snaps off to the nearest rune boundary at or after it.
func (s Snapshot) BoundaryAfter(off int) int {
	if off < 0 {
		return 0
	}
	if off > len(s.text) {
		return len(s.text)
	}
	for off < len(s.text) && !utf8.RuneStart(s.text[off]) {
		off++
	}
	return off
}

// Slice returns text[start:end]. Both offsets must be rune boundaries;
// callers snap with BoundaryBefore/BoundaryAfter first.
func (s Snapshot) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s.text) {
		end = len(s.text)
	}
	if start >= end {
		return ""
	}
	return s.text[start:end]
}

var nextBufferID atomic.Uint64

// TextBuffer is an in-memory Buffer implementation, sufficient for an
// embedding host and for tests. It is not safe for concurrent mutation;
// the host owns it from one logical thread of control.
type TextBuffer struct {
	id       BufferID
	text     string
	language string
	path     string
	settings LanguageSettings
}

// NewTextBuffer creates a buffer with the given content and default settings.
func NewTextBuffer(text string) *TextBuffer {
	return &TextBuffer{
		id:       BufferID(nextBufferID.Add(1)),
		text:     text,
		settings: DefaultSettings(),
	}
}

func (b *TextBuffer) ID() BufferID       { return b.id }
func (b *TextBuffer) Snapshot() Snapshot { return NewSnapshot(b.text) }
func (b *TextBuffer) Path() string       { return b.path }

func (b *TextBuffer) LanguageAt(Anchor) string           { return b.language }
func (b *TextBuffer) SettingsAt(Anchor) LanguageSettings { return b.settings }

// SetText replaces the buffer content.
func (b *TextBuffer) SetText(text string) { b.text = text }

// SetLanguage sets the language name reported for every position.
func (b *TextBuffer) SetLanguage(name string) { b.language = name }

// SetPath sets the logical file path.
func (b *TextBuffer) SetPath(path string) { b.path = path }

// SetSettings sets the editing settings reported for every position.
func (b *TextBuffer) SetSettings(s LanguageSettings) { b.settings = s }

// AnchorAt returns an anchor at the given byte offset, snapped back to
// the nearest rune boundary.
func (b *TextBuffer) AnchorAt(offset int) Anchor {
	return Anchor{Offset: b.Snapshot().BoundaryBefore(offset)}
}
