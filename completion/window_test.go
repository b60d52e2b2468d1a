package completion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Vityacv/editpredict/document"
)

func TestCollectWindow_SmallDocument(t *testing.T) {
	buf := document.NewTextBuffer("hello world")
	cursor := buf.AnchorAt(5)

	w := CollectWindow(buf, cursor)
	if w.Prefix != "hello" {
		t.Errorf("expected prefix %q, got %q", "hello", w.Prefix)
	}
	if w.Suffix != " world" {
		t.Errorf("expected suffix %q, got %q", " world", w.Suffix)
	}
}

func TestCollectWindow_RespectsBudgets(t *testing.T) {
	text := strings.Repeat("a", 10000)
	buf := document.NewTextBuffer(text)
	cursor := buf.AnchorAt(5000)

	w := CollectWindow(buf, cursor)
	if len(w.Prefix) != MaxPrefixBytes {
		t.Errorf("expected prefix of %d bytes, got %d", MaxPrefixBytes, len(w.Prefix))
	}
	if len(w.Suffix) != MaxSuffixBytes {
		t.Errorf("expected suffix of %d bytes, got %d", MaxSuffixBytes, len(w.Suffix))
	}
}

func TestCollectWindow_NeverSplitsMultiByteRunes(t *testing.T) {
	// 4-byte runes: no byte budget is a multiple of 4, so naive slicing
	// would split a rune at either edge.
	text := strings.Repeat("\U0001F600", 2000)
	buf := document.NewTextBuffer(text)

	for _, offset := range []int{0, 4, 2500, 4000, len(text)} {
		cursor := buf.AnchorAt(offset)
		w := CollectWindow(buf, cursor)
		if !utf8.ValidString(w.Prefix) {
			t.Errorf("offset %d: prefix splits a rune", offset)
		}
		if !utf8.ValidString(w.Suffix) {
			t.Errorf("offset %d: suffix splits a rune", offset)
		}
		if len(w.Prefix) > MaxPrefixBytes+utf8.UTFMax {
			t.Errorf("offset %d: prefix exceeds budget: %d", offset, len(w.Prefix))
		}
		if len(w.Suffix) > MaxSuffixBytes+utf8.UTFMax {
			t.Errorf("offset %d: suffix exceeds budget: %d", offset, len(w.Suffix))
		}
	}
}

func TestCollectWindow_WorkspaceSummary(t *testing.T) {
	buf := document.NewTextBuffer("x")
	buf.SetLanguage("Go")
	buf.SetPath("main.go")
	buf.SetSettings(document.LanguageSettings{TabSize: 8, InsertSpaces: false})

	w := CollectWindow(buf, buf.AnchorAt(0))
	want := "File: main.go\nLanguage: Go\nTab size: 8\nInsert spaces: false\n"
	if w.WorkspaceSummary != want {
		t.Errorf("expected summary %q, got %q", want, w.WorkspaceSummary)
	}
}

func TestCollectWindow_UnsavedUnknownFallbacks(t *testing.T) {
	buf := document.NewTextBuffer("x")
	w := CollectWindow(buf, buf.AnchorAt(0))
	if !strings.HasPrefix(w.WorkspaceSummary, "File: <untitled>\n") {
		t.Errorf("expected untitled sentinel, got %q", w.WorkspaceSummary)
	}
	if !strings.Contains(w.WorkspaceSummary, "Language: unknown\n") {
		t.Errorf("expected unknown language, got %q", w.WorkspaceSummary)
	}
}

func TestLanguageFromSummary(t *testing.T) {
	if got := languageFromSummary("File: a\nLanguage: Rust\n"); got != "Rust" {
		t.Errorf("expected Rust, got %q", got)
	}
	if got := languageFromSummary(""); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}
