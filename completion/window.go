package completion

import (
	"fmt"
	"strings"

	"github.com/Vityacv/editpredict/document"
)

// Byte budgets for the context slices around the cursor. The prefix is
// weighted ~4x the suffix: completions depend far more on what precedes
// the cursor.
const (
	MaxPrefixBytes = 2000
	MaxSuffixBytes = 500
)

// TextWindow is a bounded slice of the document around a cursor plus a
// small workspace metadata block. Built fresh per refresh; immutable.
type TextWindow struct {
	Prefix           string
	Suffix           string
	WorkspaceSummary string
}

// CollectWindow extracts the text window around the cursor. Both window
// edges are snapped outward to rune boundaries so a multi-byte character
// is never split. Pure function of (buffer snapshot, cursor, settings).
func CollectWindow(buf document.Buffer, cursor document.Anchor) TextWindow {
	snapshot := buf.Snapshot()
	cursorOffset := snapshot.BoundaryBefore(cursor.Offset)

	start := snapshot.BoundaryBefore(cursorOffset - MaxPrefixBytes)
	end := snapshot.BoundaryAfter(cursorOffset + MaxSuffixBytes)

	prefix := snapshot.Slice(start, cursorOffset)
	suffix := snapshot.Slice(cursorOffset, end)

	language := buf.LanguageAt(cursor)
	if language == "" {
		language = "unknown"
	}
	settings := buf.SettingsAt(cursor)
	path := buf.Path()
	if path == "" {
		path = "<untitled>"
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, "File: %s\n", path)
	fmt.Fprintf(&summary, "Language: %s\n", language)
	fmt.Fprintf(&summary, "Tab size: %d\n", settings.TabSize)
	fmt.Fprintf(&summary, "Insert spaces: %t\n", settings.InsertSpaces)

	return TextWindow{
		Prefix:           prefix,
		Suffix:           suffix,
		WorkspaceSummary: summary.String(),
	}
}

// languageFromSummary pulls the language name back out of a workspace
// summary block, falling back to "unknown".
func languageFromSummary(summary string) string {
	for _, line := range strings.Split(summary, "\n") {
		if lang, ok := strings.CutPrefix(line, "Language: "); ok {
			return lang
		}
	}
	return "unknown"
}
