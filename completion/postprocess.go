package completion

import (
	"strings"
	"unicode/utf8"
)

// Caps on how far overlap trimming scans, in bytes.
const (
	maxPrefixOverlap = 100
	maxSuffixOverlap = 80
)

// Clean post-processes an accumulated streamed completion. A byte order
// mark is trimmed from both ends. Chat-mode completions additionally get
// markdown fences stripped and redundant overlap with the surrounding
// document removed. FIM completions are returned as-is beyond the BOM
// trim: the model emits only the infill span. The result is either empty
// (no suggestion) or ready for direct insertion.
func Clean(raw, prefix, suffix string, fim bool) string {
	completion := strings.Trim(raw, "\uFEFF")
	if fim {
		return completion
	}
	completion = stripMarkdownCodeBlocks(completion)
	completion = trimRedundantPrefix(completion, prefix)
	completion = trimRedundantSuffix(completion, suffix)
	return completion
}

// stripMarkdownCodeBlocks removes a wrapping code fence emitted by chat
// models despite instructions. The opening fence line (including any
// language tag) and the closing fence line are dropped; inline
// single-backtick pairs lose one backtick from each end.
func stripMarkdownCodeBlocks(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 2 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			return strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	if strings.HasPrefix(text, "`") && strings.HasSuffix(text, "`") && len(text) > 2 {
		return text[1 : len(text)-1]
	}

	return text
}

// trimRedundantPrefix removes the longest run at the start of completion
// that duplicates the end of prefix. Longest match wins, fires at most
// once, and only rune-boundary-aligned candidates are considered.
func trimRedundantPrefix(completion, prefix string) string {
	max := min(len(prefix), len(completion), maxPrefixOverlap)
	for count := max; count >= 1; count-- {
		startInPrefix := len(prefix) - count
		if !isBoundary(completion, count) || !isBoundary(prefix, startInPrefix) {
			continue
		}
		if prefix[startInPrefix:] == completion[:count] {
			return completion[count:]
		}
	}
	return completion
}

// trimRedundantSuffix removes the longest run at the end of completion
// that duplicates the start of suffix. Same rules as the prefix side.
func trimRedundantSuffix(completion, suffix string) string {
	max := min(len(suffix), len(completion), maxSuffixOverlap)
	for count := max; count >= 1; count-- {
		endInCompletion := len(completion) - count
		if !isBoundary(completion, endInCompletion) || !isBoundary(suffix, count) {
			continue
		}
		if completion[endInCompletion:] == suffix[:count] {
			return completion[:endInCompletion]
		}
	}
	return completion
}

// isBoundary reports whether i is a rune boundary of s.
func isBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}
