package completion

import "testing"

func TestClean_StripsPythonFence(t *testing.T) {
	raw := "```python\nreturn a + b\n```"
	got := Clean(raw, "def add(a, b):\n    ", "", false)
	if got != "return a + b" {
		t.Errorf("expected %q, got %q", "return a + b", got)
	}
}

func TestClean_StripsFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\nx := 1\ny := 2\n```"
	got := Clean(raw, "", "", false)
	if got != "x := 1\ny := 2" {
		t.Errorf("expected interior lines, got %q", got)
	}
}

func TestClean_LeavesUnterminatedFenceAlone(t *testing.T) {
	raw := "```python\nreturn a + b"
	if got := Clean(raw, "", "", false); got != raw {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestClean_StripsInlineBackticks(t *testing.T) {
	if got := Clean("`x += 1`", "", "", false); got != "x += 1" {
		t.Errorf("expected %q, got %q", "x += 1", got)
	}
	// A lone backtick pair with nothing inside is too short to strip.
	if got := Clean("``", "", "", false); got != "``" {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestClean_TrimsRedundantPrefixOverlap(t *testing.T) {
	prefix := "import os\nimport numpy as np"
	raw := "import numpy as np\nprint(np)"
	got := Clean(raw, prefix, "", false)
	if got != "\nprint(np)" {
		t.Errorf("expected %q, got %q", "\nprint(np)", got)
	}
}

func TestClean_TrimsRedundantSuffixOverlap(t *testing.T) {
	suffix := "}\n"
	raw := "return nil\n}"
	got := Clean(raw, "", suffix, false)
	if got != "return nil\n" {
		t.Errorf("expected %q, got %q", "return nil\n", got)
	}
}

func TestClean_OverlapTrimLongestMatchWins(t *testing.T) {
	// Both "b" and "ab" match; the longer run must be the one removed.
	got := Clean("abc", "xab", "", false)
	if got != "c" {
		t.Errorf("expected %q, got %q", "c", got)
	}
}

func TestClean_OverlapTrimIdempotent(t *testing.T) {
	prefix := "import os\nimport numpy as np"
	once := trimRedundantPrefix("import numpy as np\nprint(np)", prefix)
	if once != "\nprint(np)" {
		t.Fatalf("expected %q, got %q", "\nprint(np)", once)
	}
	// Re-running removes nothing further: only the exact matched run goes.
	if twice := trimRedundantPrefix(once, prefix); twice != once {
		t.Errorf("prefix trim not idempotent: %q then %q", once, twice)
	}
	if twice := trimRedundantSuffix(once, ""); twice != once {
		t.Errorf("suffix trim changed text with empty suffix: %q", twice)
	}
}

func TestClean_IdempotentOnCleanedText(t *testing.T) {
	prefix := "def add(a, b):\n    "
	once := Clean("```python\nreturn a + b\n```", prefix, "", false)
	twice := Clean(once, prefix, "", false)
	if once != twice {
		t.Errorf("clean is not idempotent: %q then %q", once, twice)
	}
}

func TestClean_FIMSkipsFenceAndOverlap(t *testing.T) {
	raw := "```python\nimport numpy as np\n```"
	got := Clean(raw, "import numpy as np", "", true)
	if got != raw {
		t.Errorf("FIM mode must pass text through, got %q", got)
	}
}

func TestClean_TrimsByteOrderMark(t *testing.T) {
	if got := Clean("\uFEFFx\uFEFF", "", "", true); got != "x" {
		t.Errorf("expected BOM trimmed, got %q", got)
	}
}

func TestClean_MultiByteBoundarySafety(t *testing.T) {
	prefix := "héllo"
	raw := "héllo world"
	got := Clean(raw, prefix, "", false)
	if got != " world" {
		t.Errorf("expected %q, got %q", " world", got)
	}
}

func TestClean_EmptyInput(t *testing.T) {
	if got := Clean("", "prefix", "suffix", false); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
