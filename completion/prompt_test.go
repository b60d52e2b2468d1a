package completion

import (
	"strings"
	"testing"

	"github.com/Vityacv/editpredict/llm"
)

func TestSupportsFIM(t *testing.T) {
	cases := []struct {
		model string
		want  bool
	}{
		{"codellama:7b", true},
		{"CODE-LLAMA-13b", true},
		{"deepseek-coder", true},
		{"DeepSeek-Coder-V2", true},
		{"starcoder2:3b", true},
		{"codegemma:2b", true},
		{"granite-code:8b", true},
		{"llama3:8b", false},
		{"mistral", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := SupportsFIM(tc.model); got != tc.want {
			t.Errorf("SupportsFIM(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestBuildMessages_DeepSeekFIM(t *testing.T) {
	window := TextWindow{Prefix: "def f():\n    ", Suffix: "\nprint(f())"}
	msgs := BuildMessages(window, "deepseek-coder")

	if len(msgs) != 1 {
		t.Fatalf("expected single user message, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser {
		t.Errorf("expected user role, got %q", msgs[0].Role)
	}
	want := "<｜fim▁begin｜>def f():\n    <｜fim▁hole｜>\nprint(f())<｜fim▁end｜>"
	if msgs[0].Content != want {
		t.Errorf("expected %q, got %q", want, msgs[0].Content)
	}
}

func TestBuildMessages_FIMDialects(t *testing.T) {
	window := TextWindow{Prefix: "P", Suffix: "S"}
	cases := []struct {
		model string
		want  string
	}{
		{"codellama:13b", "<PRE> P <SUF>S <MID>"},
		{"code-llama", "<PRE> P <SUF>S <MID>"},
		{"starcoder2", "<fim_prefix>P<fim_suffix>S<fim_middle>"},
		{"codegemma", "<|fim_prefix|>P<|fim_suffix|>S<|fim_middle|>"},
		{"granite-code", "<|fim_prefix|>P<|fim_suffix|>S<|fim_middle|>"},
	}
	for _, tc := range cases {
		msgs := BuildMessages(window, tc.model)
		if len(msgs) != 1 || msgs[0].Content != tc.want {
			t.Errorf("model %q: expected %q, got %v", tc.model, tc.want, msgs)
		}
	}
}

func TestBuildMessages_ChatMode(t *testing.T) {
	window := TextWindow{
		Prefix:           "line1\nline2\n",
		Suffix:           "after1\nafter2",
		WorkspaceSummary: "File: a.py\nLanguage: Python\nTab size: 4\nInsert spaces: true\n",
	}
	msgs := BuildMessages(window, "llama3:8b")

	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("expected system role first, got %q", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "code autocompletion engine") {
		t.Errorf("unexpected system prompt: %q", msgs[0].Content)
	}

	user := msgs[1].Content
	for _, want := range []string{
		"Language: Python\n",
		"Code context before cursor:\nline1\nline2\n",
		"█  <-- Complete from here\n",
		"Code context after cursor:\nafter1\nafter2\n",
		"Generate only the code that should be inserted at the cursor position.\n",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestBuildMessages_ChatPrefixCappedAtFifteenLines(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	window := TextWindow{Prefix: strings.Join(lines, "\n")}
	msgs := BuildMessages(window, "llama3")

	user := msgs[1].Content
	if strings.Contains(user, "\n"+lines[14]+"\n") {
		t.Errorf("line 15 from the end should have been dropped")
	}
	// Most-recent lines survive, in order.
	idxA := strings.Index(user, lines[28])
	idxB := strings.Index(user, lines[29])
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Errorf("recent prefix lines missing or out of order")
	}
}

func TestBuildMessages_ChatSuffixCappedAtThreeLines(t *testing.T) {
	window := TextWindow{Suffix: "s1\ns2\ns3\ns4"}
	msgs := BuildMessages(window, "llama3")
	user := msgs[1].Content
	if !strings.Contains(user, "s3") {
		t.Errorf("third suffix line missing")
	}
	if strings.Contains(user, "s4") {
		t.Errorf("fourth suffix line should have been dropped")
	}
}

func TestBuildMessages_ChatBlankSuffixOmitted(t *testing.T) {
	window := TextWindow{Prefix: "x\n", Suffix: "  \n\t"}
	msgs := BuildMessages(window, "llama3")
	if strings.Contains(msgs[1].Content, "Code context after cursor") {
		t.Errorf("blank suffix should not produce an after-cursor block")
	}
}
