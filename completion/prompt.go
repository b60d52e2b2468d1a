package completion

import (
	"fmt"
	"strings"

	"github.com/Vityacv/editpredict/llm"
)

// fimModels is the allow-list of model families with native
// fill-in-the-middle support, matched case-insensitively by substring.
var fimModels = []string{
	"codellama",
	"code-llama",
	"deepseek",
	"starcoder",
	"codegemma",
	"granite-code",
}

// SupportsFIM reports whether the model understands a fill-in-the-middle
// prompt. Unlisted models always get chat-mode prompts.
func SupportsFIM(model string) bool {
	lower := strings.ToLower(model)
	for _, name := range fimModels {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

const chatSystemPrompt = "You are a code autocompletion engine. Generate ONLY the code to insert at the cursor position. Do not include any explanations, comments about your completion, or markdown formatting. Do not repeat existing code. Focus on completing the current line or block based on context."

// Caps on how much of the window the chat prompt repeats. Excess lines
// are dropped, not summarized.
const (
	chatPrefixLines = 15
	chatSuffixLines = 3
)

// BuildMessages converts a text window into the ordered message list for
// the request. FIM-capable models get a single user message with the
// model family's delimiter tokens; everything else gets a chat prompt.
// Pure construction, no I/O.
func BuildMessages(window TextWindow, model string) []llm.Message {
	if SupportsFIM(model) {
		return []llm.Message{{Role: llm.RoleUser, Content: fimContent(window, model)}}
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: chatSystemPrompt},
		{Role: llm.RoleUser, Content: chatContent(window)},
	}
}

// fimContent embeds prefix and suffix verbatim between family-specific
// delimiter tokens. First match wins.
func fimContent(window TextWindow, model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "codellama") || strings.Contains(lower, "code-llama"):
		return fmt.Sprintf("<PRE> %s <SUF>%s <MID>", window.Prefix, window.Suffix)
	case strings.Contains(lower, "deepseek"):
		return fmt.Sprintf("<｜fim▁begin｜>%s<｜fim▁hole｜>%s<｜fim▁end｜>", window.Prefix, window.Suffix)
	case strings.Contains(lower, "starcoder"):
		return fmt.Sprintf("<fim_prefix>%s<fim_suffix>%s<fim_middle>", window.Prefix, window.Suffix)
	default:
		return fmt.Sprintf("<|fim_prefix|>%s<|fim_suffix|>%s<|fim_middle|>", window.Prefix, window.Suffix)
	}
}

func chatContent(window TextWindow) string {
	var content strings.Builder

	fmt.Fprintf(&content, "Language: %s\n", languageFromSummary(window.WorkspaceSummary))

	prefixLines := splitLines(window.Prefix)
	if len(prefixLines) > chatPrefixLines {
		prefixLines = prefixLines[len(prefixLines)-chatPrefixLines:]
	}
	if len(prefixLines) > 0 {
		content.WriteString("\nCode context before cursor:\n")
		for _, line := range prefixLines {
			content.WriteString(line)
			content.WriteByte('\n')
		}
	}

	content.WriteString("█  <-- Complete from here\n")

	if strings.TrimSpace(window.Suffix) != "" {
		suffixLines := splitLines(window.Suffix)
		if len(suffixLines) > chatSuffixLines {
			suffixLines = suffixLines[:chatSuffixLines]
		}
		if len(suffixLines) > 0 {
			content.WriteString("\nCode context after cursor:\n")
			for _, line := range suffixLines {
				content.WriteString(line)
				content.WriteByte('\n')
			}
		}
	}

	content.WriteString("\nGenerate only the code that should be inserted at the cursor position.\n")

	return content.String()
}

// splitLines splits on newlines without producing a trailing empty line
// for text that ends in one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
