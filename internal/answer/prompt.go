package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"notes-backend/internal/documents"
)

const promptTemplate = `You are a helpful AI study assistant.

Answer ONLY using the notes below.
If the answer is not present in the notes, say so clearly.

NOTES:
%s

QUESTION:
%s

Explain in simple student-friendly language.`

// BuildPrompt wraps the question and context in the grounding instruction.
func BuildPrompt(question, context string) string {
	return fmt.Sprintf(promptTemplate, context, strings.TrimSpace(question))
}

// excerpt renders one context block: the display name followed by at most
// MaxExcerptRunes characters of text.
func excerpt(doc documents.Document, text string) string {
	return doc.FileName + "\n" + truncateRunes(text, MaxExcerptRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
