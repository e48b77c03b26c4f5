package llm

import "strings"

const defaultPersona = "You are a British skincare expert."

// BuildSystemPrompt returns the system message for an article request.
func BuildSystemPrompt(req ArticleRequest) string {
	if p := strings.TrimSpace(req.Persona); p != "" {
		return p
	}
	return defaultPersona
}

// BuildUserPrompt composes the writing instruction around the keyword. When a
// content brief from the optimization report is available it is appended so
// the model writes against the terms the report asks for.
func BuildUserPrompt(req ArticleRequest) string {
	var b strings.Builder
	b.WriteString("Write an engaging, informative blog post about '")
	b.WriteString(req.Keyword)
	b.WriteString("' with at least 80% Page Optimizer Pro (POP) optimization. ")
	b.WriteString("Ensure it follows Google's content guidelines and is written in British English.")

	if brief := strings.TrimSpace(req.Brief); brief != "" {
		b.WriteString("\n\nOptimization brief (work these terms in naturally):\n")
		// The brief can run long; the leading section carries the term list.
		if len(brief) > 4000 {
			brief = brief[:4000]
		}
		b.WriteString(brief)
	}
	return b.String()
}
