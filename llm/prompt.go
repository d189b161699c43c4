package llm

import (
	"fmt"
	"strings"

	"github.com/tutorstack/retrieval/schema"
)

// Disclaimer is appended to every general-knowledge fallback answer.
const Disclaimer = "Note: this answer is based on general knowledge and was not sourced from your textbook."

// Apology is returned to the student when the sourced generation call fails.
const Apology = "Sorry, I could not prepare an answer for this question right now. Please try again in a moment."

const sourcedSystemPrompt = `You are a helpful tutor for school students. Answer the student's question using ONLY the provided study material. Quote facts and terminology exactly as the material states them. If the material covers the question only partially, answer what it covers and say so. Keep the explanation clear and appropriate for the student's class level. Answer in the same language the question was asked in.`

const generalSystemPrompt = `You are a helpful tutor for school students. No study material is available for this question, so answer from your own general knowledge. Keep the explanation clear and appropriate for the student's class level. Answer in the same language the question was asked in. End your answer with this exact sentence on its own line: ` + Disclaimer

// BuildSourcedPrompt renders retrieved chunks into the user message for a
// sourced answer. Chunks arrive already fused and budget-trimmed.
func BuildSourcedPrompt(q schema.QueryContext, chunks []schema.Chunk) (systemPrompt, userMessage string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nStudent class: %d\n", q.Subject, q.ClassLevel)
	if q.Chapter != "" {
		fmt.Fprintf(&b, "Chapter: %s\n", q.Chapter)
	}
	b.WriteString("\nStudy material:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] (class %d, %s", i+1, c.ClassLevel, c.Source)
		if c.Chapter != "" {
			fmt.Fprintf(&b, ", chapter %s", c.Chapter)
		}
		b.WriteString(")\n")
		b.WriteString(strings.TrimSpace(c.Text))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", q.Question)
	return sourcedSystemPrompt, b.String()
}

// BuildGeneralPrompt renders the user message for the general-knowledge
// fallback stage.
func BuildGeneralPrompt(q schema.QueryContext) (systemPrompt, userMessage string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nStudent class: %d\n", q.Subject, q.ClassLevel)
	if q.Chapter != "" {
		fmt.Fprintf(&b, "Chapter: %s\n", q.Chapter)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", q.Question)
	return generalSystemPrompt, b.String()
}

// EnsureDisclaimer appends the disclaimer when the model omitted it.
func EnsureDisclaimer(answer string) string {
	if strings.Contains(answer, Disclaimer) {
		return answer
	}
	return strings.TrimRight(answer, "\n") + "\n\n" + Disclaimer
}
