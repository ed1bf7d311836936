package prompt

import (
	"fmt"
	"strings"

	"ai-knowledge-core/pkg/rag/search"
)

// AnswerBuilder composes the answer-generation prompt from retrieved
// chunks.
type AnswerBuilder struct {
	query   string
	results []search.Result
}

func NewAnswerBuilder(query string, results []search.Result) *AnswerBuilder {
	return &AnswerBuilder{
		query:   query,
		results: results,
	}
}

func (b *AnswerBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *AnswerBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.results) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, res := range b.results {
		fmt.Fprintf(prompt, "[%d] (%s)\n%s\n\n", i+1, res.SemanticTag, res.Content)
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *AnswerBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant answering questions over the user's document collection.\n")
	prompt.WriteString("Your goal is to provide exactly what the user needs based on their question and the reference material.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *AnswerBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Be complete - don't skip relevant information from the material\n")
	prompt.WriteString("3. Be clear and well-organized in your presentation\n")
	prompt.WriteString("4. If the material doesn't contain what's being asked, say so honestly\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *AnswerBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete response based on the reference material:")
}
