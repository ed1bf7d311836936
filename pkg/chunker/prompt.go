package chunker

import "strings"

// buildChunkPrompt asks the model to partition one block into tagged
// chunks, emitting only a JSON array so the tolerant parser has the best
// chance of recovering output.
func buildChunkPrompt(block string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Partition the text below into semantically coherent chunks.\n")
	prompt.WriteString("A chunk is a run of consecutive sentences serving one role in the text.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("- Extract content verbatim. Do not paraphrase, summarize, or drop text; every sentence of the input must appear in exactly one chunk.\n")
	prompt.WriteString("- Tag each chunk with semantic_tag: one of key_idea, evidence, event, detail, question, summary, other.\n")
	prompt.WriteString("- Tag each chunk with sentiment: one of positive, negative, neutral.\n")
	prompt.WriteString("- Respond with ONLY a JSON array of objects: {\"content\": \"...\", \"semantic_tag\": \"...\", \"sentiment\": \"...\"}.\n")
	prompt.WriteString("- If a chunk's content cannot be safely JSON-escaped, emit it base64-encoded under \"content_b64\" instead of \"content\".\n")
	prompt.WriteString("- No prose before or after the array.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<text>\n")
	prompt.WriteString(block)
	prompt.WriteString("\n</text>\n")

	return prompt.String()
}
