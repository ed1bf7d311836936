package chunker

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"ai-knowledge-core/internal/entity"
)

// rawChunk is the wire shape the model is asked to emit. content_b64 is
// the escape hatch for text that would break JSON escaping.
type rawChunk struct {
	Content     string `json:"content"`
	ContentB64  string `json:"content_b64"`
	SemanticTag string `json:"semantic_tag"`
	Sentiment   string `json:"sentiment"`
}

func (r rawChunk) toChunk() (Chunk, bool) {
	content := r.Content
	if content == "" && r.ContentB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(r.ContentB64)
		if err == nil {
			content = string(decoded)
		}
	}
	if strings.TrimSpace(content) == "" {
		return Chunk{}, false
	}
	return Chunk{
		Content:     content,
		SemanticTag: entity.NormalizeTag(strings.ToLower(strings.TrimSpace(r.SemanticTag))),
		Sentiment:   entity.NormalizeSentiment(strings.ToLower(strings.TrimSpace(r.Sentiment))),
	}, true
}

// ParseChunks recovers a chunk list from whatever the model produced.
// Layered: strict array parse bounded by the outermost brackets first,
// then a per-object scan keeping whatever parses. Returns nil when
// nothing usable came back; parsing is a quality signal, not an error.
func ParseChunks(text string) []Chunk {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		var raws []rawChunk
		if err := json.Unmarshal([]byte(text[start:end+1]), &raws); err == nil {
			return collect(raws)
		}
	}

	// Strict parse failed; salvage individual objects.
	var raws []rawChunk
	for _, candidate := range scanObjects(text) {
		var r rawChunk
		if err := json.Unmarshal([]byte(candidate), &r); err == nil {
			raws = append(raws, r)
		}
	}
	return collect(raws)
}

func collect(raws []rawChunk) []Chunk {
	var chunks []Chunk
	for _, r := range raws {
		if c, ok := r.toChunk(); ok {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// scanObjects extracts balanced top-level {...} slices, tracking string
// literals and escapes so braces inside content don't break the scan.
func scanObjects(text string) []string {
	var objects []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					objects = append(objects, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return objects
}
