package chunker

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChunks(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantCount    int
		wantContents []string
	}{
		{
			name:         "clean json array",
			input:        `[{"content":"First point.","semantic_tag":"key_idea","sentiment":"positive"},{"content":"Second point.","semantic_tag":"detail","sentiment":"neutral"}]`,
			wantCount:    2,
			wantContents: []string{"First point.", "Second point."},
		},
		{
			name: "fenced code block",
			input: "Here are the chunks:\n```json\n[{\"content\":\"Fenced.\",\"semantic_tag\":\"evidence\",\"sentiment\":\"neutral\"}]\n```\nDone.",
			wantCount:    1,
			wantContents: []string{"Fenced."},
		},
		{
			name:         "prose before and after array",
			input:        `Sure! [{"content":"Wrapped.","semantic_tag":"summary","sentiment":"neutral"}] Hope this helps.`,
			wantCount:    1,
			wantContents: []string{"Wrapped."},
		},
		{
			name:         "broken array salvaged per object",
			input:        `[{"content":"Good one.","semantic_tag":"detail","sentiment":"neutral"}, {"content": BROKEN}, {"content":"Another good.","semantic_tag":"event","sentiment":"negative"}]`,
			wantCount:    2,
			wantContents: []string{"Good one.", "Another good."},
		},
		{
			name:         "braces inside string content",
			input:        `[{"content":"code: if (x) { y() }","semantic_tag":"detail","sentiment":"neutral"}]`,
			wantCount:    1,
			wantContents: []string{"code: if (x) { y() }"},
		},
		{
			name:      "empty content dropped",
			input:     `[{"content":"","semantic_tag":"detail","sentiment":"neutral"},{"content":"   ","semantic_tag":"detail","sentiment":"neutral"}]`,
			wantCount: 0,
		},
		{
			name:      "no json at all",
			input:     "I cannot chunk this document.",
			wantCount: 0,
		},
		{
			name:      "empty input",
			input:     "",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ParseChunks(tt.input)
			assert.Len(t, chunks, tt.wantCount)
			for i, want := range tt.wantContents {
				assert.Equal(t, want, chunks[i].Content)
			}
		})
	}
}

func TestParseChunksBase64Fallback(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("tricky \"quoted\" text"))
	chunks := ParseChunks(`[{"content_b64":"` + encoded + `","semantic_tag":"quote","sentiment":"neutral"}]`)

	assert.Len(t, chunks, 1)
	assert.Equal(t, "tricky \"quoted\" text", chunks[0].Content)
}

func TestParseChunksNormalizesTags(t *testing.T) {
	chunks := ParseChunks(`[{"content":"x","semantic_tag":" KEY_IDEA ","sentiment":"POSITIVE"},{"content":"y","semantic_tag":"made_up_tag","sentiment":"angry"}]`)

	assert.Len(t, chunks, 2)
	assert.Equal(t, "key_idea", chunks[0].SemanticTag)
	assert.Equal(t, "positive", chunks[0].Sentiment)
	assert.Equal(t, "other", chunks[1].SemanticTag)
	assert.Equal(t, "neutral", chunks[1].Sentiment)
}

func TestScanObjects(t *testing.T) {
	objects := scanObjects(`junk {"a":1} more {"b":{"nested":2}} trailing {`)

	assert.Len(t, objects, 2)
	assert.Equal(t, `{"a":1}`, objects[0])
	assert.Equal(t, `{"b":{"nested":2}}`, objects[1])
}
