package utils

import "unicode"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with 'overlap' characters preserved across boundaries.
// Boundaries prefer whitespace near the cut point so words survive intact;
// when no whitespace is close enough, strict character slicing applies
// rather than losing data.
func SplitText(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= chunkSize {
		return []string{text}
	}

	if overlap >= chunkSize {
		overlap = 0 // fallback if overlap >= chunkSize
	}

	var chunks []string
	start := 0
	for start < totalLen {
		end := start + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[start:totalLen]))
			break
		}
		end = backtrackToSpace(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = start + 1 // always advance
		}
		start = next
	}

	return chunks
}

// backtrackToSpace moves the cut point left to the nearest whitespace,
// scanning at most a tenth of the chunk. Returns the original end when no
// whitespace is close enough.
func backtrackToSpace(runes []rune, start, end int) int {
	limit := end - (end-start)/10
	for i := end - 1; i > limit; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}
