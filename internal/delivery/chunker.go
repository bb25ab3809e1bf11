package delivery

import "strings"

// wordsPerChunk keeps streamed output readable without flooding the client
// with per-word frames.
const wordsPerChunk = 2

// Chunks splits text into word groups for streaming. Every chunk except the
// last carries a trailing space so the client can concatenate chunks
// verbatim. Whitespace-only input yields no chunks.
func Chunks(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+wordsPerChunk-1)/wordsPerChunk)
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
