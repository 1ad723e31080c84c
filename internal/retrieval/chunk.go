package retrieval

// chunk is a sliding-window slice of the transcript with its absolute
// start position.
type chunk struct {
	Text  string
	Start int
}

// slidingWindowChunks splits text into overlapping windows of chunkSize
// runes with the given overlap, step = chunkSize - overlap, flushing a
// final tail chunk when the window reaches the end of the text.
func slidingWindowChunks(text string, chunkSize, overlap int) []chunk {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	step := chunkSize - overlap

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []chunk
	for start := 0; start < n; start += step {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, chunk{Text: string(runes[start:end]), Start: start})
		if end == n {
			break
		}
	}
	return chunks
}

// expandSpan widens a chunk by contextWindow runes on each side, clamped to
// the transcript bounds, and returns the absolute [start,end) offsets plus
// the expanded text.
func expandSpan(transcript string, chunkStart, chunkLen, contextWindow int) (text string, start, end int) {
	runes := []rune(transcript)
	n := len(runes)

	start = chunkStart - contextWindow
	if start < 0 {
		start = 0
	}
	end = chunkStart + chunkLen + contextWindow
	if end > n {
		end = n
	}
	return string(runes[start:end]), start, end
}

// runeLen counts runes rather than bytes, since chunk offsets are in rune
// positions.
func runeLen(s string) int {
	return len([]rune(s))
}
