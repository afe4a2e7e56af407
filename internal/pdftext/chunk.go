package pdftext

const (
	ChunkSize    = 10000
	ChunkOverlap = 1000
)

// Chunk splits text into windows of size runes, each starting
// size-overlap runes after the previous one. The last window may be shorter.
// Empty text yields no chunks. overlap is clamped to [0, size).
func Chunk(text string, size, overlap int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	stride := size - overlap

	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
