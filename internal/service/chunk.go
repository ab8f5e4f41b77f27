package service

// ChunkText splits s into consecutive fixed-size pieces of size runes; the
// final piece may be shorter. Splitting is rune-based so a multi-byte
// character is never cut across two frames.
func ChunkText(s string, size int) []string {
	if s == "" || size < 1 {
		return nil
	}

	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
