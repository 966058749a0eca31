package utils

import "unicode"

// SplitText splits a long string into chunks of about chunkSize runes with
// overlap runes repeated at each boundary. A chunk end is pulled back to the
// last whitespace in its second half so words are not cut.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < totalLen; {
		end := i + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[i:]))
			break
		}

		for j := end; j > i+chunkSize/2; j-- {
			if unicode.IsSpace(runes[j]) {
				end = j
				break
			}
		}

		chunks = append(chunks, string(runes[i:end]))

		next := end - overlap
		if next <= i {
			next = i + step
		}
		i = next
	}

	return chunks
}
