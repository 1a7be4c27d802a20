package annotate

import (
	"strings"
	"unicode/utf8"
)

// chunk is a contiguous slice of the source text. start is a rune offset so
// alignments inside the chunk translate directly into document positions.
type chunk struct {
	index int
	start int
	text  string
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '!', '?', ';', '\n':
		return true
	}
	return false
}

// splitSentences cuts text after every sentence terminator. Concatenating the
// result yields text again.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for i, r := range text {
		if isSentenceEnd(r) {
			end := i + utf8.RuneLen(r)
			out = append(out, text[last:end])
			last = end
		}
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

// hardSplit breaks a sentence that alone exceeds maxRunes.
func hardSplit(s string, maxRunes int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/maxRunes+1)
	for i := 0; i < len(runes); i += maxRunes {
		end := min(i+maxRunes, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}

// chunkText groups sentences into chunks of at most maxRunes runes.
// Whitespace-only chunks are dropped but still advance the offset.
func chunkText(text string, maxRunes int) []chunk {
	if maxRunes <= 0 {
		maxRunes = utf8.RuneCountInString(text)
	}

	var (
		chunks  []chunk
		current strings.Builder
		curLen  int
		start   int
		offset  int
	)

	flush := func() {
		if curLen == 0 {
			return
		}
		if s := current.String(); strings.TrimSpace(s) != "" {
			chunks = append(chunks, chunk{index: len(chunks), start: start, text: s})
		}
		current.Reset()
		curLen = 0
	}

	for _, sentence := range splitSentences(text) {
		pieces := []string{sentence}
		if utf8.RuneCountInString(sentence) > maxRunes {
			pieces = hardSplit(sentence, maxRunes)
		}
		for _, p := range pieces {
			n := utf8.RuneCountInString(p)
			if curLen+n > maxRunes {
				flush()
			}
			if curLen == 0 {
				start = offset
			}
			current.WriteString(p)
			curLen += n
			offset += n
		}
	}
	flush()

	return chunks
}
