package annotate

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/lexgraph/pkg/extract"

	"github.com/pkoukk/tiktoken-go"
)

// aligner locates extraction texts in the source document. The document is
// tokenized once; token intervals are looked up from byte offsets.
type aligner struct {
	// runeBytes holds the byte offset of every rune plus the text length.
	runeBytes []int
	// tokenEnds holds the cumulative byte end of every token, nil without
	// an encoder.
	tokenEnds []int
}

func newAligner(text string, enc *tiktoken.Tiktoken) *aligner {
	a := &aligner{runeBytes: make([]int, 0, utf8.RuneCountInString(text)+1)}
	for i := range text {
		a.runeBytes = append(a.runeBytes, i)
	}
	a.runeBytes = append(a.runeBytes, len(text))

	if enc != nil {
		tokens := enc.Encode(text, nil, nil)
		a.tokenEnds = make([]int, len(tokens))
		off := 0
		for i, tok := range tokens {
			off += len(enc.Decode([]int{tok}))
			a.tokenEnds[i] = off
		}
	}
	return a
}

// tokenSpan maps the rune interval [start, end) to the tokens it touches.
func (a *aligner) tokenSpan(start, end int) (int, int) {
	from, to := a.runeBytes[start], a.runeBytes[end]
	n := len(a.tokenEnds)
	ts := sort.Search(n, func(i int) bool { return a.tokenEnds[i] > from })
	te := min(sort.Search(n, func(i int) bool { return a.tokenEnds[i] >= to })+1, n)
	return ts, max(te, ts)
}

// align fills the char interval, token interval and alignment status of e
// when its text occurs verbatim in c. Otherwise the intervals stay nil.
func (a *aligner) align(c chunk, e *extract.Extraction) {
	needle := e.ExtractionText
	if needle == "" {
		return
	}

	status := extract.MatchExact
	idx := strings.Index(c.text, needle)
	if idx < 0 {
		trimmed := strings.TrimSpace(needle)
		if trimmed == "" || trimmed == needle {
			return
		}
		idx = strings.Index(c.text, trimmed)
		if idx < 0 {
			return
		}
		needle = trimmed
		status = extract.MatchLesser
	}

	start := c.start + utf8.RuneCountInString(c.text[:idx])
	end := start + utf8.RuneCountInString(needle)
	if end >= len(a.runeBytes) {
		return
	}
	e.CharInterval = &extract.CharInterval{StartPos: &start, EndPos: &end}
	e.AlignmentStatus = &status

	if a.tokenEnds != nil {
		ts, te := a.tokenSpan(start, end)
		e.TokenInterval = &extract.TokenInterval{StartIndex: &ts, EndIndex: &te}
	}
}

func overlaps(a, b *extract.CharInterval) bool {
	if a == nil || b == nil || a.StartPos == nil || a.EndPos == nil || b.StartPos == nil || b.EndPos == nil {
		return false
	}
	return *a.StartPos < *b.EndPos && *b.StartPos < *a.EndPos
}

// mergePass adds the extractions of a later pass that do not overlap an
// existing span. Unaligned extractions are added unless an identical
// class/text pair already exists.
func mergePass(existing, next []*extract.Extraction) []*extract.Extraction {
	out := existing
	for _, n := range next {
		keep := true
		for _, e := range out {
			if n.CharInterval == nil {
				if e.ExtractionClass == n.ExtractionClass && e.ExtractionText == n.ExtractionText {
					keep = false
					break
				}
				continue
			}
			if overlaps(e.CharInterval, n.CharInterval) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, n)
		}
	}
	return out
}
