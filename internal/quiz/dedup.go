package quiz

import (
	"strings"
	"unicode"
)

const (
	// DefaultSimilarityThreshold is the Jaccard score at or above which two
	// questions count as repeats.
	DefaultSimilarityThreshold = 0.8

	// DefaultHistoryWindow is how many recent history entries are compared.
	DefaultHistoryWindow = 100
)

// Deduplicator drops candidates that repeat history or each other.
type Deduplicator struct {
	Threshold float64
	Window    int
}

// NewDeduplicator applies the defaults for zero or out-of-range values.
func NewDeduplicator(threshold float64, window int) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Deduplicator{Threshold: threshold, Window: window}
}

type seenText struct {
	exact  string
	tokens map[string]struct{}
}

// Filter returns the candidates, in order, that are neither an exact nor a
// near repeat of the last Window history entries or of an earlier accepted
// candidate.
func (d *Deduplicator) Filter(candidates []Question, history []string) []Question {
	if d.Window > 0 && len(history) > d.Window {
		history = history[len(history)-d.Window:]
	}

	seen := make([]seenText, 0, len(history)+len(candidates))
	exact := make(map[string]bool, len(history)+len(candidates))
	for _, h := range history {
		s := newSeen(h)
		if s.exact == "" {
			continue
		}
		exact[s.exact] = true
		seen = append(seen, s)
	}

	var out []Question
	for _, q := range candidates {
		s := newSeen(q.Text)
		if s.exact == "" || exact[s.exact] || d.nearDuplicate(s, seen) {
			continue
		}
		exact[s.exact] = true
		seen = append(seen, s)
		out = append(out, q)
	}
	return out
}

func (d *Deduplicator) nearDuplicate(s seenText, seen []seenText) bool {
	if len(s.tokens) == 0 {
		return false
	}
	for _, prev := range seen {
		if jaccard(s.tokens, prev.tokens) >= d.Threshold {
			return true
		}
	}
	return false
}

func newSeen(text string) seenText {
	return seenText{exact: foldKey(text), tokens: tokenSet(text)}
}

// Similarity returns the Jaccard similarity of two texts' token sets. It is
// symmetric and lies in [0, 1].
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// tokenSet splits text into lower-cased letter/digit words minus stop-words.
func tokenSet(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

var stopWords = func() map[string]struct{} {
	// Negations are kept: "X is safe" and "X is not safe" are different
	// questions.
	list := []string{
		// English
		"a", "an", "the", "is", "are", "was", "were", "be", "been", "of", "in",
		"on", "at", "to", "for", "with", "by", "from", "and", "or", "as",
		"it", "its", "this", "that", "these", "those", "which", "what", "who",
		"whom", "how", "why", "when", "where", "does", "do", "did", "can",
		"following", "true", "false",
		// Russian
		"и", "в", "во", "на", "с", "со", "что", "как", "а", "то", "все",
		"это", "по", "к", "у", "из", "за", "от", "для", "о", "об", "ли", "же",
		"или", "такое", "такой", "какой", "какая", "какое", "какие", "является", "верно",
		"неверно",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
