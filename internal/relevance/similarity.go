package relevance

import (
	"math"
	"sort"
	"strings"
)

// Similarity returns the cosine similarity of the term frequency vectors of
// two texts, in [0, 1]. It is 0 when either text has no tokens.
func (a *Analyzer) Similarity(text1, text2 string) float64 {
	t1 := a.Tokenize(text1)
	t2 := a.Tokenize(text2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}

	f1 := frequencies(t1)
	f2 := frequencies(t2)

	vocab := make([]string, 0, len(f1)+len(f2))
	for w := range f1 {
		vocab = append(vocab, w)
	}
	for w := range f2 {
		if _, ok := f1[w]; !ok {
			vocab = append(vocab, w)
		}
	}
	sort.Strings(vocab)

	var dot, m1, m2 float64
	for _, w := range vocab {
		v1, v2 := float64(f1[w]), float64(f2[w])
		dot += v1 * v2
		m1 += v1 * v1
		m2 += v2 * v2
	}
	if m1 == 0 || m2 == 0 {
		return 0
	}

	// A single square root keeps identical vectors at exactly 1.
	sim := dot / math.Sqrt(m1*m2)
	return math.Max(0, math.Min(1, sim))
}

// KeywordMatch returns the fraction of distinct keywords that appear as
// tokens of text. It is 0 for an empty keyword set.
func (a *Analyzer) KeywordMatch(text string, keywords []string) float64 {
	want := make(map[string]bool)
	for _, k := range keywords {
		if k = Fold(strings.TrimSpace(k)); k != "" {
			want[k] = true
		}
	}
	if len(want) == 0 {
		return 0
	}

	have := make(map[string]bool)
	for _, tok := range a.Tokenize(text) {
		have[tok] = true
	}

	matched := 0
	for k := range want {
		if have[k] {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

// ContainsAny reports whether any keyword occurs in text as a caseless
// substring.
func ContainsAny(text string, keywords []string) bool {
	folded := Fold(text)
	for _, k := range keywords {
		if k = Fold(strings.TrimSpace(k)); k != "" && strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

func frequencies(tokens []string) map[string]int {
	m := make(map[string]int, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}
