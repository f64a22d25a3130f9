package relevance

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Keyword is an extracted term with its TF-IDF weight.
type Keyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TermCount is a term with its raw frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

const sentenceBreaks = "。！？.!?;；\n"

// ExtractKeywords ranks the terms of text by TF-IDF, treating each sentence
// as a document, and returns the top topK. Single-character terms are not
// considered keywords. topK <= 0 returns every ranked term.
func (a *Analyzer) ExtractKeywords(text string, topK int) []Keyword {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(sentenceBreaks, r)
	})
	if len(sentences) == 0 {
		return nil
	}

	tf := make(map[string]int)
	df := make(map[string]int)
	first := make(map[string]int)
	total := 0

	for _, sentence := range sentences {
		seen := make(map[string]bool)
		for _, tok := range a.Tokenize(sentence) {
			if utf8.RuneCountInString(tok) < 2 {
				continue
			}
			if _, ok := first[tok]; !ok {
				first[tok] = len(first)
			}
			tf[tok]++
			total++
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if total == 0 {
		return nil
	}

	n := float64(len(sentences))
	out := make([]Keyword, 0, len(tf))
	for term, count := range tf {
		idf := math.Log((1+n)/(1+float64(df[term]))) + 1
		out = append(out, Keyword{
			Term:   term,
			Weight: float64(count) / float64(total) * idf,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return first[out[i].Term] < first[out[j].Term]
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// TopTerms counts terms across texts and returns the limit most frequent,
// ties broken by first appearance. Single-character terms are skipped.
func (a *Analyzer) TopTerms(texts []string, limit int) []TermCount {
	counts := make(map[string]int)
	first := make(map[string]int)
	for _, text := range texts {
		for _, tok := range a.Tokenize(text) {
			if utf8.RuneCountInString(tok) < 2 {
				continue
			}
			if _, ok := first[tok]; !ok {
				first[tok] = len(first)
			}
			counts[tok]++
		}
	}

	out := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, TermCount{Term: term, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return first[out[i].Term] < first[out[j].Term]
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NormalizeKeywords splits a comma separated keyword string (ASCII or
// full-width commas) into a sorted, deduplicated list.
func NormalizeKeywords(s string) []string {
	return NormalizeKeywordList([]string{s})
}

// NormalizeKeywordList normalizes a list of keywords. Elements may
// themselves contain commas.
func NormalizeKeywordList(list []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, item := range list {
		for _, part := range strings.FieldsFunc(item, isKeywordSeparator) {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}

// JoinKeywords renders keywords in their stored comma-joined form.
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

func isKeywordSeparator(r rune) bool {
	return r == ',' || r == '，'
}
