package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Analyzer tokenizes text with a fixed stop word set. It is safe for
// concurrent use.
type Analyzer struct {
	stop map[string]struct{}
}

// NewAnalyzer returns an Analyzer using DefaultStopWords plus extra.
func NewAnalyzer(extra ...string) *Analyzer {
	stop := make(map[string]struct{}, len(DefaultStopWords)+len(extra))
	for _, w := range DefaultStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range extra {
		if w = Fold(strings.TrimSpace(w)); w != "" {
			stop[w] = struct{}{}
		}
	}
	return &Analyzer{stop: stop}
}

// NewAnalyzerFromFile is NewAnalyzer with the extra stop words read from
// path. An empty path yields the default analyzer.
func NewAnalyzerFromFile(path string) (*Analyzer, error) {
	if path == "" {
		return NewAnalyzer(), nil
	}
	words, err := LoadStopWords(path)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(words...), nil
}

var defaultAnalyzer = NewAnalyzer()

// Default returns the shared Analyzer with the built-in stop words.
func Default() *Analyzer { return defaultAnalyzer }

// IsStopWord reports whether w is in the stop word set.
func (a *Analyzer) IsStopWord(w string) bool {
	_, ok := a.stop[w]
	return ok
}

// Fold case-folds s for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Clean NFKC-normalizes text, collapses whitespace and removes everything
// except CJK ideographs, ASCII letters, digits and spaces.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case isHan(r), isASCIIAlnum(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize returns the tokens of text in order of appearance, stop words
// removed.
func (a *Analyzer) Tokenize(text string) []string {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	var tokens []string
	var run []rune

	flush := func() {
		tokens = a.appendHanRun(tokens, run)
		run = run[:0]
	}

	state := -1
	rest := cleaned
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		first, _ := utf8.DecodeRuneInString(word)
		switch {
		case isHan(first):
			for _, r := range word {
				if isHan(r) {
					run = append(run, r)
				}
			}
		case strings.TrimSpace(word) == "":
			flush()
		default:
			flush()
			tok := Fold(word)
			if !a.IsStopWord(tok) {
				tokens = append(tokens, tok)
			}
		}
	}
	flush()

	return tokens
}

// appendHanRun splits run on single-character stop words and expands each
// piece: one character stays as is, longer pieces yield their bigrams, and
// pieces of three or more characters also yield themselves.
func (a *Analyzer) appendHanRun(tokens []string, run []rune) []string {
	start := 0
	for i := 0; i <= len(run); i++ {
		if i < len(run) && !a.IsStopWord(string(run[i])) {
			continue
		}
		tokens = a.expand(tokens, run[start:i])
		start = i + 1
	}
	return tokens
}

func (a *Analyzer) expand(tokens []string, piece []rune) []string {
	emit := func(s string) {
		if !a.IsStopWord(s) {
			tokens = append(tokens, s)
		}
	}
	switch len(piece) {
	case 0:
	case 1:
		emit(string(piece))
	default:
		for i := 0; i+1 < len(piece); i++ {
			emit(string(piece[i : i+2]))
		}
		if len(piece) >= 3 {
			emit(string(piece))
		}
	}
	return tokens
}

func isHan(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
