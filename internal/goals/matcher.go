package goals

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/teemow/didagoals/internal/relevance"
)

// DefaultMinScore is used when Match is called with a non-positive minimum.
const DefaultMinScore = 0.3

const (
	keywordWeight    = 0.7
	similarityWeight = 0.3
)

// Match is a goal together with how well it fits a task.
type Match struct {
	Goal            Goal    `json:"goal"`
	Score           float64 `json:"score"`
	KeywordScore    float64 `json:"keyword_score"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Lister is the read side of Repository that Matcher needs.
type Lister interface {
	List(ctx context.Context, f Filter) (*ListResult, error)
}

// Matcher ranks active goals against task text.
type Matcher struct {
	goals    Lister
	analyzer *relevance.Analyzer
}

// NewMatcher returns a Matcher. A nil analyzer uses relevance.Default().
func NewMatcher(goals Lister, analyzer *relevance.Analyzer) *Matcher {
	if analyzer == nil {
		analyzer = relevance.Default()
	}
	return &Matcher{goals: goals, analyzer: analyzer}
}

// Match scores every active goal against the task and returns those scoring
// at least minScore, best first.
//
// A goal keyword occurring anywhere in the task text is worth 0.7; textual
// similarity between the task and the goal's title and description adds up
// to 0.3.
func (m *Matcher) Match(ctx context.Context, title, content string, minScore float64) ([]Match, error) {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	res, err := m.goals.List(ctx, Filter{Status: StatusActive})
	if err != nil {
		return nil, err
	}

	taskText := strings.ToLower(title + " " + content)
	matches := []Match{}
	for _, g := range res.Goals {
		var kw float64
		if relevance.ContainsAny(taskText, g.KeywordList()) {
			kw = keywordWeight
		}
		sim := m.analyzer.Similarity(taskText, g.Title+" "+g.Description) * similarityWeight

		score := round3(math.Min(1, kw+sim))
		if score < minScore {
			continue
		}
		matches = append(matches, Match{
			Goal:            g,
			Score:           score,
			KeywordScore:    kw,
			SimilarityScore: round3(sim),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Goals drops the scores from matches.
func Goals(matches []Match) []Goal {
	out := make([]Goal, len(matches))
	for i, m := range matches {
		out[i] = m.Goal
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
