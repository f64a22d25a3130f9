package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome values for Result.Status.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// Result is the outcome for one ID.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray reads a parameter given either as one string or as an
// array of strings. Surrounding whitespace is trimmed and repeated IDs are
// collapsed, keeping the first occurrence.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			if len(raw) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		ids = append(ids, s)
	}
	return ids, nil
}

// Process calls fn for each ID in order. Once ctx is done the remaining IDs
// are reported as canceled without calling fn.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Status: StatusCanceled, Error: err.Error()})
			continue
		}
		msg, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, msg))
	}
	return results
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatResults renders the summary of results as indented JSON.
func FormatResults(results []Result) string {
	data, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(data)
}

// NewSuccessResult creates a success result.
func NewSuccessResult(id, message string) Result {
	return Result{ID: id, Status: StatusSuccess, Result: message}
}

// NewErrorResult creates an error result.
func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
