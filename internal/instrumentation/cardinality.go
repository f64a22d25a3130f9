package instrumentation

import (
	"strings"
	"unicode/utf8"
)

// Label values are reduced before they reach a metric so that request paths
// from scanners or free-form skip reasons cannot grow the series count.

// PathOther is recorded for request paths outside the known set.
const PathOther = "other"

// NormalizePath returns path when it is one of known, PathOther otherwise.
// A trailing slash is ignored.
func NormalizePath(path string, known ...string) string {
	trimmed := path
	if len(trimmed) > 1 {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	for _, k := range known {
		if trimmed == k {
			return k
		}
	}
	return PathOther
}

// maxReasonLength bounds the skip reason label.
const maxReasonLength = 32

// ReasonLabel reduces an error message to a short label: the text before the
// first colon, truncated to a fixed number of runes.
func ReasonLabel(reason string) string {
	if i := strings.IndexByte(reason, ':'); i >= 0 {
		reason = reason[:i]
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "unknown"
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		r := []rune(reason)
		reason = string(r[:maxReasonLength])
	}
	return reason
}

// Upstream operation names.
const (
	OperationList     = "list"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationComplete = "complete"
	OperationRecord   = "record"
	OperationHistory  = "history"
	OperationPublish  = "publish"
)
