package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host"
)

// RequiredString returns a non-blank string argument.
func RequiredString(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// OptionalString returns a string argument, or "" when absent.
func OptionalString(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// StringPtr returns a pointer to a present string argument, including an
// empty one, and nil when the argument is absent or null.
func StringPtr(args map[string]any, name string) *string {
	v, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// Int returns an integer argument. JSON numbers arrive as float64; numeric
// strings are accepted too. ok is false when the argument is absent.
func Int(args map[string]any, name string) (value int, ok bool, err error) {
	raw, present := args[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, true, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, true, fmt.Errorf("%s must be an integer", name)
		}
		return int(n), true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, fmt.Errorf("%s must be an integer", name)
		}
		return n, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be an integer", name)
	}
}

// Float returns a number argument, or def when absent.
func Float(args map[string]any, name string, def float64) (float64, error) {
	raw, present := args[name]
	if !present || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// Bool returns a boolean argument, or false when absent. "true" and "false"
// strings are accepted.
func Bool(args map[string]any, name string) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// JSONResult encodes v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ErrorResult turns err into a tool error. Validation and not-found errors
// are reported as they are; upstream and other failures are prefixed with
// the action that failed.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	var ve *goals.ValidationError
	var nf *goals.NotFoundError
	switch {
	case errors.As(err, &ve), errors.As(err, &nf):
		return mcp.NewToolResultError(err.Error())
	case host.IsUnauthorized(err):
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: host rejected the access token, run `didagoals auth` again: %v", action, err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	}
}
