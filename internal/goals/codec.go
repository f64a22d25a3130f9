package goals

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	metadataHeader    = "--- Metadata ---\n"
	metadataSeparator = "\n\n" + metadataHeader
)

// Metadata keys with a fixed position in the encoded block.
const (
	KeyType      = "type"
	KeyKeywords  = "keywords"
	KeyStartDate = "start_date"
	KeyFrequency = "frequency"
)

var knownKeys = []string{KeyType, KeyKeywords, KeyStartDate, KeyFrequency}

var metadataPattern = regexp.MustCompile(`\[(.*?): (.*?)\]`)

// EncodeMetadata renders fields as "[Key: value]" segments separated by
// spaces. Known keys come first in a fixed order, then the rest sorted by
// name. Values are trimmed, so surrounding whitespace does not survive a
// round trip, and empty values are omitted. Values containing ']' or a line
// break are rejected.
func EncodeMetadata(fields map[string]string) (string, error) {
	keys := make([]string, 0, len(fields))
	for _, k := range knownKeys {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range fields {
		if !isKnownKey(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.TrimSpace(fields[k])
		if v == "" {
			continue
		}
		if strings.ContainsAny(v, "]\n") {
			return "", invalid(k, "value must not contain ']' or a line break")
		}
		parts = append(parts, "["+capitalize(k)+": "+v+"]")
	}
	return strings.Join(parts, " "), nil
}

// DecodeMetadata extracts every "[Key: value]" segment of block. Keys are
// lower-cased and values trimmed. Text outside segments is ignored.
func DecodeMetadata(block string) map[string]string {
	out := make(map[string]string)
	for _, m := range metadataPattern.FindAllStringSubmatch(block, -1) {
		out[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
	}
	return out
}

// ComposeContent joins a description and an encoded block into task
// content.
func ComposeContent(description, block string) string {
	if description == "" {
		return metadataHeader + block
	}
	return description + metadataSeparator + block
}

// SplitContent separates task content into its description and metadata
// block. Content without a metadata block is all description.
func SplitContent(content string) (description, block string) {
	if rest, ok := strings.CutPrefix(content, metadataHeader); ok {
		return "", rest
	}
	if desc, rest, ok := strings.Cut(content, metadataSeparator); ok {
		return desc, rest
	}
	return content, ""
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isKnownKey(k string) bool {
	for _, known := range knownKeys {
		if k == known {
			return true
		}
	}
	return false
}
