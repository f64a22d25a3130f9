package relevance

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultStopWords are dropped from every token stream.
var DefaultStopWords = []string{
	"的", "了", "和", "是", "就", "都", "而", "及", "与", "着",
	"或", "一个", "没有", "我们", "你们", "他们", "她们", "它们",
	"这个", "那个", "这些", "那些", "这样", "那样", "不", "在",
	"我", "你", "他", "她", "它", "这", "那", "有", "个",
	"要", "去", "来", "到", "会", "用", "第", "从", "给",
	"被", "让", "但", "因为", "所以", "如果", "虽然", "于是",
	"可以", "可能", "应该", "需要", "由于", "因此",
}

// LoadStopWords reads one stop word per line. Blank lines and lines starting
// with '#' are ignored.
func LoadStopWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stop words file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stop words file: %w", err)
	}
	return words, nil
}
