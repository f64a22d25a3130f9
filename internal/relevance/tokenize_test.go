package relevance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "punctuation removed", input: "Hello, world!", want: "Hello world"},
		{name: "whitespace collapsed", input: "  a \t\n b  ", want: "a b"},
		{name: "chinese punctuation", input: "学习，英语。", want: "学习英语"},
		{name: "full width folded", input: "ＧＯ１", want: "GO1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "latin words are folded",
			input: "Learn Go, learn Rust!",
			want:  []string{"learn", "go", "learn", "rust"},
		},
		{
			name:  "han run split on stop words",
			input: "我今天要学习英语",
			want:  []string{"今天", "学习", "习英", "英语", "学习英语"},
		},
		{
			name:  "mixed scripts",
			input: "ＧＯ语言",
			want:  []string{"go", "语言"},
		},
		{
			name:  "single character kept",
			input: "跑 步",
			want:  []string{"跑", "步"},
		},
		{
			name:  "only stop words",
			input: "我的",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Tokenize(tt.input))
		})
	}
}

func TestNewAnalyzerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nLearn\n\n今天\n"), 0o600))

	a, err := NewAnalyzerFromFile(path)
	require.NoError(t, err)
	assert.True(t, a.IsStopWord("learn"))
	assert.True(t, a.IsStopWord("的"), "built-in words are kept")
	assert.Equal(t, []string{"go"}, a.Tokenize("learn Go"))

	_, err = NewAnalyzerFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	def, err := NewAnalyzerFromFile("")
	require.NoError(t, err)
	assert.False(t, def.IsStopWord("learn"))
}
