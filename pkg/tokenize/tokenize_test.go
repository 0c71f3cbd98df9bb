package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"simple words", "alpha beta", []string{"alpha", "beta"}},
		{"lowercases", "Hello WORLD", []string{"hello", "world"}},
		{"splits on punctuation", "foo,bar.baz!qux", []string{"foo", "bar", "baz", "qux"}},
		{"keeps apostrophe colon underscore", "don't key:value snake_case", []string{"don't", "key:value", "snake_case"}},
		{"drops empty fragments", "--- ... ,,,", nil},
		{"strips quotes", `"quoted" say "hi"`, []string{"quoted", "say", "hi"}},
		{"keeps duplicates", "go Go GO", []string{"go", "go", "go"}},
		{"digits stay", "v1.2 rc3", []string{"v1", "2", "rc3"}},
		{"url", "https://example.com/a-b", []string{"https:", "example", "com", "a", "b"}},
		{"unicode lowercase", "ÉCOLE Straße", []string{"école", "straße"}},
		{"brackets and braces", "[a]{b}(c)<d>", []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.content))
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	content := "The quick, brown fox; jumps over the lazy dog's back"
	assert.Equal(t, Tokenize(content), Tokenize(content))
}

func TestIsPunct(t *testing.T) {
	for _, r := range "!\"#$%&()*+,-./;<=>?@[\\]^`{|}~" {
		assert.True(t, IsPunct(r), "expected %q to be punctuation", r)
	}
	for _, r := range "'_:aZ09 é" {
		assert.False(t, IsPunct(r), "expected %q not to be punctuation", r)
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"go", "rust"}, Unique("go Rust GO go"))
	assert.Empty(t, Unique(""))
}

func TestLower(t *testing.T) {
	assert.Equal(t, "hello", Lower("Hello"))
	assert.Equal(t, "foo-bar", Lower(" FOO-bar "), "punctuation is kept")
	assert.Equal(t, "école", Lower("ÉCOLE"))
}
