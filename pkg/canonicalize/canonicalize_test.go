package canonicalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  Multiple   spaces  ", "multiple spaces"},
		{"This is a test.", "this is a test"},
		{"UPPERCASE lowercase MiXeD", "uppercase lowercase mixed"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"", ""},
		{"!!!", ""},
		{"don't", "dont"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeText(tc.in), "input %q", tc.in)
	}
}

func TestCanonicalizeSortsKeys(t *testing.T) {
	p, err := Canonicalize(`{"z": 1, "a": 2, "m": {"y": 3, "b": 4}}`, "")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"m":{"b":4,"y":3},"z":1}.`, string(p.Bytes))
}

func TestCanonicalizeDeterministic(t *testing.T) {
	p1, err := Canonicalize(`{"b": 2, "a": 1}`, "Hello, World!")
	require.NoError(t, err)
	p2, err := Canonicalize(`{"a": 1, "b": 2}`, "HELLO,   WORLD!")
	require.NoError(t, err)

	assert.Equal(t, p1.Bytes, p2.Bytes)
	assert.Equal(t, p1.Hash, p2.Hash)
	assert.Len(t, p1.Hash, 64)
}

func TestCanonicalizeTrailingPunctuationInvariant(t *testing.T) {
	p1, err := Canonicalize(`{}`, "Transfer 100 tokens")
	require.NoError(t, err)
	p2, err := Canonicalize(`{}`, "Transfer 100 tokens.")
	require.NoError(t, err)
	assert.Equal(t, p1.Hash, p2.Hash)
}

func TestCanonicalizePayloadFormat(t *testing.T) {
	p, err := Canonicalize(`{"action": "test"}`, "Test proposal")
	require.NoError(t, err)
	s := string(p.Bytes)
	assert.True(t, strings.HasPrefix(s, `{"action":"test"}`))
	assert.True(t, strings.HasSuffix(s, "test proposal"))
	assert.Contains(t, s, ".")
}

func TestCanonicalizeEmptyAST(t *testing.T) {
	p, err := Canonicalize(`{}`, "")
	require.NoError(t, err)
	assert.Equal(t, "{}.", string(p.Bytes))
}

func TestCanonicalizeMalformedAST(t *testing.T) {
	_, err := Canonicalize(`{"unclosed":`, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedAST)

	_, err = Canonicalize(``, "text")
	assert.ErrorIs(t, err, ErrMalformedAST)
}

func TestSplitPayloadRoundTrip(t *testing.T) {
	p, err := Canonicalize(`{"a":{"b":"c.d"}}`, "Some text, with punctuation!")
	require.NoError(t, err)

	ast, text, err := SplitPayload(p.Bytes)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":"c.d"}}`, string(ast))
	assert.Equal(t, "some text with punctuation", string(text))
}

func TestCanonicalJSONStableAcrossFieldOrder(t *testing.T) {
	type verdict struct {
		Pass  bool   `json:"pass"`
		Score uint64 `json:"score"`
	}
	b1, err := CanonicalJSON(verdict{Pass: true, Score: 42})
	require.NoError(t, err)
	b2, err := CanonicalJSON(map[string]interface{}{"score": 42, "pass": true})
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestCanonicalHash(t *testing.T) {
	h1, err := CanonicalHash(map[string]interface{}{"b": 1, "a": 2})
	require.NoError(t, err)
	h2, err := CanonicalHash(map[string]interface{}{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
