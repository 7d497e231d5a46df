package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractTarget struct {
	Summary        string `json:"summary"`
	ShouldRemember bool   `json:"should_remember"`
}

func TestExtractJSON_Strict(t *testing.T) {
	var out extractTarget
	err := ExtractJSON(`{"summary": "hi", "should_remember": true}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Summary)
	assert.True(t, out.ShouldRemember)
}

func TestExtractJSON_FencedWithLang(t *testing.T) {
	var out extractTarget
	raw := "```json\n{\"summary\": \"fenced\", \"should_remember\": false}\n```"
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "fenced", out.Summary)
	assert.False(t, out.ShouldRemember)
}

func TestExtractJSON_FencedNoLang(t *testing.T) {
	var out extractTarget
	raw := "```\n{\"summary\": \"plain fence\", \"should_remember\": true}\n```"
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "plain fence", out.Summary)
}

func TestExtractJSON_BalancedBraceFallback(t *testing.T) {
	var out extractTarget
	raw := "Sure, here is the analysis: {\"summary\": \"buried\", \"should_remember\": true} — let me know if you need more."
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "buried", out.Summary)
}

func TestExtractJSON_PrefersLongestBalancedMatch(t *testing.T) {
	var out extractTarget
	raw := `note: {"x": 1} then the real one {"summary": "longest", "should_remember": true}`
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "longest", out.Summary)
}

func TestExtractJSON_TotalFailure(t *testing.T) {
	var out extractTarget
	err := ExtractJSON("no json here at all", &out)
	require.Error(t, err)
}
