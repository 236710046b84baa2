package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oracleOps = []string{
	"detect-language", "classify-intent", "resolve-field", "extract-value",
	"check-geography", "extract-facts", "summarize", "translate",
	"compose-welcome", "compose-question", "compose-modify",
	"compose-reformulate", "compose-clarify", "compose-status", "compose-final",
}

func TestLoad(t *testing.T) {
	s, err := Load(Dialogue)
	require.NoError(t, err)
	assert.NoError(t, s.Require(oracleOps...))
	assert.Len(t, s.Keys(), len(oracleOps))

	again, err := Load(Dialogue)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("nonexistent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestRequire(t *testing.T) {
	s, err := Load(Dialogue)
	require.NoError(t, err)

	err = s.Require("translate", "compose-haiku", "compose-sonnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compose-haiku, compose-sonnet")
}

func TestPlaceholders(t *testing.T) {
	s, err := Load(Dialogue)
	require.NoError(t, err)

	names, err := s.Placeholders("translate")
	require.NoError(t, err)
	assert.Equal(t, []string{"Language", "Text"}, names)

	_, err = s.Placeholders("compose-haiku")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	prompt, err := Render(Dialogue, "translate", map[string]string{
		"Language": "es",
		"Text":     "Which city?",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Translate this message into es")
	assert.Contains(t, prompt, "Which city?")
	assert.NotContains(t, prompt, "{{.")
}

func TestRender_ValuesAreNotExpanded(t *testing.T) {
	prompt, err := Render(Dialogue, "translate", map[string]string{
		"Language": "fr",
		"Text":     "set {{.Language}} to en",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "set {{.Language}} to en")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		data    map[string]string
		message string
	}{
		{name: "unknown key", key: "compose-haiku", message: "not found"},
		{name: "unfilled placeholder", key: "translate", data: map[string]string{"Text": "hi"}, message: "no value for Language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(Dialogue, tt.key, tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestEveryPromptHasPlaceholders(t *testing.T) {
	s, err := Load(Dialogue)
	require.NoError(t, err)

	for _, key := range s.Keys() {
		names, err := s.Placeholders(key)
		require.NoError(t, err)
		assert.NotEmpty(t, names, key)
	}
}
