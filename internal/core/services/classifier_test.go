package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		alert   bool
		cleaned string
	}{
		{"yes prefix", "Yes. Are there outages?", true, "Are there outages?"},
		{"no prefix", "No. Tell me about windows.", false, "Tell me about windows."},
		{"lowercase yes", "yes - Is Pipeline X down?", true, "- Is Pipeline X down?"},
		{"yes with quotes", `Yes. "Is Pipeline X down?"`, true, "Is Pipeline X down?"},
		{"no with colon", "No: What is the capacity?", false, "What is the capacity?"},
		{"leading whitespace", "\n  Yes. Outages today?", true, "Outages today?"},
		{"bare yes", "Yes", true, ""},
		{"bare no", "No", false, ""},
		{"malformed", "  Maybe tell me about outages ", false, "Maybe tell me about outages"},
		{"word starting with no", "Nothing is scheduled", false, "Nothing is scheduled"},
		{"empty", "", false, ""},
		{"whitespace", "   ", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, cleaned := ParseIntent(tt.answer)
			assert.Equal(t, tt.alert, alert)
			assert.Equal(t, tt.cleaned, cleaned)
		})
	}
}

func TestParseIntent_MultiByte(t *testing.T) {
	assert.NotPanics(t, func() {
		alert, cleaned := ParseIntent("ñé")
		assert.False(t, alert)
		assert.Equal(t, "ñé", cleaned)
	})
}

func TestIntentClassifier_Classify(t *testing.T) {
	llm := &mockLLM{handler: func(prompt string, _ driven.GenerateOptions) (string, error) {
		return "Yes. Is Pipeline X constrained?", nil
	}}
	c := NewIntentClassifier(llm)

	alert, cleaned, err := c.Classify(context.Background(), "Alert me if Pipeline X is constrained")
	require.NoError(t, err)
	assert.True(t, alert)
	assert.Equal(t, "Is Pipeline X constrained?", cleaned)

	require.Len(t, llm.opts, 1)
	assert.Equal(t, 100, llm.opts[0].MaxTokens)
	assert.Contains(t, llm.prompts[0], "Alert me if Pipeline X is constrained")
}

func TestIntentClassifier_ClassifyError(t *testing.T) {
	llm := &mockLLM{handler: func(string, driven.GenerateOptions) (string, error) {
		return "", domain.ErrCallFailed
	}}
	c := NewIntentClassifier(llm)

	_, _, err := c.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrCallFailed)
}
