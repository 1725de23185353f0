package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// intentMaxTokens bounds the classification reply.
const intentMaxTokens = 100

// IntentClassifier decides whether a query asks for alerts.
type IntentClassifier struct {
	llm driven.LLMService
}

// NewIntentClassifier creates a classifier backed by llm.
func NewIntentClassifier(llm driven.LLMService) *IntentClassifier {
	return &IntentClassifier{llm: llm}
}

// Classify returns whether query requests alerts and the query with the
// alerting phrase removed. The cleaned text may be empty; callers fall
// back to the raw query.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (alertEnabled bool, cleaned string, err error) {
	reply, err := c.llm.Generate(ctx, BuildIntentPrompt(query), driven.GenerateOptions{
		MaxTokens:   intentMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return false, "", fmt.Errorf("classify intent: %w", err)
	}

	alertEnabled, cleaned = ParseIntent(reply)
	return alertEnabled, cleaned, nil
}

// ParseIntent reads a classification reply of the form "Yes. <query>" or
// "No. <query>". Replies that follow neither form are treated as not
// alert-enabled and returned trimmed.
func ParseIntent(answer string) (alertEnabled bool, cleaned string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false, ""
	}

	head := answer
	if utf8.RuneCountInString(head) > 3 {
		head = string([]rune(head)[:3])
	}
	if strings.Contains(strings.ToLower(head), "yes") {
		return true, cleanQuery(answer[len(head):])
	}

	if hasNoPrefix(answer) {
		return false, cleanQuery(answer[2:])
	}

	return false, strings.Trim(answer, ` "`)
}

// hasNoPrefix reports whether answer starts with the word "no".
func hasNoPrefix(answer string) bool {
	if len(answer) < 2 || !strings.EqualFold(answer[:2], "no") {
		return false
	}
	if len(answer) == 2 {
		return true
	}
	next, _ := utf8.DecodeRuneInString(answer[2:])
	return !unicode.IsLetter(next)
}

func cleanQuery(s string) string {
	s = strings.TrimLeft(s, " .,:\"\t\n")
	return strings.TrimRight(s, " \"\t\n")
}
