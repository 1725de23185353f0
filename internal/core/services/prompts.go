package services

import (
	"fmt"
	"strings"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// DegradedAnswer is returned when a query cannot be answered because a
// provider call failed.
const DegradedAnswer = "Sorry, I could not generate a response right now. Please try again later."

// notifiedMarker is appended to an answer that triggered a notification.
const notifiedMarker = "\n\n Notification Sent to "

// BuildIntentPrompt asks the model whether query requests an alert and
// to restate the query without the alerting phrase.
func BuildIntentPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Evaluate the user's query and identify if there is a request for notifications on answer changes. ")
	b.WriteString("Reply Yes or No, then restate the query without the part about alerting or notifying.\n")
	b.WriteString("Examples:\n")
	b.WriteString("Tell me about windows in Pathway => No. Tell me about windows in Pathway\n")
	b.WriteString("Tell me and alert about windows in Pathway => Yes. Tell me about windows in Pathway\n")
	b.WriteString("User query: ")
	b.WriteString(query)
	return b.String()
}

// BuildAnswerPrompt grounds query on the retrieved chunks, listed in
// reverse retrieval order.
func BuildAnswerPrompt(hits []domain.IndexHit, query string) string {
	var b strings.Builder
	b.WriteString("Given a set of documents, answer user query. If answer is not in docs, say it cant be inferred.\n")
	b.WriteString("Docs: ")
	for idx := range hits {
		if idx > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Doc-(%d) -> %s", idx, hits[len(hits)-1-idx].Chunk.Content)
	}
	fmt.Fprintf(&b, "\nQuery: '%s'\n", query)
	b.WriteString("Final Response:")
	return b.String()
}

// BuildDiffPrompt asks the model whether two answers carry different
// information.
func BuildDiffPrompt(oldAnswer, newAnswer string) string {
	return fmt.Sprintf(
		"Are the two following responses deviating?\nAnswer with Yes or No.\n\nFirst response: \"%s\"\n\nSecond response: \"%s\"",
		oldAnswer, newAnswer,
	)
}

// IsDifferent interprets a reply to BuildDiffPrompt. Anything that does
// not contain "yes" counts as not different.
func IsDifferent(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "yes")
}

// NotificationMessage renders the text delivered to the alert channel.
func NotificationMessage(query, answer string) string {
	return fmt.Sprintf("New response for question \"%s\":\n%s", query, answer)
}

// AnnotateNotified appends the delivery marker to answer.
func AnnotateNotified(answer, channel string) string {
	return answer + notifiedMarker + channel
}
