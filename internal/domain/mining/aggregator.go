package mining

import "strings"

// AggregateReviews concatenates the non-empty review texts into one block,
// one review per line, bounded to maxChars so the downstream model call stays
// inside its context budget. An empty return value means there was nothing to
// aggregate; callers treat that as "skip this place", not as an error.
func AggregateReviews(reviews []string, maxChars int) string {
	var b strings.Builder
	for _, review := range reviews {
		review = strings.TrimSpace(review)
		if review == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(review)
	}

	text := b.String()
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
