package mining

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateReviews(t *testing.T) {
	tests := []struct {
		name     string
		reviews  []string
		maxChars int
		expected string
	}{
		{
			name:     "no reviews",
			reviews:  nil,
			maxChars: 100,
			expected: "",
		},
		{
			name:     "all empty reviews",
			reviews:  []string{"", "   ", ""},
			maxChars: 100,
			expected: "",
		},
		{
			name:     "joins non-empty reviews one per line",
			reviews:  []string{"Great coffee", "", "Quiet upstairs"},
			maxChars: 100,
			expected: "- Great coffee\n- Quiet upstairs",
		},
		{
			name:     "trims surrounding whitespace",
			reviews:  []string{"  cozy spot  "},
			maxChars: 100,
			expected: "- cozy spot",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AggregateReviews(tc.reviews, tc.maxChars))
		})
	}
}

func TestAggregateReviewsTruncatesToBudget(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := AggregateReviews([]string{long, long}, 100)

	assert.Len(t, got, 100)
	assert.True(t, strings.HasPrefix(got, "- "))
}

func TestAggregateReviewsZeroBudgetMeansUnbounded(t *testing.T) {
	long := strings.Repeat("b", 200)
	got := AggregateReviews([]string{long}, 0)
	assert.Equal(t, "- "+long, got)
}
