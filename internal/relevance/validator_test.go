package relevance_test

import (
	"strings"
	"testing"

	"ai_news_spider/internal/relevance"

	"github.com/stretchr/testify/require"
)

func TestValidateRelevantArticle(t *testing.T) {
	v := relevance.NewValidator(0)

	verdict := v.Validate(relevance.Candidate{
		Title: "Generative AI: OpenAI ships new AI model",
		Content: "The company says the machine learning pipeline was rebuilt from scratch. " +
			"Machine learning engineers spent a year on the effort.",
	})

	require.True(t, verdict.IsRelevant)
	require.GreaterOrEqual(t, verdict.ConfidenceScore, relevance.DefaultThreshold)
	require.NotEmpty(t, verdict.MatchedTerms)
	require.Contains(t, verdict.Reason, "AI-related terms")
}

func TestValidateIrrelevantArticle(t *testing.T) {
	v := relevance.NewValidator(0)

	verdict := v.Validate(relevance.Candidate{
		Title:   "Local bakery wins regional award",
		Content: "The sourdough was praised by all three judges.",
	})

	require.False(t, verdict.IsRelevant)
	require.Zero(t, verdict.ConfidenceScore)
	require.Empty(t, verdict.MatchedTerms)
	require.Equal(t, "no AI-related terms matched", verdict.Reason)
}

func TestValidateExclusionPattern(t *testing.T) {
	v := relevance.NewValidator(0)

	verdict := v.Validate(relevance.Candidate{
		Title:   "Artificial insemination advances in cattle farming",
		Content: "Veterinary researchers report improved outcomes.",
	})

	require.False(t, verdict.IsRelevant)
	require.Contains(t, verdict.Reason, "artificial insemination")
}

// An exclusion hit reduces the score even when real lexicon terms match.
func TestValidateExclusionPenalizesScore(t *testing.T) {
	v := relevance.NewValidator(0)

	with := v.Validate(relevance.Candidate{
		Title:   "Air India uses AI to schedule flights",
		Content: "The airline deployed the system last month.",
	})
	without := v.Validate(relevance.Candidate{
		Title:   "Airline uses AI to schedule flights",
		Content: "The airline deployed the system last month.",
	})

	require.Less(t, with.ConfidenceScore, without.ConfidenceScore)
	require.Contains(t, with.Reason, "air india")
}

// Repeating a term beyond the per-term cap must not raise the score:
// keyword stuffing buys nothing.
func TestValidateBodyOccurrencesCapped(t *testing.T) {
	v := relevance.NewValidator(0)

	capped := v.Validate(relevance.Candidate{
		Content: strings.Repeat("machine learning ", 3),
	})
	stuffed := v.Validate(relevance.Candidate{
		Content: strings.Repeat("machine learning ", 50),
	})

	require.Equal(t, capped.ConfidenceScore, stuffed.ConfidenceScore)
}

func TestValidateTitleCountsDouble(t *testing.T) {
	v := relevance.NewValidator(0)

	inTitle := v.Validate(relevance.Candidate{Title: "machine learning"})
	inBody := v.Validate(relevance.Candidate{Content: "machine learning"})

	require.Greater(t, inTitle.ConfidenceScore, inBody.ConfidenceScore)
}

func TestValidateScoreCappedAt100(t *testing.T) {
	v := relevance.NewValidator(0)

	verdict := v.Validate(relevance.Candidate{
		Title: "Artificial intelligence and machine learning reshape generative AI and deep learning",
		Content: strings.Repeat(
			"ChatGPT, large language model research, OpenAI transformers and neural networks. ", 5),
	})

	require.True(t, verdict.IsRelevant)
	require.LessOrEqual(t, verdict.ConfidenceScore, 100)
	require.LessOrEqual(t, len(verdict.MatchedTerms), 5)
}

func TestValidateSummaryFeedsScore(t *testing.T) {
	v := relevance.NewValidator(0)

	withSummary := v.Validate(relevance.Candidate{
		Title:   "Quarterly results",
		Summary: "The report highlights artificial intelligence spending.",
	})
	withoutSummary := v.Validate(relevance.Candidate{Title: "Quarterly results"})

	require.Greater(t, withSummary.ConfidenceScore, withoutSummary.ConfidenceScore)
}

func TestValidateEmptyInput(t *testing.T) {
	verdict := relevance.NewValidator(0).Validate(relevance.Candidate{})

	require.False(t, verdict.IsRelevant)
	require.Zero(t, verdict.ConfidenceScore)
}

func TestValidatorThreshold(t *testing.T) {
	require.Equal(t, relevance.DefaultThreshold, relevance.NewValidator(0).Threshold)
	require.Equal(t, relevance.DefaultThreshold, relevance.NewValidator(-5).Threshold)
	require.Equal(t, 80, relevance.NewValidator(80).Threshold)

	candidate := relevance.Candidate{
		Title:   "Generative AI: OpenAI ships new AI model",
		Content: "The machine learning pipeline was rebuilt by machine learning engineers.",
	}
	require.True(t, relevance.NewValidator(40).Validate(candidate).IsRelevant)
	require.False(t, relevance.NewValidator(90).Validate(candidate).IsRelevant)
}
