package relevance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ai_news_spider/internal/models"
)

// DefaultThreshold is the middle-ground acceptance score. Call sites
// disagree on strictness, so the threshold stays a parameter.
const DefaultThreshold = 40

// maxRawScore is the empirical raw-point ceiling that maps to 100.
const maxRawScore = 150

// bodyOccurrenceCap limits counted body occurrences per term so keyword
// stuffing cannot dominate the score.
const bodyOccurrenceCap = 3

// exclusionPenalty is the flat reduction applied when a known
// false-positive phrase is present.
const exclusionPenalty = 30

const maxReportedTerms = 5

type term struct {
	phrase string
	weight int
	re     *regexp.Regexp
}

func newTerm(phrase string, weight int) term {
	return term{
		phrase: phrase,
		weight: weight,
		re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
	}
}

// lexicon is the weighted term set: core terms first, then named
// technologies, concepts, applied/business terms, and generic fillers.
var lexicon = []term{
	newTerm("artificial intelligence", 10),
	newTerm("machine learning", 10),
	newTerm("generative ai", 9),
	newTerm("deep learning", 9),

	newTerm("chatgpt", 8),
	newTerm("large language model", 8),
	newTerm("gpt", 7),
	newTerm("llm", 7),
	newTerm("openai", 7),
	newTerm("transformer", 7),
	newTerm("neural network", 7),

	newTerm("computer vision", 6),
	newTerm("natural language processing", 6),
	newTerm("reinforcement learning", 6),
	newTerm("nlp", 5),
	newTerm("foundation model", 5),

	newTerm("ai-powered", 5),
	newTerm("ai model", 4),
	newTerm("ai strategy", 4),
	newTerm("ai agent", 4),
	newTerm("ai adoption", 3),
	newTerm("chatbot", 3),

	newTerm("ai", 2),
	newTerm("algorithm", 2),
	newTerm("automation", 2),
	newTerm("innovation", 2),
}

// exclusionPatterns are known false positives that coincidentally hit
// the lexicon.
var exclusionPatterns = []string{
	"artificial insemination",
	"american idol",
	"ai file format",
	"adobe illustrator",
	"air india",
}

// Candidate is the input to validation: title plus whatever body text
// and summary are available.
type Candidate struct {
	Title   string
	Content string
	Summary string
}

// Validator scores candidates against the weighted lexicon. Deterministic
// and side-effect-free: no network, no LLM calls.
type Validator struct {
	Threshold int
}

func NewValidator(threshold int) *Validator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Validator{Threshold: threshold}
}

type matchedTerm struct {
	phrase       string
	titleCount   int
	bodyCount    int
	contribution int
}

// Validate computes a relevance verdict for the candidate. Title matches
// count double weight; body matches are capped per term.
func (v *Validator) Validate(c Candidate) models.RelevanceVerdict {
	title := c.Title
	body := c.Content
	if c.Summary != "" {
		body += "\n" + c.Summary
	}

	raw := 0
	var matches []matchedTerm
	for _, t := range lexicon {
		titleCount := len(t.re.FindAllStringIndex(title, -1))
		bodyCount := len(t.re.FindAllStringIndex(body, -1))
		if titleCount == 0 && bodyCount == 0 {
			continue
		}

		counted := bodyCount
		if counted > bodyOccurrenceCap {
			counted = bodyOccurrenceCap
		}
		contribution := t.weight*2*titleCount + t.weight*counted
		raw += contribution

		matches = append(matches, matchedTerm{
			phrase:       t.phrase,
			titleCount:   titleCount,
			bodyCount:    bodyCount,
			contribution: contribution,
		})
	}

	score := raw * 100 / maxRawScore
	if score > 100 {
		score = 100
	}

	excluded := findExclusion(title + "\n" + body)
	if excluded != "" {
		score -= exclusionPenalty
		if score < 0 {
			score = 0
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].contribution > matches[j].contribution
	})
	if len(matches) > maxReportedTerms {
		matches = matches[:maxReportedTerms]
	}

	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		terms = append(terms, fmt.Sprintf("%s (title x%d, body x%d)", m.phrase, m.titleCount, m.bodyCount))
	}

	reason := buildReason(terms, excluded)

	return models.RelevanceVerdict{
		IsRelevant:      score >= v.Threshold,
		ConfidenceScore: score,
		MatchedTerms:    terms,
		Reason:          reason,
	}
}

func findExclusion(text string) string {
	lower := strings.ToLower(text)
	for _, pattern := range exclusionPatterns {
		if strings.Contains(lower, pattern) {
			return pattern
		}
	}
	return ""
}

func buildReason(terms []string, excluded string) string {
	if excluded != "" {
		return fmt.Sprintf("excluded pattern %q matched", excluded)
	}
	if len(terms) == 0 {
		return "no AI-related terms matched"
	}
	return fmt.Sprintf("matched %d AI-related terms: %s", len(terms), strings.Join(terms, ", "))
}
