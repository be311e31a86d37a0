package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai_news_spider/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// ErrQuotaExceeded is the one fatal collaborator failure: the
// orchestrator aborts the remaining run instead of skipping.
var ErrQuotaExceeded = errors.New("summarization quota exceeded")

// maxContentLength truncates article bodies to stay inside token limits.
const maxContentLength = 15000

// Summarizer is the narrow interface the pipeline calls. The core never
// depends on LLM internals.
type Summarizer interface {
	Summarize(ctx context.Context, title, body string) (*models.Summary, error)
}

// OpenAISummarizer produces structured article summaries via chat
// completions with a JSON response format.
type OpenAISummarizer struct {
	client *openai.Client
	model  string
}

func NewOpenAISummarizer(token, model string) *OpenAISummarizer {
	return NewOpenAISummarizerWithClient(openai.NewClient(token), model)
}

// NewOpenAISummarizerWithClient accepts a preconfigured client, for
// callers pointing at a non-default API endpoint.
func NewOpenAISummarizerWithClient(client *openai.Client, model string) *OpenAISummarizer {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAISummarizer{
		client: client,
		model:  model,
	}
}

// summaryBox is the raw response shape: the summary fields plus an
// error slot the model fills when it cannot analyze the content.
type summaryBox struct {
	models.Summary
	Error *string `json:"error"`
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, title, body string) (*models.Summary, error) {
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxContentLength {
		body = body[:maxContentLength] + "..."
	}

	prompt := fmt.Sprintf(`Title: %s
Content: %s

Provide an analysis in JSON format with the following structure:
{
  "summary": "a concise executive summary of the article (25-40 words)",
  "key_points": ["2-3 key strategic takeaways"],
  "business_value": "one specific insight about measurable business impact (15-25 words)",
  "error": null
}`, title, body)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var box summaryBox
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &box); err != nil {
		return nil, fmt.Errorf("unmarshalling summary json: %w", err)
	}
	if box.Error != nil && *box.Error != "" {
		return nil, fmt.Errorf("summarizer reported: %s", *box.Error)
	}
	if box.Summary.Summary == "" {
		return nil, errors.New("summarizer returned empty summary")
	}

	return &box.Summary, nil
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatusCode == 429 {
		return true
	}
	if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
		return true
	}
	return false
}
