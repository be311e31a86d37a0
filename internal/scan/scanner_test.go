package scan_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai_news_spider/internal/models"
	"ai_news_spider/internal/scan"

	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) Get(_ context.Context, url string) (string, error) {
	page, ok := s.pages[url]
	if !ok {
		return "", fmt.Errorf("%s: page not found", url)
	}
	return page, nil
}

// freshMetadata admits every URL with a fixed publish date.
type freshMetadata struct {
	seen []string
}

func (f *freshMetadata) Metadata(_ context.Context, url string, _ time.Time) *models.ArticleMetadata {
	f.seen = append(f.seen, url)
	return &models.ArticleMetadata{
		Title:       "Article from example.com",
		URL:         url,
		PublishedAt: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

// staleMetadata rejects a fixed set of URLs, admits the rest.
type staleMetadata struct {
	stale map[string]bool
}

func (s *staleMetadata) Metadata(_ context.Context, url string, _ time.Time) *models.ArticleMetadata {
	if s.stale[url] {
		return nil
	}
	return &models.ArticleMetadata{Title: "ok", URL: url, PublishedAt: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)}
}

const sourceURL = "https://news.example.com/tech"

var cutoff = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestScanner(fetcher scan.Fetcher, meta scan.MetadataSource) *scan.Scanner {
	s := scan.NewScanner(fetcher, meta, "test-agent")
	s.Delay = 0
	return s
}

func TestFindCandidatesMatchesAILinks(t *testing.T) {
	page := `<html><body>
		<a href="/2024/openai-model">OpenAI releases new AI model</a>
		<a href="/2024/ml-benchmark">Machine learning benchmark results</a>
		<a href="/2024/sports">Local team wins championship</a>
		<a href="/2024/quote">He said the quiet part out loud</a>
		<a href="/2024/chatgpt-update">ChatGPT gets memory</a>
	</body></html>`

	meta := &freshMetadata{}
	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, meta)

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	require.Equal(t, "https://news.example.com/2024/openai-model", candidates[0].Link.URL)
	require.Equal(t, "https://news.example.com/2024/ml-benchmark", candidates[1].Link.URL)
	require.Equal(t, "https://news.example.com/2024/chatgpt-update", candidates[2].Link.URL)
}

// "said" must not trigger the bare "ai" token, but hyphenated compounds
// like "AI-powered" must.
func TestFindCandidatesWordBoundaries(t *testing.T) {
	page := `<html><body>
		<a href="/a">The CEO said revenue is up</a>
		<a href="/b">AI-powered assistants arrive</a>
		<a href="/c">Spain, Haiti sign accord</a>
	</body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "AI-powered assistants arrive", candidates[0].Link.Title)
}

func TestFindCandidatesUsesTitleAttribute(t *testing.T) {
	page := `<html><body>
		<a href="/teaser" title="Inside the new machine learning lab">Read more</a>
	</body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

func TestFindCandidatesSkipsConsentBoilerplate(t *testing.T) {
	page := `<html><body>
		<a href="/privacy">AI and our privacy policy</a>
		<a href="/cookies">Accept cookies to view AI content</a>
		<a href="/real">Real AI story</a>
	</body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "Real AI story", candidates[0].Link.Title)
}

func TestFindCandidatesResolvesRelativeAndSkipsNonHTTP(t *testing.T) {
	page := `<html><body>
		<a href="story/ai-chips">AI chips roundup</a>
		<a href="//cdn.example.com/ai-report">AI report mirror</a>
		<a href="ftp://files.example.com/ai.zip">AI dataset</a>
		<a href="#comments">AI comments</a>
		<a href="mailto:tips@example.com">AI tips inbox</a>
	</body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, "https://news.example.com/story/ai-chips", candidates[0].Link.URL)
	require.Equal(t, "https://cdn.example.com/ai-report", candidates[1].Link.URL)
}

func TestFindCandidatesDatePreFilter(t *testing.T) {
	page := `<html><body>
		<a href="/fresh">Fresh AI news</a>
		<a href="/stale">Stale AI news</a>
	</body></html>`

	meta := &staleMetadata{stale: map[string]bool{"https://news.example.com/stale": true}}
	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, meta)

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "https://news.example.com/fresh", candidates[0].Link.URL)
}

func TestFindCandidatesHonorsRobots(t *testing.T) {
	page := `<html><body>
		<a href="/private/ai-story">AI story behind the wall</a>
		<a href="/public/ai-story">Public AI story</a>
	</body></html>`
	robots := "User-agent: *\nDisallow: /private/\n"

	fetcher := &stubFetcher{pages: map[string]string{
		sourceURL: page,
		"https://news.example.com/robots.txt": robots,
	}}
	s := newTestScanner(fetcher, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "https://news.example.com/public/ai-story", candidates[0].Link.URL)
}

func TestFindCandidatesRobotsUnavailable(t *testing.T) {
	page := `<html><body><a href="/ai-story">AI story</a></body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

func TestFindCandidatesAnchorTitleOverridesFallback(t *testing.T) {
	page := `<html><body><a href="/ai-story">Anthropic ships new AI safety tooling</a></body></html>`

	s := newTestScanner(&stubFetcher{pages: map[string]string{sourceURL: page}}, &freshMetadata{})

	candidates, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "Anthropic ships new AI safety tooling", candidates[0].Meta.Title)
}

func TestFindCandidatesSourceFetchError(t *testing.T) {
	s := newTestScanner(&stubFetcher{pages: nil}, &freshMetadata{})

	_, err := s.FindCandidates(context.Background(), sourceURL, cutoff)
	require.Error(t, err)
}
