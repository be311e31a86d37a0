package scan

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"ai_news_spider/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
)

// Fetcher is the slice of the fetch layer the scanner needs.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// MetadataSource pre-filters candidates by publish date before they are
// yielded, keeping memory bounded and avoiding content-extraction cost
// for stale links.
type MetadataSource interface {
	Metadata(ctx context.Context, url string, cutoff time.Time) *models.ArticleMetadata
}

// Candidate pairs a discovered link with the metadata that let it
// through the date pre-filter.
type Candidate struct {
	Link models.CandidateLink
	Meta models.ArticleMetadata
}

// aiLinkPatterns match anchor text + title attribute of AI-related
// links. The bare "ai" token is word-boundary anchored so substrings
// like "said" do not match; hyphenated compounds ("AI-powered",
// "gen-AI") still do.
var aiLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bai\b`),
	regexp.MustCompile(`(?i)\bartificial intelligence\b`),
	regexp.MustCompile(`(?i)\bmachine learning\b`),
	regexp.MustCompile(`(?i)\bdeep learning\b`),
	regexp.MustCompile(`(?i)\bneural network`),
	regexp.MustCompile(`(?i)\bgenerative ai\b`),
	regexp.MustCompile(`(?i)\bchatgpt\b`),
	regexp.MustCompile(`(?i)\blarge language model`),
	regexp.MustCompile(`(?i)\bllms?\b`),
}

// consentDenylist skips cookie/privacy boilerplate pages.
var consentDenylist = []string{
	"cookie policy",
	"privacy notice",
	"consent form",
	"accept cookies",
	"terms of use",
	"privacy policy",
}

// Scanner discovers candidate article links on a source site.
type Scanner struct {
	fetcher   Fetcher
	metadata  MetadataSource
	userAgent string
	// Delay between metadata fetches against the same host. Courtesy
	// knob, not a correctness requirement.
	Delay time.Duration
}

func NewScanner(fetcher Fetcher, metadata MetadataSource, userAgent string) *Scanner {
	return &Scanner{
		fetcher:   fetcher,
		metadata:  metadata,
		userAgent: userAgent,
		Delay:     1500 * time.Millisecond,
	}
}

// FindCandidates fetches the source page and yields, in document order,
// every AI-looking link that survives the date pre-filter. Results are
// not deduplicated across sources; that is the orchestrator's job.
func (s *Scanner) FindCandidates(ctx context.Context, sourceURL string, cutoff time.Time) ([]Candidate, error) {
	body, err := s.fetcher.Get(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", sourceURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", sourceURL, err)
	}

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parsing source url %s: %w", sourceURL, err)
	}

	robotsGroup := s.loadRobotsGroup(ctx, baseURL)

	var links []models.CandidateLink
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return
		}

		titleAttr, _ := sel.Attr("title")
		combined := strings.TrimSpace(sel.Text() + " " + titleAttr)

		if !matchesAIPatterns(combined) || isConsentBoilerplate(combined) {
			return
		}

		parsedHref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := baseURL.ResolveReference(parsedHref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		if robotsGroup != nil && resolved.Host == baseURL.Host && !robotsGroup.Test(resolved.Path) {
			return
		}

		links = append(links, models.CandidateLink{
			Title:      strings.TrimSpace(sel.Text()),
			URL:        resolved.String(),
			SourceSite: sourceURL,
		})
	})

	var candidates []Candidate
	for i, link := range links {
		select {
		case <-ctx.Done():
			return candidates, ctx.Err()
		default:
		}

		if i > 0 && s.Delay > 0 {
			time.Sleep(s.Delay)
		}

		meta := s.metadata.Metadata(ctx, link.URL, cutoff)
		if meta == nil {
			continue
		}
		if meta.Title == "" || strings.HasPrefix(meta.Title, "Article from ") {
			// Anchor text usually beats the synthesized fallback.
			if link.Title != "" {
				meta.Title = link.Title
			}
		}
		candidates = append(candidates, Candidate{Link: link, Meta: *meta})
	}

	return candidates, nil
}

// loadRobotsGroup fetches the source host's robots.txt once per scan.
// Failures are ignored: politeness, not correctness.
func (s *Scanner) loadRobotsGroup(ctx context.Context, baseURL *url.URL) *robotstxt.Group {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", baseURL.Scheme, baseURL.Host)
	body, err := s.fetcher.Get(ctx, robotsURL)
	if err != nil {
		log.Printf("robots.txt unavailable for %s (ignoring): %v", baseURL.Host, err)
		return nil
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		log.Printf("robots.txt parse failed for %s: %v", baseURL.Host, err)
		return nil
	}

	return data.FindGroup(s.userAgent)
}

func matchesAIPatterns(text string) bool {
	for _, re := range aiLinkPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func isConsentBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range consentDenylist {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
