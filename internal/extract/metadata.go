package extract

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"ai_news_spider/internal/dates"
	"ai_news_spider/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the slice of the fetch layer the extractors need.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// MetadataExtractor pulls just title + publish date from a page, enough
// to decide whether full content extraction is worth the cost.
type MetadataExtractor struct {
	fetcher Fetcher
	now     func() time.Time
}

func NewMetadataExtractor(fetcher Fetcher) *MetadataExtractor {
	return &MetadataExtractor{fetcher: fetcher, now: time.Now}
}

// Metadata fetches the page and returns its metadata, or nil when the
// article is older than the cutoff or the page yields insufficient data.
// A missing title is not grounds for exclusion; a stale date is.
func (m *MetadataExtractor) Metadata(ctx context.Context, pageURL string, cutoff time.Time) *models.ArticleMetadata {
	body, err := m.fetcher.Get(ctx, pageURL)
	if err != nil {
		log.Printf("metadata fetch failed for %s: %v", pageURL, err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		log.Printf("metadata parse failed for %s: %v", pageURL, err)
		return nil
	}

	published := dates.Normalize(findDate(doc), m.now())
	if !dates.SameOrAfterDay(published, cutoff) {
		return nil
	}

	title := findTitle(doc)
	if title == "" {
		title = fallbackTitle(pageURL)
	}

	return &models.ArticleMetadata{
		Title:       title,
		URL:         pageURL,
		PublishedAt: published,
	}
}

func findTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

var dateSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[name="article:published_time"]`, "content"},
	{`meta[property="og:published_time"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="pubdate"]`, "content"},
	{`time`, "datetime"},
}

func findDate(doc *goquery.Document) string {
	for _, ds := range dateSelectors {
		if raw, ok := doc.Find(ds.selector).First().Attr(ds.attr); ok {
			if raw = strings.TrimSpace(raw); raw != "" {
				return raw
			}
		}
	}
	// Visible <time> text as a last resort.
	return strings.TrimSpace(doc.Find("time").First().Text())
}

func fallbackTitle(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return "Article from " + pageURL
	}
	return "Article from " + u.Hostname()
}
