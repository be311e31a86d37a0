package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ErrExtractionExhausted means every strategy spent all its attempts.
// Callers must skip the candidate; this is not a relevance rejection.
var ErrExtractionExhausted = errors.New("all content extraction strategies failed")

// minContentLength is the bar a strategy result must clear (after
// whitespace normalization) for the cascade to stop.
const minContentLength = 100

const strategyAttempts = 3

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reBareURL    = regexp.MustCompile(`https?://[^\s]+`)
)

// Strategy is one rung of the extraction cascade.
type Strategy struct {
	Name    string
	Extract func(rawHTML, pageURL string) (string, error)
}

// ContentExtractor retrieves full article body text by running a cascade
// of strategies in fixed priority order until one returns non-trivial
// content.
type ContentExtractor struct {
	fetcher    Fetcher
	strategies []Strategy
	RetryDelay time.Duration
}

func NewContentExtractor(fetcher Fetcher) *ContentExtractor {
	return &ContentExtractor{
		fetcher: fetcher,
		strategies: []Strategy{
			{Name: "readability", Extract: extractReadability},
			{Name: "article-container", Extract: extractArticleContainers},
			{Name: "paragraph-scrape", Extract: extractParagraphs},
		},
		RetryDelay: 200 * time.Millisecond,
	}
}

// NewContentExtractorWithStrategies injects a custom cascade.
func NewContentExtractorWithStrategies(fetcher Fetcher, strategies []Strategy) *ContentExtractor {
	return &ContentExtractor{fetcher: fetcher, strategies: strategies}
}

// ExtractFullContent fetches the page and runs the cascade. The first
// strategy producing content longer than minContentLength wins and the
// remaining strategies are skipped.
func (c *ContentExtractor) ExtractFullContent(ctx context.Context, pageURL string) (string, error) {
	rawHTML, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("content fetch for %s: %w", pageURL, err)
	}

	for _, strat := range c.strategies {
		for attempt := 0; attempt < strategyAttempts; attempt++ {
			if attempt > 0 && c.RetryDelay > 0 {
				time.Sleep(c.RetryDelay)
			}

			text, err := strat.Extract(rawHTML, pageURL)
			if err != nil {
				log.Printf("strategy %s failed for %s (attempt %d): %v", strat.Name, pageURL, attempt+1, err)
				continue
			}

			cleaned := Postprocess(text)
			if len(cleaned) > minContentLength {
				return cleaned, nil
			}
			// Thin result; no point re-parsing the same HTML.
			break
		}
	}

	return "", fmt.Errorf("%s: %w", pageURL, ErrExtractionExhausted)
}

// extractReadability is the preferred strategy: boilerplate removal via
// go-readability, then paragraph text via goquery.
func extractReadability(rawHTML, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(addSpacesBeforeParsing(article.Content)))
	if err != nil {
		return "", err
	}

	paras := paragraphTexts(doc.Selection)
	if len(paras) == 0 {
		return normalizeText(doc.Text()), nil
	}
	return strings.Join(paras, "\n\n"), nil
}

// extractArticleContainers searches for likely article containers and
// concatenates their paragraph text.
func extractArticleContainers(rawHTML, _ string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	containers := []string{
		"article",
		`[class*="article"]`,
		`[id*="article"]`,
		`[class*="content"]`,
		`[id*="content"]`,
		"main",
	}

	for _, sel := range containers {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		paras := paragraphTexts(found)
		if len(paras) > 0 {
			return strings.Join(paras, "\n\n"), nil
		}
	}

	return "", fmt.Errorf("no article container found")
}

// extractParagraphs is the last-resort heuristic: tokenize the raw HTML,
// skip script/style/nav/footer/header/aside blocks and keep every <p>
// longer than 40 characters.
func extractParagraphs(rawHTML, _ string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(rawHTML))

	var paras []string
	var current strings.Builder
	inParagraph := false

	skippable := map[string]bool{
		"script": true, "style": true, "nav": true,
		"footer": true, "header": true, "aside": true,
	}

	flush := func() {
		if text := normalizeText(current.String()); len(text) > 40 {
			paras = append(paras, text)
		}
		current.Reset()
		inParagraph = false
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				if inParagraph {
					flush()
				}
				if len(paras) == 0 {
					return "", fmt.Errorf("no paragraphs found")
				}
				return strings.Join(paras, "\n\n"), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			token := z.Token()
			if skippable[token.Data] {
				skipElement(z, token.Data)
				continue
			}
			if token.Data == "p" {
				inParagraph = true
				current.Reset()
			}
		case html.EndTagToken:
			if z.Token().Data == "p" && inParagraph {
				flush()
			}
		case html.TextToken:
			if inParagraph {
				current.WriteString(z.Token().Data)
				current.WriteString(" ")
			}
		}
	}
}

// skipElement consumes tokens until the matching closing tag.
func skipElement(z *html.Tokenizer, tagName string) {
	depth := 1
	for depth > 0 {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.StartTagToken:
			if z.Token().Data == tagName {
				depth++
			}
		case html.EndTagToken:
			if z.Token().Data == tagName {
				depth--
			}
		}
	}
}

var boilerplatePhrases = []string{
	"subscribe to our newsletter",
	"sign up for our newsletter",
	"subscribe for more",
	"sign up to receive",
	"accept cookies",
	"cookie policy",
	"privacy policy",
	"terms of use",
	"all rights reserved",
	"follow us on",
}

// Postprocess collapses whitespace, strips newsletter/subscription
// boilerplate and bare URLs, and re-joins into paragraph-separated text.
func Postprocess(text string) string {
	var kept []string
	for _, para := range strings.Split(text, "\n\n") {
		para = reBareURL.ReplaceAllString(para, " ")
		para = normalizeText(para)
		if para == "" {
			continue
		}
		if len(para) < 200 && isBoilerplate(para) {
			continue
		}
		kept = append(kept, para)
	}
	return strings.Join(kept, "\n\n")
}

func isBoilerplate(para string) bool {
	lower := strings.ToLower(para)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func paragraphTexts(sel *goquery.Selection) []string {
	var paras []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := normalizeText(p.Text()); text != "" {
			paras = append(paras, text)
		}
	})
	return paras
}

func normalizeText(text string) string {
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func addSpacesBeforeParsing(rawHTML string) string {
	blockElements := []string{"div", "p", "br", "li", "td", "tr", "h1", "h2", "h3", "h4", "h5", "h6"}
	result := rawHTML
	for _, tag := range blockElements {
		result = regexp.MustCompile(`<` + tag + `[^>]*>`).ReplaceAllString(result, " <"+tag+">")
		result = regexp.MustCompile(`</` + tag + `>`).ReplaceAllString(result, "</"+tag+"> ")
	}
	return result
}
