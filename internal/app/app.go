package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"ai_news_spider/internal/llm"
	"ai_news_spider/internal/models"
	"ai_news_spider/internal/relevance"
	"ai_news_spider/internal/scan"
	urlqueue "ai_news_spider/internal/url_queue"
)

// EventType enumerates progress notifications emitted to the
// presentation layer.
type EventType int

const (
	EventSourceStart EventType = iota
	EventSourceDone
	EventSourceFailed
	EventCandidateFound
	EventCandidateAccepted
	EventCandidateRejected
	EventCandidateSkipped
	EventRunAborted
)

// Event is a progress notification. Consumed through an injected
// callback, never through shared globals.
type Event struct {
	Type        EventType
	Source      string
	SourceIndex int
	SourceCount int
	URL         string
	Title       string
	Err         error
}

// CandidateScanner discovers date-filtered candidates on a source site.
type CandidateScanner interface {
	FindCandidates(ctx context.Context, sourceURL string, cutoff time.Time) ([]scan.Candidate, error)
}

// ContentSource retrieves full article body text.
type ContentSource interface {
	ExtractFullContent(ctx context.Context, url string) (string, error)
}

// Verdicts scores a candidate for topical relevance.
type Verdicts interface {
	Validate(c relevance.Candidate) models.RelevanceVerdict
}

// Store is the optional persistence collaborator. Save failures are
// logged and non-fatal.
type Store interface {
	SaveArticle(ctx context.Context, article *models.Article) error
	ArticleExists(ctx context.Context, url string) (bool, error)
}

// Config holds the per-run orchestration knobs.
type Config struct {
	Cutoff     time.Time
	BatchSize  int
	MaxWorkers int
}

// ScanResult is the sole data handed back to any presentation layer.
// Articles are in acceptance order; callers may re-sort.
type ScanResult struct {
	Articles       []models.Article
	SourcesScanned int
	SourcesFailed  int
	Aborted        bool
}

// App drives the end-to-end flow per source: discover candidates,
// extract content, validate relevance, emit accepted records. A failing
// source or candidate never aborts the run; summarizer quota exhaustion
// is the one fatal condition.
type App struct {
	sources    []string
	cfg        Config
	scanner    CandidateScanner
	content    ContentSource
	validator  Verdicts
	summarizer llm.Summarizer // optional
	store      Store          // optional
	progress   func(Event)

	seen *urlqueue.SeenSet

	mu       sync.Mutex
	articles []models.Article
	fatalErr error
}

func NewApp(sources []string, cfg Config, scanner CandidateScanner, content ContentSource, validator Verdicts) *App {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	return &App{
		sources:   sources,
		cfg:       cfg,
		scanner:   scanner,
		content:   content,
		validator: validator,
		seen:      urlqueue.NewSeenSet(),
		progress:  func(Event) {},
	}
}

// WithSummarizer attaches the optional summarization collaborator.
func (a *App) WithSummarizer(s llm.Summarizer) *App {
	a.summarizer = s
	return a
}

// WithStore attaches the optional persistence collaborator.
func (a *App) WithStore(s Store) *App {
	a.store = s
	return a
}

// WithProgress attaches the progress observer callback.
func (a *App) WithProgress(fn func(Event)) *App {
	if fn != nil {
		a.progress = fn
	}
	return a
}

// Run scans every configured source. Returns the accumulated articles
// and a non-nil error only on fatal abort; an empty result with a nil
// error means nothing matched. Cooperative cancellation between sources
// and candidates keeps partial results valid.
func (a *App) Run(ctx context.Context) (*ScanResult, error) {
	res := &ScanResult{}

	for i, source := range a.sources {
		if a.stopped(ctx) {
			break
		}

		a.progress(Event{Type: EventSourceStart, Source: source, SourceIndex: i + 1, SourceCount: len(a.sources)})

		candidates, err := a.scanner.FindCandidates(ctx, source, a.cfg.Cutoff)
		if err != nil && len(candidates) == 0 {
			log.Printf("source %s failed: %v", source, err)
			a.progress(Event{Type: EventSourceFailed, Source: source, SourceIndex: i + 1, SourceCount: len(a.sources), Err: err})
			res.SourcesFailed++
			continue
		}

		a.processCandidates(ctx, source, candidates)
		res.SourcesScanned++

		a.progress(Event{Type: EventSourceDone, Source: source, SourceIndex: i + 1, SourceCount: len(a.sources)})
	}

	a.mu.Lock()
	res.Articles = append(res.Articles, a.articles...)
	fatal := a.fatalErr
	a.mu.Unlock()

	if fatal != nil {
		res.Aborted = true
		a.progress(Event{Type: EventRunAborted, Err: fatal})
		return res, fatal
	}
	return res, nil
}

// processCandidates runs candidates through a bounded worker pool in
// batches, checking for cancellation and fatal errors between batches.
func (a *App) processCandidates(ctx context.Context, source string, candidates []scan.Candidate) {
	for start := 0; start < len(candidates); start += a.cfg.BatchSize {
		if a.stopped(ctx) {
			return
		}

		end := start + a.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		jobs := make(chan scan.Candidate)
		var wg sync.WaitGroup
		for w := 0; w < a.cfg.MaxWorkers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for cand := range jobs {
					a.processCandidate(ctx, source, cand)
				}
			}()
		}

		for _, cand := range batch {
			jobs <- cand
		}
		close(jobs)
		wg.Wait()
	}
}

func (a *App) processCandidate(ctx context.Context, source string, cand scan.Candidate) {
	if a.stopped(ctx) {
		return
	}

	url := cand.Link.URL
	if !a.seen.MarkSeen(url) {
		return
	}

	if a.store != nil {
		if exists, err := a.store.ArticleExists(ctx, url); err == nil && exists {
			return
		}
	}

	a.progress(Event{Type: EventCandidateFound, Source: source, URL: url, Title: cand.Meta.Title})

	content, err := a.content.ExtractFullContent(ctx, url)
	if err != nil {
		// Extraction failure, not a relevance rejection. Keep the two
		// apart in logs and statistics.
		log.Printf("skipping %s: %v", url, err)
		a.progress(Event{Type: EventCandidateSkipped, Source: source, URL: url, Err: err})
		return
	}

	verdict := a.validator.Validate(relevance.Candidate{
		Title:   cand.Meta.Title,
		Content: content,
	})
	if !verdict.IsRelevant {
		a.progress(Event{Type: EventCandidateRejected, Source: source, URL: url, Title: cand.Meta.Title})
		return
	}

	article := models.Article{
		Title:       cand.Meta.Title,
		URL:         url,
		SourceSite:  source,
		PublishedAt: cand.Meta.PublishedAt,
		Content:     content,
		Verdict:     verdict,
	}

	if a.summarizer != nil {
		summary, err := a.summarizer.Summarize(ctx, article.Title, article.Content)
		switch {
		case errors.Is(err, llm.ErrQuotaExceeded):
			a.setFatal(err)
			return
		case err != nil:
			// Missing summary is not grounds for dropping the article.
			log.Printf("summarization failed for %s: %v", url, err)
		default:
			article.Summary = summary
		}
	}

	a.mu.Lock()
	a.articles = append(a.articles, article)
	a.mu.Unlock()

	a.progress(Event{Type: EventCandidateAccepted, Source: source, URL: url, Title: article.Title})

	if a.store != nil {
		if err := a.store.SaveArticle(ctx, &article); err != nil {
			log.Printf("persist failed for %s (non-fatal): %v", url, err)
		}
	}
}

func (a *App) setFatal(err error) {
	a.mu.Lock()
	if a.fatalErr == nil {
		a.fatalErr = err
	}
	a.mu.Unlock()
}

// stopped reports whether the run should make no further progress:
// either the context is done or a fatal condition was recorded.
func (a *App) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fatalErr != nil
}
