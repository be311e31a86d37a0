package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai_news_spider/internal/app"
	"ai_news_spider/internal/config"
	"ai_news_spider/internal/db"
	"ai_news_spider/internal/extract"
	"ai_news_spider/internal/fetch"
	"ai_news_spider/internal/llm"
	"ai_news_spider/internal/relevance"
	"ai_news_spider/internal/scan"
	"ai_news_spider/internal/sources"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	listLimit := flag.Int64("list", 0, "list the N most recent saved articles and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *listLimit > 0 {
		listSavedArticles(cfg, *listLimit)
		return
	}

	sites, err := sources.Load(cfg.Scan.SourcesFile, cfg.Scan.TestMode)
	if err != nil {
		log.Fatalf("failed to load source sites: %v", err)
	}
	if len(sites) == 0 {
		log.Fatal("no source sites configured")
	}

	client := fetch.NewClient(fetch.Config{
		Timeout:        time.Duration(cfg.Logic.TimeoutSec) * time.Second,
		MaxRetries:     cfg.Logic.MaxRetries,
		InitialBackoff: time.Duration(cfg.Logic.InitialBackoffMS) * time.Millisecond,
		UserAgent:      cfg.Logic.UserAgent,
	})

	metadata := extract.NewMetadataExtractor(client)
	content := extract.NewContentExtractor(client)
	scanner := scan.NewScanner(client, metadata, cfg.Logic.UserAgent)
	scanner.Delay = time.Duration(cfg.Logic.DelayMS) * time.Millisecond
	validator := relevance.NewValidator(cfg.Scan.RelevanceThreshold)

	cutoff := cfg.Cutoff(time.Now())
	log.Printf("scanning %d sources, cutoff %s", len(sites), cutoff.Format("2006-01-02"))

	pipeline := app.NewApp(sites, app.Config{
		Cutoff:     cutoff,
		BatchSize:  cfg.Scan.BatchSize,
		MaxWorkers: cfg.Scan.MaxWorkers,
	}, scanner, content, validator)

	if cfg.LLM.Enabled {
		token := os.Getenv("OPENAI_API_KEY")
		if token == "" {
			log.Fatal("llm.enabled is set but OPENAI_API_KEY is empty")
		}
		pipeline.WithSummarizer(llm.NewOpenAISummarizer(token, cfg.LLM.Model))
	}

	if cfg.DB.Enabled {
		store, err := db.NewMongoDB(cfg.DB)
		if err != nil {
			log.Fatalf("failed to connect to article store: %v", err)
		}
		defer store.Close()
		pipeline.WithStore(store)
	}

	pipeline.WithProgress(logProgress)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx)
	if err != nil {
		log.Printf("run aborted: %v", err)
	}

	log.Printf("scan finished: %d articles accepted from %d sources (%d failed)",
		len(result.Articles), result.SourcesScanned, result.SourcesFailed)
	for _, article := range result.Articles {
		log.Printf("  [%d] %s (%s)", article.Verdict.ConfidenceScore, article.Title, article.URL)
	}

	if result.Aborted {
		os.Exit(1)
	}
}

func listSavedArticles(cfg *config.PipelineConfig, limit int64) {
	store, err := db.NewMongoDB(cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to article store: %v", err)
	}
	defer store.Close()

	records, err := store.ListArticles(context.Background(), limit)
	if err != nil {
		log.Fatalf("failed to list articles: %v", err)
	}
	for _, r := range records {
		log.Printf("[%d] %s %s (%s)", r.ConfidenceScore, r.PublishedAt.Format("2006-01-02"), r.Title, r.URL)
	}
}

func logProgress(e app.Event) {
	switch e.Type {
	case app.EventSourceStart:
		log.Printf("source %d/%d: %s", e.SourceIndex, e.SourceCount, e.Source)
	case app.EventSourceFailed:
		log.Printf("source %d/%d failed: %s: %v", e.SourceIndex, e.SourceCount, e.Source, e.Err)
	case app.EventCandidateFound:
		log.Printf("  candidate: %s", e.URL)
	case app.EventCandidateAccepted:
		log.Printf("  accepted: %s", e.Title)
	case app.EventCandidateRejected:
		log.Printf("  rejected: %s", e.Title)
	case app.EventCandidateSkipped:
		log.Printf("  skipped %s: %v", e.URL, e.Err)
	case app.EventRunAborted:
		log.Printf("aborting remaining run: %v", e.Err)
	}
}
