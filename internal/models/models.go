package models

import "time"

// CandidateLink is a discovered link suspected of being an AI-related
// article. Transient: discarded once metadata is resolved or rejected.
type CandidateLink struct {
	Title      string
	URL        string
	SourceSite string
}

// ArticleMetadata holds the cheap pre-filter fields fetched before any
// full content extraction. URL is the unique key.
type ArticleMetadata struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// RelevanceVerdict is produced once per candidate and never mutated.
type RelevanceVerdict struct {
	IsRelevant      bool
	ConfidenceScore int
	MatchedTerms    []string
	Reason          string
}

// Summary carries the fields attached by the external summarization
// collaborator.
type Summary struct {
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	BusinessValue string   `json:"business_value"`
}

// Article is an accepted record: metadata + content + verdict, plus
// optional summarization fields.
type Article struct {
	Title       string
	URL         string
	SourceSite  string
	PublishedAt time.Time
	Content     string
	Verdict     RelevanceVerdict
	Summary     *Summary
}

// ArticleRecord is the persisted shape of an accepted article.
type ArticleRecord struct {
	NormalizedURL   string    `bson:"_id"`
	URL             string    `bson:"url"`
	Title           string    `bson:"title"`
	SourceSite      string    `bson:"source_site"`
	PublishedAt     time.Time `bson:"published_at"`
	Content         string    `bson:"content"`
	ContentLength   int       `bson:"content_length"`
	ConfidenceScore int       `bson:"confidence_score"`
	MatchedTerms    []string  `bson:"matched_terms,omitempty"`
	Reason          string    `bson:"reason,omitempty"`
	Summary         string    `bson:"summary,omitempty"`
	KeyPoints       []string  `bson:"key_points,omitempty"`
	BusinessValue   string    `bson:"business_value,omitempty"`
	FirstSaved      int64     `bson:"first_saved"`
	LastSaved       int64     `bson:"last_saved"`
}
