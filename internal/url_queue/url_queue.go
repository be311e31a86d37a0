package urlqueue

import (
	"net/url"
	"strings"
	"sync"
)

// SeenSet is the run-wide dedup set, keyed by normalized URL. Safe for
// concurrent use from candidate workers.
type SeenSet struct {
	urls map[string]bool
	mu   sync.Mutex
}

func NewSeenSet() *SeenSet {
	return &SeenSet{urls: make(map[string]bool)}
}

// MarkSeen records the URL and reports whether it was new. A URL
// discovered via two different source sites is processed once.
func (s *SeenSet) MarkSeen(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeURL(urlStr)
	if s.urls[normalized] {
		return false
	}
	s.urls[normalized] = true
	return true
}

func (s *SeenSet) Seen(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[NormalizeURL(urlStr)]
}

func (s *SeenSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// NormalizeURL produces the dedup key: fragment stripped, www. prefix
// dropped, scheme defaulted to https.
func NormalizeURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	parsed.Fragment = ""

	parsed.Host = strings.TrimPrefix(parsed.Host, "www.")

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	return parsed.String()
}
