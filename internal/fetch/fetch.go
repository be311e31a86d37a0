package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const MaxHops = 15

// ErrNotFound marks a 404 or another non-retryable client error. Callers
// must not retry it: the page is gone, not rate-limited.
var ErrNotFound = errors.New("page not found")

// TooManyRetriesError is returned once every attempt at a transient
// failure has been spent. Distinct from ErrNotFound so callers can tell
// "gone" from "rate-limited".
type TooManyRetriesError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *TooManyRetriesError) Error() string {
	return fmt.Sprintf("giving up on %s after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *TooManyRetriesError) Unwrap() error { return e.Last }

type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	UserAgent      string
}

// Client issues GET requests with retry/backoff on transient failures.
// Every other component fetches through it; nobody re-implements backoff.
type Client struct {
	http      *http.Client
	maxTries  int
	backoff   time.Duration
	userAgent string
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 1 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
				MaxIdleConns:      0,
			},
			Jar:     jar,
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxHops {
					return fmt.Errorf("stopped after %d redirects (MaxHops exceeded)", MaxHops)
				}
				return nil
			},
		},
		maxTries:  cfg.MaxRetries,
		backoff:   cfg.InitialBackoff,
		userAgent: cfg.UserAgent,
	}
}

// Get fetches url and returns the UTF-8 decoded body. Transient failures
// (timeouts, connection errors, 429, 5xx) are retried with exponential
// backoff; a 404 fails immediately with ErrNotFound.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxTries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		body, retryable, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", &TooManyRetriesError{URL: url, Attempts: c.maxTries, Last: lastErr}
}

func (c *Client) getOnce(ctx context.Context, url string) (body string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection errors are transient.
		return "", true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", false, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf("%s: HTTP %d: %w", url, resp.StatusCode, ErrNotFound)
	default:
		return "", true, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = resp.Body
	}

	bodyBytes, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", true, err
	}

	bodyString := string(bodyBytes)
	lowerBody := strings.ToLower(bodyString)

	if strings.Contains(lowerBody, "captcha") ||
		strings.Contains(lowerBody, "security check") {
		return "", false, fmt.Errorf("%s: captcha detected: %w", url, ErrNotFound)
	}

	return bodyString, false, nil
}
