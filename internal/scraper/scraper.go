package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	StatusPageURL = "https://vv.potsdam.de/vv/produkte/173010100000003814.php"
	UserAgent     = "potsdam-status/1.0 (github.com/pfrederiksen/potsdam-status)"
	Timeout       = 30 * time.Second

	// MaxBodySize caps how much of a response is read.
	MaxBodySize = 5 * 1024 * 1024
)

// ErrFetch is returned (wrapped) for any transport or HTTP failure.
var ErrFetch = errors.New("fetch failed")

// HTTPError reports a non-200 response from the status page.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Unwrap lets errors.Is(err, ErrFetch) match HTTP failures.
func (e *HTTPError) Unwrap() error {
	return ErrFetch
}

// Document is a fetched page before any decoding.
type Document struct {
	URL         string
	Body        []byte
	ContentType string
	Charset     string
}

// NewDocument wraps body, taking the charset from contentType, a BOM or a
// <meta> tag, in that order. Undeclared pages that are valid UTF-8 are UTF-8.
func NewDocument(url string, body []byte, contentType string) *Document {
	_, name, _ := charset.DetermineEncoding(body, contentType)
	return &Document{
		URL:         url,
		Body:        body,
		ContentType: contentType,
		Charset:     name,
	}
}

// Text returns the body decoded from Charset to UTF-8.
// Unknown charsets fall back to the raw bytes.
func (d *Document) Text() (string, error) {
	enc, _ := charset.Lookup(d.Charset)
	if enc == nil {
		return string(d.Body), nil
	}
	decoded, err := enc.NewDecoder().Bytes(d.Body)
	if err != nil {
		return "", fmt.Errorf("decoding %s body: %w", d.Charset, err)
	}
	return string(decoded), nil
}

// Scraper fetches status pages over HTTP
type Scraper struct {
	client    *http.Client
	userAgent string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout overrides the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch retrieves the page at url and returns its raw body and encoding
func (s *Scraper) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching page: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}

	return NewDocument(url, body, resp.Header.Get("Content-Type")), nil
}
