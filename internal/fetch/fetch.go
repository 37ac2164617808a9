// Package fetch retrieves public TestFlight join pages.
//
// One network round trip per call, bounded by the configured timeout. Any
// failure (transport, timeout, non-200 status) surfaces as an error; callers
// map it to an unavailable verdict.
package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "slotwatch/pkg/logx"
)

const (
	DefaultBaseURL   = "https://testflight.apple.com/join"
	defaultUserAgent = "Mozilla/5.0 (compatible; slotwatch)"

	// Join pages are small; anything beyond this is not a beta page.
	maxBodyBytes = 1 << 20
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// RatePerSec paces requests across all apps. 0 disables pacing.
	RatePerSec int
}

// Result is one fetched page.
type Result struct {
	Status int
	Body   string
	// Title is the page <title> text, used as a lazily resolved display
	// name for the app. Empty when the page has none.
	Title string
}

type Client struct {
	mu      sync.Mutex
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter

	log logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{log: log}
	c.Apply(cfg)
	return c
}

// Apply swaps fetch settings at runtime (hot reload).
func (c *Client) Apply(cfg Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}

	var lim *rate.Limiter
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}

	c.mu.Lock()
	c.cfg = cfg
	c.limiter = lim
	if c.http == nil {
		// The timeout is enforced per request via context; the client is
		// never mutated after construction, so in-flight fetches are safe
		// against a concurrent reconfigure.
		c.http = &http.Client{}
	}
	c.mu.Unlock()
}

// JoinURL returns the page URL for id under the configured base.
func (c *Client) JoinURL(id string) string {
	c.mu.Lock()
	base := c.cfg.BaseURL
	c.mu.Unlock()
	return strings.TrimRight(base, "/") + "/" + id
}

// Fetch performs a single GET of the join page for id.
func (c *Client) Fetch(ctx context.Context, id string) (Result, error) {
	c.mu.Lock()
	cfg := c.cfg
	lim := c.limiter
	hc := c.http
	c.mu.Unlock()

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	url := strings.TrimRight(cfg.BaseURL, "/") + "/" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return Result{Status: resp.StatusCode}, fmt.Errorf("fetch %s: page status %d", id, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Status: resp.StatusCode}, fmt.Errorf("fetch %s: read body: %w", id, err)
	}

	body := string(b)
	return Result{
		Status: resp.StatusCode,
		Body:   body,
		Title:  pageTitle(body),
	}, nil
}

// pageTitle extracts the text of the first <title> element, best-effort.
func pageTitle(body string) string {
	lowered := strings.ToLower(body)
	start := strings.Index(lowered, "<title")
	if start < 0 {
		return ""
	}
	open := strings.Index(lowered[start:], ">")
	if open < 0 {
		return ""
	}
	start += open + 1
	end := strings.Index(lowered[start:], "</title")
	if end < 0 {
		return ""
	}
	title := html.UnescapeString(body[start : start+end])
	return strings.TrimSpace(title)
}
