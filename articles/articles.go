package articles

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/imkonsowa/restaurants-linebot/models"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36"

var listicleKeywords = []string{"ランキング", "選", "top", "トップ", "Top", "TOP"}

type Config struct {
	RateLimit float64 // requests per second
	Retries   int
	RetryWait time.Duration
	Timeout   time.Duration
}

type Scraper struct {
	config    Config
	client    *http.Client
	limiter   *rate.Limiter
	processed map[string]bool
}

func New(config Config, processed []string) *Scraper {
	if config.RateLimit <= 0 {
		config.RateLimit = 0.5
	}
	if config.Retries < 1 {
		config.Retries = 3
	}
	if config.RetryWait == 0 {
		config.RetryWait = 5 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	s := &Scraper{
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		processed: make(map[string]bool),
	}
	for _, u := range processed {
		s.processed[u] = true
	}

	return s
}

// Processed lists every url handled so far, including the initial ones.
func (s *Scraper) Processed() []string {
	urls := make([]string, 0, len(s.processed))
	for u := range s.processed {
		urls = append(urls, u)
	}

	return urls
}

func (s *Scraper) Seen(url string) bool {
	return s.processed[url]
}

// Process fetches url once and splits it into entries. Known urls return nothing.
func (s *Scraper) Process(ctx context.Context, url string) ([]models.Entry, error) {
	if s.processed[url] {
		return nil, nil
	}

	doc, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	s.processed[url] = true

	title := Title(doc, url)
	if IsListicle(title) {
		slog.Info("parsing listicle", "title", title, "url", url)
		return ParseListicle(doc, url), nil
	}

	slog.Info("parsing article", "title", title, "url", url)

	return ParseArticle(doc, url), nil
}

// FetchTitle returns the page title, or url itself when the page cannot be read.
func (s *Scraper) FetchTitle(ctx context.Context, url string) string {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		slog.Warn("failed to fetch title", "url", url, "err", err)
		return url
	}

	return Title(doc, url)
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("received status code %d for URL: %s", e.code, e.url)
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	for attempt := 1; ; attempt++ {
		doc, err := s.get(ctx, url)
		if err == nil {
			return doc, nil
		}

		se, ok := err.(*statusError)
		if !ok || se.code != http.StatusTooManyRequests || attempt >= s.config.Retries {
			return nil, err
		}

		wait := s.config.RetryWait * time.Duration(attempt)
		slog.Warn("rate limited, retrying", "url", url, "wait", wait, "attempt", attempt)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Scraper) get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ObserveExternal("articles", "get", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{url: url, code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return doc, nil
}

func IsListicle(title string) bool {
	for _, k := range listicleKeywords {
		if strings.Contains(title, k) {
			return true
		}
	}

	return false
}

// Title prefers <title>, then <h1>, then the url.
func Title(doc *goquery.Document, url string) string {
	for _, sel := range []string{"title", "h1"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}

	return url
}

// ParseArticle turns a regular article into a single entry.
func ParseArticle(doc *goquery.Document, url string) []models.Entry {
	title := url
	for _, sel := range []string{"h1", "title"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			title = t
			break
		}
	}

	var paras *goquery.Selection
	for _, sel := range []string{"div.content p", "article p", "p"} {
		if paras = doc.Find(sel); paras.Length() > 0 {
			break
		}
	}

	var lines []string
	paras.Each(func(_ int, p *goquery.Selection) {
		lines = append(lines, strings.TrimSpace(p.Text()))
	})

	return []models.Entry{{
		Title:    title,
		Text:     strings.Join(lines, "\n"),
		URL:      url,
		Metadata: models.EntryMetadata{Source: models.SourceArticle},
	}}
}

// ParseListicle splits a ranking page into one entry per h2 heading. Each entry
// gets its own url fragment so entries of the same page stay unique.
func ParseListicle(doc *goquery.Document, url string) []models.Entry {
	headings := doc.Find("div.content-area h2")
	if headings.Length() == 0 {
		return ParseArticle(doc, url)
	}

	var entries []models.Entry
	headings.Each(func(i int, h2 *goquery.Selection) {
		var desc []string
		h2.NextUntil("h2").Each(func(_ int, sib *goquery.Selection) {
			if txt := strings.TrimSpace(sib.Text()); txt != "" {
				desc = append(desc, txt)
			}
		})

		entries = append(entries, models.Entry{
			Title:    strings.TrimSpace(h2.Text()),
			Text:     strings.Join(desc, "\n"),
			URL:      fmt.Sprintf("%s#shop-%d", url, i+1),
			Metadata: models.EntryMetadata{Source: models.SourceArticle},
		})
	})

	return entries
}
