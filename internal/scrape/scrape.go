// Package scrape drives the fetch-extract-write pipeline over a part of
// the Summa: part header, optional prologue, then every question and its
// articles in order. The pipeline is deliberately sequential; hammering the
// source site in parallel gets the scraper rate limited.
package scrape

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"summa/internal/document"
	"summa/internal/extract"
	"summa/internal/fetcher"
	"summa/internal/parts"
	"summa/internal/retry"
)

// Per-request timeouts. The part front page is light; article pages are the
// slowest the site serves.
const (
	prologueTimeout = 60 * time.Second
	questionTimeout = 90 * time.Second
	articleTimeout  = 120 * time.Second
)

// Defaults when the article count of a question cannot be detected. Final
// questions of a part tend to run long.
const (
	defaultArticles      = 4
	lastQuestionArticles = 10
)

// Fetcher performs one blocking GET. fetcher.Client implements it; tests
// substitute canned pages.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) fetcher.Result
}

// Options configures a Scraper.
type Options struct {
	// BaseURL of the source site, without a trailing slash.
	BaseURL string
	// Delay is the self-throttling pause after every question and article
	// request, jittered by ±20%. Zero disables throttling.
	Delay time.Duration
	// Policy overrides the article retry policy. The zero value means
	// retry.Default().
	Policy retry.Policy

	// Sleep and Jitter are overridable for tests.
	Sleep  func(time.Duration)
	Jitter func() float64
}

// Scraper writes one part of the Summa to a document.
type Scraper struct {
	fetcher Fetcher
	doc     *document.Writer
	policy  retry.Policy
	baseURL string
	delay   time.Duration
	sleep   func(time.Duration)
	jitter  func() float64
}

// New creates a Scraper writing to doc.
func New(f Fetcher, doc *document.Writer, opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://aquinas.cc"
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Jitter == nil {
		opts.Jitter = rand.Float64
	}
	return &Scraper{
		fetcher: f,
		doc:     doc,
		policy:  opts.Policy,
		baseURL: opts.BaseURL,
		delay:   opts.Delay,
		sleep:   opts.Sleep,
		jitter:  opts.Jitter,
	}
}

// Run scrapes questions startQ through endQ of the given part. Unreachable
// pages become placeholders in the document; the only errors returned are
// output-file write failures, which abort the run.
func (s *Scraper) Run(ctx context.Context, spec parts.Spec, startQ, endQ int) error {
	if err := s.doc.WriteTitle(spec.Title, spec.Subtitle); err != nil {
		return err
	}

	// The prologue lives on the part front page; it only belongs in the
	// document when the run starts from the beginning.
	if startQ == 1 {
		if err := s.writePrologue(ctx, spec); err != nil {
			return err
		}
	}

	slog.Info("scraping part", "part", string(spec.ID), "start", startQ, "end", endQ)

	for q := startQ; q <= endQ; q++ {
		if err := s.scrapeQuestion(ctx, spec, q, endQ); err != nil {
			return err
		}
		s.throttle()
	}
	return nil
}

func (s *Scraper) writePrologue(ctx context.Context, spec parts.Spec) error {
	url := spec.PartURL(s.baseURL)
	slog.Debug("fetching prologue", "url", url)

	res := s.fetcher.Fetch(ctx, url, prologueTimeout)
	if res.Outcome != fetcher.OutcomeOK {
		// A missing prologue is not worth failing over.
		slog.Debug("skipping prologue", "outcome", res.Outcome.String(), "status", res.StatusCode, "err", res.Err)
		return nil
	}
	return s.doc.WritePrologue(extract.Prologue(res.Body))
}

func (s *Scraper) scrapeQuestion(ctx context.Context, spec parts.Spec, q, endQ int) error {
	url := spec.QuestionURL(s.baseURL, q)
	slog.Debug("fetching question", "question", q, "url", url)

	res := s.fetcher.Fetch(ctx, url, questionTimeout)
	switch res.Outcome {
	case fetcher.OutcomeOK:
	case fetcher.OutcomeTransport:
		slog.Warn("question unreachable", "question", q, "err", res.Err)
		return s.doc.WriteQuestionError(q)
	default:
		slog.Warn("question fetch failed", "question", q, "status", res.StatusCode)
		return s.doc.WriteQuestionPlaceholder(q)
	}

	if err := s.doc.WriteQuestion(q, extract.Question(res.Body)); err != nil {
		return err
	}

	count := s.articleCount(spec, q, endQ, res.Body)
	for a := 1; a <= count; a++ {
		if err := s.scrapeArticle(ctx, spec, q, a); err != nil {
			return err
		}
		s.throttle()
	}
	return nil
}

// articleCount resolves how many articles a question has: the exception
// table wins, then detection from the question page, then a hand-tuned
// default.
func (s *Scraper) articleCount(spec parts.Spec, q, endQ int, page string) int {
	if n, ok := spec.ArticleException(q); ok {
		slog.Debug("using known article count", "question", q, "articles", n)
		return n
	}
	if n, ok := extract.ArticleCount(page, spec.URLPart, q); ok {
		slog.Debug("detected article count", "question", q, "articles", n)
		return n
	}
	slog.Debug("no article count detected, using default", "question", q)
	if q == endQ {
		return lastQuestionArticles
	}
	return defaultArticles
}

func (s *Scraper) scrapeArticle(ctx context.Context, spec parts.Spec, q, a int) error {
	url := spec.ArticleURL(s.baseURL, q, a)
	slog.Debug("fetching article", "question", q, "article", a, "url", url)

	body, err := s.policy.Fetch(ctx, s.fetcher, url, articleTimeout)
	if err != nil {
		slog.Warn("giving up on article", "question", q, "article", a, "err", err)
		return s.doc.WriteArticlePlaceholder(a)
	}
	return s.doc.WriteArticle(a, extract.Article(body, a))
}

// throttle pauses between requests to keep the request rate polite,
// independent of any retry backoff. The pause is jittered to 80-120% of the
// configured delay.
func (s *Scraper) throttle() {
	if s.delay <= 0 {
		return
	}
	s.sleep(time.Duration(float64(s.delay) * (0.8 + 0.4*s.jitter())))
}
