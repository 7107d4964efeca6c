package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"summa/internal/document"
	"summa/internal/fetcher"
	"summa/internal/parts"
	"summa/internal/retry"

	"github.com/stretchr/testify/require"
)

// stubFetcher serves canned results by URL; anything unmapped is a 404.
type stubFetcher struct {
	pages map[string]fetcher.Result
	calls map[string]int
}

func newStub() *stubFetcher {
	return &stubFetcher{
		pages: map[string]fetcher.Result{},
		calls: map[string]int{},
	}
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) fetcher.Result {
	s.calls[url]++
	if res, ok := s.pages[url]; ok {
		return res
	}
	return fetcher.Result{Outcome: fetcher.OutcomeBadStatus, StatusCode: 404}
}

func (s *stubFetcher) serve(t *testing.T, url, file string) {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", file))
	require.NoError(t, err)
	s.pages[url] = fetcher.Result{Outcome: fetcher.OutcomeOK, StatusCode: 200, Body: string(body)}
}

func quietOptions() Options {
	p := retry.Default()
	p.Sleep = func(time.Duration) {}
	return Options{Policy: p, Sleep: func(time.Duration) {}}
}

func runToFile(t *testing.T, f Fetcher, spec parts.Spec, startQ, endQ int, path string) {
	t.Helper()
	doc, err := document.Create(path)
	require.NoError(t, err)
	s := New(f, doc, quietOptions())
	require.NoError(t, s.Run(context.Background(), spec, startQ, endQ))
	require.NoError(t, doc.Close())
}

func stubPartI(t *testing.T) *stubFetcher {
	t.Helper()
	f := newStub()
	f.serve(t, "https://aquinas.cc/la/en/~ST.I", "part.html")
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q1", "question1.html")
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q1.A1", "article1.html")
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q1.A2", "article2.html")
	return f
}

func TestRunGolden(t *testing.T) {
	f := stubPartI(t)
	path := filepath.Join(t.TempDir(), "out.txt")
	runToFile(t, f, parts.Resolve("I"), 1, 1, path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "golden.txt"))
	require.NoError(t, err)
	require.Equal(t, string(want), string(got))

	// The question page links to two articles, so no third fetch happens.
	require.Equal(t, 1, f.calls["https://aquinas.cc/la/en/~ST.I.Q1.A1"])
	require.Equal(t, 1, f.calls["https://aquinas.cc/la/en/~ST.I.Q1.A2"])
	require.Zero(t, f.calls["https://aquinas.cc/la/en/~ST.I.Q1.A3"])
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	runToFile(t, stubPartI(t), parts.Resolve("I"), 1, 1, first)
	runToFile(t, stubPartI(t), parts.Resolve("I"), 1, 1, second)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRunSkipsPrologueWhenNotStartingAtOne(t *testing.T) {
	f := stubPartI(t)
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q2", "question1.html")
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q2.A1", "article1.html")
	f.serve(t, "https://aquinas.cc/la/en/~ST.I.Q2.A2", "article2.html")

	path := filepath.Join(t.TempDir(), "out.txt")
	runToFile(t, f, parts.Resolve("I"), 2, 2, path)

	require.Zero(t, f.calls["https://aquinas.cc/la/en/~ST.I"])
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(got), "PROLOGUE")
}

func TestRunArticleRetriesExhausted(t *testing.T) {
	f := newStub()
	f.pages["https://aquinas.cc/la/en/~ST.I.Q1"] = fetcher.Result{
		Outcome:    fetcher.OutcomeOK,
		StatusCode: 200,
		Body:       `<html><body><a href="/la/en/~ST.I.Q1.A1">Article 1</a></body></html>`,
	}
	f.pages["https://aquinas.cc/la/en/~ST.I.Q1.A1"] = fetcher.Result{
		Outcome:    fetcher.OutcomeRateLimited,
		StatusCode: 429,
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	runToFile(t, f, parts.Resolve("I"), 1, 1, path)

	require.Equal(t, 7, f.calls["https://aquinas.cc/la/en/~ST.I.Q1.A1"])
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), "*Content could not be retrieved for Article 1*")
}

func TestRunQuestionFailures(t *testing.T) {
	f := newStub()
	// Q1 is a 404, Q2 dies on the wire; neither aborts the run.
	f.pages["https://aquinas.cc/la/en/~ST.I.Q2"] = fetcher.Result{
		Outcome: fetcher.OutcomeTransport,
		Err:     errors.New("connection reset"),
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	runToFile(t, f, parts.Resolve("I"), 1, 2, path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), "*Content could not be retrieved for Question 1*")
	require.Contains(t, string(got), "*Content could not be retrieved for Question 2 due to an error*")
}

func TestArticleCountResolution(t *testing.T) {
	s := New(newStub(), nil, quietOptions())
	spec := parts.Resolve("I")

	// The exception table wins regardless of page content.
	require.Equal(t, 2, s.articleCount(spec, 119, 200, `<a href="/la/en/~ST.I.Q119.A9">x</a>`))
	// Otherwise the maximum linked article number wins.
	require.Equal(t, 3, s.articleCount(spec, 2, 50, `<a href="/la/en/~ST.I.Q2.A3">x</a>`))
	// No signal: hand-tuned defaults, larger for the final question.
	require.Equal(t, 4, s.articleCount(spec, 7, 50, "<html></html>"))
	require.Equal(t, 10, s.articleCount(spec, 50, 50, "<html></html>"))
}

func TestThrottleJitter(t *testing.T) {
	f := stubPartI(t)

	var waits []time.Duration
	opts := quietOptions()
	opts.Delay = 100 * time.Millisecond
	opts.Sleep = func(d time.Duration) { waits = append(waits, d) }

	doc, err := document.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	s := New(f, doc, opts)
	require.NoError(t, s.Run(context.Background(), parts.Resolve("I"), 1, 1))
	require.NoError(t, doc.Close())

	// One pause per article plus one per question, each within ±20% of the
	// configured delay.
	require.Len(t, waits, 3)
	for _, w := range waits {
		require.GreaterOrEqual(t, w, 80*time.Millisecond)
		require.LessOrEqual(t, w, 120*time.Millisecond)
	}
}
