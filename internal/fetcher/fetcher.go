package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Outcome classifies a single fetch attempt.
type Outcome int

const (
	OutcomeOK          Outcome = iota // HTTP 200 with a body
	OutcomeRateLimited                // HTTP 429
	OutcomeBadStatus                  // any other HTTP status
	OutcomeTransport                  // network error or timeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRateLimited:
		return "rate-limited"
	case OutcomeBadStatus:
		return "bad-status"
	case OutcomeTransport:
		return "transport-error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one HTTP attempt. Body is only set when the
// attempt succeeded; Err is only set for transport errors.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       string
	Err        error
}

// Client performs single blocking GETs against the source site. It carries
// no retry logic; retrying is the caller's concern so this stays a pure
// boundary that can be stubbed in tests.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client that presents browser-like request headers.
// The site rejects obviously non-browser clients.
func NewClient() *Client {
	client := resty.New()
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.5")

	return &Client{http: client}
}

// Fetch performs a single GET with the given per-request timeout and
// classifies the outcome. It never returns an error; failures are encoded
// in the Result.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) Result {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.http.R().SetContext(reqCtx).Get(url)
	if err != nil {
		return Result{Outcome: OutcomeTransport, Err: err}
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return Result{
			Outcome:    OutcomeOK,
			StatusCode: res.StatusCode(),
			Body:       string(res.Body()),
		}
	case http.StatusTooManyRequests:
		return Result{Outcome: OutcomeRateLimited, StatusCode: res.StatusCode()}
	default:
		return Result{Outcome: OutcomeBadStatus, StatusCode: res.StatusCode()}
	}
}
