package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every gateway call end to end, including reading the body.
const DefaultTimeout = 30 * time.Second

const contentTypeForm = "application/x-www-form-urlencoded"

// Body is anything that renders itself as a form-encoded payload.
// url.Values satisfies it.
type Body interface {
	Encode() string
}

// RawResponse is the unparsed gateway reply.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsRedirect reports a 3xx reply. Redirects are never followed.
func (r *RawResponse) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *RawResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *RawResponse) Location() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}

// Error is a network level failure: DNS, connect, TLS, timeout, cancellation
// or a local rate limit wait that could not complete. A reply from the gateway,
// whatever its status, is never an Error.
type Error struct {
	Op      string
	URL     string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Transport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

type Option func(*Transport)

// WithRateLimit caps outbound calls at perSecond with the given burst.
// A non-positive perSecond leaves the transport unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRoundTripper replaces the underlying HTTP transport, mostly for tests and proxies.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.httpClient.Transport = rt
	}
}

func New(opts ...Option) *Transport {
	t := &Transport{
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send POSTs body to url and returns whatever the gateway answered.
// The rate limit wait and the exchange share one DefaultTimeout budget.
// It never retries.
func (t *Transport) Send(ctx context.Context, url string, body Body) (*RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			// Wait fails early when the delay would overrun the deadline;
			// only a caller cancellation is not a timeout.
			return nil, &Error{Op: "rate limit", URL: url, Timeout: !errors.Is(ctx.Err(), context.Canceled), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body.Encode()))
	if err != nil {
		return nil, &Error{Op: "build request", URL: url, Err: err}
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Accept", "application/xml, text/plain;q=0.9, */*;q=0.1")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: http.MethodPost, URL: url, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read body", URL: url, Timeout: isTimeout(err), Err: err}
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
