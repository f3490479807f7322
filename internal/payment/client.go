package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ipgpay-client/internal/logger"
	"ipgpay-client/internal/metrics"
	"ipgpay-client/internal/transport"
)

// Client runs the signed request/response pipeline against one gateway
// account. It holds no per-call state and is safe for concurrent use.
//
// Client never retries. A settle, credit or void that failed with a
// TransportError may still have been applied by the gateway; resubmitting it
// blindly can move money twice.
type Client struct {
	conn              ConnectionConfig
	transport         *transport.Transport
	classifier        *Classifier
	amounts           AmountFormatter
	signingKey        string
	signatureLifetime time.Duration
	formURL           string
	now               func() time.Time
	stats             *Stats
}

type Option func(*Client)

func WithTransport(t *transport.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithNonDecimalCurrencies replaces the built-in list of currencies sent
// without a fractional part.
func WithNonDecimalCurrencies(codes ...string) Option {
	return func(c *Client) {
		c.amounts = NewAmountFormatter(NewCurrencySet(codes...))
	}
}

// WithSigningKey sets the secret used for PS_SIGNATURE. Without it the API
// key is used.
func WithSigningKey(secret string) Option {
	return func(c *Client) {
		c.signingKey = secret
	}
}

// WithSignatureLifetime sets how long a signed payment form stays valid.
// Non-positive values keep the 24 hour default.
func WithSignatureLifetime(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.signatureLifetime = d
		}
	}
}

// WithPaymentFormURL points payment form submissions at a host other than
// the API base URL.
func WithPaymentFormURL(u string) Option {
	return func(c *Client) {
		c.formURL = u
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(conn ConnectionConfig, opts ...Option) *Client {
	c := &Client{
		conn:              conn,
		classifier:        NewClassifier(),
		amounts:           NewAmountFormatter(nil),
		signatureLifetime: DefaultSignatureLifetime,
		now:               time.Now,
		stats:             &Stats{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.New()
	}
	return c
}

// WithConnection returns a client for another account sharing this client's
// transport, options and stats.
func (c *Client) WithConnection(conn ConnectionConfig) *Client {
	cp := *c
	cp.conn = conn
	return &cp
}

func (c *Client) Connection() ConnectionConfig {
	return c.conn
}

// Prepare validates the connection, builds req and signs it when the operation
// requires it. It performs no I/O.
func (c *Client) Prepare(req Request) (*Prepared, error) {
	if err := c.conn.Validate(); err != nil {
		return nil, err
	}

	prepared, err := build(buildContext{
		conn:    c.conn,
		amounts: c.amounts,
		formURL: c.paymentFormURL(),
	}, req)
	if err != nil {
		return nil, err
	}

	if prepared.Signed {
		SignParameters(prepared.Params, c.secret(), c.now().Add(c.signatureLifetime))
	}
	return prepared, nil
}

// Do sends req and decodes the reply. The error, if any, is a
// *ConfigurationError, *InvalidRequestError, *TransportError or *DecodingError.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	ctx, _ = logger.EnsureRequestID(ctx)
	op, _ := operationOf(req)
	log := logger.FromCtx(ctx).With(zap.String("operation", string(op)))

	c.stats.Requests.Inc()
	timer := metrics.StartTimer()
	defer func() { c.stats.Latency.Observe(timer.Duration()) }()

	prepared, err := c.Prepare(req)
	if err != nil {
		c.stats.Rejected.Inc()
		log.Warn("Gateway request rejected before sending", zap.Error(err))
		return nil, err
	}

	log = log.With(zap.String("url", prepared.URL), zap.Bool("signed", prepared.Signed))
	log.Info("Sending request to gateway")

	raw, err := c.transport.Send(ctx, prepared.URL, prepared.Params)
	if err != nil {
		c.stats.TransportFailures.Inc()
		var terr *TransportError
		if errors.As(err, &terr) {
			log.Error("Gateway request failed", zap.Bool("timeout", terr.Timeout), zap.Error(err))
			return nil, err
		}
		log.Error("Gateway request failed", zap.Error(err))
		return nil, &TransportError{Op: "send", URL: prepared.URL, Err: err}
	}

	if !raw.IsSuccess() && !raw.IsRedirect() {
		log.Warn("Gateway returned non-success status",
			zap.Int("status", raw.StatusCode),
			zap.ByteString("response", raw.Body),
		)
	}

	resp, err := c.classifier.Classify(prepared.Operation, raw)
	if err != nil {
		c.stats.DecodingFailures.Inc()
		log.Error("Failed decoding gateway response",
			zap.Int("status", raw.StatusCode),
			zap.ByteString("response", raw.Body),
			zap.Error(err),
		)
		return nil, err
	}

	c.stats.Completed.Inc()
	log.Info("Gateway response received",
		zap.Int("status", raw.StatusCode),
		zap.String("response_code", resp.Code()),
	)
	return resp, nil
}

func (c *Client) Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	return doTyped[*SettleResponse](ctx, c, req)
}

func (c *Client) Credit(ctx context.Context, req CreditRequest) (*CreditResponse, error) {
	return doTyped[*CreditResponse](ctx, c, req)
}

func (c *Client) Void(ctx context.Context, req VoidRequest) (*VoidResponse, error) {
	return doTyped[*VoidResponse](ctx, c, req)
}

func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	return doTyped[*QueryResponse](ctx, c, req)
}

// SubmitPaymentForm posts the form server side. Hosts that render the form in
// the shopper's browser should use Prepare instead.
func (c *Client) SubmitPaymentForm(ctx context.Context, req PaymentFormRequest) (*LandingResponse, error) {
	return doTyped[*LandingResponse](ctx, c, req)
}

func doTyped[T Response](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, &DecodingError{
			Operation:  resp.Operation(),
			StatusCode: resp.result().HTTPStatus,
			Err:        fmt.Errorf("unexpected response type %T", resp),
		}
	}
	return typed, nil
}

func (c *Client) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

func (c *Client) secret() string {
	if c.signingKey != "" {
		return c.signingKey
	}
	return c.conn.Key
}

func (c *Client) paymentFormURL() string {
	return resolvePaymentFormURL(c.formURL, c.conn.BaseURL)
}
