// Package backend provides typed clients for the beekeeping microservices.
//
// Every service answers with a JSON envelope around its payload; the
// clients unwrap it and turn failures into *APIError. Requests carry the
// caller's bearer token (see WithToken) and are rate limited. GET and HEAD
// requests are retried with exponential backoff on 429 and 5xx responses;
// anything that changes data is sent exactly once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apiariosamano/colmena/internal/logging"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
	defaultRateLimit   = 20 // requests per second
	defaultBurst       = 10

	// HeaderRequestID correlates a call across the microservices' logs.
	HeaderRequestID = "X-Request-ID"

	maxErrorBody = 4 << 10
)

type tokenCtxKey struct{}

// WithToken attaches the bearer token used for calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, strings.TrimSpace(token))
}

// TokenFromContext returns the bearer token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey{}).(string)
	return token
}

// Client talks to one microservice rooted at a base URL.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *logging.Logger
	tracer      trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets the request rate. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets the retry count and the first backoff delay.
func WithRetries(maxRetries int, baseBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseBackoff > 0 {
			c.baseBackoff = baseBackoff
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be an absolute http(s) URL", baseURL)
	}

	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
		logger:      logging.NewNop(),
		tracer:      otel.Tracer("github.com/apiariosamano/colmena/internal/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URL joins path segments onto the base URL.
func (c *Client) URL(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

// request describes one logical call; it is re-sent on every retry.
type request struct {
	method      string
	segments    []string
	query       url.Values
	body        []byte
	contentType string
	accept      string
}

// idempotent reports whether r may be re-sent after a failure. Creates,
// updates and actuator commands are not.
func (r request) idempotent() bool {
	return r.method == http.MethodGet || r.method == http.MethodHead
}

func jsonRequest(method string, body any, segments ...string) (request, error) {
	r := request{method: method, segments: segments, accept: "application/json"}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return r, fmt.Errorf("failed to marshal request: %w", err)
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

// retryableError marks transport failures and 429/5xx responses.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// send performs r with rate limiting, retrying idempotent requests, and
// returns the body of the first 2xx response.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	target := c.URL(r.segments...)
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, span := c.tracer.Start(ctx, "backend "+r.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.full", target),
			attribute.String("colmena.request_id", requestID),
		))
	defer span.End()

	maxRetries := c.maxRetries
	if !r.idempotent() {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				span.SetStatus(codes.Error, ctx.Err().Error())
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := c.attempt(ctx, r, target, requestID)
		if err == nil {
			span.SetAttributes(attribute.Int("colmena.attempts", attempt+1))
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			break
		}
		c.logger.Debug(ctx, "retrying backend request",
			zap.String("method", r.method),
			zap.String("url", target),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	c.logger.Warn(ctx, "backend request failed",
		zap.String("method", r.method),
		zap.String("url", target),
		zap.String("request_id", requestID),
		zap.Error(lastErr))

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return nil, apiErr
	}
	var re *retryableError
	if errors.As(lastErr, &re) {
		if maxRetries == 0 {
			return nil, re.err
		}
		return nil, fmt.Errorf("max retries exceeded: %w", re.err)
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, r request, target, requestID string) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("request to %s failed: %w", c.baseURL.Host, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &retryableError{err: apiErr}
		}
		return nil, apiErr
	}
	return data, nil
}

// call sends r and decodes the envelope payload into T.
func call[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T
	data, err := c.send(ctx, r)
	if err != nil {
		return zero, err
	}

	var env Envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, fmt.Errorf("failed to parse response: %w", err)
	}
	if !env.OK() {
		return zero, env.Err()
	}
	return env.Data, nil
}

func getJSON[T any](ctx context.Context, c *Client, segments ...string) (T, error) {
	r, _ := jsonRequest(http.MethodGet, nil, segments...)
	return call[T](ctx, c, r)
}

func sendJSON[T any](ctx context.Context, c *Client, method string, body any, segments ...string) (T, error) {
	r, err := jsonRequest(method, body, segments...)
	if err != nil {
		var zero T
		return zero, err
	}
	return call[T](ctx, c, r)
}

// getPlain decodes a response that is not wrapped in an envelope.
func getPlain[T any](ctx context.Context, c *Client, segments ...string) (T, error) {
	var out T
	r, _ := jsonRequest(http.MethodGet, nil, segments...)
	data, err := c.send(ctx, r)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

// text sends a request whose response body is plain text.
func (c *Client) text(ctx context.Context, method string, segments ...string) (string, error) {
	data, err := c.send(ctx, request{method: method, segments: segments, accept: "text/plain, */*"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// blob fetches raw bytes.
func (c *Client) blob(ctx context.Context, segments ...string) ([]byte, error) {
	return c.send(ctx, request{method: http.MethodGet, segments: segments, accept: "*/*"})
}

// multipartFile sends a single file field and decodes the envelope.
func multipartFile[T any](ctx context.Context, c *Client, method, field, filename string, content []byte, segments ...string) (T, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err == nil {
		_, err = part.Write(content)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("building multipart body: %w", err)
	}

	return call[T](ctx, c, request{
		method:      method,
		segments:    segments,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		accept:      "application/json",
	})
}

// orEmpty turns a null list payload into an empty slice.
func orEmpty[T any](list []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// getList is getJSON for list payloads, which some services send as null
// when empty.
func getList[T any](ctx context.Context, c *Client, segments ...string) ([]T, error) {
	return orEmpty[T](getJSON[[]T](ctx, c, segments...))
}
