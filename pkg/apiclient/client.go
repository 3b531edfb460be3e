package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Defaults for New.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetries    = 2
	DefaultRetryDelay = 500 * time.Millisecond

	maxBodyBytes = 8 << 20
)

// Credentials supplies the bearer token and forgets it on 401.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Observer is notified around every call. Attempts counts transport
// round-trips, retries included.
type Observer interface {
	CallStarted(ctx context.Context, method, path string) context.Context
	CallFinished(ctx context.Context, method, path string, status, attempts int, err error)
}

// Client is a JSON API client bound to one base URL.
type Client struct {
	base         *url.URL
	http         *http.Client
	timeout      time.Duration
	retries      int
	retryDelay   time.Duration
	creds        Credentials
	onUnauth     func(ctx context.Context)
	observer     Observer
	logger       *slog.Logger
	pageParams   PageParams
	extraHeaders http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each attempt. Default: DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetries sets how many times a retryable failure is repeated.
// Default: DefaultRetries.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

// WithRetryDelay sets the fixed delay between attempts.
// Default: DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithCredentials sets the bearer token source.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// OnUnauthorized registers the logout signal fired after a 401 has cleared
// the credentials.
func OnUnauthorized(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauth = fn }
}

// WithObserver sets the call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPageParams sets the list query parameter names.
// Default: DefaultPageParams.
func WithPageParams(pp PageParams) Option {
	return func(c *Client) { c.pageParams = pp }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.extraHeaders.Add(key, value) }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:         u,
		http:         &http.Client{},
		timeout:      DefaultTimeout,
		retries:      DefaultRetries,
		retryDelay:   DefaultRetryDelay,
		pageParams:   DefaultPageParams,
		extraHeaders: http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "apiclient")
	}
	return c, nil
}

// With returns a copy of c with opts applied. The console uses it to bind
// a shared client to one session's credentials.
func (c *Client) With(opts ...Option) *Client {
	cp := *c
	cp.extraHeaders = c.extraHeaders.Clone()
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// PageParams returns the list query convention.
func (c *Client) PageParams() PageParams { return c.pageParams }

// Get issues a GET and decodes the envelope payload into out, if non-nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.decode(c.Do(ctx, http.MethodGet, path, query, nil))(out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.decode(c.Do(ctx, http.MethodPost, path, nil, body))(out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.decode(c.Do(ctx, http.MethodPut, path, nil, body))(out)
}

// Delete issues a DELETE with an optional JSON body.
func (c *Client) Delete(ctx context.Context, path string, body any) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, body)
	return err
}

func (c *Client) decode(data json.RawMessage, err error) func(out any) error {
	return func(out any) error {
		if err != nil || out == nil || len(data) == 0 {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Message: "unexpected payload", Err: fmt.Errorf("%w: %v", ErrBadEnvelope, err)}
		}
		return nil
	}
}

// Do performs a call and returns the unwrapped envelope payload. body is
// JSON-encoded unless it is already an io.Reader or []byte.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, &Error{Method: method, Path: path, Message: "cannot encode request", Err: err}
	}
	return c.call(ctx, method, path, query, payload, contentType)
}

// Upload posts a pre-encoded multipart body once, without retries.
func (c *Client) Upload(ctx context.Context, path, contentType string, body io.Reader) (json.RawMessage, error) {
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, &Error{Method: http.MethodPost, Path: path, Message: "cannot read upload", Err: err}
	}
	return c.With(WithRetries(0)).call(ctx, http.MethodPost, path, nil, buf, contentType)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload []byte, contentType string) (json.RawMessage, error) {
	if c.observer != nil {
		ctx = c.observer.CallStarted(ctx, method, path)
	}

	var (
		data     json.RawMessage
		status   int
		attempts int
	)
	op := func() error {
		attempts++
		d, st, err := c.attempt(ctx, method, path, query, payload, contentType)
		status = st
		if err == nil {
			data = d
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retries)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.logger.Debug("retrying call", "method", method, "path", path, "attempt", attempts, "wait", wait, "error", err)
	})

	if c.observer != nil {
		c.observer.CallFinished(ctx, method, path, status, attempts, err)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, contentType string) (json.RawMessage, int, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, method, c.url(path, query), body)
	if err != nil {
		return nil, 0, &Error{Method: method, Path: path, Message: "cannot build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range c.extraHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.creds != nil {
		tok, err := c.creds.Token(ctx)
		if err != nil {
			c.logger.Warn("credential lookup failed", "error", err)
		} else if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, c.transportError(ctx, actx, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, c.transportError(ctx, actx, method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(ctx)
		e := &Error{Method: method, Path: path, Status: resp.StatusCode, Message: "session expired, please sign in again", Err: ErrUnauthorized}
		if env, perr := ParseEnvelope(raw); perr == nil && env.Message != "" {
			e.Message = env.Message
		}
		return nil, resp.StatusCode, e
	}

	env, perr := ParseEnvelope(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := &Error{Method: method, Path: path, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if perr == nil {
			e.Code = env.Code
			e.Data = env.Data
			if env.Message != "" {
				e.Message = env.Message
			}
		}
		return nil, resp.StatusCode, e
	}
	if perr != nil {
		return nil, resp.StatusCode, &Error{Method: method, Path: path, Status: resp.StatusCode, Message: "unexpected response", Err: perr}
	}
	if !env.OK {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, resp.StatusCode, &Error{Method: method, Path: path, Status: resp.StatusCode, Code: env.Code, Message: msg, Data: env.Data}
	}
	return env.Data, resp.StatusCode, nil
}

// transportError maps a failed round-trip. The attempt deadline firing
// while the caller is still waiting is a timeout; the caller giving up is
// returned as the caller's context error.
func (c *Client) transportError(ctx, actx context.Context, method, path string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		return &Error{Method: method, Path: path, Message: "request timed out", Err: ErrTimeout}
	}
	return &Error{Method: method, Path: path, Message: "network error", Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
}

func (c *Client) unauthorized(ctx context.Context) {
	if c.creds != nil {
		if err := c.creds.Clear(ctx); err != nil {
			c.logger.Error("clear credentials after 401", "error", err)
		}
	}
	if c.onUnauth != nil {
		c.onUnauth(ctx)
	}
}

// url joins an already escaped path onto the base.
func (c *Client) url(path string, query url.Values) string {
	s := c.base.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/json", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		return data, "application/json", err
	default:
		data, err := json.Marshal(b)
		return data, "application/json", err
	}
}
