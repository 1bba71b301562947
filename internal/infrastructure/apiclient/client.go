// Package apiclient is the single HTTP transport to the rostering backend. It
// attaches the bearer token, unwraps the response envelope and turns failures
// into *domain.APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/api/metrics"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

// Config holds the transport settings.
type Config struct {
	// BaseURL is prepended to relative paths. A base starting with "/" is
	// joined onto Origin.
	BaseURL string
	Origin  string
	Timeout time.Duration
	// Trace logs method, URL, token presence and status of every call.
	Trace bool
}

// Client implements ports.APIClient.
type Client struct {
	base   string
	http   *http.Client
	tokens ports.TokenSource
	log    zerolog.Logger
	trace  bool
	hooks  *hookSet
}

type hookSet struct {
	mu  sync.RWMutex
	fns []func()
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a Client. tokens may be nil for unauthenticated use.
func New(cfg Config, tokens ports.TokenSource, log zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if strings.HasPrefix(base, "/") && cfg.Origin != "" {
		base = strings.TrimRight(cfg.Origin, "/") + base
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
		trace:  cfg.Trace,
		hooks:  &hookSet{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokens returns a copy of c that reads tokens from src. Unauthorized
// hooks are shared with c.
func (c *Client) WithTokens(src ports.TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// OnUnauthorized registers fn to run after every 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.fns = append(c.hooks.fns, fn)
}

// Do sends req and returns the parsed envelope. Non-2xx statuses and
// envelopes with success=false yield *domain.APIError.
func (c *Client) Do(ctx context.Context, req ports.APIRequest) (*domain.Envelope, error) {
	res, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.status == http.StatusNoContent {
		return domain.EmptyEnvelope(), nil
	}

	env := domain.EmptyEnvelope()
	if isJSON(res.contentType) {
		parsed, perr := domain.ParseEnvelope(res.body)
		if perr != nil {
			if !isSuccess(res.status) {
				return nil, c.fail(newAPIError(res.status, nil, nil))
			}
			return nil, fmt.Errorf("api %s %s: decode response: %w", req.Method, req.Path, perr)
		}
		env = parsed
	}

	if !isSuccess(res.status) || !env.Success {
		return nil, c.fail(newAPIError(res.status, env, res.body))
	}
	return env, nil
}

// Download sends req and returns the raw body and its content type, for
// binary endpoints such as the PDF export.
func (c *Client) Download(ctx context.Context, req ports.APIRequest) ([]byte, string, error) {
	res, err := c.send(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if !isSuccess(res.status) {
		var env *domain.Envelope
		if isJSON(res.contentType) {
			env, _ = domain.ParseEnvelope(res.body)
		}
		return nil, "", c.fail(newAPIError(res.status, env, res.body))
	}
	return res.body, res.contentType, nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) send(ctx context.Context, req ports.APIRequest) (*response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: build request: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	tok := req.Token
	if tok == "" && c.tokens != nil {
		tok, _ = c.tokens.Token(ctx)
	}
	hasToken := tok != ""
	if hasToken {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.UpstreamRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, "error").Inc()
		c.traceCall(method, target, hasToken, 0, start, err)
		return nil, fmt.Errorf("api %s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("api %s %s: read response: %w", method, req.Path, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	c.traceCall(method, target, hasToken, resp.StatusCode, start, nil)

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}, nil
}

// traceCall never logs the token itself.
func (c *Client) traceCall(method, target string, hasToken bool, status int, start time.Time, err error) {
	if !c.trace {
		return
	}
	ev := c.log.Debug().
		Str("method", method).
		Str("url", target).
		Bool("has_token", hasToken).
		Dur("elapsed", time.Since(start))
	if err != nil {
		ev = ev.Err(err)
	} else {
		ev = ev.Int("status", status)
	}
	ev.Msg("api request")
}

func (c *Client) resolve(path string, query map[string]string) (string, error) {
	var target string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target = path
	} else {
		target = c.base + "/" + strings.TrimLeft(path, "/")
	}

	if len(query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("api: invalid url %q: %w", target, err)
	}
	q := u.Query()
	for k, v := range query {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// encodeBody returns the request body and the content type to send. Readers
// are passed through with the caller's content type, so multipart bodies keep
// their boundary; everything else is JSON.
func encodeBody(req ports.APIRequest) (io.Reader, string, error) {
	if req.Body == nil {
		return nil, "", nil
	}
	if r, ok := req.Body.(io.Reader); ok {
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		return r, ct, nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("api %s %s: encode body: %w", req.Method, req.Path, err)
	}
	ct := req.ContentType
	if ct == "" {
		ct = "application/json"
	}
	return bytes.NewReader(b), ct, nil
}

func (c *Client) fail(err *domain.APIError) error {
	if err.Status == http.StatusUnauthorized {
		c.hooks.mu.RLock()
		fns := append([]func(){}, c.hooks.fns...)
		c.hooks.mu.RUnlock()
		for _, fn := range fns {
			fn()
		}
	}
	return err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
