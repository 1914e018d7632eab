// Package apiclient talks to the CapriSystem REST API. It attaches the
// session's bearer token, enforces a request timeout, decodes JSON payloads
// into typed records and normalizes every failure into an *Error.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for Config.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
	Metrics    *Metrics
}

// Client issues JSON requests against the API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
	metrics *Metrics

	mu             sync.RWMutex
	token          func() string
	onUnauthorized func()
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.HTTPClient.Timeout == 0 {
		cfg.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient returns the underlying transport client.
func (c *Client) HTTPClient() *http.Client { return c.http }

// UseSession installs the bearer token source and the hook run when an
// authenticated request is rejected with 401.
func (c *Client) UseSession(token func() string, onUnauthorized func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.onUnauthorized = onUnauthorized
}

func (c *Client) session() (func() string, func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.onUnauthorized
}

// request describes one API call.
type request struct {
	method   string
	path     string
	resource string // metrics label
	body     any
	public   bool // sent without the bearer token
	rules    []ConflictRule
}

// do sends req and decodes a successful response body into out (when out
// is non-nil and the body is not empty).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	tokenFn, onUnauthorized := c.session()
	if !req.public && tokenFn != nil {
		if tok := tokenFn(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.log.Debugw("sending request", "method", req.method, "path", req.path, "request_id", requestID)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.resource, req.method, "error", time.Since(start))
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warnw("request failed", "method", req.method, "path", req.path,
			"timeout", isTimeout(err), "error", err)
		return &Error{Kind: KindUnreachable, Message: MsgUnreachable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.observe(req.resource, req.method, fmt.Sprint(resp.StatusCode), time.Since(start))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &Error{Kind: KindUnreachable, Status: resp.StatusCode, Message: MsgUnreachable, Err: err}
	}
	c.log.Debugw("response received", "status", resp.StatusCode, "path", req.path, "request_id", requestID)

	if resp.StatusCode >= 300 {
		apiErr := classify(resp.StatusCode, data, req.rules)
		c.log.Infow("request rejected", "status", resp.StatusCode, "path", req.path,
			"kind", apiErr.Kind.String(), "server_text", apiErr.ServerText)
		if apiErr.Kind == KindUnauthorized && !req.public && onUnauthorized != nil {
			onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Status: resp.StatusCode, Message: MsgDecode, Err: err}
	}
	return nil
}

// isTimeout reports whether err came from a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
