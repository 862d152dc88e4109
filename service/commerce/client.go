// Package commerce is the HTTP client for the commerce backend. Every
// failure leaving this package is a *errs.Error.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront.GO/config"
	"storefront.GO/core/cache"
	"storefront.GO/core/errs"
)

const (
	maxErrorBody = 64 << 10
	// DefaultMaxBody caps a response body; larger responses fail instead of
	// being cut short.
	DefaultMaxBody = 32 << 20
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL      string
	SessionToken string
	Timeout      time.Duration
	CacheTTL     time.Duration
	HTTPClient   *http.Client
	Cache        *cache.Layered
	MaxBody      int64
}

// Client talks to the commerce backend REST API.
type Client struct {
	baseURL  string
	session  string
	http     *http.Client
	cache    *cache.Layered
	cacheTTL time.Duration
	maxBody  int64
}

func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	lc := opts.Cache
	if lc == nil {
		lc = cache.NewLayered(cache.NewCache(), nil, "")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxBody := opts.MaxBody
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Client{baseURL: base, session: opts.SessionToken, http: hc, cache: lc, cacheTTL: ttl, maxBody: maxBody}
}

// NewFromConfig builds a Client from the application config; the shared
// catalog cache uses config.RedisClient when it is set.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL:      cfg.BackendURL,
		SessionToken: cfg.SessionToken,
		Timeout:      cfg.RequestTimeout,
		CacheTTL:     cfg.CacheTTL,
		Cache:        cache.NewLayered(cache.GetInstance(), config.RedisClient, cfg.RedisPrefix),
	})
}

// WithSession returns a copy of c that sends token as the session header.
func (c *Client) WithSession(token string) *Client {
	cp := *c
	cp.session = token
	return &cp
}

type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     interface{}
	header   map[string]string
	fallback string
}

// send performs cl and returns the status and body of a 2xx response.
func (c *Client) send(ctx context.Context, cl call) (int, []byte, error) {
	var reader io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return 0, nil, errs.Network(cl.op, 0, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(raw)
	}
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return 0, nil, errs.Network(cl.op, 0, fmt.Errorf("create request: %w", err))
	}
	rid := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", rid)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.Header.Set("X-Session-Token", c.session)
	}
	for k, v := range cl.header {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[COMMERCE] action=%s method=%s path=%s request_id=%s msg=%v", cl.op, cl.method, cl.path, rid, err)
		return 0, nil, errs.Network(cl.op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err == nil && int64(len(body)) > c.maxBody {
		err = fmt.Errorf("response too large: more than %d bytes", c.maxBody)
		body = nil
	}
	log.Printf("[COMMERCE] action=%s method=%s path=%s status=%d duration=%s request_id=%s",
		cl.op, cl.method, cl.path, resp.StatusCode, time.Since(start).Round(time.Millisecond), rid)
	if err != nil {
		return resp.StatusCode, nil, errs.Network(cl.op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e := errs.AuthRequired(cl.op)
		e.Status = resp.StatusCode
		return resp.StatusCode, nil, e
	case resp.StatusCode >= 500:
		e := errs.Network(cl.op, resp.StatusCode, fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(body)))
		if cl.fallback != "" {
			e.Message = MessageFromBody(body)
			if e.Message == "" {
				e.Message = cl.fallback
			}
		}
		return resp.StatusCode, nil, e
	case resp.StatusCode >= 400:
		msg := MessageFromBody(body)
		if msg == "" {
			msg = cl.fallback
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, nil, errs.Business(cl.op, resp.StatusCode, msg)
	}
	return resp.StatusCode, body, nil
}

// do performs cl and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	status, body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.Network(cl.op, status, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// MessageFromBody extracts a user-facing message: the JSON "message" (or
// "error") field when present, otherwise the trimmed raw body.
func MessageFromBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}
	return truncate(trimmed)
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return strings.TrimSpace(string(b))
}

// requireUser refuses a call that needs an identity before anything is sent.
func requireUser(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errs.AuthRequired(op)
	}
	return nil
}
