// Package rest talks to a Supabase-compatible backend: PostgREST for records
// and GoTrue for sessions.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/store"
)

const (
	defaultHttpTimeout        = 30 * time.Second
	defaultHttpConnectTimeout = 5 * time.Second
	defaultHttpTlsTimeout     = 5 * time.Second

	// refreshLeeway refreshes access tokens slightly before they expire.
	refreshLeeway = 30 * time.Second
)

func defaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHttpTimeout
	}
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Options configure a Client.
type Options struct {
	// URL is the project endpoint, e.g. https://xyz.supabase.co.
	URL string
	// Key is the project's public (anon) API key.
	Key string
	// Sessions persists the session between runs. Optional.
	Sessions store.Sessions
	Timeout  time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client implements gateway.Gateway over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	sessions store.Sessions
	now      func() time.Time

	mu          sync.Mutex
	session     *store.Session
	loaded      bool
	subscribers map[chan gateway.SessionEvent]struct{}
}

var _ gateway.Gateway = (*Client)(nil)

// New builds a client for the backend described by opts.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultClient(opts.Timeout)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.URL, "/"),
		apiKey:      opts.Key,
		http:        httpClient,
		sessions:    opts.Sessions,
		now:         now,
		subscribers: make(map[chan gateway.SessionEvent]struct{}),
	}
}

// request describes one HTTP round trip.
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	bearer  string
	headers map[string]string
	// auth marks GoTrue endpoints, whose 400/401/422 responses are
	// credential rejections rather than missing records.
	auth bool
}

// errorBody covers the error shapes returned by PostgREST and GoTrue.
type errorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Message, b.Msg, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func call[R any](ctx context.Context, c *Client, req request, result *R) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return gateway.Wrap(gateway.KindNetwork, req.op, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return gateway.Wrap(gateway.KindNetwork, req.op, err)
	}

	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	bearer := req.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	r, err := c.http.Do(httpReq)
	if err != nil {
		return gateway.Wrap(gateway.KindNetwork, req.op, err)
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	log.Debug("rest: round trip", "op", req.op, "method", req.method, "path", req.path, "status", r.StatusCode, "took", time.Since(start))
	if err != nil {
		return gateway.Wrap(gateway.KindNetwork, req.op, err)
	}

	if r.StatusCode < 200 || r.StatusCode > 299 {
		return statusError(req, r.StatusCode, responseBodyBytes)
	}

	if result == nil || len(bytes.TrimSpace(responseBodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBodyBytes, result); err != nil {
		return gateway.Wrap(gateway.KindNetwork, req.op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(req request, status int, body []byte) error {
	var parsed errorBody
	msg := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		msg = parsed.text()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	kind := gateway.KindNetwork
	switch {
	case req.auth && status >= 400 && status < 500:
		kind = gateway.KindAuth
	case status == http.StatusUnauthorized:
		// Expired or revoked token.
		kind = gateway.KindAuth
	case status == http.StatusForbidden, status == http.StatusNotFound, status == http.StatusNotAcceptable:
		kind = gateway.KindNotFound
	}
	return &gateway.Error{Kind: kind, Op: req.op, Message: msg}
}
