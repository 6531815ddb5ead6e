package litelib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend is the boundary to the light-wallet service. None of its calls
// return an error: failures are encoded in the returned text so callers treat
// every reply uniformly.
type Backend interface {
	CheckServer(ctx context.Context, address string) bool
	WalletExists(ctx context.Context) bool
	InitializeExisting(ctx context.Context, address string) string
	Execute(ctx context.Context, command, args string) string
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// Client talks to the wallet daemon HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:9067"
	defaultUserAgent = "walletlink/0.1"
	requestTimeout   = 30 * time.Second
	probeTimeout     = 5 * time.Second
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// CheckServer reports whether the daemon can reach the given lightwalletd server.
func (c *Client) CheckServer(ctx context.Context, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	values := url.Values{}
	values.Set("address", strings.TrimSpace(address))
	rel := &url.URL{Path: "/api/server/check", RawQuery: values.Encode()}

	var payload struct {
		Reachable bool `json:"reachable"`
	}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return false
	}
	return payload.Reachable
}

// Ping verifies the daemon answers at all. Unlike the Backend calls it
// returns the transport error.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c.doJSON(ctx, http.MethodGet, &url.URL{Path: "/api/wallet/exists"}, nil, nil)
}

// WalletExists reports whether wallet state is already present on the daemon.
func (c *Client) WalletExists(ctx context.Context) bool {
	var payload struct {
		Exists bool `json:"exists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, &url.URL{Path: "/api/wallet/exists"}, nil, &payload); err != nil {
		return false
	}
	return payload.Exists
}

// InitializeExisting loads the existing wallet against server and returns the
// daemon's raw reply ("OK" on success).
func (c *Client) InitializeExisting(ctx context.Context, address string) string {
	body := map[string]string{"server": strings.TrimSpace(address)}
	return c.doText(ctx, &url.URL{Path: "/api/wallet/initialize"}, body)
}

// Execute runs one wallet command and returns the daemon's raw reply.
func (c *Client) Execute(ctx context.Context, command, args string) string {
	body := map[string]string{"command": command, "args": args}
	return c.doText(ctx, &url.URL{Path: "/api/execute"}, body)
}

func (c *Client) doText(ctx context.Context, rel *url.URL, body any) string {
	resp, err := c.send(ctx, http.MethodPost, rel, body)
	if err != nil {
		return errorReply(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorReply(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode >= 400 && len(bytes.TrimSpace(raw)) == 0 {
		return errorReply(fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode))
	}
	return ProcessResponse(string(raw))
}

func (c *Client) doJSON(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	resp, err := c.send(ctx, method, rel, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body any) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func errorReply(err error) string {
	return "Error: " + err.Error()
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
