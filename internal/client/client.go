package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where the CLIs look for the server unless told otherwise.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int     // retries on refused connections and gateway errors
	RateLimit  float64 // requests per second, 0 = unlimited
}

// DefaultConfig returns settings suited to the command line tools.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}

// Client talks to a msgslot server over its REST API.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	// Pooled transport from retryablehttp; retry decisions stay with resty so
	// non-idempotent opens are only replayed when they never left the host.
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(100*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(shouldRetry).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("User-Agent", "msgslot-client/1.0")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	return &Client{resty: restyClient, limiter: limiter}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial"
	}
	switch resp.StatusCode() {
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// request creates a new request, waiting on the client-side rate limit.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	var apiErr APIError
	resp, err := req.SetError(&apiErr).Get("/health")
	return check(resp, err, &apiErr)
}

// Open opens a handle on slotID.
func (c *Client) Open(ctx context.Context, slotID uint32) (*Handle, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result struct {
			Handle string `json:"handle"`
			Slot   uint32 `json:"slot"`
		}
		apiErr APIError
	)
	resp, err := req.
		SetResult(&result).
		SetError(&apiErr).
		SetPathParam("slot", strconv.FormatUint(uint64(slotID), 10)).
		Post("/slots/{slot}/open")
	if err := check(resp, err, &apiErr); err != nil {
		return nil, err
	}
	return &Handle{client: c, ID: result.Handle, Slot: result.Slot}, nil
}

// Handle is an open session on the server.
type Handle struct {
	client *Client
	ID     string
	Slot   uint32
}

// SelectChannel binds the handle to channelID.
func (h *Handle) SelectChannel(ctx context.Context, channelID uint32) error {
	req, err := h.client.request(ctx)
	if err != nil {
		return err
	}
	var apiErr APIError
	resp, err := req.
		SetError(&apiErr).
		SetPathParam("handle", h.ID).
		SetBody(map[string]uint32{"channel": channelID}).
		Put("/handles/{handle}/channel")
	return check(resp, err, &apiErr)
}

// Write stores p on the selected channel and returns the bytes written.
func (h *Handle) Write(ctx context.Context, p []byte) (int, error) {
	req, err := h.client.request(ctx)
	if err != nil {
		return 0, err
	}

	var (
		result struct {
			Written int `json:"written"`
		}
		apiErr APIError
	)
	// resty rejects a nil body before sending it
	if p == nil {
		p = []byte{}
	}
	resp, err := req.
		SetResult(&result).
		SetError(&apiErr).
		SetPathParam("handle", h.ID).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(p).
		Post("/handles/{handle}/write")
	if err := check(resp, err, &apiErr); err != nil {
		return 0, err
	}
	return result.Written, nil
}

// Read returns the selected channel's message if it fits in capacity bytes.
func (h *Handle) Read(ctx context.Context, capacity int) ([]byte, error) {
	req, err := h.client.request(ctx)
	if err != nil {
		return nil, err
	}
	var apiErr APIError
	resp, err := req.
		SetError(&apiErr).
		SetPathParam("handle", h.ID).
		SetQueryParam("capacity", strconv.Itoa(capacity)).
		Get("/handles/{handle}/read")
	if err := check(resp, err, &apiErr); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Close releases the handle on the server.
func (h *Handle) Close(ctx context.Context) error {
	req, err := h.client.request(ctx)
	if err != nil {
		return err
	}
	var apiErr APIError
	resp, err := req.
		SetError(&apiErr).
		SetPathParam("handle", h.ID).
		Delete("/handles/{handle}")
	return check(resp, err, &apiErr)
}

func check(resp *resty.Response, err error, apiErr *APIError) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}
