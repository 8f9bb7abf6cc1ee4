// Package device implements the JSON-over-HTTP transport shared by the
// thermostat and the WiFi fans. Each physical device gets one Client; the
// underlying http.Client and its connections are reused across the polling
// loop's iterations.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/http/roundtripper"
)

type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New returns a Client for the device at url. All requests time out after
// timeout. If m is not nil, requests are instrumented through it.
func New(url string, timeout time.Duration, m metrics.RequestMetrics) *Client {
	rt := http.DefaultTransport
	if m != nil {
		rt = roundtripper.New(
			roundtripper.WithRequestMetrics(m),
			roundtripper.WithRoundTripper(rt),
		)
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout, Transport: rt},
	}
}

// Read performs a GET and returns the response body.
func (c *Client) Read(ctx context.Context) ([]byte, error) {
	code, body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: code, Body: body}
	}
	return body, nil
}

// Command posts payload to the device. Any response other than 200 OK is a
// *CommandError.
func (c *Client) Command(ctx context.Context, payload any) error {
	code, body, err := c.do(ctx, http.MethodPost, payload)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &CommandError{StatusCode: code, Body: body}
	}
	return nil
}

// Query posts payload and decodes the JSON response into out.
func (c *Client) Query(ctx context.Context, payload any, out any) error {
	code, body, err := c.do(ctx, http.MethodPost, payload)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &HTTPStatusError{StatusCode: code, Body: body}
	}
	if err = json.Unmarshal(body, out); err != nil {
		return &ParseError{Err: err, Body: body}
	}
	return nil
}

// Probe returns the raw status code and body for diagnostics. GET when
// payload is nil, POST otherwise.
func (c *Client) Probe(ctx context.Context, payload any) (int, []byte, error) {
	method := http.MethodGet
	if payload != nil {
		method = http.MethodPost
	}
	return c.do(ctx, method, payload)
}

func (c *Client) do(ctx context.Context, method string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Err: err}
	}
	return resp.StatusCode, body, nil
}
