// Package backend performs the outbound HTTP calls to the person service.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
)

// DefaultTimeout bounds a single backend call. There are no retries, so this
// is the only limit on a stuck backend.
const DefaultTimeout = 30 * time.Second

const (
	soapContentType = "application/soap+xml; charset=utf-8"
	soapAction      = "getEmployee"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Its own Timeout is used as-is.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides DefaultTimeout for the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client is the HTTP implementation of ports.BackendCaller.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

var _ ports.BackendCaller = (*Client)(nil)

// NewClient creates a backend client. Outbound requests are traced through
// otelhttp unless a custom HTTP client is supplied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c
}

// Timeout returns the effective per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Call sends the request and returns the raw response.
// A non-2xx status is reported as *StatusError carrying the body.
func (c *Client) Call(ctx context.Context, req *ports.BackendRequest) (*ports.BackendResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody, URL: req.URL}
	}

	return &ports.BackendResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// PersonDataRequest builds the JSON pipeline call: GET <base>/person_data/<id>.
func PersonDataRequest(baseURL, id string) *ports.BackendRequest {
	return &ports.BackendRequest{
		Method: http.MethodGet,
		URL:    strings.TrimSuffix(baseURL, "/") + "/person_data/" + url.PathEscape(id),
	}
}

// PersonServiceRequest builds the SOAP pipeline call carrying envelope.
func PersonServiceRequest(baseURL string, envelope string) *ports.BackendRequest {
	header := make(http.Header)
	header.Set("Content-Type", soapContentType)
	header.Set("SOAPAction", soapAction)

	return &ports.BackendRequest{
		Method: http.MethodPost,
		URL:    strings.TrimSuffix(baseURL, "/") + "/soap/PersonService",
		Header: header,
		Body:   []byte(envelope),
	}
}

// FetchRequest builds a plain GET of an absolute URL.
func FetchRequest(rawURL string) *ports.BackendRequest {
	return &ports.BackendRequest{Method: http.MethodGet, URL: rawURL}
}
