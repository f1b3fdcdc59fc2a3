package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// TokenManager supplies the bearer credential for outgoing requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// Request describes an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response carries the raw result of an API request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client issues authenticated JSON requests against the API. Transient
// failures (connection errors, 5xx, 429) retry with backoff; 4xx failures do
// not. All requests, retries included under their logical call, pass a
// client-side token bucket so bursts stay under the server's rate window.
type Client struct {
	baseURL   string
	retrying  *retryablehttp.Client
	streaming *http.Client
	tokens    TokenManager
	limiter   *rate.Limiter
	userAgent string
	logger    fleet.Logger
	debug     bool
}

type options struct {
	logger               fleet.Logger
	debug                bool
	userAgent            string
	timeout              time.Duration
	retryMax             int
	retryWaitMin         time.Duration
	retryWaitMax         time.Duration
	requestLimit         int
	requestLimitInterval time.Duration
	httpClient           *http.Client
}

// Option configures the client.
type Option func(*options)

// WithLogger sets the logger used for debug output.
func WithLogger(logger fleet.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebug enables request/response logging through the configured logger.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithUserAgent overrides the default client identification header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithTimeout bounds each request attempt, body read included.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithRetryConfig tunes the retry count and backoff window.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = retryMax
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithRateLimit caps outgoing requests to the given count per interval.
// A non-positive count disables client-side limiting.
func WithRateLimit(requests int, interval time.Duration) Option {
	return func(o *options) {
		o.requestLimit = requests
		o.requestLimitInterval = interval
	}
}

// WithHTTPClient substitutes the underlying HTTP client for buffered
// requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// NewClient creates a client rooted at baseURL. A nil token manager sends
// unauthenticated requests.
func NewClient(baseURL string, tokens TokenManager, opts ...Option) *Client {
	applied := options{
		timeout:              constants.DefaultHTTPTimeout,
		retryMax:             constants.DefaultRetryMax,
		retryWaitMin:         constants.DefaultRetryWaitMin,
		retryWaitMax:         constants.DefaultRetryWaitMax,
		requestLimit:         constants.DefaultRequestLimit,
		requestLimitInterval: constants.DefaultRequestLimitInterval,
		userAgent:            "fleet-client-go/" + fleet.Version,
	}

	for _, opt := range opts {
		opt(&applied)
	}

	retrying := retryablehttp.NewClient()
	retrying.RetryMax = applied.retryMax
	retrying.RetryWaitMin = applied.retryWaitMin
	retrying.RetryWaitMax = applied.retryWaitMax
	retrying.Logger = nil

	if applied.httpClient != nil {
		retrying.HTTPClient = applied.httpClient
	} else {
		retrying.HTTPClient = &http.Client{
			Timeout:   applied.timeout,
			Transport: cleanhttp.DefaultPooledTransport(),
		}
	}

	// Streams stay open indefinitely, so no overall timeout; the header
	// timeout still catches servers that accept and hang.
	streamTransport := cleanhttp.DefaultPooledTransport()
	streamTransport.ResponseHeaderTimeout = constants.StreamHTTPTimeout

	var limiter *rate.Limiter
	if applied.requestLimit > 0 && applied.requestLimitInterval > 0 {
		perSecond := float64(applied.requestLimit) / applied.requestLimitInterval.Seconds()
		limiter = rate.NewLimiter(rate.Limit(perSecond), applied.requestLimit)
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		retrying:  retrying,
		streaming: &http.Client{Transport: streamTransport},
		tokens:    tokens,
		limiter:   limiter,
		userAgent: applied.userAgent,
		logger:    applied.logger,
		debug:     applied.debug,
	}
}

// Do executes the request and reads the whole response body. Non-2xx
// responses return both the response and an APIError describing it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	err := c.wait(ctx)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.requestURL(req), rawBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq.Header, req, body != nil)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)

	httpResp, err := c.retrying.Do(httpReq)
	if err != nil {
		return nil, &fleet.TransportError{Op: req.Method + " " + req.Path, Err: err}
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &fleet.TransportError{Op: "reading response for " + req.Path, Err: err}
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	c.logResponse(req, response)

	if httpResp.StatusCode >= http.StatusBadRequest {
		return response, &fleet.APIError{
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return response, nil
}

// Stream executes the request and hands the body back unread, for endpoints
// that emit newline-delimited JSON until closed. The caller owns the closer.
func (c *Client) Stream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	err := c.wait(ctx)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.requestURL(req), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq.Header, req, body != nil)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)

	httpResp, err := c.streaming.Do(httpReq)
	if err != nil {
		return nil, &fleet.TransportError{Op: req.Method + " " + req.Path, Err: err}
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		_ = httpResp.Body.Close()

		return nil, &fleet.APIError{
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return httpResp.Body, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}

	err := c.limiter.Wait(ctx)
	if err != nil {
		return &fleet.TransportError{Op: "waiting for request slot", Err: err}
	}

	return nil
}

func (c *Client) requestURL(req *Request) string {
	full := c.baseURL + req.Path
	if len(req.Query) > 0 {
		full += "?" + req.Query.Encode()
	}

	return full
}

func (c *Client) setHeaders(ctx context.Context, header http.Header, req *Request, hasBody bool) error {
	header.Set("Accept", "application/json")
	header.Set("User-Agent", c.userAgent)
	header.Set("X-Fleet-Client", c.userAgent)

	if hasBody {
		header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("getting token: %w", err)
		}

		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	for key, value := range req.Headers {
		header.Set(key, value)
	}

	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

func (c *Client) logRequest(req *Request) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method": req.Method,
		"url":    c.requestURL(req),
	})
}

func (c *Client) logResponse(req *Request, resp *Response) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
		"status": resp.StatusCode,
		"bytes":  len(resp.Body),
	})
}
