// Package transport issues the HTTP calls of workflow steps. Transport
// failures are not returned as errors: they come back as a Response without a
// status, so checks can run against them.
package transport

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
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/blackcoderx/capter/pkg/compile"
)

// Request is a fully compiled step request.
type Request struct {
	Method  string
	URL     string
	Query   map[string]any
	Headers map[string]any
	Body    any
}

// Response is what came back, or why nothing did.
type Response struct {
	Status     *int
	StatusText string
	Headers    map[string]string
	Body       any
	Duration   time.Duration
}

// Client sends step requests.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithRate caps outgoing requests per second. Zero disables the limit.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New returns a client whose connect timeout is bounded by timeout. The
// request as a whole is not bounded.
func New(timeout time.Duration, opts ...Option) *Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = timeout

	c := &Client{
		client: &http.Client{Transport: transport},
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute performs req. It never fails: errors are folded into the Response.
func (c *Client) Execute(ctx context.Context, req Request) Response {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{StatusText: Classify(err)}
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return Response{StatusText: err.Error()}
	}

	c.log.WithFields(logrus.Fields{
		"method": httpReq.Method,
		"url":    httpReq.URL.Redacted(),
	}).Debug("sending request")

	startTime := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		elapsed := time.Since(startTime)
		c.log.WithError(err).Debug("request failed")
		return Response{StatusText: Classify(err), Duration: elapsed}
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	elapsed := time.Since(startTime)
	status := httpResp.StatusCode
	if err != nil {
		return Response{Status: &status, StatusText: Classify(err), Duration: elapsed}
	}

	headers := make(map[string]string, len(httpResp.Header))
	for key, values := range httpResp.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	c.log.WithFields(logrus.Fields{
		"status":   status,
		"duration": elapsed.Milliseconds(),
	}).Debug("response received")

	return Response{
		Status:     &status,
		StatusText: http.StatusText(status),
		Headers:    headers,
		Body:       decodeBody(bodyBytes),
		Duration:   elapsed,
	}
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if len(req.Query) > 0 {
		values := u.Query()
		for key, value := range req.Query {
			values.Set(key, compile.Stringify(value))
		}
		u.RawQuery = values.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, compile.Stringify(value))
	}
	return httpReq, nil
}

// decodeBody returns the JSON value of data, the text itself when it is not
// JSON, or nil when there is no body. Numbers keep their exact digits, so
// large ids survive being passed on to later steps.
func decodeBody(data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	body, err := compile.DecodeJSON(data)
	if err != nil {
		return string(data)
	}
	return body
}
