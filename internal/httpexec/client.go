// Package httpexec performs the actual network calls for the harness.
// The rest of the core treats it purely as an injected capability, so
// tests substitute it freely.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Request describes one HTTP call
type Request struct {
	Method  string
	URL     string
	Payload any // JSON-encoded when non-nil
	Headers map[string]string
}

// Response carries the observed outcome of a call, including timing
// split into the request phase (to response headers) and the response
// phase (body read).
type Response struct {
	StatusCode   int
	Body         string
	RequestSize  int
	ResponseSize int
	RequestTime  time.Duration
	ResponseTime time.Duration
	TotalTime    time.Duration
}

// Client is the request-execution collaborator injected into the
// orchestrator and the load-test controller.
type Client interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Options configures the HTTP client
type Options struct {
	Timeout time.Duration
	// Retries is the number of additional attempts after a transport or
	// timeout failure. HTTP-level failures (non-2xx responses) are never
	// retried.
	Retries          int
	RetryBackoff     time.Duration
	DisableKeepAlive bool
	MaxConnsPerHost  int
}

// HTTPClient executes requests with a tuned transport and per-request
// timeout enforcement.
type HTTPClient struct {
	client *http.Client
	opts   Options
	log    logrus.FieldLogger
}

// NewClient creates a client. A zero timeout defaults to 30s.
func NewClient(opts Options, log logrus.FieldLogger) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = 100
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	transport := &http.Transport{
		DisableKeepAlives:   opts.DisableKeepAlive,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: opts.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &HTTPClient{
		client: &http.Client{Transport: transport},
		opts:   opts,
		log:    log,
	}
}

// Do executes the request. It returns a Response for every HTTP response
// regardless of status code; the returned error is non-nil only for
// transport and timeout failures, as a *RequestError.
func (c *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	if req.Payload != nil {
		var err error
		body, err = json.Marshal(req.Payload)
		if err != nil {
			return nil, &RequestError{Kind: KindTransport, Message: fmt.Sprintf("failed to encode payload: %v", err), Err: err}
		}
	}

	attempts := c.opts.Retries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.log.WithFields(logrus.Fields{
				"url":     req.URL,
				"attempt": attempt + 1,
			}).Debug("retrying request")

			select {
			case <-time.After(c.opts.RetryBackoff):
			case <-ctx.Done():
				return nil, c.classify(ctx.Err(), req)
			}
		}

		resp, err := c.attempt(ctx, req, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *HTTPClient) attempt(ctx context.Context, req Request, body []byte) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	requestTime := time.Since(start)

	if err != nil {
		return nil, c.classify(err, req)
	}
	defer httpResp.Body.Close()

	bodyStart := time.Now()
	respBody, err := io.ReadAll(httpResp.Body)
	responseTime := time.Since(bodyStart)

	if err != nil {
		return nil, c.classify(err, req)
	}

	return &Response{
		StatusCode:   httpResp.StatusCode,
		Body:         string(respBody),
		RequestSize:  len(body),
		ResponseSize: len(respBody),
		RequestTime:  requestTime,
		ResponseTime: responseTime,
		TotalTime:    time.Since(start),
	}, nil
}

// classify turns a low-level failure into a *RequestError
func (c *HTTPClient) classify(err error, req Request) error {
	message := fmt.Sprintf("%s %s: %v", req.Method, req.URL, err)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &RequestError{Kind: KindTimeout, Message: message, Err: err}
	}
	return &RequestError{Kind: KindTransport, Message: message, Err: err}
}
