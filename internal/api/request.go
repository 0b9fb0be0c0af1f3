package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of every request.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID returns a context whose requests carry id in X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// doRequest performs an HTTP request with the given method and path.
// path is relative to the base path.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + c.basePath + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	op := method + " " + c.basePath + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("api request",
		"op", op,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// Fetch performs a GET against endpoint (path plus optional query, relative
// to the base path) and returns the raw body.
func (c *Client) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	return c.doRequest(ctx, http.MethodGet, u.Path, u.Query())
}

// get performs a GET request and decodes the body into T.
func get[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	body, err := c.Fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	v, err := DecodeJSON[T](endpoint, body)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// post performs a POST request with an empty body and decodes the response into T.
func post[T any](ctx context.Context, c *Client, path string) (*T, error) {
	body, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	v, err := DecodeJSON[T](path, body)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
