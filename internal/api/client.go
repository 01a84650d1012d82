package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/me/sheetify/internal/logging"
	"github.com/me/sheetify/pkg/model"
)

// RequestIDHeader carries the client-generated request id.
const RequestIDHeader = "X-Request-ID"

// Doer issues one JSON request against the backend.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) (*Response, error)
}

// Client is an HTTP client for the Sheetify API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a Sheetify API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Logger:     logging.OrDiscard(logger).With("component", "api"),
	}
}

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	RequestID  string
	Body       json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("parse response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Pretty returns the body as 2-space indented JSON, or the raw text when the
// body is not JSON.
func (r *Response) Pretty() string {
	return FormatJSON(r.Body)
}

// FormatJSON indents a JSON document with two spaces. Empty input renders as
// "null"; invalid JSON is returned unchanged.
func FormatJSON(raw []byte) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Do performs an HTTP request. A nil body sends no payload. Non-2xx responses
// return *model.APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.Logger.Debug("HTTP request body", "body", string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = NewRequestID()
	}
	req.Header.Set(RequestIDHeader, reqID)

	c.Logger.Debug("HTTP request", "method", method, "url", url, "request_id", reqID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "request_id", reqID, "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		RequestID:  reqID,
		Body:       respBody,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body (nil for none).
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// parseError extracts the "detail" string from an error body. Bodies that are
// not JSON, or whose detail is not a string, yield an empty Detail.
func parseError(status int, body []byte) *model.APIError {
	apiErr := &model.APIError{StatusCode: status}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Detail = detail
	}
	return apiErr
}

// Message returns the user-facing text for err: the server detail, the
// validation message, or fallback.
func Message(err error, fallback string) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return fallback
}

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// WithRequestID makes Do send id instead of generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// NewRequestID generates a short request identifier.
func NewRequestID() string {
	return "req_" + uuid.New().String()[:8]
}
