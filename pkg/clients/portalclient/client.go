package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 10 * time.Second

// Response envelope keys the backend wraps payloads in, checked in order
var envelopeKeys = []string{"data", "result", "items", "value"}

// RequestObserver receives one call per request
type RequestObserver interface {
	ObserveRequest(endpoint string, statusCode int, duration time.Duration, err error)
}

// Options configures a Client
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Username string
	Password string
	// TokenSource, when set and yielding a valid token, takes precedence over Basic credentials
	TokenSource oauth2.TokenSource
	Logger      *zap.Logger
	Observer    RequestObserver
	// HTTPClient overrides the transport; its Timeout is replaced by Timeout
	HTTPClient *http.Client
}

// Client talks to the volunteering REST API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	username   string
	password   string
	logger     *zap.Logger
	observer   RequestObserver

	mu     sync.RWMutex
	tokens oauth2.TokenSource
}

// APIError is returned for any non-2xx response
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, body)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// NewClient creates a Client. BaseURL is required.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base := opts.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	httpClient.Timeout = timeout

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		username:   opts.Username,
		password:   opts.Password,
		logger:     logger,
		observer:   opts.Observer,
		tokens:     opts.TokenSource,
	}, nil
}

// SetTokenSource replaces the bearer token source; nil reverts to Basic credentials
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// WithBearer returns a client sharing c's transport that acts only as the
// holder of token. Basic credentials are not carried over.
func (c *Client) WithBearer(token string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		logger:     c.logger,
		observer:   c.observer,
		tokens:     oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	}
}

// authorize sets the Authorization header, preferring a valid bearer token
func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()

	if ts != nil {
		token, err := ts.Token()
		if err == nil && token.Valid() {
			token.SetAuthHeader(req)
			return
		}
		if err != nil {
			c.logger.Debug("Bearer token unavailable, using basic auth", zap.Error(err))
		}
	}

	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and returns the response body and headers for 2xx responses
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, contentType string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint, query), body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start, err)
		c.logger.Warn("API request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, resp.StatusCode, start, err)
		return nil, nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(data)}
		c.observe(endpoint, resp.StatusCode, start, apiErr)
		c.logger.Warn("API request returned error status",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, nil, apiErr
	}

	c.observe(endpoint, resp.StatusCode, start, nil)
	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return data, resp.Header, nil
}

func (c *Client) observe(endpoint string, statusCode int, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, statusCode, time.Since(start), err)
	}
}

// getJSON performs a GET and decodes the (possibly enveloped) response into out
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	data, _, err := c.do(ctx, http.MethodGet, endpoint, query, nil, "")
	if err != nil {
		return err
	}
	return decodeResponse(endpoint, data, out)
}

// getRaw performs a GET and returns the body undecoded
func (c *Client) getRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodGet, endpoint, query, nil, "")
	return data, err
}

// sendJSON encodes in as the request body; out may be nil
func (c *Client) sendJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	data, _, err := c.do(ctx, method, endpoint, nil, body, contentType)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeResponse(endpoint, data, out)
}

// getBinary performs a GET and returns the raw body with its Content-Type
func (c *Client) getBinary(ctx context.Context, endpoint string, query url.Values) ([]byte, string, error) {
	data, header, err := c.do(ctx, http.MethodGet, endpoint, query, nil, "")
	if err != nil {
		return nil, "", err
	}
	return data, header.Get("Content-Type"), nil
}

// postMultipart sends fields plus one file part
func (c *Client) postMultipart(ctx context.Context, endpoint string, fields map[string]string, fileField, fileName string, content io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	data, _, err := c.do(ctx, http.MethodPost, endpoint, nil, &buf, writer.FormDataContentType())
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeResponse(endpoint, data, out)
}

func decodeResponse(endpoint string, data []byte, out any) error {
	if err := decodeEnveloped(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// decodeEnveloped decodes data into out, unwrapping {"data": ...} style envelopes.
// An empty body leaves out untouched.
func decodeEnveloped(data []byte, out any) error {
	raw := unwrapEnvelope(data)
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// unwrapEnvelope returns the payload inside a known envelope key, or data itself
func unwrapEnvelope(data []byte) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return data
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return data
	}
	for _, key := range envelopeKeys {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && (inner[0] == '[' || inner[0] == '{') {
			return inner
		}
	}
	return data
}
