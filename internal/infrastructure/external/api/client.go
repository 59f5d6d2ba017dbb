package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the API client.
type ClientConfig struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables per-request debug logging.
	Debug bool

	// Observer receives request timings. Optional.
	Observer Observer
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return ClientConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: 15 * time.Second,
	}
}

// Session is the credential holder the client reads the bearer token from.
// Expire is called on every 401 response.
type Session interface {
	Token() string
	Expire(ctx context.Context, trigger string)
}

// Observer records request outcomes, e.g. for metrics.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the assessment API client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	mapper     *Mapper

	session   Session
	sessionMu sync.RWMutex
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
		mapper: NewMapper(),
	}
}

// AttachSession sets the session the client authenticates with.
// The session usually depends on the client itself, hence the late binding.
func (c *Client) AttachSession(s Session) {
	c.sessionMu.Lock()
	c.session = s
	c.sessionMu.Unlock()
}

func (c *Client) currentSession() Session {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Auth returns the authentication endpoints.
func (c *Client) Auth() *AuthAPI { return &AuthAPI{c: c} }

// Students returns the student endpoints.
func (c *Client) Students() *StudentsAPI { return &StudentsAPI{c: c} }

// Classes returns the class endpoints.
func (c *Client) Classes() *ClassesAPI { return &ClassesAPI{c: c} }

// Evaluations returns the evaluation and progress endpoints.
func (c *Client) Evaluations() *EvaluationsAPI { return &EvaluationsAPI{c: c} }

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Method     string
	Path       string

	// Authenticated is set when the request carried the session token.
	Authenticated bool
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// UserMessage returns the server-supplied message, shown to the user verbatim.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Unwrap maps the status code onto the domain error taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized && e.Authenticated:
		return shared.ErrSessionExpired
	case e.StatusCode == http.StatusUnauthorized && isAuthRoute(e.Path):
		return shared.ErrInvalidCredentials
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return shared.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return shared.ErrValidation
	case e.StatusCode == http.StatusConflict:
		return shared.ErrPolicyViolation
	case e.StatusCode == http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrExternalService
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// call performs a request and decodes the (possibly wrapped) response into T.
// keys lists the envelope fields that may hold the payload, in priority order.
func call[T any](ctx context.Context, c *Client, method, route, path string, body any, keys ...string) (T, error) {
	var out T
	raw, err := c.doRequest(ctx, method, route, path, body)
	if err != nil {
		return out, err
	}
	payload := unwrap(raw, keys)
	if len(payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, shared.WrapError("api", route, shared.ErrInvalidFormat, "resposta inválida do servidor", err)
	}
	return out, nil
}

// doRequest performs a single HTTP request. There are no retries: a failed
// write is reported to the user, who decides whether to try again.
func (c *Client) doRequest(ctx context.Context, method, route, path string, body any) ([]byte, error) {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	session := c.currentSession()
	authenticated := false
	if session != nil && !isAuthRoute(route) {
		if token := session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	if c.config.Debug {
		c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, route, 0, started)
		return nil, c.transportError(ctx, route, err)
	}
	defer resp.Body.Close()
	c.observe(method, route, resp.StatusCode, started)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, route, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{
			StatusCode:    resp.StatusCode,
			RequestID:     requestID,
			Method:        method,
			Path:          path,
			Authenticated: authenticated,
		}
		var dto APIErrorDTO
		if err := json.Unmarshal(respBody, &dto); err == nil {
			apiErr.Message = dto.Text()
			apiErr.Code = dto.Code
		}

		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			c.logger.Warn("api rejected credentials, expiring session",
				"method", method, "route", route, "request_id", requestID)
			if session != nil {
				session.Expire(context.WithoutCancel(ctx), method+" "+route)
			}
		} else if c.config.Debug {
			c.logger.Debug("api error", "status", resp.StatusCode, "path", path, "message", apiErr.Message)
		}
		return nil, apiErr
	}

	return respBody, nil
}

// isAuthRoute reports whether route is a login or registration endpoint.
// Those never carry the token, and their 401 means bad credentials.
func isAuthRoute(route string) bool {
	return strings.HasPrefix(route, "/auth/")
}

func (c *Client) observe(method, route string, status int, started time.Time) {
	if c.config.Observer != nil {
		c.config.Observer.ObserveRequest(method, route, status, time.Since(started))
	}
}

// transportError classifies a failure that produced no HTTP response.
// Cancellation is returned as-is so callers can tell it apart from outages.
func (c *Client) transportError(ctx context.Context, route string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return shared.WrapError("api", route, shared.ErrTimeout, "tempo de resposta esgotado", ctxErr)
		}
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return shared.WrapError("api", route, shared.ErrTimeout, "tempo de resposta esgotado", err)
	}
	return shared.WrapError("api", route, shared.ErrNetwork, "falha de conexão com o servidor", err)
}

// unwrap extracts the payload from an envelope such as {"data": …}.
// Bodies that are not objects, or carry none of keys, are returned unchanged.
func unwrap(raw []byte, keys []string) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(keys) == 0 || len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return trimmed
	}
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		return v
	}
	return trimmed
}
