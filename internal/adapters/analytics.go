package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/resilience"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultAPIPrefix = "/api/v1"
	DefaultTimeout   = 30 * time.Second

	maxBodyBytes = 10 << 20
	userAgent    = "profile-insights/1.0"
)

// StatusError is the cause attached to errors for non-2xx responses and
// failure envelopes
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analytics service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("analytics service returned status %d: %s", e.StatusCode, e.Message)
}

// Observer is notified after every upstream call
type Observer func(method, endpoint string, statusCode int, duration time.Duration, err error)

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCircuitBreaker guards every call with cb
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithObserver registers a call observer
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client talks to the analytics service
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	observer   Observer
}

// NewClient creates a client for the service at baseURL. Empty arguments
// select the local development defaults.
func NewClient(baseURL, prefix string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  strings.TrimRight(prefix, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCircuitBreaker returns a breaker that only counts transport failures,
// 5xx responses and undecodable payloads
func NewCircuitBreaker(onStateChange func(from, to resilience.CircuitBreakerState)) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
		IsFailure:        IsUpstreamFault,
		OnStateChange:    onStateChange,
	})
}

// IsUpstreamFault reports whether err says something about the health of the
// analytics service itself. Validation errors and 4xx answers do not.
func IsUpstreamFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsValidation(err) {
		return false
	}
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// BaseURL returns the configured service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health fetches GET /health
func (c *Client) Health(ctx context.Context) (types.HealthResponse, error) {
	var health types.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &health)
	return health, err
}

// CheckHealth returns nil only when the service reports status "healthy"
func (c *Client) CheckHealth(ctx context.Context) error {
	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if !health.Healthy() {
		return errors.NewNetworkError(fmt.Sprintf("analytics service status is %q", health.Status), nil)
	}
	return nil
}

// FetchProfile fetches the analysis of one user. A blank username fails with
// a ValidationError before any request is made.
func (c *Client) FetchProfile(ctx context.Context, username string) (*types.ProfileAnalysis, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username must not be blank")
	}

	var envelope types.ProfileResponse
	endpoint := c.prefix + "/analytics/profile/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return nil, err
	}

	if !envelope.Success {
		return nil, upstreamFailure(http.StatusOK, envelope.Error, "profile analysis failed")
	}
	if envelope.Data == nil {
		return nil, errors.NewDataShapeError("profile response has no data", nil)
	}
	return envelope.Data, nil
}

// CompareProfiles issues one aggregate comparison request
func (c *Client) CompareProfiles(ctx context.Context, usernames []string) ([]types.UpstreamComparisonEntry, error) {
	var envelope types.CompareResponse
	body := types.CompareRequest{Usernames: usernames}
	if err := c.do(ctx, http.MethodPost, c.prefix+"/analytics/compare", body, &envelope); err != nil {
		return nil, err
	}

	if !envelope.Success {
		return nil, upstreamFailure(http.StatusOK, envelope.Error, "comparison failed")
	}
	return envelope.Comparisons, nil
}

func upstreamFailure(status int, message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return errors.NewNetworkError(message, &StatusError{StatusCode: status, Message: message})
}

// do performs one request through the circuit breaker and decodes a JSON
// body into out
func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	start := time.Now()
	status := 0

	call := func() error {
		var err error
		status, err = c.roundTrip(ctx, method, endpoint, in, out)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(call)
		var cbErr *resilience.CircuitBreakerError
		if stderrors.As(err, &cbErr) {
			err = errors.NewNetworkError("analytics service temporarily unavailable", cbErr)
		}
	} else {
		err = call()
	}

	if c.observer != nil {
		c.observer(method, endpoint, status, time.Since(start), err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, in, out interface{}) (int, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, errors.NewInternalError("failed to encode request", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, errors.NewConfigurationError(fmt.Sprintf("invalid analytics URL %q", c.baseURL), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		appErr := errors.ToAppError(err)
		if appErr.Category != errors.CategoryTimeout {
			appErr = errors.NewNetworkError("analytics service unreachable", err)
		}
		return 0, appErr
	}
	defer errors.SafeClose(resp.Body, "analytics response body")

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if appErr := errors.ToAppError(err); appErr.Category == errors.CategoryTimeout {
			return resp.StatusCode, appErr
		}
		return resp.StatusCode, errors.NewNetworkError("failed to read analytics response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &envelope)
		message := envelope.Error
		if message == "" {
			message = envelope.Message
		}
		se := &StatusError{StatusCode: resp.StatusCode, Message: message}
		if message == "" {
			message = se.Error()
		}
		return resp.StatusCode, errors.NewNetworkError(message, se)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, errors.NewDataShapeError("analytics response could not be decoded", err)
	}
	return resp.StatusCode, nil
}
