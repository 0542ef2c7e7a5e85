package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

const (
	defaultTimeout  = 90 * time.Second
	defaultRPM      = 10
	defaultAttempts = 3
	defaultDelay    = time.Second

	// maxResponseSize bounds how much of a lesson payload we will read.
	// A generated lesson is tens of kilobytes; anything near this limit
	// is a misbehaving service.
	maxResponseSize = 4 << 20
)

// ClientConfig configures the generation service client.
type ClientConfig struct {
	// BaseURL of the generation service, without a trailing slash.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Model names the generation model, forwarded verbatim.
	Model string

	// Timeout covers a single request, not the whole retry loop.
	Timeout time.Duration

	// RequestsPerMinute caps outbound requests. Defaults to 10.
	RequestsPerMinute int

	// RetryAttempts is the total number of tries. Defaults to 3.
	RetryAttempts int

	// RetryDelay seeds the exponential backoff. Defaults to 1s.
	RetryDelay time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client generates lessons by calling a remote generation service.
// Lesson generation is slow and occasionally flaky, so requests are rate
// limited and retried with exponential backoff before giving up.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	delay    time.Duration
}

// NewClient builds a generation service client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("generation service URL is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRPM
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = defaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		attempts: cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
	}, nil
}

// generateRequest is the wire form of a generation call.
type generateRequest struct {
	Topic      string `json:"topic"`
	Level      string `json:"level"`
	Kind       string `json:"kind"`
	SlideCount int    `json:"slide_count"`
	Language   string `json:"language"`
	Model      string `json:"model,omitempty"`
}

// apiError is the error envelope the service returns on failures.
type apiError struct {
	Message string `json:"error"`
}

// Generate requests a lesson from the service. Transient failures are
// retried; whatever survives the retry loop comes back wrapped in
// ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, req Request) (*lesson.Presentation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req = req.normalized()

	payload, err := json.Marshal(generateRequest{
		Topic:      req.Topic,
		Level:      req.Level,
		Kind:       string(req.Kind),
		SlideCount: req.SlideCount,
		Language:   req.Language,
		Model:      c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var p *lesson.Presentation
	attempt := 0
	op := func() error {
		attempt++
		got, err := c.do(ctx, payload)
		if err != nil {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				log.Debug("lesson generation attempt failed",
					"topic", req.Topic, "attempt", attempt, "error", err)
			}
			return err
		}
		p = got
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.delay
	b.MaxElapsedTime = 0
	err = backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(c.attempts-1)), ctx)) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return p, nil
}

// do performs one request against the service. Errors it returns are
// retryable unless marked permanent.
func (c *Client) do(ctx context.Context, payload []byte) (*lesson.Presentation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/lessons", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Transport errors are worth retrying; the context cases are not.
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("service returned %s%s", resp.Status, errorDetail(resp.Body))
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var p lesson.Presentation
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := dec.Decode(&p); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding lesson: %w", err))
	}

	lesson.Normalize(&p)
	if err := lesson.Validate(&p); err != nil {
		return nil, backoff.Permanent(err)
	}
	return &p, nil
}

// retryableStatus reports whether a status code is worth another attempt.
// Rate limiting and server-side failures are transient; everything else in
// the 4xx range means the request itself is bad.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// errorDetail extracts the service's error message, if it sent one.
func errorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Message != "" {
		return ": " + ae.Message
	}
	return ""
}
