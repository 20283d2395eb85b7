package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	appErrors "lugares-client/pkg/errors"
)

// BreakerConfig tunes the circuit breaker guarding the backend.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig mirrors a deliberately unaggressive breaker: plenty
// of requests before evaluating, 80% failure rate to trip.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// HTTPClient is the net/http implementation of Client. The client timeout
// is the only timeout in the whole layer; callers above never cancel an
// in-flight request themselves. An open circuit breaker surfaces as a
// transport error, so the fallback chain handles it like any outage.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// HTTPClientOptions configures NewHTTPClient.
type HTTPClientOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Breaker BreakerConfig
	Logger  *zap.Logger
}

// NewHTTPClient validates the base URL and builds the transport. A
// misconfigured base URL fails here, at construction time, not per call.
func NewHTTPClient(opts HTTPClientOptions) (*HTTPClient, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, appErrors.NewValidation("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, appErrors.NewValidation(fmt.Sprintf("invalid base URL %q: %v", opts.BaseURL, err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &HTTPClient{
		baseURL: base,
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("lugares-client/remote"),
		logger:  logger,
	}

	if opts.Breaker.Enabled {
		bc := opts.Breaker
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "backend",
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < bc.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= bc.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				// Auth rejections are the caller's problem, not
				// backend health.
				var pass *authPassthrough
				return errors.As(err, &pass)
			},
		})
	}

	return c, nil
}

// SetToken installs the bearer credential for subsequent requests.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer credential.
func (c *HTTPClient) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Get issues a GET request against the backend.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body against the backend.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	ctx, span := c.tracer.Start(ctx, "remote "+method+" "+path)
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.NewInternal("encoding request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	exec := func() (*Envelope, error) {
		var req *http.Request
		var err error
		if reader != nil {
			req, err = http.NewRequestWithContext(ctx, method, target, reader)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, target, nil)
		}
		if err != nil {
			return nil, appErrors.NewInternal("building request", err)
		}

		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("apikey", c.apiKey)
		}
		c.mu.RLock()
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		c.mu.RUnlock()

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err),
			)
			return nil, appErrors.NewTransport("request to backend failed", err)
		}
		defer resp.Body.Close()

		c.logger.Debug("request completed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
		)

		var env Envelope
		if resp.StatusCode >= 400 {
			// Best effort: surface the backend message when the error
			// body still follows the envelope shape.
			msg := fmt.Sprintf("backend returned status %d", resp.StatusCode)
			if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr == nil && env.Message != "" {
				msg = env.Message
			}
			if resp.StatusCode == http.StatusUnauthorized {
				return nil, appErrors.NewUnauthorized(msg)
			}
			return nil, appErrors.NewProtocol(msg)
		}

		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, appErrors.NewProtocol("undecodable response envelope")
		}
		return &env, nil
	}

	if c.breaker == nil {
		return exec()
	}

	result, err := c.breaker.Execute(func() (any, error) {
		env, err := exec()
		if err != nil && appErrors.IsUnauthorized(err) {
			return env, &authPassthrough{err}
		}
		return env, err
	})
	if err != nil {
		var pass *authPassthrough
		if errors.As(err, &pass) {
			return nil, pass.err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, appErrors.NewTransport("backend temporarily disabled by circuit breaker", err)
		}
		return nil, err
	}
	env, ok := result.(*Envelope)
	if !ok {
		return nil, appErrors.NewInternal("unexpected breaker result type", nil)
	}
	return env, nil
}

type authPassthrough struct {
	err error
}

func (a *authPassthrough) Error() string { return a.err.Error() }
func (a *authPassthrough) Unwrap() error { return a.err }
