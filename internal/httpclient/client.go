package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meza/entwine/internal/perf"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxRetries int
	Interval   time.Duration
}

type RLHTTPClient struct {
	client      *http.Client
	Ratelimiter *rate.Limiter
	RetryConfig *RetryConfig
}

func (client *RLHTTPClient) Do(request *http.Request) (*http.Response, error) {
	ctx, requestSpan := perf.StartSpan(request.Context(), "net.http.request",
		perf.WithAttributes(
			attribute.String("url", request.URL.String()),
			attribute.String("method", request.Method),
			attribute.String("host", request.URL.Host),
		),
	)
	defer requestSpan.End()
	retryConfig := client.retryConfig()

	var response *http.Response
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		var retry bool
		var err error
		response, retry, err = client.doAttempt(ctx, request, attempt, retryConfig)
		if err != nil {
			requestSpan.SetAttributes(
				attribute.Bool("success", false),
				attribute.String("error_type", fmt.Sprintf("%T", err)),
			)
			return nil, err
		}
		if !retry {
			break
		}
	}

	requestSpan.SetAttributes(attribute.Bool("success", true))
	if response != nil {
		requestSpan.SetAttributes(attribute.Int("status", response.StatusCode))
	}
	return response, nil
}

func (client *RLHTTPClient) retryConfig() RetryConfig {
	if client.RetryConfig != nil {
		return *client.RetryConfig
	}
	return RetryConfig{
		MaxRetries: 3,
		Interval:   1 * time.Second,
	}
}

func (client *RLHTTPClient) doAttempt(ctx context.Context, request *http.Request, attempt int, retryConfig RetryConfig) (*http.Response, bool, error) {
	attemptCtx, attemptSpan := perf.StartSpan(ctx, "net.http.request.attempt",
		perf.WithAttributes(attribute.Int("attempt", attempt)),
	)
	defer attemptSpan.End()

	if err := client.waitForRateLimit(attemptCtx, attemptSpan); err != nil {
		if IsTimeout(AsTimeout(err)) {
			return nil, false, AsTimeout(err)
		}
		return nil, false, fmt.Errorf("rate limit burst exceeded %w", err)
	}

	response, err := client.client.Do(request.WithContext(attemptCtx))
	if err != nil {
		attemptSpan.SetAttributes(attribute.Bool("success", false))
		return nil, false, AsTimeout(err)
	}

	attemptSpan.SetAttributes(attribute.Int("status", response.StatusCode))
	if shouldRetry(response, attempt, retryConfig) {
		if drainErr := drainAndClose(response.Body); drainErr != nil {
			attemptSpan.SetAttributes(attribute.String("cleanup_error", drainErr.Error()))
		}
		time.Sleep(retryConfig.Interval)
		return nil, true, nil
	}

	return response, false, nil
}

func (client *RLHTTPClient) waitForRateLimit(ctx context.Context, span trace.Span) error {
	if client.Ratelimiter == nil {
		return nil
	}
	start := time.Now()
	err := client.Ratelimiter.Wait(ctx)
	span.SetAttributes(attribute.Int64("ratelimit_wait_ms", time.Since(start).Milliseconds()))
	return err
}

func shouldRetry(response *http.Response, attempt int, retryConfig RetryConfig) bool {
	return response.StatusCode >= 500 && response.StatusCode < 600 && attempt < retryConfig.MaxRetries
}

func NewRLClient(limiter *rate.Limiter) *RLHTTPClient {
	return &RLHTTPClient{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Ratelimiter: limiter,
	}
}

// NewDefaultClient is the client the CLI uses: ten requests per second and no retries.
func NewDefaultClient() *RLHTTPClient {
	client := NewRLClient(rate.NewLimiter(rate.Limit(10), 1))
	client.RetryConfig = NoRetries()
	return client
}

func NoRetries() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 0,
		Interval:   0,
	}
}

func drainAndClose(body io.ReadCloser) error {
	if body == nil {
		return nil
	}

	_, readErr := io.Copy(io.Discard, body)
	closeErr := body.Close()
	return errors.Join(readErr, closeErr)
}
