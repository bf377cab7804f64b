package fetcher

import (
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// DefaultTimeout bounds a single provider request
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when the caller does not set one. Some
	// providers reject requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0 (compatible; stockhistory/1.0)"
)

// HTTPOptions configures the shared provider HTTP client
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// NewHTTPClient creates the HTTP client used by provider sources.
// Requests are made exactly once; failures go straight back to the caller.
func NewHTTPClient(baseURL string, opts HTTPOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		SetTimeout(opts.Timeout)

	client.OnSuccess(successHook(logger))
	client.OnError(errorHook(logger))

	return client
}

// successHook logs completed requests for observability
func successHook(logger *zap.Logger) resty.SuccessHook {
	return func(_ *resty.Client, r *resty.Response) {
		logger.Debug("provider request completed",
			zap.String("url", r.Request.URL),
			zap.Int("status_code", r.StatusCode()))
	}
}

// errorHook logs failed requests, including ones answered with an error status
func errorHook(logger *zap.Logger) resty.ErrorHook {
	return func(r *resty.Request, err error) {
		logger.Debug("provider request failed",
			zap.String("url", r.URL),
			zap.Error(err))
	}
}
