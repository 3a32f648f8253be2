package ons

import (
	"time"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
)

type options struct {
	baseURL     string
	timeout     time.Duration
	retries     int
	backoff     time.Duration
	concurrency int
	userAgent   string
}

func defaultOptions() *options {
	return &options{
		baseURL:     constants.ONSBaseURL,
		timeout:     constants.DefaultHTTPTimeout,
		retries:     constants.MaxRetries,
		backoff:     constants.RetryBackoff,
		concurrency: constants.MaxConcurrentDownloads,
		userAgent:   "odflow",
	}
}

// Option configures a Client.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithBaseURL sets the root that relative links resolve against.
func WithBaseURL(base string) Option {
	return func(o *options) error {
		if base == "" {
			return errors.NewValidationError("base_url", base, "cannot be empty")
		}
		o.baseURL = base
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "must be positive")
		}
		o.timeout = d
		return nil
	}
}

// WithRetries sets the retry count and base backoff for failed requests.
func WithRetries(n int, backoff time.Duration) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("retries", n, "cannot be negative")
		}
		o.retries = n
		o.backoff = backoff
		return nil
	}
}

// WithConcurrency sets how many files DownloadAll fetches at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("concurrency", n, "must be at least 1")
		}
		o.concurrency = n
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}
