package storage

import (
	"os"
	"strings"

	"google.golang.org/api/option"

	"github.com/agentstation/odflow/pkg/errors"
)

// options configures store backends.
type options struct {
	credentialsFile string
	credentialsJSON []byte
	endpoint        string
	anonymous       bool
}

func defaultOptions() *options {
	return &options{}
}

// Option configures a store.
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

// WithCredentials sets GCS credentials from a file path or inline JSON.
func WithCredentials(creds string) Option {
	return func(o *options) error {
		creds = strings.TrimSpace(creds)
		switch {
		case creds == "":
		case strings.HasPrefix(creds, "{"):
			o.credentialsJSON = []byte(creds)
		default:
			if _, err := os.Stat(creds); err != nil {
				return errors.NewConfigError("storage", "credentials file "+creds, err)
			}
			o.credentialsFile = creds
		}
		return nil
	}
}

// WithEndpoint points the GCS client at another endpoint, such as an emulator.
func WithEndpoint(endpoint string) Option {
	return func(o *options) error {
		o.endpoint = endpoint
		return nil
	}
}

// WithAnonymous disables authentication for public buckets and emulators.
func WithAnonymous(enabled bool) Option {
	return func(o *options) error {
		o.anonymous = enabled
		return nil
	}
}

// clientOptions converts options to GCS client options.
func (o *options) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case o.anonymous:
		opts = append(opts, option.WithoutAuthentication())
	case len(o.credentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(o.credentialsJSON))
	case o.credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(o.credentialsFile))
	}
	if o.endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.endpoint))
	}
	return opts
}
