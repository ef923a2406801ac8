// Package s3 implements the storage backend client: an AWS Signature V4
// presigner for S3-compatible endpoints. It satisfies storgate.BackendClient.
package s3

import (
	"fmt"
	"net/url"
	"time"
)

// Config describes one named backend endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required,url"`
	Region    string `mapstructure:"region" validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	// Expires is the presigned URL lifetime in seconds. Zero selects the
	// default of 300.
	Expires int `mapstructure:"expires" validate:"min=0,max=604800"`
}

// Client signs requests against a single S3-compatible endpoint. Safe for
// concurrent use; all fields are read-only after construction.
type Client struct {
	endpoint  *url.URL
	region    string
	accessKey string
	secretKey string
	expires   int

	// now is swappable for deterministic signing in tests.
	now func() time.Time
}

const defaultExpires = 300

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint '%s': %w", cfg.Endpoint, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("endpoint '%s' must be an absolute URL", cfg.Endpoint)
	}

	expires := cfg.Expires
	if expires <= 0 {
		expires = defaultExpires
	}

	return &Client{
		endpoint:  endpoint,
		region:    cfg.Region,
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		expires:   expires,
		now:       time.Now,
	}, nil
}

// PresignedURL returns a time-limited URL for the given method, bucket and
// object key. Used for the implicit GET redirect flows.
func (c *Client) PresignedURL(method, bucket, object string) (string, error) {
	return NewSignedRequestBuilder().
		Method(method).
		Bucket(bucket).
		Object(object).
		Build(c)
}

// SignRequest returns a signed URI with the supplied headers embedded in
// the signature. The caller must send those headers verbatim for the
// signature to verify.
func (c *Client) SignRequest(method, bucket, object string, headers map[string]string) (string, error) {
	b := NewSignedRequestBuilder().
		Method(method).
		Bucket(bucket).
		Object(object)

	for key, val := range headers {
		b = b.AddHeader(key, val)
	}

	return b.Build(c)
}
