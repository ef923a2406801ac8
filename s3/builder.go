package s3

import "errors"

// SignedRequestBuilder assembles a (method, bucket, object, headers) tuple
// and produces a signed URI against a Client. Zero values are rejected at
// Build time so callers get one error for the whole tuple.
type SignedRequestBuilder struct {
	method  string
	bucket  string
	object  string
	headers map[string]string
}

// NewSignedRequestBuilder returns an empty builder.
func NewSignedRequestBuilder() *SignedRequestBuilder {
	return &SignedRequestBuilder{headers: make(map[string]string)}
}

// Method sets the HTTP method to sign.
func (b *SignedRequestBuilder) Method(method string) *SignedRequestBuilder {
	b.method = method
	return b
}

// Bucket sets the target bucket.
func (b *SignedRequestBuilder) Bucket(bucket string) *SignedRequestBuilder {
	b.bucket = bucket
	return b
}

// Object sets the storage-level object key.
func (b *SignedRequestBuilder) Object(object string) *SignedRequestBuilder {
	b.object = object
	return b
}

// AddHeader includes a header in the signature.
func (b *SignedRequestBuilder) AddHeader(key, val string) *SignedRequestBuilder {
	b.headers[key] = val
	return b
}

// Build signs the assembled request.
func (b *SignedRequestBuilder) Build(c *Client) (string, error) {
	switch {
	case b.method == "":
		return "", errors.New("signed request: method is required")
	case b.bucket == "":
		return "", errors.New("signed request: bucket is required")
	case b.object == "":
		return "", errors.New("signed request: object is required")
	}

	return c.presign(b.method, b.bucket, b.object, b.headers)
}
