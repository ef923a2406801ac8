package s3

import (
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signatureRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Endpoint:  "https://s3.local:9000",
		Region:    "us-east-1",
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "secret",
		Expires:   600,
	})
	require.NoError(t, err)
	c.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}
	return c
}

func TestNewClient(t *testing.T) {
	tt := []struct {
		Name     string
		Endpoint string
		Err      bool
	}{
		{Name: "https endpoint", Endpoint: "https://s3.local"},
		{Name: "http endpoint with port", Endpoint: "http://127.0.0.1:9000"},
		{Name: "missing scheme", Endpoint: "s3.local:9000", Err: true},
		{Name: "relative", Endpoint: "/local/path", Err: true},
		{Name: "empty", Endpoint: "", Err: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := NewClient(Config{
				Endpoint:  tc.Endpoint,
				Region:    "us-east-1",
				AccessKey: "k",
				SecretKey: "s",
			})
			if tc.Err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPresignedURLShape(t *testing.T) {
	c := newTestClient(t)

	signed, err := c.PresignedURL("GET", "b1", "o1")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "s3.local:9000", u.Host)
	assert.Equal(t, "/b1/o1", u.Path)

	q := u.Query()
	assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
	assert.Equal(t, "AKIAEXAMPLE/20260314/us-east-1/s3/aws4_request", q.Get("X-Amz-Credential"))
	assert.Equal(t, "20260314T150926Z", q.Get("X-Amz-Date"))
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.Equal(t, "host", q.Get("X-Amz-SignedHeaders"))
	assert.Regexp(t, signatureRe, q.Get("X-Amz-Signature"))
}

func TestPresignedURLDeterministic(t *testing.T) {
	c := newTestClient(t)

	first, err := c.PresignedURL("GET", "b1", "o1")
	require.NoError(t, err)
	second, err := c.PresignedURL("GET", "b1", "o1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPresignedURLVariesWithInput(t *testing.T) {
	c := newTestClient(t)

	base, err := c.PresignedURL("GET", "b1", "o1")
	require.NoError(t, err)
	baseSig := mustQuery(t, base).Get("X-Amz-Signature")

	otherMethod, err := c.PresignedURL("HEAD", "b1", "o1")
	require.NoError(t, err)
	assert.NotEqual(t, baseSig, mustQuery(t, otherMethod).Get("X-Amz-Signature"))

	otherObject, err := c.PresignedURL("GET", "b1", "o2")
	require.NoError(t, err)
	assert.NotEqual(t, baseSig, mustQuery(t, otherObject).Get("X-Amz-Signature"))
}

func TestSignRequestHeaders(t *testing.T) {
	c := newTestClient(t)

	signed, err := c.SignRequest("PUT", "b1", "o1", map[string]string{
		"Content-Type":  "text/plain",
		"Cache-Control": "no-store",
	})
	require.NoError(t, err)

	q := mustQuery(t, signed)
	assert.Equal(t, "cache-control;content-type;host", q.Get("X-Amz-SignedHeaders"))
	assert.Regexp(t, signatureRe, q.Get("X-Amz-Signature"))
}

func TestSignRequestHostNotOverridable(t *testing.T) {
	c := newTestClient(t)

	plain, err := c.SignRequest("GET", "b1", "o1", nil)
	require.NoError(t, err)
	spoofed, err := c.SignRequest("GET", "b1", "o1", map[string]string{"Host": "evil.local"})
	require.NoError(t, err)

	assert.Equal(t, plain, spoofed)
}

func TestObjectPathEscaping(t *testing.T) {
	tt := []struct {
		Name   string
		Bucket string
		Object string
		Want   string
	}{
		{Name: "plain", Bucket: "b1", Object: "o1", Want: "/b1/o1"},
		{Name: "nested key", Bucket: "b1", Object: "a/b/c.mp4", Want: "/b1/a/b/c.mp4"},
		{Name: "spaces", Bucket: "b1", Object: "my file.txt", Want: "/b1/my%20file.txt"},
		{Name: "composite key", Bucket: "b1", Object: "12345.rec.mp4", Want: "/b1/12345.rec.mp4"},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, objectPath(tc.Bucket, tc.Object))
		})
	}
}

func TestBuildCanonicalHeaders(t *testing.T) {
	canonical, signedNames := buildCanonicalHeaders("s3.local", map[string]string{
		"Content-Type": " text/plain ",
		"Range":        "bytes=0-99",
	})

	assert.Equal(t, "content-type:text/plain\nhost:s3.local\nrange:bytes=0-99\n", canonical)
	assert.Equal(t, "content-type;host;range", signedNames)
}

func TestBuilderValidation(t *testing.T) {
	c := newTestClient(t)

	_, err := NewSignedRequestBuilder().Bucket("b1").Object("o1").Build(c)
	assert.ErrorContains(t, err, "method is required")

	_, err = NewSignedRequestBuilder().Method("GET").Object("o1").Build(c)
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewSignedRequestBuilder().Method("GET").Bucket("b1").Build(c)
	assert.ErrorContains(t, err, "object is required")
}

func TestDefaultExpires(t *testing.T) {
	c, err := NewClient(Config{
		Endpoint:  "https://s3.local",
		Region:    "us-east-1",
		AccessKey: "k",
		SecretKey: "s",
	})
	require.NoError(t, err)

	signed, err := c.PresignedURL("GET", "b1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "300", mustQuery(t, signed).Get("X-Amz-Expires"))
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}
