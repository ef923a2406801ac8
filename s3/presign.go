package s3

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	signatureAlgorithm = "AWS4-HMAC-SHA256"
	serviceName        = "s3"
	dateTimeFormat     = "20060102T150405Z"
	dateFormat         = "20060102"
)

// presign builds a query-presigned URL per AWS Signature Version 4. Extra
// headers become part of the signed headers list and must accompany the
// eventual request.
func (c *Client) presign(method, bucket, object string, headers map[string]string) (string, error) {
	requestTime := c.now().UTC()
	dateStamp := requestTime.Format(dateFormat)
	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, c.region, serviceName)

	canonicalHeaders, signedHeaders := buildCanonicalHeaders(c.endpoint.Host, headers)

	query := url.Values{}
	query.Set("X-Amz-Algorithm", signatureAlgorithm)
	query.Set("X-Amz-Credential", c.accessKey+"/"+credentialScope)
	query.Set("X-Amz-Date", requestTime.Format(dateTimeFormat))
	query.Set("X-Amz-Expires", fmt.Sprintf("%d", c.expires))
	query.Set("X-Amz-SignedHeaders", signedHeaders)

	path := objectPath(bucket, object)

	canonicalRequest := strings.Join([]string{
		method,
		path,
		query.Encode(), // url.Values.Encode sorts keys, as SigV4 requires
		canonicalHeaders,
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	}, "\n")

	stringToSign := strings.Join([]string{
		signatureAlgorithm,
		requestTime.Format(dateTimeFormat),
		credentialScope,
		sha256Hash(canonicalRequest),
	}, "\n")

	signingKey := deriveSigningKey(c.secretKey, dateStamp, c.region, serviceName)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
	query.Set("X-Amz-Signature", signature)

	signed := *c.endpoint
	signed.Path = path
	signed.RawQuery = query.Encode()

	return signed.String(), nil
}

// objectPath builds the canonical path-style URI, escaping each key segment
// while preserving segment boundaries.
func objectPath(bucket, object string) string {
	segments := strings.Split(object, "/")
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + url.PathEscape(bucket) + "/" + strings.Join(escaped, "/")
}

// buildCanonicalHeaders returns the canonical headers block and the
// semicolon-joined signed headers list. Host is always signed.
func buildCanonicalHeaders(host string, headers map[string]string) (string, string) {
	names := make([]string, 0, len(headers)+1)
	values := make(map[string]string, len(headers)+1)

	names = append(names, "host")
	values["host"] = host

	for key, val := range headers {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "host" {
			continue
		}
		names = append(names, name)
		values[name] = strings.TrimSpace(val)
	}
	sort.Strings(names)

	var canonical strings.Builder
	for _, name := range names {
		canonical.WriteString(name)
		canonical.WriteString(":")
		canonical.WriteString(values[name])
		canonical.WriteString("\n")
	}

	return canonical.String(), strings.Join(names, ";")
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
