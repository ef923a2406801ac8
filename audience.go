package storgate

import (
	"fmt"
	"sort"
	"strings"
)

// AudienceEstimator derives a tenant identifier ("audience") from a bucket
// name. Buckets are named "<label>.<audience>" (for example
// "origin.webinar.example.org" belongs to "webinar.example.org"), or carry
// the bare audience name. Estimation is a pure function of the bucket name
// and the configured audience list; an unknown bucket is an error, never a
// default.
type AudienceEstimator struct {
	// audiences sorted longest-first so that nested audiences
	// ("staging.example.org" vs "example.org") resolve to the most
	// specific match.
	audiences []string
}

// NewAudienceEstimator builds an estimator over the configured audiences.
func NewAudienceEstimator(audiences []string) *AudienceEstimator {
	auds := make([]string, len(audiences))
	copy(auds, audiences)
	sort.Slice(auds, func(i, j int) bool {
		if len(auds[i]) != len(auds[j]) {
			return len(auds[i]) > len(auds[j])
		}
		return auds[i] < auds[j]
	})
	return &AudienceEstimator{audiences: auds}
}

// Estimate resolves the audience for a bucket name.
func (e *AudienceEstimator) Estimate(bucket string) (string, error) {
	for _, aud := range e.audiences {
		if bucket == aud || strings.HasSuffix(bucket, "."+aud) {
			return aud, nil
		}
	}
	return "", fmt.Errorf("no audience matches bucket '%s'", bucket)
}
