package storgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storgate/storgate"
)

func TestAudienceEstimator(t *testing.T) {
	estm := storgate.NewAudienceEstimator([]string{"example.org", "staging.example.org", "other.net"})

	tt := []struct {
		Name   string
		Bucket string
		Want   string
		Err    bool
	}{
		{Name: "label prefix", Bucket: "origin.example.org", Want: "example.org"},
		{Name: "bare audience", Bucket: "example.org", Want: "example.org"},
		{Name: "most specific wins", Bucket: "origin.staging.example.org", Want: "staging.example.org"},
		{Name: "second audience", Bucket: "uploads.other.net", Want: "other.net"},
		{Name: "no match", Bucket: "unknown.bucket", Err: true},
		{Name: "substring is not a suffix", Bucket: "fooexample.org", Err: true},
		{Name: "empty bucket", Bucket: "", Err: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			aud, err := estm.Estimate(tc.Bucket)
			if tc.Err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Want, aud)
		})
	}
}

func TestAudienceEstimatorDeterministic(t *testing.T) {
	// Same configuration in a different order resolves identically.
	a := storgate.NewAudienceEstimator([]string{"example.org", "staging.example.org"})
	b := storgate.NewAudienceEstimator([]string{"staging.example.org", "example.org"})

	for _, bucket := range []string{"x.example.org", "x.staging.example.org", "staging.example.org"} {
		audA, errA := a.Estimate(bucket)
		audB, errB := b.Estimate(bucket)
		assert.NoError(t, errA)
		assert.NoError(t, errB)
		assert.Equal(t, audA, audB, "bucket %s", bucket)
	}
}
