package authn_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storgate/storgate"
	"github.com/storgate/storgate/authn"
)

const (
	testAudience = "example.org"
	testKey      = "token-secret"
)

func mintToken(t *testing.T, key string, claims jwt.RegisteredClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return raw
}

func baseClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerify(t *testing.T) {
	v := authn.NewVerifier(authn.ConfigMap{testAudience: {Key: testKey}})

	sub, err := v.Verify(mintToken(t, testKey, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, storgate.Subject{Account: "u1", Audience: testAudience}, sub)
}

func TestVerifyRejections(t *testing.T) {
	v := authn.NewVerifier(authn.ConfigMap{testAudience: {Key: testKey}})

	t.Run("wrong key", func(t *testing.T) {
		_, err := v.Verify(mintToken(t, "other-secret", baseClaims()))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("unknown audience", func(t *testing.T) {
		claims := baseClaims()
		claims.Audience = jwt.ClaimStrings{"other.net"}
		_, err := v.Verify(mintToken(t, testKey, claims))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("missing audience", func(t *testing.T) {
		claims := baseClaims()
		claims.Audience = nil
		_, err := v.Verify(mintToken(t, testKey, claims))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := baseClaims()
		claims.Subject = ""
		_, err := v.Verify(mintToken(t, testKey, claims))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := baseClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.Verify(mintToken(t, testKey, claims))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims()).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(raw)
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})
}

func TestVerifyIssuer(t *testing.T) {
	v := authn.NewVerifier(authn.ConfigMap{
		testAudience: {Key: testKey, Issuer: "https://idp.example.org"},
	})

	t.Run("matching issuer", func(t *testing.T) {
		claims := baseClaims()
		claims.Issuer = "https://idp.example.org"
		sub, err := v.Verify(mintToken(t, testKey, claims))
		require.NoError(t, err)
		assert.Equal(t, "u1", sub.Account)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		claims := baseClaims()
		claims.Issuer = "https://other-idp.example"
		_, err := v.Verify(mintToken(t, testKey, claims))
		assert.ErrorIs(t, err, authn.ErrInvalidToken)
	})
}

func TestVerifyPerAudienceKeys(t *testing.T) {
	v := authn.NewVerifier(authn.ConfigMap{
		testAudience: {Key: testKey},
		"other.net":  {Key: "other-secret"},
	})

	claims := baseClaims()
	claims.Audience = jwt.ClaimStrings{"other.net"}

	sub, err := v.Verify(mintToken(t, "other-secret", claims))
	require.NoError(t, err)
	assert.Equal(t, "other.net", sub.Audience)

	// The key is selected by the aud claim, not tried across audiences.
	_, err = v.Verify(mintToken(t, testKey, claims))
	assert.ErrorIs(t, err, authn.ErrInvalidToken)
}
