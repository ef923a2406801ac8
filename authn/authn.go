// Package authn turns bearer tokens into authenticated subjects. Tokens are
// HS256 JWTs issued per audience; the token's aud claim selects the
// verification key.
package authn

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storgate/storgate"
)

// Config holds one audience's token verification parameters.
type Config struct {
	// Key is the shared HS256 secret.
	Key string `mapstructure:"key" validate:"required"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `mapstructure:"issuer"`
}

// ConfigMap maps audience to verification config.
type ConfigMap map[string]Config

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// Verifier validates bearer tokens against the per-audience key map.
// Immutable after construction.
type Verifier struct {
	configs ConfigMap
	parser  *jwt.Parser
}

// NewVerifier builds a verifier over the configured audiences.
func NewVerifier(configs ConfigMap) *Verifier {
	return &Verifier{
		configs: configs,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Verify checks a raw token and returns the subject it authenticates. The
// aud claim must name a configured audience and the sub claim carries the
// account label.
func (v *Verifier) Verify(rawToken string) (storgate.Subject, error) {
	var claims jwt.RegisteredClaims

	_, err := v.parser.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (any, error) {
		aud, err := audienceClaim(token.Claims)
		if err != nil {
			return nil, err
		}
		cfg, ok := v.configs[aud]
		if !ok {
			return nil, fmt.Errorf("unknown audience '%s'", aud)
		}
		return []byte(cfg.Key), nil
	})
	if err != nil {
		return storgate.Subject{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	aud, err := audienceClaim(&claims)
	if err != nil {
		return storgate.Subject{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return storgate.Subject{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	if issuer := v.configs[aud].Issuer; issuer != "" && claims.Issuer != issuer {
		return storgate.Subject{}, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}

	return storgate.Subject{Account: claims.Subject, Audience: aud}, nil
}

func audienceClaim(claims jwt.Claims) (string, error) {
	auds, err := claims.GetAudience()
	if err != nil || len(auds) == 0 {
		return "", errors.New("missing aud claim")
	}
	return auds[0], nil
}
