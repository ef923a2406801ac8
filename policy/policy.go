// Package policy implements the storgate.Authorizer interface over HTTP:
// each audience maps to a policy-engine endpoint queried per request, with
// an optional in-process decision cache.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/storgate/storgate"
)

// Config configures policy clients, keyed by audience.
type Config struct {
	Endpoints map[string]EndpointConfig `mapstructure:"endpoints" validate:"dive"`
	Cache     CacheConfig               `mapstructure:"cache"`
}

// EndpointConfig describes one audience's policy-engine endpoint.
type EndpointConfig struct {
	URI     string        `mapstructure:"uri" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig enables the in-process decision cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

const (
	defaultTimeout   = 5 * time.Second
	defaultCacheSize = 10000
	defaultCacheTTL  = 30 * time.Second
)

// ClientMap routes authorization requests to per-audience endpoints. It is
// immutable after construction and safe for concurrent use.
type ClientMap struct {
	id      string
	clients map[string]*client
	cache   *expirable.LRU[string, bool]
}

type client struct {
	uri   string
	token string
	httpc *http.Client
}

// NewClientMap builds the authorizer. id is the application identity sent
// with every policy request.
func NewClientMap(id string, cfg Config) (*ClientMap, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no policy endpoints configured")
	}

	clients := make(map[string]*client, len(cfg.Endpoints))
	for audience, ec := range cfg.Endpoints {
		timeout := ec.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		clients[audience] = &client{
			uri:   ec.URI,
			token: ec.Token,
			httpc: &http.Client{Timeout: timeout},
		}
	}

	var cache *expirable.LRU[string, bool]
	if cfg.Cache.Enabled {
		size := cfg.Cache.Size
		if size <= 0 {
			size = defaultCacheSize
		}
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		cache = expirable.NewLRU[string, bool](size, nil, ttl)
	}

	return &ClientMap{id: id, clients: clients, cache: cache}, nil
}

// Audiences returns the configured audience names. The audience estimator
// is built from this list so that every estimable bucket has a policy
// endpoint behind it.
func (m *ClientMap) Audiences() []string {
	auds := make([]string, 0, len(m.clients))
	for aud := range m.clients {
		auds = append(auds, aud)
	}
	return auds
}

type authzRequest struct {
	Subject string   `json:"subject"`
	Object  []string `json:"object"`
	Action  string   `json:"action"`
}

type authzResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Authorize queries the audience's policy endpoint. A deny wraps
// storgate.ErrPolicyDenied; any other error is a transport failure.
func (m *ClientMap) Authorize(ctx context.Context, audience string, sub storgate.Subject, object []string, action storgate.Action) error {
	c, ok := m.clients[audience]
	if !ok {
		return fmt.Errorf("no policy endpoint for audience '%s'", audience)
	}

	key := cacheKey(audience, sub, object, action)
	if m.cache != nil {
		if allowed, hit := m.cache.Get(key); hit {
			if allowed {
				return nil
			}
			return fmt.Errorf("%w (cached)", storgate.ErrPolicyDenied)
		}
	}

	resp, err := c.authorize(ctx, authzRequest{
		Subject: sub.ID(),
		Object:  object,
		Action:  string(action),
	})
	if err != nil {
		// Transport failures are never cached.
		return err
	}

	if m.cache != nil {
		m.cache.Add(key, resp.Allowed)
	}

	if !resp.Allowed {
		if resp.Reason != "" {
			return fmt.Errorf("%w: %s", storgate.ErrPolicyDenied, resp.Reason)
		}
		return storgate.ErrPolicyDenied
	}

	return nil
}

func (c *client) authorize(ctx context.Context, payload authzRequest) (authzResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return authzResponse{}, fmt.Errorf("encode authz request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(body))
	if err != nil {
		return authzResponse{}, fmt.Errorf("build authz request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return authzResponse{}, fmt.Errorf("authz request: %w", err)
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return authzResponse{}, fmt.Errorf("authz request: unexpected status %d", resp.StatusCode)
	}

	var decoded authzResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return authzResponse{}, fmt.Errorf("decode authz response: %w", err)
	}

	return decoded, nil
}

func cacheKey(audience string, sub storgate.Subject, object []string, action storgate.Action) string {
	return audience + "|" + sub.ID() + "|" + strings.Join(object, "/") + "|" + string(action)
}
