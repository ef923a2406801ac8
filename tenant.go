package storgate

import (
	"net/url"
	"strings"
)

// TenantSettings holds per-audience settings loaded once at startup.
type TenantSettings struct {
	// AllowedReferers restricts which HTTP Referer values may invoke
	// set-scoped and sign requests. An entry is an origin
	// ("https://app.example.org") or a wildcard host pattern
	// ("https://*.example.org"). Empty means no restriction.
	AllowedReferers []string `mapstructure:"allowed_referers"`
}

// ValidReferer reports whether a request referer satisfies the tenant
// policy. The referer is compared by origin, so deep links pass as long as
// their origin is allowed. With a non-empty allowlist an absent referer is
// rejected.
func (s TenantSettings) ValidReferer(referer string) bool {
	if len(s.AllowedReferers) == 0 {
		return true
	}
	if referer == "" {
		return false
	}

	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	for _, pattern := range s.AllowedReferers {
		if matchOrigin(pattern, u.Scheme, u.Host) {
			return true
		}
	}
	return false
}

func matchOrigin(pattern, scheme, host string) bool {
	p, err := url.Parse(pattern)
	if err != nil || p.Scheme != scheme {
		return false
	}

	if wild, ok := strings.CutPrefix(p.Host, "*."); ok {
		return host == wild || strings.HasSuffix(host, "."+wild)
	}
	return p.Host == host
}
