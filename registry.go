package storgate

// DefaultBackend is the backend alias used when a request does not name one.
const DefaultBackend = "default"

// BackendClient is the capability a storage backend must provide: producing
// presigned URLs for simple GET redirects and fully signed requests for the
// generic sign endpoint. Implementations live in the s3 package.
type BackendClient interface {
	// PresignedURL returns a time-limited URL for the given method, bucket
	// and object key.
	PresignedURL(method, bucket, object string) (string, error)

	// SignRequest returns a signed URI for an arbitrary method with extra
	// headers embedded in the signature.
	SignRequest(method, bucket, object string, headers map[string]string) (string, error)
}

// Registry is a named, immutable collection of backend clients shared
// read-only across requests.
type Registry struct {
	backends map[string]BackendClient
}

// NewRegistry builds a registry from an alias-to-client mapping.
func NewRegistry(backends map[string]BackendClient) *Registry {
	m := make(map[string]BackendClient, len(backends))
	for alias, c := range backends {
		m[alias] = c
	}
	return &Registry{backends: m}
}

// Resolve looks up a backend client by alias. Absence yields a 404-mapped
// error carrying the unresolved alias.
func (r *Registry) Resolve(alias string) (BackendClient, error) {
	c, ok := r.backends[alias]
	if !ok {
		return nil, errBackendNotFound(alias)
	}
	return c, nil
}
