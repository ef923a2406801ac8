package storgate

import (
	"context"
	"fmt"
	"net/http"
)

// Authorizer is the external policy oracle queried with an audience, a
// subject, a resource path and an action. A nil return means allow. A deny
// is reported as an error wrapping ErrPolicyDenied; anything else is a
// transport failure. The call may block on network I/O and honors ctx.
type Authorizer interface {
	Authorize(ctx context.Context, audience string, subject Subject, object []string, action Action) error
}

// ObjectRequest describes a read of a single object.
type ObjectRequest struct {
	Backend string // empty selects DefaultBackend
	Bucket  string
	Object  string
	Subject *Subject
}

// SetObjectRequest describes a read of an object inside a numeric set.
type SetObjectRequest struct {
	Backend string
	Bucket  string
	Set     string
	Object  string
	Subject *Subject
	Referer string
}

// SignRequest describes a generic signed-request issuance for an arbitrary
// method with extra headers embedded in the signature.
type SignRequest struct {
	Backend string
	Bucket  string
	Set     string // optional; must be a valid set id when present
	Object  string
	Method  string
	Headers map[string]string
	Subject *Subject
	Referer string
}

// Gateway drives the authorize-and-sign pipeline. All of its collaborators
// are immutable after construction and shared across concurrent requests.
type Gateway struct {
	backends  *Registry
	estimator *AudienceEstimator
	tenants   map[string]TenantSettings
	authz     Authorizer

	// authzWriteOnly skips policy authorization on read paths entirely. It
	// is a coarse operational override, opted into explicitly through
	// configuration and injected here, never read from process globals.
	authzWriteOnly bool
}

// GatewayConfig holds gateway construction options.
type GatewayConfig struct {
	AuthzWriteOnly bool
}

// NewGateway wires the pipeline together.
func NewGateway(backends *Registry, estimator *AudienceEstimator, tenants map[string]TenantSettings, authz Authorizer, cfg GatewayConfig) *Gateway {
	return &Gateway{
		backends:       backends,
		estimator:      estimator,
		tenants:        tenants,
		authz:          authz,
		authzWriteOnly: cfg.AuthzWriteOnly,
	}
}

// ReadObject authorizes a single-object read and returns a presigned GET
// URL for it.
func (g *Gateway) ReadObject(ctx context.Context, req ObjectRequest) (string, error) {
	backend, err := g.backends.Resolve(aliasOrDefault(req.Backend))
	if err != nil {
		return "", err
	}

	if g.authzWriteOnly {
		return g.presign(backend, req.Bucket, req.Object)
	}

	if req.Subject == nil {
		return "", errMissingSubject()
	}

	audience, err := g.estimator.Estimate(req.Bucket)
	if err != nil {
		// Plain object reads surface estimation failures as 403, unlike
		// the set and sign paths which 404 on the same condition. Clients
		// depend on both mappings.
		return "", WrapError(KindAudienceNotFound, http.StatusForbidden, err.Error(), err)
	}

	if err := g.authorize(ctx, audience, *req.Subject, ObjectPath(req.Bucket, req.Object), ActionRead); err != nil {
		return "", err
	}

	return g.presign(backend, req.Bucket, req.Object)
}

// ReadSetObject authorizes a set-scoped read and returns a presigned GET
// URL for the composite object key.
func (g *Gateway) ReadSetObject(ctx context.Context, req SetObjectRequest) (string, error) {
	backend, err := g.backends.Resolve(aliasOrDefault(req.Backend))
	if err != nil {
		return "", err
	}

	if !ValidSetID(req.Set) {
		return "", errInvalidSetID()
	}

	// Referer policy applies even in write-only-authorization mode.
	if err := g.checkReferer(req.Bucket, req.Referer); err != nil {
		return "", err
	}

	if g.authzWriteOnly {
		return g.presign(backend, req.Bucket, SetObjectKey(req.Set, req.Object))
	}

	if req.Subject == nil {
		return "", errMissingSubject()
	}

	audience, err := g.estimator.Estimate(req.Bucket)
	if err != nil {
		return "", WrapError(KindAudienceNotFound, http.StatusForbidden, err.Error(), err)
	}

	if err := g.authorize(ctx, audience, *req.Subject, SetPath(req.Bucket, req.Set), ActionRead); err != nil {
		return "", err
	}

	return g.presign(backend, req.Bucket, SetObjectKey(req.Set, req.Object))
}

// Sign authorizes and signs an arbitrary request, returning the signed URI.
// Unlike the read paths the signed URI is built before the policy check;
// any failure after that point discards it, so a signed value never reaches
// a denied caller.
func (g *Gateway) Sign(ctx context.Context, req SignRequest) (string, error) {
	backend, err := g.backends.Resolve(aliasOrDefault(req.Backend))
	if err != nil {
		return "", err
	}

	if req.Set != "" && !ValidSetID(req.Set) {
		return "", errInvalidSetID()
	}

	if err := g.checkReferer(req.Bucket, req.Referer); err != nil {
		return "", err
	}

	object := req.Object
	zobj := ObjectPath(req.Bucket, req.Object)
	if req.Set != "" {
		object = SetObjectKey(req.Set, req.Object)
		zobj = SetPath(req.Bucket, req.Set)
	}

	action, err := ParseAction(req.Method)
	if err != nil {
		return "", WrapError(KindInvalidMethod, http.StatusForbidden, err.Error(), err)
	}

	uri, err := backend.SignRequest(req.Method, req.Bucket, object, req.Headers)
	if err != nil {
		return "", errSigningFailed(err)
	}

	audience, err := g.estimator.Estimate(req.Bucket)
	if err != nil {
		return "", WrapError(KindAudienceNotFound, http.StatusForbidden, err.Error(), err)
	}

	if req.Subject == nil {
		return "", errMissingSubject()
	}

	if err := g.authorize(ctx, audience, *req.Subject, zobj, action); err != nil {
		return "", err
	}

	return uri, nil
}

// checkReferer enforces the tenant referer policy for set and sign
// requests. Configuration gaps (unknown audience, missing settings) fail
// closed with 404 so operators can tell them apart from policy denies.
func (g *Gateway) checkReferer(bucket, referer string) error {
	audience, err := g.estimator.Estimate(bucket)
	if err != nil {
		return WrapError(KindAudienceNotFound, http.StatusNotFound,
			fmt.Sprintf("Audience estimate for bucket '%s' not found", bucket), err)
	}

	settings, ok := g.tenants[audience]
	if !ok {
		return NewError(KindTenantSettingsNotFound, http.StatusNotFound,
			fmt.Sprintf("Audience settings for bucket '%s' not found", bucket))
	}

	if !settings.ValidReferer(referer) {
		return NewError(KindRefererRejected, http.StatusForbidden, "Invalid request")
	}

	return nil
}

// authorize queries the policy engine. Denies and transport failures both
// surface as 403 to the caller; the HTTP layer logs them apart since a
// transport failure is an operational signal and a deny is an expected
// outcome. The wrapped cause keeps ErrPolicyDenied reachable via errors.Is.
func (g *Gateway) authorize(ctx context.Context, audience string, sub Subject, object []string, action Action) error {
	err := g.authz.Authorize(ctx, audience, sub, object, action)
	if err == nil {
		return nil
	}
	return WrapError(KindAccessDenied, http.StatusForbidden, err.Error(), err)
}

func (g *Gateway) presign(backend BackendClient, bucket, object string) (string, error) {
	uri, err := backend.PresignedURL("GET", bucket, object)
	if err != nil {
		return "", errSigningFailed(err)
	}
	return uri, nil
}

func aliasOrDefault(alias string) string {
	if alias == "" {
		return DefaultBackend
	}
	return alias
}
