// Package storgate provides the core of an object-storage access gateway:
// it authorizes HTTP requests against a policy engine and answers with
// time-limited signed URLs pointing at an S3-compatible backend.
//
// The gateway never proxies object bytes. A request names a bucket and an
// object (optionally inside a numeric set), the gateway decides whether the
// caller may perform the operation, and on success hands back a presigned
// URL (as a redirect for reads, or as a JSON payload for the generic sign
// endpoint).
//
// # Key Components
//
//   - Gateway: the request pipeline (resolve backend, validate shape,
//     estimate audience, check referer, authorize, sign)
//   - Registry: named collection of storage backend clients
//   - AudienceEstimator: derives a tenant ("audience") from a bucket name
//   - TenantSettings: per-audience settings, currently allowed referers
//   - Authorizer: external policy oracle interface (see the policy package)
//   - BackendClient: capability interface implemented by the s3 package
//
// See the http package for the REST surface and cmd/storgate for the server
// binary.
package storgate
