// Package http provides the REST surface of the storage gateway.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/v1/buckets/{bucket}/objects/{object}
//	GET  /api/v1/backends/{back}/buckets/{bucket}/objects/{object}
//	GET  /api/v1/buckets/{bucket}/sets/{set}/objects/{object}
//	GET  /api/v1/backends/{back}/buckets/{bucket}/sets/{set}/objects/{object}
//	POST /api/v1/sign
//	POST /api/v1/backends/{back}/sign
//	GET  /api/v1/buckets/{bucket}/sets        (only with a metadata database)
//
// Successful object and set reads answer 303 See Other with the presigned
// URL in Location. The sign endpoint answers 200 with {"uri": "..."} since
// callers may need to attach a request body to the signed request. Errors
// are JSON bodies of the form {"kind": "...", "detail": "..."} with the
// gateway's status mapping.
//
// Authentication is a bearer token resolved by AuthMiddleware through a
// TokenVerifier; requests without a token proceed as anonymous and the
// gateway decides whether that is acceptable.
package http
