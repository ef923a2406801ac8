package storgate

import (
	"fmt"
	"strconv"
)

// Subject is an authenticated caller identity. Requests without a valid
// access token carry no subject; the gateway treats that as anonymous.
type Subject struct {
	Account  string
	Audience string
}

// ID returns the canonical "account.audience" form used in policy requests
// and logs.
func (s Subject) ID() string {
	return s.Account + "." + s.Audience
}

// Action is the policy-engine verb derived from an HTTP method.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction maps an HTTP method to a policy action. Only HEAD, GET, PUT
// and DELETE are signable through the gateway.
func ParseAction(method string) (Action, error) {
	switch method {
	case "HEAD", "GET":
		return ActionRead, nil
	case "PUT":
		return ActionUpdate, nil
	case "DELETE":
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("invalid method = %s", method)
	}
}

// ValidSetID reports whether a set identifier belongs to the numeric
// generation exposed through this API. Non-numeric ids are newer-generation
// sets and must not be reachable here.
func ValidSetID(set string) bool {
	if set == "" {
		return false
	}
	_, err := strconv.ParseUint(set, 10, 64)
	return err == nil
}

// SetObjectKey builds the storage-level key for an object inside a set. The
// set id is prefixed onto the bare object name; this composite key, not the
// (set, object) pair, is what gets signed.
func SetObjectKey(set, object string) string {
	return set + "." + object
}

// ObjectPath is the policy resource path for a bare object.
func ObjectPath(bucket, object string) []string {
	return []string{"buckets", bucket, "objects", object}
}

// SetPath is the policy resource path for set-scoped access. Authorization
// is granted per set, not per object within it.
func SetPath(bucket, set string) []string {
	return []string{"buckets", bucket, "sets", set}
}
