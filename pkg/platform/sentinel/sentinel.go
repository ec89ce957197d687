package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrAlreadyExists: a uniqueness constraint rejected the write
// - ErrStaleWrite: optimistic version check failed, caller must re-read
// - ErrUnavailable: storage temporarily unreachable
//
// For validation errors (bad input, illegal transitions), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStaleWrite    = errors.New("stale write")
	ErrUnavailable   = errors.New("unavailable")
)
