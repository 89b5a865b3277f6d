package storage

import (
	"context"
	"errors"

	"github.com/brightpath/learning-core/internal/lcerr"
)

// Options scopes an operation to a logical namespace.
type Options struct {
	// Owner is the owning user id for owner-scoped entities; empty for
	// global entities such as scenarios.
	Owner string
}

// Backend is the narrow per-medium persistence contract. Keys are logical
// paths ("{owner}/programs/{id}", "scenarios/{id}", ...). Save is an
// idempotent overwrite of the same key. List returns every value under a
// key prefix with no guaranteed order unless the implementation documents
// one; callers sort when order matters.
//
// Implementations wrap medium-specific failures into lcerr codes
// (storage_unavailable, storage_timeout) before returning, so upper layers
// never see backend-specific error types.
type Backend interface {
	Save(ctx context.Context, key string, value []byte, opts Options) error
	Load(ctx context.Context, key string, opts Options) ([]byte, bool, error)
	Delete(ctx context.Context, key string, opts Options) error
	List(ctx context.Context, prefix string, opts Options) ([][]byte, error)
	Name() string
}

// wrapErr translates a raw backend error. Context expiry becomes
// storage_timeout ("outcome unknown" for the caller); everything else is
// storage_unavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return lcerr.Wrap(lcerr.CodeStorageTimeout, op, err)
	}
	return lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
}
