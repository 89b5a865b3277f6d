package repos

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/brightpath/learning-core/internal/cache"
	"github.com/brightpath/learning-core/internal/lcerr"
	"github.com/brightpath/learning-core/internal/logger"
	"github.com/brightpath/learning-core/internal/storage"
)

// store is the shared base under every repository: JSON codec, cache
// read-through keyed by the storage key, synchronous invalidation on every
// write, and translation of anything the backend reports into the domain
// error taxonomy (backends already wrap their own errors, the base only
// adds the repository operation name).
type store[T any] struct {
	backend storage.Backend
	cache   cache.Store
	log     *logger.Logger
}

func (s *store[T]) load(ctx context.Context, op, key string, opts storage.Options) (*T, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			entity := new(T)
			if err := json.Unmarshal(raw, entity); err == nil {
				return entity, nil
			}
			// Undecodable cache entries are dropped, not surfaced.
			s.cache.Invalidate(ctx, key)
		}
	}

	raw, ok, err := s.backend.Load(ctx, key, opts)
	if err != nil {
		return nil, lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
	}
	if !ok {
		return nil, lcerr.New(lcerr.CodeNotFound, op, "no record under "+key)
	}
	entity := new(T)
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, raw)
	}
	return entity, nil
}

func (s *store[T]) save(ctx context.Context, op, key string, opts storage.Options, entity *T) error {
	raw, err := json.Marshal(entity)
	if err != nil {
		return lcerr.Wrap(lcerr.CodeValidation, op, err)
	}
	if err := s.backend.Save(ctx, key, raw, opts); err != nil {
		return lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
	}
	if s.cache != nil {
		// Synchronous, same-call invalidation: a reader on this process
		// never sees the pre-write value after save returns.
		s.cache.Invalidate(ctx, key)
	}
	return nil
}

func (s *store[T]) remove(ctx context.Context, op, key string, opts storage.Options) error {
	if err := s.backend.Delete(ctx, key, opts); err != nil {
		return lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, key)
	}
	return nil
}

func (s *store[T]) list(ctx context.Context, op, prefix string, opts storage.Options) ([]*T, error) {
	raws, err := s.backend.List(ctx, prefix, opts)
	if err != nil {
		return nil, lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
	}
	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		entity := new(T)
		if err := json.Unmarshal(raw, entity); err != nil {
			return nil, lcerr.Wrap(lcerr.CodeStorageUnavailable, op, err)
		}
		out = append(out, entity)
	}
	return out, nil
}

// sequence hands out the strictly increasing insertion ids used to break
// CreatedAt ties on append-only records. Process-local by design: within
// one process it totally orders appends even when the clock stalls.
type sequence struct {
	n atomic.Uint64
}

func (s *sequence) next() uint64 {
	return s.n.Add(1)
}
