package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds read-through staleness across processes.
const DefaultTTL = 5 * time.Minute

// Store is the read-through cache used by the repository layer. Keys are
// the same logical paths used for storage. Set and Invalidate are
// best-effort: a failing cache never fails the surrounding repository
// operation, it only costs a re-read.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context, key string)
}
