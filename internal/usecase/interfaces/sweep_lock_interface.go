package interfaces

import (
	"context"
	"time"
)

// ISweepLock grants a short exclusive lease so that only one reconciliation
// sweep runs at a time across instances.
type ISweepLock interface {
	// Acquire returns ok=false without error when another holder owns the
	// lease. release is non-nil only when ok is true.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}
