package ports

import "context"

// ProfileLocker serializes reconciliation passes over the same profile.
// Lock blocks until the key is free or ctx ends. The returned func releases it.
type ProfileLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
