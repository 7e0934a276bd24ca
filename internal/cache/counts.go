package cache

import (
	"context"
	"fmt"
	"time"
)

const countTTL = 5 * time.Minute

// ContactCounts caches the unfiltered size of each contact listing scope.
type ContactCounts struct {
	h *Helper
}

func NewContactCounts(h *Helper) *ContactCounts {
	return &ContactCounts{h: h}
}

func allKey() string { return "contacts:total:all" }

func ownerKey(ownerID uint) string { return fmt.Sprintf("contacts:total:owner:%d", ownerID) }

// ScopeKey names the cached count for a listing scope.
func ScopeKey(all bool, ownerID uint) string {
	if all {
		return allKey()
	}
	return ownerKey(ownerID)
}

// Get returns the cached count or loads and stores it.
func (cc *ContactCounts) Get(ctx context.Context, key string, load func() (int64, error)) (int64, error) {
	var n int64
	if err := cc.h.Get(ctx, key, &n); err == nil {
		return n, nil
	}
	n, err := load()
	if err != nil {
		return 0, err
	}
	// a failed write only costs a recount
	_ = cc.h.Set(ctx, key, n, countTTL)
	return n, nil
}

// Invalidate drops the counts a change to ownerID's contacts affects.
func (cc *ContactCounts) Invalidate(ctx context.Context, ownerID uint) error {
	return cc.h.Delete(ctx, allKey(), ownerKey(ownerID))
}
