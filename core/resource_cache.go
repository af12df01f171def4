package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ResourceCache holds one expensive provider-derived resource (such as an
// RPC-capable transaction signer) tagged with the schema version and the
// provider epoch it was built under. A cached payload is served only while
// both tags still match; otherwise the build function runs again and the
// payload and tags are stored together, never one without the other.
type ResourceCache struct {
	mu         sync.Mutex
	payload    any
	versionTag string
	ownerEpoch uint64
	populated  bool
}

func NewResourceCache() *ResourceCache {
	return &ResourceCache{}
}

// Get returns the cached payload when the version tag and owning provider
// epoch are both current, rebuilding through build otherwise. The rebuild,
// payload store, and tag store happen under one lock so no reader can
// observe a payload with a stale tag.
func (c *ResourceCache) Get(
	ctx context.Context,
	build func(ctx context.Context) (any, error),
	expectedVersion string,
	ownerEpoch uint64,
) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("core: resource cache is not configured")
	}
	expectedVersion = strings.TrimSpace(expectedVersion)
	if expectedVersion == "" {
		return nil, fmt.Errorf("core: resource version tag is required")
	}
	if build == nil {
		return nil, fmt.Errorf("core: resource build function is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated && c.versionTag == expectedVersion && c.ownerEpoch == ownerEpoch {
		return c.payload, nil
	}

	payload, err := build(ctx)
	if err != nil {
		return nil, err
	}
	c.payload = payload
	c.versionTag = expectedVersion
	c.ownerEpoch = ownerEpoch
	c.populated = true
	return payload, nil
}

// Invalidate clears the payload and both tags; called on disconnect and on
// provider switch.
func (c *ResourceCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.payload = nil
	c.versionTag = ""
	c.ownerEpoch = 0
	c.populated = false
	c.mu.Unlock()
}

// VersionTag reports the tag of the cached payload, or "" when empty.
func (c *ResourceCache) VersionTag() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versionTag
}

// Populated reports whether a payload is currently cached.
func (c *ResourceCache) Populated() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populated
}
