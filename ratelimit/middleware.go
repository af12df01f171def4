package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/conduit-ucpi/walletauth/core"
)

// ThrottledAdapter wraps a transport adapter with the adaptive policy:
// calls into a throttled bucket fail fast with a rate limited error, and
// every response feeds the bucket state.
type ThrottledAdapter struct {
	next   core.TransportAdapter
	policy *AdaptivePolicy
}

func NewThrottledAdapter(next core.TransportAdapter, policy *AdaptivePolicy) (*ThrottledAdapter, error) {
	if next == nil {
		return nil, fmt.Errorf("ratelimit: transport adapter is required")
	}
	if policy == nil {
		policy = NewAdaptivePolicy(NewMemoryStateStore())
	}
	return &ThrottledAdapter{next: next, policy: policy}, nil
}

func (a *ThrottledAdapter) Kind() string {
	if a == nil || a.next == nil {
		return ""
	}
	return a.next.Kind()
}

func (a *ThrottledAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.next == nil {
		return core.TransportResponse{}, fmt.Errorf("ratelimit: throttled adapter is not configured")
	}
	key := RequestKey(req)
	if err := a.policy.BeforeCall(ctx, key); err != nil {
		var throttled ThrottledError
		if errors.As(err, &throttled) {
			return core.TransportResponse{}, throttled.ToAuthError()
		}
		return core.TransportResponse{}, err
	}

	res, err := a.next.Do(ctx, req)
	if err != nil {
		return res, err
	}
	if stateErr := a.policy.AfterCall(ctx, key, res); stateErr != nil {
		return res, stateErr
	}
	return res, nil
}

// RequestKey buckets by backend host and the first path segment, so login
// and identity endpoints throttle independently.
func RequestKey(req core.TransportRequest) Key {
	parsed, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return Key{Bucket: "default"}
	}
	bucket := "default"
	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed != "" {
		bucket = strings.SplitN(trimmed, "/", 2)[0]
	}
	return normalizeKey(Key{Host: parsed.Host, Bucket: bucket})
}

var _ core.TransportAdapter = (*ThrottledAdapter)(nil)
