package inbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	EventSessionRevoked  = "session_revoked"
	EventSessionExtended = "session_extended"
	EventTokenRotated    = "token_rotated"
)

// Notification is one push delivery from the backend. Payload carries the
// raw body the signature was computed over.
type Notification struct {
	Source     string
	Event      string
	DeliveryID string
	Headers    map[string]string
	Payload    []byte
	Metadata   map[string]any
}

type Result struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

type Handler interface {
	Event() string
	Handle(ctx context.Context, notification Notification) (Result, error)
}

type Verifier interface {
	Verify(ctx context.Context, notification Notification) error
}

// ClaimStore tracks in-flight deliveries. Claim returns accepted=false for
// duplicates; Fail reopens the key so a retry can claim it again.
type ClaimStore interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, accepted bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error
}

type KeyExtractor func(notification Notification) (string, error)

type Dispatcher struct {
	Verifier   Verifier
	Store      ClaimStore
	ExtractKey KeyExtractor
	KeyTTL     time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher(verifier Verifier, store ClaimStore) *Dispatcher {
	return &Dispatcher{
		Verifier:   verifier,
		Store:      store,
		ExtractKey: DefaultKeyExtractor,
		KeyTTL:     10 * time.Minute,
		handlers:   map[string]Handler{},
	}
}

func (d *Dispatcher) Register(handler Handler) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", nil)
	}
	event := normalizeEvent(handler.Event())
	if !isSupportedEvent(event) {
		return inboundBadInput(
			fmt.Sprintf("inbound: unsupported event %q", event),
			map[string]any{"event": event},
		)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[event]; exists {
		return fmt.Errorf("inbound: handler already registered for event %q", event)
	}
	d.handlers[event] = handler
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, notification Notification) (Result, error) {
	if d == nil {
		return Result{}, inboundInternal("inbound: dispatcher is nil", nil)
	}
	notification.Source = strings.TrimSpace(notification.Source)
	notification.Event = normalizeEvent(notification.Event)
	if notification.Source == "" {
		return Result{}, inboundBadInput("inbound: notification source is required", map[string]any{
			"event": notification.Event,
		})
	}
	if !isSupportedEvent(notification.Event) {
		return Result{}, inboundBadInput(
			fmt.Sprintf("inbound: unsupported event %q", notification.Event),
			map[string]any{"source": notification.Source, "event": notification.Event},
		)
	}
	if d.Verifier != nil {
		if err := d.Verifier.Verify(ctx, notification); err != nil {
			return Result{
					Accepted:   false,
					StatusCode: http.StatusUnauthorized,
					Metadata: map[string]any{
						"source":   notification.Source,
						"event":    notification.Event,
						"rejected": true,
					},
				}, inboundWrapError(
					err,
					goerrors.CategoryAuth,
					"inbound: notification verification failed",
					http.StatusUnauthorized,
					map[string]any{"source": notification.Source, "event": notification.Event},
				)
		}
	}

	claimID := ""
	if d.Store != nil {
		extractor := d.ExtractKey
		if extractor == nil {
			extractor = DefaultKeyExtractor
		}
		key, err := extractor(notification)
		if err != nil {
			return Result{}, inboundWrapError(
				err,
				goerrors.CategoryBadInput,
				"inbound: resolve delivery key",
				http.StatusBadRequest,
				map[string]any{"source": notification.Source, "event": notification.Event},
			)
		}
		var accepted bool
		claimID, accepted, err = d.Store.Claim(ctx, notification.Source+":"+notification.Event+":"+key, d.keyTTL())
		if err != nil {
			return Result{}, inboundWrapError(
				err,
				goerrors.CategoryOperation,
				"inbound: delivery claim failed",
				http.StatusInternalServerError,
				map[string]any{
					"source": notification.Source,
					"event":  notification.Event,
					"key":    key,
				},
			)
		}
		if !accepted {
			return Result{
				Accepted:   true,
				StatusCode: http.StatusOK,
				Metadata: map[string]any{
					"source":  notification.Source,
					"event":   notification.Event,
					"deduped": true,
				},
			}, nil
		}
	}

	handler := d.handlerFor(notification.Event)
	if handler == nil {
		return Result{}, inboundError(
			fmt.Sprintf("inbound: no handler registered for event %q", notification.Event),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			map[string]any{"source": notification.Source, "event": notification.Event},
		)
	}
	result, err := handler.Handle(ctx, notification)
	if err != nil {
		handlerErr := inboundWrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: handler execution failed",
			http.StatusBadGateway,
			map[string]any{"source": notification.Source, "event": notification.Event},
		)
		return Result{}, errors.Join(handlerErr, d.failClaim(ctx, claimID, err))
	}
	if !result.Accepted || result.StatusCode >= http.StatusInternalServerError {
		retryErr := inboundError(
			fmt.Sprintf("inbound: handler returned retryable status %d", result.StatusCode),
			goerrors.CategoryOperation,
			http.StatusBadGateway,
			map[string]any{
				"source":      notification.Source,
				"event":       notification.Event,
				"status_code": result.StatusCode,
			},
		)
		return result, errors.Join(retryErr, d.failClaim(ctx, claimID, retryErr))
	}
	if d.Store != nil && claimID != "" {
		if err := d.Store.Complete(ctx, claimID); err != nil {
			return Result{}, inboundWrapError(
				err,
				goerrors.CategoryOperation,
				"inbound: complete delivery claim",
				http.StatusInternalServerError,
				map[string]any{"source": notification.Source, "event": notification.Event, "claim_id": claimID},
			)
		}
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["source"] = notification.Source
	result.Metadata["event"] = notification.Event
	return result, nil
}

func (d *Dispatcher) failClaim(ctx context.Context, claimID string, cause error) error {
	if d == nil || d.Store == nil || claimID == "" {
		return nil
	}
	if err := d.Store.Fail(ctx, claimID, cause, time.Time{}); err != nil {
		return inboundWrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: mark delivery claim failed",
			http.StatusInternalServerError,
			map[string]any{"claim_id": claimID},
		)
	}
	return nil
}

// DefaultKeyExtractor prefers the explicit delivery id, then the common
// idempotency headers.
func DefaultKeyExtractor(notification Notification) (string, error) {
	if value := strings.TrimSpace(notification.DeliveryID); value != "" {
		return value, nil
	}
	for _, header := range []string{"idempotency-key", "x-idempotency-key", "x-delivery-id"} {
		if value := headerValue(notification.Headers, header); value != "" {
			return value, nil
		}
	}
	return "", inboundBadInput("inbound: delivery id is required", map[string]any{
		"source": notification.Source,
		"event":  notification.Event,
	})
}

func (d *Dispatcher) keyTTL() time.Duration {
	if d != nil && d.KeyTTL > 0 {
		return d.KeyTTL
	}
	return 10 * time.Minute
}

func (d *Dispatcher) handlerFor(event string) Handler {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[normalizeEvent(event)]
}

func normalizeEvent(event string) string {
	return strings.TrimSpace(strings.ToLower(event))
}

func isSupportedEvent(event string) bool {
	switch normalizeEvent(event) {
	case EventSessionRevoked, EventSessionExtended, EventTokenRotated:
		return true
	default:
		return false
	}
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
