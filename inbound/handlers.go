package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/conduit-ucpi/walletauth/core"
)

// SessionTerminator is the slice of the orchestrator revocation handling
// needs: tear down the local session without calling the backend again.
type SessionTerminator interface {
	Disconnect(ctx context.Context) error
}

// SessionRevokedHandler tears the local session down when the backend
// reports the server side session is gone.
type SessionRevokedHandler struct {
	service SessionTerminator
}

func NewSessionRevokedHandler(service SessionTerminator) *SessionRevokedHandler {
	return &SessionRevokedHandler{service: service}
}

func (*SessionRevokedHandler) Event() string { return EventSessionRevoked }

func (h *SessionRevokedHandler) Handle(ctx context.Context, notification Notification) (Result, error) {
	if h == nil || h.service == nil {
		return Result{}, inboundInternal("inbound: session revoked handler is not configured", nil)
	}
	if err := h.service.Disconnect(ctx); err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   map[string]any{"delivery_id": notification.DeliveryID},
	}, nil
}

type tokenRotationPayload struct {
	Token string `json:"token"`
}

// TokenRotatedHandler swaps the stored session token for the replacement
// the backend minted.
type TokenRotatedHandler struct {
	tokens core.TokenStore
}

func NewTokenRotatedHandler(tokens core.TokenStore) *TokenRotatedHandler {
	return &TokenRotatedHandler{tokens: tokens}
}

func (*TokenRotatedHandler) Event() string { return EventTokenRotated }

func (h *TokenRotatedHandler) Handle(ctx context.Context, notification Notification) (Result, error) {
	if h == nil || h.tokens == nil {
		return Result{}, inboundInternal("inbound: token rotated handler is not configured", nil)
	}
	var payload tokenRotationPayload
	if err := json.Unmarshal(notification.Payload, &payload); err != nil {
		return Result{}, inboundBadInput("inbound: token rotation payload is not valid json", map[string]any{
			"delivery_id": notification.DeliveryID,
		})
	}
	if strings.TrimSpace(payload.Token) == "" {
		return Result{}, inboundBadInput("inbound: rotated token is required", map[string]any{
			"delivery_id": notification.DeliveryID,
		})
	}
	if err := h.tokens.SetToken(ctx, payload.Token); err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   map[string]any{"delivery_id": notification.DeliveryID},
	}, nil
}

// SessionRevalidator triggers a backend probe after the backend reports a
// session lifetime change.
type SessionRevalidator interface {
	Revalidate(ctx context.Context) (core.Session, error)
}

// SessionExtendedHandler revalidates so the local session picks up the new
// lifetime and user claims.
type SessionExtendedHandler struct {
	service SessionRevalidator
}

func NewSessionExtendedHandler(service SessionRevalidator) *SessionExtendedHandler {
	return &SessionExtendedHandler{service: service}
}

func (*SessionExtendedHandler) Event() string { return EventSessionExtended }

func (h *SessionExtendedHandler) Handle(ctx context.Context, notification Notification) (Result, error) {
	if h == nil || h.service == nil {
		return Result{}, inboundInternal("inbound: session extended handler is not configured", nil)
	}
	if _, err := h.service.Revalidate(ctx); err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   map[string]any{"delivery_id": notification.DeliveryID},
	}, nil
}

var (
	_ Handler = (*SessionRevokedHandler)(nil)
	_ Handler = (*TokenRotatedHandler)(nil)
	_ Handler = (*SessionExtendedHandler)(nil)
)
