package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MemoryTokenStore is the process-scoped storage layer: it survives for the
// lifetime of one orchestrator boot and nothing longer.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) SetToken(_ context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("core: token store is not configured")
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) GetToken(context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("core: token store is not configured")
	}
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	return token, nil
}

func (s *MemoryTokenStore) ClearToken(context.Context) error {
	if s == nil {
		return fmt.Errorf("core: token store is not configured")
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// DualTokenStore persists the credential in two independent layers, a
// durable scope and a process scope, so the session degrades gracefully
// when one layer is unavailable or cleared externally.
//
// ClearToken clears both layers unconditionally, even when one already
// reads as empty; a partial clear is the defect class this type exists to
// prevent.
type DualTokenStore struct {
	durable TokenStore
	session TokenStore
}

func NewDualTokenStore(durable TokenStore, session TokenStore) (*DualTokenStore, error) {
	if durable == nil {
		return nil, fmt.Errorf("core: durable token layer is required")
	}
	if session == nil {
		session = NewMemoryTokenStore()
	}
	return &DualTokenStore{durable: durable, session: session}, nil
}

func (s *DualTokenStore) SetToken(ctx context.Context, token string) error {
	if s == nil || s.durable == nil || s.session == nil {
		return fmt.Errorf("core: dual token store is not configured")
	}
	sessionErr := s.session.SetToken(ctx, token)
	durableErr := s.durable.SetToken(ctx, token)
	// A single surviving write keeps the session usable.
	if sessionErr != nil && durableErr != nil {
		return errors.Join(sessionErr, durableErr)
	}
	return nil
}

func (s *DualTokenStore) GetToken(ctx context.Context) (string, error) {
	if s == nil || s.durable == nil || s.session == nil {
		return "", fmt.Errorf("core: dual token store is not configured")
	}
	token, sessionErr := s.session.GetToken(ctx)
	if sessionErr == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}
	token, durableErr := s.durable.GetToken(ctx)
	if durableErr != nil {
		if sessionErr != nil {
			return "", errors.Join(sessionErr, durableErr)
		}
		return "", durableErr
	}
	token = strings.TrimSpace(token)
	if token != "" && sessionErr == nil {
		// Re-warm the process scope so the next read avoids durable IO.
		_ = s.session.SetToken(ctx, token)
	}
	return token, nil
}

func (s *DualTokenStore) ClearToken(ctx context.Context) error {
	if s == nil || s.durable == nil || s.session == nil {
		return fmt.Errorf("core: dual token store is not configured")
	}
	sessionErr := s.session.ClearToken(ctx)
	durableErr := s.durable.ClearToken(ctx)
	if sessionErr != nil || durableErr != nil {
		return errors.Join(sessionErr, durableErr)
	}
	return nil
}
