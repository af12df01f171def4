// Package sqlstore persists walletauth state with bun-backed repositories.
// It backs the durable half of the dual-scope token store and the auth
// activity trail. Tokens are sealed through a SecretProvider before they
// reach a row; activity metadata is redacted before it is written.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/conduit-ucpi/walletauth/core"
)

const defaultTokenSlot = "default"

type TokenStoreOption func(*DurableTokenStore)

// WithTokenSlot namespaces the stored token. Hosts that serve several
// wallet surfaces from one database give each surface its own slot.
func WithTokenSlot(slot string) TokenStoreOption {
	return func(store *DurableTokenStore) {
		trimmed := strings.TrimSpace(slot)
		if trimmed != "" {
			store.slot = trimmed
		}
	}
}

// DurableTokenStore keeps one encrypted session token per slot. It backs
// the durable scope of the dual token store, so a host restart can still
// recover the session.
type DurableTokenStore struct {
	db      *bun.DB
	repo    repository.Repository[*sessionTokenRecord]
	secrets core.SecretProvider
	slot    string
}

func NewDurableTokenStore(db *bun.DB, secrets core.SecretProvider, opts ...TokenStoreOption) (*DurableTokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("sqlstore: a secret provider is required for durable tokens")
	}
	repo := repository.NewRepository[*sessionTokenRecord](db, sessionTokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session token repository wiring: %w", err)
		}
	}
	store := &DurableTokenStore{
		db:      db,
		repo:    repo,
		secrets: secrets,
		slot:    defaultTokenSlot,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store, nil
}

func (s *DurableTokenStore) SetToken(ctx context.Context, token string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: durable token store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("sqlstore: token is required")
	}

	sealed, err := s.secrets.Encrypt(ctx, []byte(token))
	if err != nil {
		return fmt.Errorf("sqlstore: seal token: %w", err)
	}

	now := time.Now().UTC()
	record := &sessionTokenRecord{
		ID:             uuid.NewString(),
		Slot:           s.slot,
		EncryptedToken: sealed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if keyed, ok := s.secrets.(interface {
		KeyID() string
		Version() int
	}); ok {
		record.EncryptionKeyID = keyed.KeyID()
		record.EncryptionVersion = keyed.Version()
	}

	_, err = s.db.NewInsert().
		Model(record).
		On("CONFLICT (slot) DO UPDATE").
		Set("encrypted_token = EXCLUDED.encrypted_token").
		Set("encryption_key_id = EXCLUDED.encryption_key_id").
		Set("encryption_version = EXCLUDED.encryption_version").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write token: %w", err)
	}
	return nil
}

func (s *DurableTokenStore) GetToken(ctx context.Context) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("sqlstore: durable token store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("slot", "=", s.slot),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return "", fmt.Errorf("sqlstore: read token: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	plaintext, err := s.secrets.Decrypt(ctx, records[0].EncryptedToken)
	if err != nil {
		return "", fmt.Errorf("sqlstore: unseal token: %w", err)
	}
	return string(plaintext), nil
}

func (s *DurableTokenStore) ClearToken(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: durable token store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*sessionTokenRecord)(nil)).
		Where("slot = ?", s.slot).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: clear token: %w", err)
	}
	return nil
}

func (s *DurableTokenStore) Slot() string {
	if s == nil {
		return ""
	}
	return s.slot
}
