package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type sessionTokenRecord struct {
	bun.BaseModel `bun:"table:wallet_session_tokens,alias:wst"`

	ID                string    `bun:"id,pk"`
	Slot              string    `bun:"slot,notnull,unique"`
	EncryptedToken    []byte    `bun:"encrypted_token,notnull"`
	EncryptionKeyID   string    `bun:"encryption_key_id,notnull"`
	EncryptionVersion int       `bun:"encryption_version,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type authActivityRecord struct {
	bun.BaseModel `bun:"table:wallet_auth_activity,alias:waa"`

	ID        string         `bun:"id,pk"`
	Provider  string         `bun:"provider,notnull"`
	Address   string         `bun:"address"`
	Action    string         `bun:"action,notnull"`
	Status    string         `bun:"status,notnull"`
	Error     string         `bun:"error"`
	Metadata  map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
