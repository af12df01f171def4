package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"

	"github.com/conduit-ucpi/walletauth/core"
)

// RepositoryFactory wires the sql-backed stores from one database handle.
type RepositoryFactory struct {
	db      *bun.DB
	secrets core.SecretProvider

	tokenStore    *DurableTokenStore
	activityStore *ActivityStore
}

func NewRepositoryFactory(secrets core.SecretProvider) *RepositoryFactory {
	return &RepositoryFactory{secrets: secrets}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, secrets core.SecretProvider) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(secrets)
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, secrets core.SecretProvider) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(secrets)
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.tokenStore != nil && f.activityStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) TokenStore() *DurableTokenStore {
	if f == nil {
		return nil
	}
	return f.tokenStore
}

func (f *RepositoryFactory) ActivityStore() *ActivityStore {
	if f == nil {
		return nil
	}
	return f.activityStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	tokenStore, err := NewDurableTokenStore(f.db, f.secrets)
	if err != nil {
		return err
	}
	f.tokenStore = tokenStore

	activityStore, err := NewActivityStore(f.db)
	if err != nil {
		return err
	}
	f.activityStore = activityStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
