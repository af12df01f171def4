package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/conduit-ucpi/walletauth/core"
	walletmigrations "github.com/conduit-ucpi/walletauth/migrations"
	"github.com/conduit-ucpi/walletauth/security"
	sqlstore "github.com/conduit-ucpi/walletauth/store/sql"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "walletauth-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"wallet_auth_activity",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "wallet_auth_activity" {
		t.Fatalf("expected wallet_auth_activity table, got %q", tableName)
	}
}

func TestDurableTokenStore_RoundTripEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, newTestSecrets(t))
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.TokenStore()
	if store == nil {
		t.Fatal("expected token store from factory")
	}

	if token, err := store.GetToken(ctx); err != nil || token != "" {
		t.Fatalf("empty store get = %q, %v", token, err)
	}

	if err := store.SetToken(ctx, "session-jwt-one"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	token, err := store.GetToken(ctx)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token != "session-jwt-one" {
		t.Fatalf("token = %q", token)
	}

	var rawPayload []byte
	if err := client.DB().NewRaw(
		"SELECT encrypted_token FROM wallet_session_tokens WHERE slot = ?",
		store.Slot(),
	).Scan(ctx, &rawPayload); err != nil {
		t.Fatalf("read raw token row: %v", err)
	}
	if strings.Contains(string(rawPayload), "session-jwt-one") {
		t.Fatal("token stored in plaintext")
	}

	if err := store.SetToken(ctx, "session-jwt-two"); err != nil {
		t.Fatalf("overwrite token: %v", err)
	}
	token, err = store.GetToken(ctx)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if token != "session-jwt-two" {
		t.Fatalf("token after overwrite = %q", token)
	}

	rows, err := client.DB().NewSelect().Table("wallet_session_tokens").Count(ctx)
	if err != nil {
		t.Fatalf("count token rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single token row per slot, got %d", rows)
	}

	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if token, err := store.GetToken(ctx); err != nil || token != "" {
		t.Fatalf("get after clear = %q, %v", token, err)
	}
}

func TestDurableTokenStore_SlotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	secrets := newTestSecrets(t)
	alpha, err := sqlstore.NewDurableTokenStore(client.DB(), secrets, sqlstore.WithTokenSlot("surface-a"))
	if err != nil {
		t.Fatalf("new alpha store: %v", err)
	}
	beta, err := sqlstore.NewDurableTokenStore(client.DB(), secrets, sqlstore.WithTokenSlot("surface-b"))
	if err != nil {
		t.Fatalf("new beta store: %v", err)
	}

	if err := alpha.SetToken(ctx, "token-a"); err != nil {
		t.Fatalf("set alpha: %v", err)
	}
	if err := beta.SetToken(ctx, "token-b"); err != nil {
		t.Fatalf("set beta: %v", err)
	}
	if err := alpha.ClearToken(ctx); err != nil {
		t.Fatalf("clear alpha: %v", err)
	}

	if token, err := alpha.GetToken(ctx); err != nil || token != "" {
		t.Fatalf("alpha after clear = %q, %v", token, err)
	}
	if token, err := beta.GetToken(ctx); err != nil || token != "token-b" {
		t.Fatalf("beta = %q, %v", token, err)
	}
}

func TestCachedTokenStore_ReadThroughAndInvalidation(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	base, err := sqlstore.NewDurableTokenStore(client.DB(), newTestSecrets(t))
	if err != nil {
		t.Fatalf("new base store: %v", err)
	}
	counting := &countingTokenStore{base: base}
	cached, err := sqlstore.NewCachedTokenStore(counting, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if err := cached.SetToken(ctx, "cached-token"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	for i := 0; i < 3; i++ {
		token, err := cached.GetToken(ctx)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if token != "cached-token" {
			t.Fatalf("get %d = %q", i, token)
		}
	}
	if counting.gets != 1 {
		t.Fatalf("expected one base read, got %d", counting.gets)
	}

	if err := cached.SetToken(ctx, "rotated-token"); err != nil {
		t.Fatalf("rotate token: %v", err)
	}
	token, err := cached.GetToken(ctx)
	if err != nil {
		t.Fatalf("get after rotate: %v", err)
	}
	if token != "rotated-token" {
		t.Fatalf("stale read after invalidation: %q", token)
	}

	if err := cached.ClearToken(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if token, err := cached.GetToken(ctx); err != nil || token != "" {
		t.Fatalf("get after clear = %q, %v", token, err)
	}
}

func TestActivityStore_RecordRedactsAndListFilters(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewActivityStore(client.DB())
	if err != nil {
		t.Fatalf("new activity store: %v", err)
	}

	if err := store.Record(ctx, core.AuthActivityEntry{
		Provider: "injected_wallet",
		Address:  "0xabc",
		Action:   core.AuthActionConnect,
		Status:   core.AuthActivitySuccess,
		Metadata: map[string]any{
			"outcome":      "connected",
			"access_token": "super-secret-value",
		},
	}); err != nil {
		t.Fatalf("record connect: %v", err)
	}
	if err := store.Record(ctx, core.AuthActivityEntry{
		Provider: "social_embedded",
		Action:   core.AuthActionLogin,
		Status:   core.AuthActivityFailure,
		Error:    "backend rejected credential",
	}); err != nil {
		t.Fatalf("record login: %v", err)
	}

	page, err := store.List(ctx, core.AuthActivityFilter{Provider: "injected_wallet"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Total != 1 {
		t.Fatalf("filtered page = %d items, total %d", len(page.Items), page.Total)
	}
	entry := page.Items[0]
	if entry.Action != core.AuthActionConnect {
		t.Fatalf("action = %s", entry.Action)
	}
	if entry.Metadata["access_token"] != core.RedactedValue {
		t.Fatalf("credential survived redaction: %v", entry.Metadata["access_token"])
	}
	if entry.Metadata["outcome"] != "connected" {
		t.Fatalf("traceability metadata lost: %v", entry.Metadata)
	}

	failures, err := store.List(ctx, core.AuthActivityFilter{Status: core.AuthActivityFailure})
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	if len(failures.Items) != 1 || failures.Items[0].Provider != "social_embedded" {
		t.Fatalf("failure filter = %+v", failures.Items)
	}
}

func TestActivityStore_RequiresProviderAndAction(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewActivityStore(client.DB())
	if err != nil {
		t.Fatalf("new activity store: %v", err)
	}
	if err := store.Record(context.Background(), core.AuthActivityEntry{Provider: "injected_wallet"}); err == nil {
		t.Fatal("expected missing action error")
	}
}

func TestActivityStore_PruneEnforcesRowCap(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewActivityStore(client.DB())
	if err != nil {
		t.Fatalf("new activity store: %v", err)
	}
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		if err := store.Record(ctx, core.AuthActivityEntry{
			Provider:  "injected_wallet",
			Action:    core.AuthActionConnect,
			Status:    core.AuthActivitySuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	deleted, err := store.Prune(ctx, sqlstore.RetentionPolicy{RowCap: 4})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 6 {
		t.Fatalf("deleted = %d", deleted)
	}

	page, err := store.List(ctx, core.AuthActivityFilter{PerPage: 100})
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if len(page.Items) != 4 {
		t.Fatalf("rows after prune = %d", len(page.Items))
	}
	// newest rows survive
	if !page.Items[0].CreatedAt.After(page.Items[len(page.Items)-1].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}
}

type countingTokenStore struct {
	base core.TokenStore
	gets int
}

func (s *countingTokenStore) SetToken(ctx context.Context, token string) error {
	return s.base.SetToken(ctx, token)
}

func (s *countingTokenStore) GetToken(ctx context.Context) (string, error) {
	s.gets++
	return s.base.GetToken(ctx)
}

func (s *countingTokenStore) ClearToken(ctx context.Context) error {
	return s.base.ClearToken(ctx)
}

func newTestSecrets(t *testing.T) core.SecretProvider {
	t.Helper()
	secrets, err := security.NewAppKeySecretProviderFromString("sqlstore-test-key")
	if err != nil {
		t.Fatalf("new secret provider: %v", err)
	}
	return secrets
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:walletauth-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = walletmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != walletmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, walletmigrations.WithValidationTargets(walletmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
