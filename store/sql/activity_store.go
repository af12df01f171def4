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

// ActivityStore is the durable auth activity trail. Metadata is passed
// through the shared redaction pass before it is written, so a caller that
// accidentally includes a credential in metadata never persists it.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*authActivityRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*authActivityRecord](db, authActivityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.AuthActivityEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	provider := strings.TrimSpace(entry.Provider)
	action := strings.TrimSpace(entry.Action)
	if provider == "" || action == "" {
		return fmt.Errorf("sqlstore: activity entries require a provider and an action")
	}

	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	status := strings.TrimSpace(string(entry.Status))
	if status == "" {
		status = string(core.AuthActivitySuccess)
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &authActivityRecord{
		ID:        id,
		Provider:  provider,
		Address:   strings.TrimSpace(entry.Address),
		Action:    action,
		Status:    status,
		Error:     strings.TrimSpace(entry.Error),
		Metadata:  core.RedactSensitiveMap(entry.Metadata),
		CreatedAt: createdAt,
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *ActivityStore) List(ctx context.Context, filter core.AuthActivityFilter) (core.AuthActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.AuthActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if provider := strings.TrimSpace(filter.Provider); provider != "" {
		selectors = append(selectors, repository.SelectBy("provider", "=", provider))
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		selectors = append(selectors, repository.SelectBy("action", "=", action))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AuthActivityPage{}, err
	}
	items := make([]core.AuthActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return core.AuthActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// RetentionPolicy bounds the activity table by age and by row count.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

func (s *ActivityStore) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: activity store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if policy.TTL > 0 {
		cutoff := now.Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*authActivityRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*authActivityRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM wallet_auth_activity WHERE id IN (SELECT id FROM wallet_auth_activity ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func activityRecordToDomain(record *authActivityRecord) core.AuthActivityEntry {
	if record == nil {
		return core.AuthActivityEntry{}
	}
	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return core.AuthActivityEntry{
		ID:        record.ID,
		Provider:  record.Provider,
		Address:   record.Address,
		Action:    record.Action,
		Status:    core.AuthActivityStatus(record.Status),
		Error:     record.Error,
		Metadata:  metadata,
		CreatedAt: record.CreatedAt,
	}
}
