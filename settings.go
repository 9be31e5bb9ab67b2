package accounts

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Settings is the repository behind the key-value store
type Settings interface {
	repository.Repository[*Setting]
	GetByKey(ctx context.Context, key string) (*Setting, error)
}

type settings struct {
	repository.Repository[*Setting]
	db *bun.DB
}

var _ Settings = (*settings)(nil)

// NewSettingsRepository builds the bun backed settings repository
func NewSettingsRepository(db *bun.DB) Settings {
	repo := repository.NewRepository[*Setting](db, repository.ModelHandlers[*Setting]{
		NewRecord: func() *Setting { return &Setting{} },
		GetID: func(s *Setting) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Setting, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "key"
		},
	})

	return &settings{
		Repository: repo,
		db:         db,
	}
}

func (s *settings) GetByKey(ctx context.Context, key string) (*Setting, error) {
	record := &Setting{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}

// StoredKeyStorage reads feature flags and UI preferences from the settings
// table. Lookups fall back to the caller supplied default on any miss; the
// store is read-only from this workflow, writes belong to the admin surface.
type StoredKeyStorage struct {
	repo   Settings
	logger Logger
}

var _ KeyStorage = (*StoredKeyStorage)(nil)

// NewKeyStorage creates a settings backed KeyStorage
func NewKeyStorage(repo Settings) *StoredKeyStorage {
	return &StoredKeyStorage{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger
func (k *StoredKeyStorage) WithLogger(logger Logger) *StoredKeyStorage {
	if logger != nil {
		k.logger = logger
	}
	return k
}

func (k *StoredKeyStorage) Get(ctx context.Context, key string, def any) any {
	record, err := k.repo.GetByKey(ctx, key)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			k.logger.Warn("key storage lookup failed", "key", key, "error", err)
		}
		return def
	}

	return record.Value
}

func (k *StoredKeyStorage) GetString(ctx context.Context, key string, def string) string {
	val := k.Get(ctx, key, def)
	if s, ok := val.(string); ok {
		return s
	}
	return def
}

func (k *StoredKeyStorage) GetBool(ctx context.Context, key string, def bool) bool {
	val := k.Get(ctx, key, def)
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return truthy(v, def)
	default:
		return def
	}
}

// StaticKeyStorage is an in-memory KeyStorage for tests and defaults
type StaticKeyStorage struct {
	Values map[string]any
}

var _ KeyStorage = (*StaticKeyStorage)(nil)

func (s *StaticKeyStorage) Get(ctx context.Context, key string, def any) any {
	if s.Values == nil {
		return def
	}
	if val, ok := s.Values[key]; ok {
		return val
	}
	return def
}

func (s *StaticKeyStorage) GetString(ctx context.Context, key string, def string) string {
	val := s.Get(ctx, key, def)
	if str, ok := val.(string); ok {
		return str
	}
	return def
}

func (s *StaticKeyStorage) GetBool(ctx context.Context, key string, def bool) bool {
	val := s.Get(ctx, key, def)
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return truthy(v, def)
	default:
		return def
	}
}

func truthy(raw string, def bool) bool {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return def
	}

	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}

	switch raw {
	case "on", "yes", "y":
		return true
	case "off", "no", "n":
		return false
	}

	return def
}
