package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
	"afdaudit/internal/storage"
)

// GroupConfigKey is the storage key of the per-group settings table.
const GroupConfigKey = "group_config.json"

// GroupConfigRepositoryFile keeps per-group settings in a single JSON file.
type GroupConfigRepositoryFile struct {
	mu     sync.Mutex
	store  *storage.FileStore
	logger infra.Logger
}

// NewGroupConfigRepository seeds the table when missing and returns the repository.
func NewGroupConfigRepository(ctx context.Context, store *storage.FileStore, logger infra.Logger) (*GroupConfigRepositoryFile, error) {
	if err := store.Seed(ctx, GroupConfigKey, []byte("{}")); err != nil {
		return nil, fmt.Errorf("group config: seed: %w", err)
	}
	return &GroupConfigRepositoryFile{store: store, logger: logger}, nil
}

// Get returns the settings for group, or defaults when the group has none.
func (r *GroupConfigRepositoryFile) Get(ctx context.Context, group int64) (domain.GroupConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, err := r.load(ctx)
	if err != nil {
		return domain.GroupConfig{}, err
	}
	return lookupGroupConfig(table, group), nil
}

// Update validates and applies one key/value change. Nothing is written when
// the key is unknown or the value does not parse.
func (r *GroupConfigRepositoryFile) Update(ctx context.Context, group int64, key, value string) (domain.GroupConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, err := r.load(ctx)
	if err != nil {
		return domain.GroupConfig{}, err
	}
	current := lookupGroupConfig(table, group)
	next, err := current.With(key, value)
	if err != nil {
		return current, err
	}
	table[strconv.FormatInt(group, 10)] = next
	if err := r.save(ctx, table); err != nil {
		return current, err
	}
	r.logger.Info().Int64("group_id", group).Str("key", key).Str("value", value).Msg("group config: updated")
	return next, nil
}

func lookupGroupConfig(table map[string]domain.GroupConfig, group int64) domain.GroupConfig {
	if cfg, ok := table[strconv.FormatInt(group, 10)]; ok {
		return cfg
	}
	return domain.DefaultGroupConfig()
}

func (r *GroupConfigRepositoryFile) load(ctx context.Context) (map[string]domain.GroupConfig, error) {
	raw, err := r.store.Read(ctx, GroupConfigKey)
	if err != nil {
		return nil, fmt.Errorf("group config: %w", err)
	}
	// Fields missing from a stored record keep their declared default.
	var partial map[string]json.RawMessage
	if err := json.Unmarshal(raw, &partial); err != nil {
		return nil, fmt.Errorf("group config: decode: %w", err)
	}
	table := make(map[string]domain.GroupConfig, len(partial))
	for key, msg := range partial {
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			return nil, fmt.Errorf("group config: invalid group key %q: %w", key, err)
		}
		cfg := domain.DefaultGroupConfig()
		if err := json.Unmarshal(msg, &cfg); err != nil {
			return nil, fmt.Errorf("group config: decode group %s: %w", key, err)
		}
		table[key] = cfg
	}
	return table, nil
}

func (r *GroupConfigRepositoryFile) save(ctx context.Context, table map[string]domain.GroupConfig) error {
	raw, err := json.MarshalIndent(table, "", "    ")
	if err != nil {
		return fmt.Errorf("group config: encode: %w", err)
	}
	if _, err := r.store.Write(ctx, GroupConfigKey, raw); err != nil {
		return fmt.Errorf("group config: %w", err)
	}
	return nil
}

var _ domain.GroupConfigRepository = (*GroupConfigRepositoryFile)(nil)
