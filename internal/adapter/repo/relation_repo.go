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

// RelationsKey is the storage key of the member to donor table.
const RelationsKey = "user_relation.json"

// RelationRepositoryFile keeps the relation table in a single JSON file. The
// whole read-modify-write cycle runs under one mutex so concurrent binds can
// never both observe a donor as unowned.
type RelationRepositoryFile struct {
	mu     sync.Mutex
	store  *storage.FileStore
	logger infra.Logger
}

// NewRelationRepository seeds the table when missing and returns the repository.
func NewRelationRepository(ctx context.Context, store *storage.FileStore, logger infra.Logger) (*RelationRepositoryFile, error) {
	if err := store.Seed(ctx, RelationsKey, []byte("{}")); err != nil {
		return nil, fmt.Errorf("relations: seed: %w", err)
	}
	return &RelationRepositoryFile{store: store, logger: logger}, nil
}

// HasBinding reports whether member already verified donor.
func (r *RelationRepositoryFile) HasBinding(ctx context.Context, member int64, donor string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return rel.Has(member, donor), nil
}

// OwnerOf returns the member that owns donor.
func (r *RelationRepositoryFile) OwnerOf(ctx context.Context, donor string) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, err := r.load(ctx)
	if err != nil {
		return 0, false, err
	}
	owner, ok := rel.OwnerOf(donor)
	return owner, ok, nil
}

// Bind appends donor to member's list and persists the table.
func (r *RelationRepositoryFile) Bind(ctx context.Context, member int64, donor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, err := r.load(ctx)
	if err != nil {
		return err
	}
	if rel.Has(member, donor) {
		return domain.ErrAlreadyBoundBySelf
	}
	if owner, ok := rel.OwnerOf(donor); ok && owner != member {
		return domain.ErrAlreadyBoundByOther
	}
	next := rel.Clone()
	next[member] = append(next[member], donor)
	if err := r.save(ctx, next); err != nil {
		return err
	}
	r.logger.Info().Int64("user_id", member).Str("donor_id", donor).Msg("relations: bound donor")
	return nil
}

// Snapshot returns a copy of the whole table.
func (r *RelationRepositoryFile) Snapshot(ctx context.Context) (domain.Relations, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *RelationRepositoryFile) load(ctx context.Context) (domain.Relations, error) {
	raw, err := r.store.Read(ctx, RelationsKey)
	if err != nil {
		return nil, fmt.Errorf("relations: %w", err)
	}
	var table map[string][]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("relations: decode: %w", err)
	}
	rel := make(domain.Relations, len(table))
	for key, donors := range table {
		member, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("relations: invalid member key %q: %w", key, err)
		}
		rel[member] = donors
	}
	return rel, nil
}

func (r *RelationRepositoryFile) save(ctx context.Context, rel domain.Relations) error {
	table := make(map[string][]string, len(rel))
	for member, donors := range rel {
		table[strconv.FormatInt(member, 10)] = donors
	}
	raw, err := json.MarshalIndent(table, "", "    ")
	if err != nil {
		return fmt.Errorf("relations: encode: %w", err)
	}
	if _, err := r.store.Write(ctx, RelationsKey, raw); err != nil {
		return fmt.Errorf("relations: %w", err)
	}
	return nil
}

var _ domain.RelationRepository = (*RelationRepositoryFile)(nil)
