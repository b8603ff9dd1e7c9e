package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
	"afdaudit/internal/sqlinline"
)

// DecisionRepositoryPG journals admission decisions in PostgreSQL.
type DecisionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDecisionRepository creates a new decision journal.
func NewDecisionRepository(sql infra.SQLExecutor) *DecisionRepositoryPG {
	return &DecisionRepositoryPG{sql: sql}
}

// EnsureSchema creates the journal table when it does not exist yet.
func (r *DecisionRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QEnsureDecisionsTable)
	return err
}

// Record inserts a decision, assigning an id and timestamp when missing.
func (r *DecisionRepositoryPG) Record(ctx context.Context, decision *domain.Decision) error {
	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertDecision,
		decision.ID,
		decision.GroupID,
		decision.UserID,
		decision.Flag,
		decision.TradeNo,
		decision.DonorID,
		string(decision.State),
		decision.Reason,
		decision.CreatedAt,
	)
	return err
}

// ListByGroup returns the most recent decisions for a group.
func (r *DecisionRepositoryPG) ListByGroup(ctx context.Context, group int64, limit int) ([]domain.Decision, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDecisionsByGroup, group, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Decision
	for rows.Next() {
		var d domain.Decision
		var state string
		if err := rows.Scan(&d.ID, &d.GroupID, &d.UserID, &d.Flag, &d.TradeNo, &d.DonorID, &state, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.State = domain.AdmissionState(state)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// NopDecisionRepository discards decisions when no database is configured.
type NopDecisionRepository struct{}

func (NopDecisionRepository) Record(context.Context, *domain.Decision) error { return nil }

var (
	_ domain.DecisionRepository = (*DecisionRepositoryPG)(nil)
	_ domain.DecisionRepository = NopDecisionRepository{}
)
