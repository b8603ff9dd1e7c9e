package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultDecisionLimit = 50
	maxDecisionLimit     = 500
)

type decisionItem struct {
	ID        string    `json:"id"`
	GroupID   int64     `json:"group_id"`
	UserID    int64     `json:"user_id"`
	TradeNo   string    `json:"trade_no"`
	DonorID   string    `json:"donor_id"`
	State     string    `json:"state"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupDecisions lists the most recent admission decisions for a group.
func (a *App) GroupDecisions(w http.ResponseWriter, r *http.Request) {
	if a.Decisions == nil {
		a.error(w, http.StatusNotFound, "not_found", "decision journal disabled")
		return
	}
	group, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid group id")
		return
	}
	limit := defaultDecisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid limit")
			return
		}
		limit = min(n, maxDecisionLimit)
	}

	decisions, err := a.Decisions.ListByGroup(r.Context(), group, limit)
	if err != nil {
		a.Logger.Error().Err(err).Int64("group_id", group).Msg("decisions: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load decisions")
		return
	}
	items := make([]decisionItem, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, decisionItem{
			ID:        d.ID,
			GroupID:   d.GroupID,
			UserID:    d.UserID,
			TradeNo:   d.TradeNo,
			DonorID:   d.DonorID,
			State:     string(d.State),
			Reason:    d.Reason,
			CreatedAt: d.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
