package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"afdaudit/internal/audit"
	"afdaudit/internal/command"
	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
)

// Admission settles join requests.
type Admission interface {
	Handle(ctx context.Context, req domain.JoinRequest) (audit.Outcome, error)
}

// Commands answers chat commands.
type Commands interface {
	Handle(ctx context.Context, msg command.Message) (bool, error)
}

// Dispatcher runs event tasks in the background.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error) bool
}

// DecisionLister reads the decision journal.
type DecisionLister interface {
	ListByGroup(ctx context.Context, group int64, limit int) ([]domain.Decision, error)
}

type App struct {
	Admission  Admission
	Commands   Commands
	Dispatcher Dispatcher
	Decisions  DecisionLister
	Logger     infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": kind, "message": message}})
}
