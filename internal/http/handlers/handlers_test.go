package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"afdaudit/internal/audit"
	"afdaudit/internal/command"
	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
)

// inlineDispatcher runs tasks synchronously so assertions see their effects.
type inlineDispatcher struct {
	names []string
}

func (d *inlineDispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	d.names = append(d.names, name)
	_ = fn(context.Background())
	return true
}

type fakeAdmission struct {
	mu   sync.Mutex
	reqs []domain.JoinRequest
}

func (f *fakeAdmission) Handle(_ context.Context, req domain.JoinRequest) (audit.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return audit.Outcome{State: domain.AdmissionApproved}, nil
}

type fakeCommands struct {
	msgs []command.Message
}

func (f *fakeCommands) Handle(_ context.Context, msg command.Message) (bool, error) {
	f.msgs = append(f.msgs, msg)
	return true, nil
}

type fakeDecisions struct {
	group int64
	limit int
	items []domain.Decision
	err   error
}

func (f *fakeDecisions) ListByGroup(_ context.Context, group int64, limit int) ([]domain.Decision, error) {
	f.group, f.limit = group, limit
	return f.items, f.err
}

func newTestApp() (*App, *fakeAdmission, *fakeCommands, *inlineDispatcher) {
	adm := &fakeAdmission{}
	cmds := &fakeCommands{}
	disp := &inlineDispatcher{}
	return &App{
		Admission:  adm,
		Commands:   cmds,
		Dispatcher: disp,
		Logger:     infra.NopLogger(),
	}, adm, cmds, disp
}

func postEvent(app *App, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/onebot/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.OneBotEvents(rec, req)
	return rec
}

func TestOneBotEventsJoinRequest(t *testing.T) {
	app, adm, cmds, disp := newTestApp()
	rec := postEvent(app, `{"post_type":"request","request_type":"group","sub_type":"add","group_id":100,"user_id":42,"comment":" 202401011234 ","flag":"f1"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(adm.reqs) != 1 || len(cmds.msgs) != 0 {
		t.Fatalf("admission calls = %d, command calls = %d", len(adm.reqs), len(cmds.msgs))
	}
	got := adm.reqs[0]
	if got.GroupID != 100 || got.UserID != 42 || got.Flag != "f1" || got.SubType != "add" {
		t.Fatalf("join request = %+v", got)
	}
	if len(disp.names) != 1 || disp.names[0] != "join:100" {
		t.Fatalf("task names = %v", disp.names)
	}
}

func TestOneBotEventsGroupMessage(t *testing.T) {
	app, adm, cmds, _ := newTestApp()
	rec := postEvent(app, `{"post_type":"message","message_type":"group","group_id":7,"user_id":9,"raw_message":"/afd config enable_audit off","sender":{"user_id":9,"role":"admin"}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(cmds.msgs) != 1 || len(adm.reqs) != 0 {
		t.Fatalf("command calls = %d, admission calls = %d", len(cmds.msgs), len(adm.reqs))
	}
	msg := cmds.msgs[0]
	if msg.GroupID != 7 || msg.UserID != 9 || !msg.Manager {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Text != "/afd config enable_audit off" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestOneBotEventsIgnoresOtherEvents(t *testing.T) {
	app, adm, cmds, disp := newTestApp()
	rec := postEvent(app, `{"post_type":"meta_event","meta_event_type":"heartbeat"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(adm.reqs)+len(cmds.msgs)+len(disp.names) != 0 {
		t.Fatalf("unexpected work scheduled: %v", disp.names)
	}
}

func TestOneBotEventsRejectsGarbage(t *testing.T) {
	app, _, _, _ := newTestApp()
	rec := postEvent(app, `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func decisionsRequest(app *App, group, query string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/groups/{groupID}/decisions", app.GroupDecisions)
	req := httptest.NewRequest(http.MethodGet, "/v1/groups/"+group+"/decisions"+query, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGroupDecisions(t *testing.T) {
	app, _, _, _ := newTestApp()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeDecisions{items: []domain.Decision{{
		ID: "d1", GroupID: 100, UserID: 42, TradeNo: "202401011234",
		DonorID: "donor", State: domain.AdmissionApproved, CreatedAt: at,
	}}}
	app.Decisions = store

	rec := decisionsRequest(app, "100", "?limit=5000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.group != 100 || store.limit != maxDecisionLimit {
		t.Fatalf("list args = (%d, %d)", store.group, store.limit)
	}
	var body struct {
		Items []decisionItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].State != string(domain.AdmissionApproved) || !body.Items[0].CreatedAt.Equal(at) {
		t.Fatalf("items = %+v", body.Items)
	}
}

func TestGroupDecisionsErrors(t *testing.T) {
	app, _, _, _ := newTestApp()
	if rec := decisionsRequest(app, "100", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled journal status = %d, want 404", rec.Code)
	}

	store := &fakeDecisions{}
	app.Decisions = store
	if rec := decisionsRequest(app, "abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad group status = %d, want 400", rec.Code)
	}
	if rec := decisionsRequest(app, "100", "?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}
	if rec := decisionsRequest(app, "100", ""); rec.Code != http.StatusOK || store.limit != defaultDecisionLimit {
		t.Fatalf("default limit = %d (status %d)", store.limit, rec.Code)
	}

	store.err = errors.New("db down")
	if rec := decisionsRequest(app, "100", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("failing store status = %d, want 500", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	app, _, _, _ := newTestApp()
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}
