package audit

import (
	"context"
	"errors"
	"sync"

	"afdaudit/internal/domain"
)

type fakeCreds map[int64][]string

func (f fakeCreds) Authors(group int64) []string { return f[group] }

type fakeRegistry map[string]domain.Session

func (f fakeRegistry) Session(id string) (domain.Session, bool) {
	s, ok := f[id]
	return s, ok
}

// plainSession lacks the order-query capability.
type plainSession struct{ id string }

func (p plainSession) AccountID() string { return p.id }

type fakeQuerier struct {
	id     string
	orders []domain.DonorOrder
	err    error

	mu    sync.Mutex
	calls int
}

func (f *fakeQuerier) AccountID() string { return f.id }

func (f *fakeQuerier) QueryOrderByTradeNo(context.Context, string) ([]domain.DonorOrder, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.orders, f.err
}

func (f *fakeQuerier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memRelations struct {
	mu     sync.Mutex
	owners map[string]int64
	err    error
}

func newMemRelations() *memRelations {
	return &memRelations{owners: map[string]int64{}}
}

func (m *memRelations) HasBinding(_ context.Context, member int64, donor string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[donor]
	return ok && owner == member, nil
}

func (m *memRelations) OwnerOf(_ context.Context, donor string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[donor]
	return owner, ok, nil
}

func (m *memRelations) Bind(_ context.Context, member int64, donor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if owner, ok := m.owners[donor]; ok {
		if owner == member {
			return domain.ErrAlreadyBoundBySelf
		}
		return domain.ErrAlreadyBoundByOther
	}
	m.owners[donor] = member
	return nil
}

func (m *memRelations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owners)
}

type memConfigs struct {
	mu      sync.Mutex
	configs map[int64]domain.GroupConfig
}

func newMemConfigs() *memConfigs {
	return &memConfigs{configs: map[int64]domain.GroupConfig{}}
}

func (m *memConfigs) Get(_ context.Context, group int64) (domain.GroupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg, ok := m.configs[group]; ok {
		return cfg, nil
	}
	return domain.DefaultGroupConfig(), nil
}

func (m *memConfigs) Update(_ context.Context, group int64, key, value string) (domain.GroupConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.configs[group]
	if !ok {
		cur = domain.DefaultGroupConfig()
	}
	next, err := cur.With(key, value)
	if err != nil {
		return cur, err
	}
	m.configs[group] = next
	return next, nil
}

func (m *memConfigs) set(group int64, cfg domain.GroupConfig) {
	m.mu.Lock()
	m.configs[group] = cfg
	m.mu.Unlock()
}

type sentMessage struct {
	group int64
	text  string
}

type fakeChat struct {
	mu       sync.Mutex
	messages []sentMessage
	approved []domain.JoinRequest
	rejected []string
	level    int
	levelErr error
}

func (f *fakeChat) SendGroupMessage(_ context.Context, group int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{group: group, text: text})
	return nil
}

func (f *fakeChat) ApproveJoin(_ context.Context, req domain.JoinRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, req)
	return nil
}

func (f *fakeChat) RejectJoin(_ context.Context, _ domain.JoinRequest, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, reason)
	return nil
}

func (f *fakeChat) Level(context.Context, int64) (int, error) {
	return f.level, f.levelErr
}

func (f *fakeChat) counts() (messages, approved, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages), len(f.approved), len(f.rejected)
}

type memDecisions struct {
	mu    sync.Mutex
	items []domain.Decision
}

func (m *memDecisions) Record(_ context.Context, d *domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *d)
	return nil
}

var errTransport = errors.New("connection reset")
