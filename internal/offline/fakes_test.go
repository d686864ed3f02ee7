package offline

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/pkg/api"
)

// memKV is an in-memory KV.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return slices.Clone(v), ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// fakeReader serves fixed lists for every group in groups. Unknown groups
// are NotFound.
type fakeReader struct {
	mu       sync.Mutex
	groups   map[string]models.Group
	members  []models.Member
	expenses []models.Expense
	messages []models.Message
	goals    []models.Goal
	errs     map[string]error
	calls    map[string]int
	order    []string
	times    []time.Time

	// hook, if set, runs at the start of every call outside the lock.
	hook func(ctx context.Context, entity string)
}

// emptyGroupReader answers GetGroup with neither a group nor an error.
type emptyGroupReader struct {
	*fakeReader
}

func (emptyGroupReader) GetGroup(context.Context, string) (*models.Group, error) {
	return nil, nil
}

func newFakeReader(groups ...models.Group) *fakeReader {
	r := &fakeReader{
		groups: make(map[string]models.Group),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for _, g := range groups {
		r.groups[g.ID] = g
	}
	return r
}

func (r *fakeReader) enter(ctx context.Context, entity string) error {
	r.mu.Lock()
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(ctx, entity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[entity]++
	return r.errs[entity]
}

func (r *fakeReader) setErr(entity string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[entity] = err
}

func (r *fakeReader) count(entity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[entity]
}

func (r *fakeReader) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *fakeReader) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	err := r.enter(ctx, "group")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, groupID)
	r.times = append(r.times, time.Now())
	if err != nil {
		return nil, err
	}
	g, ok := r.groups[groupID]
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("group not found"))
	}
	return &g, nil
}

func (r *fakeReader) ListGroups(ctx context.Context) ([]models.Group, error) {
	if err := r.enter(ctx, "groups"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Group
	for _, g := range r.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b models.Group) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *fakeReader) ListMembers(ctx context.Context, _ string) ([]models.Member, error) {
	if err := r.enter(ctx, "members"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.members), nil
}

func (r *fakeReader) ListExpenses(ctx context.Context, _ string) ([]models.Expense, error) {
	if err := r.enter(ctx, "expenses"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.expenses), nil
}

func (r *fakeReader) ListMessages(ctx context.Context, _ string) ([]models.Message, error) {
	if err := r.enter(ctx, "messages"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages), nil
}

func (r *fakeReader) ListGoals(ctx context.Context, _ string) ([]models.Goal, error) {
	if err := r.enter(ctx, "goals"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.goals), nil
}

// fakeWriter records mutation calls.
type fakeWriter struct {
	mu    sync.Mutex
	calls []string
	err   error

	// onDeleteExpense runs inside DeleteExpense.
	onDeleteExpense func()
}

func (w *fakeWriter) record(call string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	return w.err
}

func (w *fakeWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func (w *fakeWriter) CreateExpense(_ context.Context, req *api.CreateExpenseRequest) (*models.Expense, error) {
	if err := w.record("CreateExpense"); err != nil {
		return nil, err
	}
	return &models.Expense{ID: "new", GroupID: req.GroupID, Title: req.Title, Amount: req.Amount}, nil
}

func (w *fakeWriter) UpdateExpense(_ context.Context, req *api.UpdateExpenseRequest) (*models.Expense, error) {
	if err := w.record("UpdateExpense"); err != nil {
		return nil, err
	}
	return &models.Expense{ID: req.ExpenseID, Title: req.Title, Amount: req.Amount}, nil
}

func (w *fakeWriter) DeleteExpense(context.Context, string) error {
	if w.onDeleteExpense != nil {
		w.onDeleteExpense()
	}
	return w.record("DeleteExpense")
}

func (w *fakeWriter) React(_ context.Context, expenseID string, kind models.ReactionKind) (*models.Reaction, error) {
	if err := w.record("React"); err != nil {
		return nil, err
	}
	return &models.Reaction{ExpenseID: expenseID, Kind: kind}, nil
}

func (w *fakeWriter) SendMessage(_ context.Context, groupID, content string) (*models.Message, error) {
	if err := w.record("SendMessage"); err != nil {
		return nil, err
	}
	return &models.Message{GroupID: groupID, Content: content}, nil
}

func (w *fakeWriter) DeleteMessages(context.Context, []string) error {
	return w.record("DeleteMessages")
}

func (w *fakeWriter) CreateGoal(_ context.Context, req *api.CreateGoalRequest) (*models.Goal, error) {
	if err := w.record("CreateGoal"); err != nil {
		return nil, err
	}
	return &models.Goal{GroupID: req.GroupID, Title: req.Title}, nil
}

func (w *fakeWriter) DeleteGoal(context.Context, string) error {
	return w.record("DeleteGoal")
}

func (w *fakeWriter) Contribute(_ context.Context, req *api.ContributeRequest) (*models.Goal, error) {
	if err := w.record("Contribute"); err != nil {
		return nil, err
	}
	return &models.Goal{ID: req.GoalID}, nil
}

func (w *fakeWriter) RemoveMember(context.Context, string) error {
	return w.record("RemoveMember")
}

func (w *fakeWriter) UpdateGroup(_ context.Context, groupID, name string) (*models.Group, error) {
	if err := w.record("UpdateGroup"); err != nil {
		return nil, err
	}
	return &models.Group{ID: groupID, Name: name}, nil
}

func (w *fakeWriter) DeleteGroup(context.Context, string) error {
	return w.record("DeleteGroup")
}

// fakeStream delivers events sent on its channel.
type fakeStream struct {
	ctx    context.Context
	events chan *models.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *fakeStream) Next() (*models.ChangeEvent, bool) {
	select {
	case ev, ok := <-s.events:
		return ev, ok
	case <-s.ctx.Done():
		return nil, false
	case <-s.done:
		return nil, false
	}
}

func (s *fakeStream) Err() error { return s.ctx.Err() }

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *fakeStream) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// send delivers ev or fails the test after a timeout.
func (s *fakeStream) send(t *testing.T, ev *models.ChangeEvent) {
	t.Helper()
	select {
	case s.events <- ev:
	case <-time.After(5 * time.Second):
		t.Fatalf("listener did not receive %s event", ev.Table)
	}
}

// fakeSubscriber hands every opened stream to the test.
type fakeSubscriber struct {
	streams chan *fakeStream
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{streams: make(chan *fakeStream, 8)}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, _ string) (Stream, error) {
	s := &fakeStream{ctx: ctx, events: make(chan *models.ChangeEvent), done: make(chan struct{})}
	f.streams <- s
	return s, nil
}

func (f *fakeSubscriber) next(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case s := <-f.streams:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not subscribe")
		return nil
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const testUser = "u1"

var testGroup = models.Group{ID: "g1", Name: "Flat", JoinCode: "ABC123", CreatedBy: testUser, CreatedAt: 1000}

func testMembers() []models.Member {
	return []models.Member{
		{ID: "m1", GroupID: "g1", UserID: testUser, Role: models.RoleAdmin, Name: "Asha"},
		{ID: "m2", GroupID: "g1", UserID: "u2", Role: models.RoleMember, Name: "Ben"},
	}
}

func testExpenses() []models.Expense {
	return []models.Expense{
		{ID: "e1", GroupID: "g1", Title: "Rent", Amount: amount("12000.50"), UserID: testUser, PaidBy: testUser, Date: 3000},
		{ID: "e2", GroupID: "g1", Title: "Milk", Amount: amount("42"), UserID: "u2", PaidBy: "u2", Date: 2000,
			Reactions: []models.Reaction{{UserID: testUser, Kind: models.ReactionLike}}},
		{ID: "e3", GroupID: "g1", Title: "Wifi", Amount: amount("999.99"), UserID: testUser, PaidBy: testUser, Date: 1000},
	}
}

func testMessages() []models.Message {
	return []models.Message{
		{ID: "c1", GroupID: "g1", UserID: testUser, UserName: "Asha", Content: "hi", CreatedAt: 1000},
		{ID: "c2", GroupID: "g1", UserID: "u2", UserName: "Ben", Content: "hey", CreatedAt: 2000},
	}
}

// liveReader serves the standard test group.
func liveReader() *fakeReader {
	r := newFakeReader(testGroup)
	r.members = testMembers()
	r.expenses = testExpenses()
	r.messages = testMessages()
	r.goals = []models.Goal{{ID: "goal1", GroupID: "g1", Title: "Trip", TargetAmount: amount("5000"), CurrentAmount: amount("100")}}
	return r
}

func fixedNow() time.Time { return time.UnixMilli(1_700_000_000_000) }

func testOptions() Options {
	return Options{Now: fixedNow, FetchTimeout: 2 * time.Second}
}

// seedCache writes a snapshot of the standard group.
func seedCache(t *testing.T, kv KV, e Entry) {
	t.Helper()
	if err := NewCacheStore(kv, nil).Write(context.Background(), e.Group.ID, e); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
}

func equalAmounts(t *testing.T, got, want []models.Expense) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d expenses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title {
			t.Errorf("expense %d = %s/%q, want %s/%q", i, got[i].ID, got[i].Title, want[i].ID, want[i].Title)
		}
		if !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("expense %s amount = %s, want %s", want[i].ID, got[i].Amount, want[i].Amount)
		}
	}
}
