package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeScheduler fires timers only when the test advances it.
type fakeScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending map[int]*fakeTimer
}

type fakeTimer struct {
	s        *fakeScheduler
	id       int
	deadline time.Duration
	f        func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[int]*fakeTimer)}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &fakeTimer{s: s, id: s.nextID, deadline: s.now + d, f: f}
	s.pending[t.id] = t
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.pending[t.id]
	delete(t.s.pending, t.id)
	return ok
}

// Advance moves the clock forward, running due callbacks in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	for {
		var due []*fakeTimer
		for _, t := range s.pending {
			if t.deadline <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].deadline == due[j].deadline {
				return due[i].id < due[j].id
			}
			return due[i].deadline < due[j].deadline
		})
		t := due[0]
		delete(s.pending, t.id)
		s.now = t.deadline
		s.mu.Unlock()
		t.f()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetRate(ctx context.Context, query domain.RateQuery) (domain.Rate, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(domain.Rate), args.Error(1)
}

func (m *mockProvider) GetName() string {
	return "mock"
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.QuoteEvent
}

func (p *capturePublisher) PublishQuote(event domain.QuoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Record(ctx context.Context, sessionID string, quote domain.RateQuote) error {
	return m.Called(ctx, sessionID, quote).Error(0)
}

func rate(forward string) domain.Rate {
	return domain.Rate{
		Forward: decimal.RequireFromString(forward),
		Reverse: decimal.RequireFromString("0.0103"),
	}
}

func newTestForm(t *testing.T, provider domain.ExchangeRateProvider, opts ...Option) (*Form, *fakeScheduler) {
	t.Helper()
	sched := newFakeScheduler()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithScheduler(sched), WithLogger(logger), WithSessionID("test-session")}, opts...)
	f, err := NewForm(DefaultSettings(), provider, opts...)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f, sched
}

func TestNewForm_RejectsBadBounds(t *testing.T) {
	s := DefaultSettings()
	s.Left.Step = decimal.Zero
	_, err := NewForm(s, &mockProvider{})
	assert.ErrorIs(t, err, domain.ErrInvalidBound)

	s = DefaultSettings()
	s.Left.HasMax = false
	_, err = NewForm(s, &mockProvider{})
	assert.ErrorIs(t, err, domain.ErrInvalidBound)
}

func TestNewForm_GeneratesSessionID(t *testing.T) {
	f, err := NewForm(DefaultSettings(), &mockProvider{})
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.SessionID(), 15)
}

func TestForm_LeftSettlesAfterDebounce(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})

	require.NoError(t, f.EditLeft("5000.0"))
	sched.Advance(999 * time.Millisecond)
	assert.Equal(t, "5000.0", f.View().Left.Raw)
	assert.Equal(t, PhaseEditing, f.View().Left.Phase)

	sched.Advance(time.Millisecond)
	assert.Equal(t, "10000", f.View().Left.Raw)
	assert.Equal(t, PhaseIdle, f.View().Left.Phase)
}

func TestForm_OverflowSettlesToMin(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})

	require.NoError(t, f.EditLeft("80000000"))
	sched.Advance(time.Second)
	assert.Equal(t, "10000", f.View().Left.Raw)
}

func TestForm_TypingRestartsDebounce(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})

	require.NoError(t, f.EditLeft("5000"))
	sched.Advance(600 * time.Millisecond)
	require.NoError(t, f.EditLeft("20050"))
	sched.Advance(600 * time.Millisecond)
	assert.Equal(t, "20050", f.View().Left.Raw, "first timer was cancelled")

	sched.Advance(400 * time.Millisecond)
	assert.Equal(t, "20100", f.View().Left.Raw)
}

func TestForm_RightSettles(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})

	require.NoError(t, f.EditRight("0.0000005"))
	sched.Advance(time.Second)
	assert.Equal(t, "0.000001", f.View().Right.Raw)

	require.NoError(t, f.EditRight("-0.000001"))
	sched.Advance(time.Second)
	assert.Equal(t, "0", f.View().Right.Raw)
}

func TestForm_RefreshUsesActiveSide(t *testing.T) {
	provider := &mockProvider{}
	f, _ := newTestForm(t, provider)

	provider.On("GetRate", mock.Anything, mock.MatchedBy(func(q domain.RateQuery) bool {
		return q.Side == domain.SideLeft && q.Amount.Equal(decimal.NewFromInt(10000)) && q.Seq == 1 && q.ID != ""
	})).Return(rate("96.47"), nil).Once()
	require.NoError(t, f.RefreshRate(context.Background()))

	require.NoError(t, f.EditRight("5"))
	provider.On("GetRate", mock.Anything, mock.MatchedBy(func(q domain.RateQuery) bool {
		return q.Side == domain.SideRight && q.Amount.Equal(decimal.NewFromInt(5)) && q.Seq == 2
	})).Return(rate("96.5"), nil).Once()
	require.NoError(t, f.RefreshRate(context.Background()))

	provider.AssertExpectations(t)
	require.NotNil(t, f.View().Rate)
	assert.Equal(t, "96.5", f.View().Rate.Forward.String())
}

func TestForm_RefreshFailureKeepsLastRate(t *testing.T) {
	provider := &mockProvider{}
	f, _ := newTestForm(t, provider)
	upstream := errors.New("upstream down")

	provider.On("GetRate", mock.Anything, mock.Anything).Return(rate("96.47"), nil).Once()
	provider.On("GetRate", mock.Anything, mock.Anything).Return(domain.Rate{}, upstream).Once()

	require.NoError(t, f.RefreshRate(context.Background()))
	err := f.RefreshRate(context.Background())
	assert.ErrorIs(t, err, upstream)

	require.NotNil(t, f.View().Rate)
	assert.Equal(t, "96.47", f.View().Rate.Forward.String())
}

func TestForm_MountConvertsOnceRateKnown(t *testing.T) {
	provider := &mockProvider{}
	pub := &capturePublisher{}
	f, sched := newTestForm(t, provider, WithPublisher(pub))

	require.NoError(t, f.Mount())
	sched.Advance(time.Second)
	assert.Equal(t, "0", f.View().Right.Raw)

	provider.On("GetRate", mock.Anything, mock.Anything).Return(rate("96.47"), nil)
	require.NoError(t, f.RefreshRate(context.Background()))
	assert.Equal(t, "103.659169", f.View().Right.Raw)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "test-session", pub.events[0].SessionID)
	assert.Equal(t, domain.DirectionLeftToRight, pub.events[0].Direction)
}

func TestForm_ShortcutSharedDebounce(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetRate", mock.Anything, mock.Anything).Return(rate("96.47"), nil)
	pub := &capturePublisher{}
	f, sched := newTestForm(t, provider, WithPublisher(pub))
	require.NoError(t, f.RefreshRate(context.Background()))

	require.NoError(t, f.ClickPercentage(domain.SideLeft, 25))
	sched.Advance(time.Second)
	require.NoError(t, f.ClickPercentage(domain.SideRight, 100))
	sched.Advance(time.Second)
	assert.Equal(t, "10000", f.View().Left.Raw, "restarted, nothing fired yet")

	sched.Advance(200 * time.Millisecond)
	v := f.View()
	assert.Equal(t, "70000000", v.Left.Raw)
	assert.Equal(t, "725614.180574", v.Right.Raw)
	assert.Equal(t, domain.SideLeft, v.Active)
	assert.InDelta(t, 100, v.Progress, 1e-9)
	assert.Len(t, pub.events, 1)
}

func TestForm_ClickPercentageValidates(t *testing.T) {
	f, _ := newTestForm(t, &mockProvider{})
	assert.ErrorIs(t, f.ClickPercentage(domain.SideLeft, 33), domain.ErrInvalidPercentage)
	assert.ErrorIs(t, f.ClickPercentage(domain.Side("up"), 25), domain.ErrInvalidSide)
}

func TestForm_RightConversionAfterDelay(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetRate", mock.Anything, mock.Anything).Return(rate("100"), nil)
	f, sched := newTestForm(t, provider)
	require.NoError(t, f.RefreshRate(context.Background()))

	require.NoError(t, f.EditRight("250"))
	sched.Advance(time.Second)
	assert.Equal(t, "10000", f.View().Left.Raw)
	assert.Equal(t, "250", f.View().Right.Raw)

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, "25000", f.View().Left.Raw)
	assert.Equal(t, "250", f.View().Right.Raw)
}

func TestForm_CloseCancelsTimers(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})

	require.NoError(t, f.EditLeft("5000"))
	require.NoError(t, f.EditRight("1"))
	require.NoError(t, f.ClickPercentage(domain.SideLeft, 50))
	assert.Equal(t, 4, sched.Pending())

	f.Close()
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(5 * time.Second)
	assert.Equal(t, "5000", f.View().Left.Raw)

	assert.ErrorIs(t, f.EditLeft("1"), domain.ErrFormClosed)
	assert.ErrorIs(t, f.RefreshRate(context.Background()), domain.ErrFormClosed)
}

func TestForm_StaleFireIsDropped(t *testing.T) {
	f, sched := newTestForm(t, &mockProvider{})
	require.NoError(t, f.EditLeft("5000"))

	f.mu.Lock()
	stale := f.timers[TimerLeftSettle].gen
	f.mu.Unlock()

	require.NoError(t, f.EditLeft("30000"))
	// a callback that raced its own cancellation
	f.fire(TimerLeftSettle, stale, LeftSettleFired{})
	assert.Equal(t, "30000", f.View().Left.Raw)

	sched.Advance(time.Second)
	assert.Equal(t, "30000", f.View().Left.Raw)
	assert.Equal(t, PhaseIdle, f.View().Left.Phase)
}

func TestForm_JournalsAppliedRates(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetRate", mock.Anything, mock.Anything).Return(rate("96.47"), nil)
	journal := &mockJournal{}
	journal.On("Record", mock.Anything, "test-session", mock.MatchedBy(func(q domain.RateQuote) bool {
		return q.Rate.Forward.Equal(decimal.RequireFromString("96.47")) && q.Query.Side == domain.SideLeft
	})).Return(nil).Once()

	f, _ := newTestForm(t, provider, WithJournal(journal))
	require.NoError(t, f.RefreshRate(context.Background()))
	journal.AssertExpectations(t)
}

func TestForm_StaleRateNotJournaled(t *testing.T) {
	provider := &mockProvider{}
	journal := &mockJournal{}
	s := DefaultSettings()
	s.DiscardStaleRates = true

	sched := newFakeScheduler()
	f, err := NewForm(s, provider,
		WithScheduler(sched),
		WithJournal(journal),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	defer f.Close()

	// the user edits while the request is in flight
	provider.On("GetRate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { _ = f.EditLeft("20000") }).
		Return(rate("96.47"), nil).Once()

	require.NoError(t, f.RefreshRate(context.Background()))
	assert.Nil(t, f.View().Rate)
	journal.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestForm_SubscribeReceivesViews(t *testing.T) {
	f, _ := newTestForm(t, &mockProvider{})
	var got []View
	f.Subscribe(func(v View) { got = append(got, v) })

	require.NoError(t, f.EditLeft("12345"))
	require.Len(t, got, 1)
	assert.Equal(t, "12345", got[0].Left.Raw)
	assert.Equal(t, "test-session", got[0].SessionID)
}

func TestForm_ListenersNeverSeeOlderView(t *testing.T) {
	f, _ := newTestForm(t, &mockProvider{})
	var got []string
	f.Subscribe(func(v View) { got = append(got, v.Left.Raw) })

	// two dispatches whose outward work finishes in reverse order
	f.mu.Lock()
	_, first := f.applyLocked(LeftEdited{Text: "20000"})
	_, second := f.applyLocked(LeftEdited{Text: "30000"})
	f.mu.Unlock()

	second()
	first()
	assert.Equal(t, []string{"30000"}, got)

	require.NoError(t, f.EditLeft("40000"))
	assert.Equal(t, []string{"30000", "40000"}, got)
}
