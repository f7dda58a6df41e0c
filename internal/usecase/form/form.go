package form

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

const defaultRequestTimeout = 5 * time.Second

type armedTimer struct {
	timer Timer
	gen   uint64
}

// Form is one mounted exchange form. Every change goes through Reduce under
// a single lock, so user edits, timer fires and rate responses are applied
// strictly one after another.
type Form struct {
	id       string
	settings Settings

	provider  domain.ExchangeRateProvider
	scheduler Scheduler
	publisher domain.QuotePublisher
	journal   domain.RateJournal
	recorder  Recorder
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	state     State
	timers    map[TimerID]armedTimer
	gen       uint64
	seq       uint64
	closed    bool
	listeners []func(View)
	viewSeq   uint64

	// deliverMu orders listener calls. A view older than the last one
	// delivered is dropped.
	deliverMu     sync.Mutex
	lastDelivered uint64
}

type Option func(*Form)

func WithSessionID(id string) Option {
	return func(f *Form) { f.id = id }
}

func WithScheduler(s Scheduler) Option {
	return func(f *Form) { f.scheduler = s }
}

func WithPublisher(p domain.QuotePublisher) Option {
	return func(f *Form) { f.publisher = p }
}

func WithJournal(j domain.RateJournal) Option {
	return func(f *Form) { f.journal = j }
}

func WithRecorder(r Recorder) Option {
	return func(f *Form) { f.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(f *Form) { f.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

func NewForm(settings Settings, provider domain.ExchangeRateProvider, opts ...Option) (*Form, error) {
	if err := settings.Left.Validate(); err != nil {
		return nil, fmt.Errorf("left bound: %w", err)
	}
	if !settings.Left.HasMax {
		return nil, fmt.Errorf("left bound: %w: max is required", domain.ErrInvalidBound)
	}
	if err := settings.Right.Validate(); err != nil {
		return nil, fmt.Errorf("right bound: %w", err)
	}

	f := &Form{
		settings:  settings,
		provider:  provider,
		scheduler: RealScheduler(),
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		timeout:   defaultRequestTimeout,
		now:       time.Now,
		state:     NewState(settings),
		timers:    make(map[TimerID]armedTimer),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.id == "" {
		idGenerator, err := nanoid.Standard(15)
		if err != nil {
			return nil, fmt.Errorf("session id generator: %w", err)
		}
		f.id = idGenerator()
	}
	f.logger = f.logger.With("session_id", f.id)

	return f, nil
}

func (f *Form) SessionID() string {
	return f.id
}

// Subscribe registers fn to be called with a fresh view after every change.
// Views arrive in state order. fn must not dispatch into the form.
func (f *Form) Subscribe(fn func(View)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Mount arms the initial settle of the default values.
func (f *Form) Mount() error {
	_, err := f.dispatch(Mounted{})
	return err
}

func (f *Form) EditLeft(text string) error {
	_, valid := parseAmount(text)
	if _, err := f.dispatch(LeftEdited{Text: text}); err != nil {
		return err
	}
	f.recorder.RecordEdit(domain.SideLeft, valid)
	return nil
}

func (f *Form) EditRight(text string) error {
	_, valid := parseAmount(text)
	if _, err := f.dispatch(RightEdited{Text: text}); err != nil {
		return err
	}
	f.recorder.RecordEdit(domain.SideRight, valid)
	return nil
}

// ClickPercentage handles a shortcut button from either field's row. The
// value is always derived from the left field's max.
func (f *Form) ClickPercentage(side domain.Side, percent int) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSide, side)
	}
	if !ValidPercentage(percent) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidPercentage, percent)
	}
	if _, err := f.dispatch(ShortcutClicked{Side: side, Percent: percent}); err != nil {
		return err
	}
	f.recorder.RecordShortcut(side, percent)
	return nil
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return NewView(f.id, f.settings, f.state)
}

// RefreshRate requests a rate for the active field's amount and feeds the
// answer back into the form. On failure the stored rate is left untouched.
func (f *Form) RefreshRate(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrFormClosed
	}
	f.seq++
	query := domain.RateQuery{
		ID:     uuid.NewString(),
		Seq:    f.seq,
		Side:   f.state.Active,
		Amount: f.state.ActiveValue(),
	}
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	rate, err := f.provider.GetRate(ctx, query)
	elapsed := time.Since(start)
	if err != nil {
		f.recorder.RecordRateFetch(RateOutcomeError, elapsed)
		return fmt.Errorf("rate %s from %s: %w", query.ID, f.provider.GetName(), err)
	}

	quote := domain.RateQuote{Query: query, Rate: rate, FetchedAt: f.now()}
	cmds, err := f.dispatch(RateArrived{Quote: quote})
	if err != nil {
		return err
	}

	for _, c := range cmds {
		if _, ok := c.(RateApplied); ok {
			f.recorder.RecordRateFetch(RateOutcomeOK, elapsed)
			return nil
		}
	}
	f.recorder.RecordRateFetch(RateOutcomeStale, elapsed)
	f.logger.Debug("stale rate discarded", "request_id", query.ID, "seq", query.Seq)
	return nil
}

// Close cancels every pending timer. Later events are ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, t := range f.timers {
		t.timer.Stop()
		delete(f.timers, id)
	}
	f.logger.Info("form closed")
}

func (f *Form) dispatch(ev Event) ([]Command, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, domain.ErrFormClosed
	}
	cmds, after := f.applyLocked(ev)
	f.mu.Unlock()

	after()
	return cmds, nil
}

// fire is the timer callback. A fire whose generation is no longer current
// belongs to a cancelled timer and is dropped.
func (f *Form) fire(id TimerID, gen uint64, ev Event) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	t, ok := f.timers[id]
	if !ok || t.gen != gen {
		f.mu.Unlock()
		return
	}
	delete(f.timers, id)
	_, after := f.applyLocked(ev)
	f.mu.Unlock()

	after()
}

// applyLocked must be called with f.mu held. The returned func performs the
// outward work and must be called after the lock is released.
func (f *Form) applyLocked(ev Event) ([]Command, func()) {
	next, cmds := Reduce(f.settings, f.state, ev)
	f.state = next

	var quotes []EmitQuote
	var applied []domain.RateQuote
	var settled []Settled
	for _, c := range cmds {
		switch c := c.(type) {
		case ArmTimer:
			f.armLocked(c)
		case EmitQuote:
			quotes = append(quotes, c)
		case RateApplied:
			applied = append(applied, c.Quote)
		case Settled:
			settled = append(settled, c)
		}
	}

	view := NewView(f.id, f.settings, f.state)
	f.viewSeq++
	seq := f.viewSeq
	listeners := make([]func(View), len(f.listeners))
	copy(listeners, f.listeners)

	return cmds, func() {
		for _, s := range settled {
			f.recorder.RecordSettle(s.Side, s.Reset)
		}
		for _, q := range applied {
			f.recordRate(q)
		}
		for _, q := range quotes {
			f.publishQuote(q)
		}
		f.recorder.RecordProgress(view.Progress)
		f.deliver(seq, view, listeners)
	}
}

func (f *Form) deliver(seq uint64, view View, listeners []func(View)) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	if seq <= f.lastDelivered {
		return
	}
	f.lastDelivered = seq
	for _, l := range listeners {
		l(view)
	}
}

func (f *Form) armLocked(c ArmTimer) {
	if prev, ok := f.timers[c.Timer]; ok {
		prev.timer.Stop()
	}
	f.gen++
	gen := f.gen
	id, ev := c.Timer, c.Fire
	t := f.scheduler.AfterFunc(c.After, func() { f.fire(id, gen, ev) })
	f.timers[c.Timer] = armedTimer{timer: t, gen: gen}
}

func (f *Form) recordRate(q domain.RateQuote) {
	f.recorder.RecordRate(q.Rate.Forward.InexactFloat64())
	if f.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.journal.Record(ctx, f.id, q); err != nil {
		f.logger.Error("failed to journal rate", "request_id", q.Query.ID, "error", err)
	}
}

func (f *Form) publishQuote(q EmitQuote) {
	f.recorder.RecordConversion(q.Direction)
	f.logger.Info("fields converted",
		"direction", q.Direction,
		"rub", q.RUB.String(),
		"usdt", q.USDT.String(),
		"forward", q.Forward.String(),
	)
	if f.publisher == nil {
		return
	}
	event := domain.QuoteEvent{
		SessionID:   f.id,
		Direction:   q.Direction,
		RUB:         q.RUB,
		USDT:        q.USDT,
		ForwardRate: q.Forward,
		At:          f.now(),
	}
	if err := f.publisher.PublishQuote(event); err != nil {
		f.logger.Error("failed to publish quote", "direction", q.Direction, "error", err)
	}
}
