package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/simp-lee/advocates/internal/domain"
)

// Default timings of a search session.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultLoaderGrace = 200 * time.Millisecond
)

// Options configures a Session.
type Options struct {
	Initial     domain.SearchQuery
	Debounce    time.Duration
	LoaderGrace time.Duration
	PageSize    int

	Scheduler Scheduler
	Logger    *slog.Logger

	// OnChange receives new states in the order they were produced. It runs
	// outside the session lock, possibly on a timer or fetch goroutine, and
	// must not call Dispatch. A snapshot superseded before delivery is skipped.
	OnChange func(State)
}

// Session runs Reduce against real timers and a Fetcher.
type Session struct {
	fetcher Fetcher
	opts    Options

	mu       sync.Mutex
	state    State
	version  uint64 // bumped on every observable change
	debounce Timer
	grace    Timer
	closed   bool

	notifyMu sync.Mutex
	notified uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates an idle session. Dispatch Mounted to issue the first fetch.
func NewSession(f Fetcher, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.LoaderGrace <= 0 {
		opts.LoaderGrace = DefaultLoaderGrace
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		fetcher: f,
		opts:    opts,
		state:   NewState(opts.Initial, opts.PageSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies ev and performs the resulting effects. Events after Close
// are dropped.
func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prev := s.state
	next, effects := Reduce(s.state, ev)
	s.state = next
	for _, eff := range effects {
		s.perform(eff)
	}
	changed := !sameState(prev, next)
	if changed {
		s.version++
	}
	version := s.version
	s.mu.Unlock()

	if changed {
		s.notify(version, next)
	}
}

// notify hands st to OnChange unless a newer version was already delivered.
func (s *Session) notify(version uint64, st State) {
	if s.opts.OnChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.notified {
		return
	}
	s.notified = version
	s.opts.OnChange(st)
}

// Close stops pending timers, cancels in-flight fetches and waits for them.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stopTimer(&s.debounce)
	stopTimer(&s.grace)
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// perform must be called with s.mu held.
func (s *Session) perform(eff Effect) {
	switch eff := eff.(type) {
	case ScheduleDebounce:
		stopTimer(&s.debounce)
		s.debounce = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() {
			s.Dispatch(DebounceElapsed{Gen: eff.Gen})
		})

	case ScheduleLoaderGrace:
		stopTimer(&s.grace)
		s.grace = s.opts.Scheduler.AfterFunc(s.opts.LoaderGrace, func() {
			s.Dispatch(LoaderGraceElapsed{Seq: eff.Seq})
		})

	case CancelLoaderGrace:
		stopTimer(&s.grace)

	case Fetch:
		// Superseded fetches run to completion; Reduce drops their results.
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			rows, err := s.fetcher.Fetch(s.ctx, eff.Query)
			if err != nil {
				s.Dispatch(FetchFailed{Seq: eff.Seq, Err: err})
				return
			}
			s.Dispatch(FetchSucceeded{Seq: eff.Seq, Rows: rows})
		}()

	case LogError:
		s.opts.Logger.Error("failed to fetch advocates",
			slog.Any("error", eff.Err),
			slog.Uint64("seq", eff.Seq),
			slog.Bool("stale", eff.Seq != s.state.Seq),
		)
	}
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// sameState reports whether a transition changed nothing observable.
func sameState(a, b State) bool {
	return a.Status == b.Status &&
		a.Keyword == b.Keyword &&
		a.Sort == b.Sort &&
		a.Visible == b.Visible &&
		a.ShowLoader == b.ShowLoader &&
		a.Err == b.Err &&
		a.Seq == b.Seq &&
		a.DebounceGen == b.DebounceGen &&
		len(a.Rows) == len(b.Rows) &&
		(len(a.Rows) == 0 || &a.Rows[0] == &b.Rows[0])
}
