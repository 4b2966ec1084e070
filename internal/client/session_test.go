package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/simp-lee/advocates/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTimer is a timer fired by hand.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped atomic.Bool
}

func (t *fakeTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

// fakeScheduler records scheduled timers.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// pending returns the live timers scheduled with duration d.
func (s *fakeScheduler) pending(d time.Duration) []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if t.d == d && !t.stopped.Load() {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the single pending timer with duration d.
func (s *fakeScheduler) fire(t *testing.T, d time.Duration) {
	t.Helper()
	p := s.pending(d)
	if len(p) != 1 {
		t.Fatalf("expected one pending %v timer, got %d", d, len(p))
	}
	p[0].stopped.Store(true)
	p[0].f()
}

// call is one in-flight fake fetch.
type call struct {
	query domain.SearchQuery
	ctx   context.Context
	reply chan fetchReply
}

type fetchReply struct {
	rows []domain.Advocate
	err  error
}

// fakeFetcher blocks each fetch until the test replies to it.
type fakeFetcher struct {
	calls chan *call
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *call, 16)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, q domain.SearchQuery) ([]domain.Advocate, error) {
	c := &call{query: q, ctx: ctx, reply: make(chan fetchReply, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.rows, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fetch")
		return nil
	}
}

// stateRecorder collects OnChange notifications.
type stateRecorder struct {
	ch chan State
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{ch: make(chan State, 64)}
}

func (r *stateRecorder) onChange(s State) { r.ch <- s }

// waitFor returns the first recorded state satisfying ok.
func (r *stateRecorder) waitFor(t *testing.T, ok func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if ok(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
			return State{}
		}
	}
}

func newTestSession(t *testing.T, opts Options) (*Session, *fakeScheduler, *fakeFetcher, *stateRecorder) {
	t.Helper()
	sched := &fakeScheduler{}
	fetcher := newFakeFetcher()
	rec := newStateRecorder()
	opts.Scheduler = sched
	opts.OnChange = rec.onChange
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	}
	s := NewSession(fetcher, opts)
	t.Cleanup(s.Close)
	return s, sched, fetcher, rec
}

func TestSession_MountFetchesAndRenders(t *testing.T) {
	s, sched, fetcher, rec := newTestSession(t, Options{})

	s.Dispatch(Mounted{})
	if got := s.State().Status; got != StatusLoading {
		t.Fatalf("status = %v; want loading", got)
	}
	if len(sched.pending(DefaultLoaderGrace)) != 1 {
		t.Fatal("expected a loader grace timer with the default window")
	}

	c := fetcher.next(t)
	c.reply <- fetchReply{rows: rows(2)}

	got := rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })
	if len(got.Rows) != 2 {
		t.Errorf("rows = %d; want 2", len(got.Rows))
	}
	if len(sched.pending(DefaultLoaderGrace)) != 0 {
		t.Error("grace timer should be stopped after the fetch completes")
	}
}

func TestSession_DebounceRestarts(t *testing.T) {
	s, sched, fetcher, rec := newTestSession(t, Options{Debounce: 50 * time.Millisecond})

	for _, kw := range []string{"d", "da", "dan", "dant"} {
		s.Dispatch(KeywordChanged{Keyword: kw})
	}
	if n := len(sched.pending(50 * time.Millisecond)); n != 1 {
		t.Fatalf("pending debounce timers = %d; want 1", n)
	}

	sched.fire(t, 50*time.Millisecond)
	c := fetcher.next(t)
	if c.query.Keyword != "dant" {
		t.Errorf("fetched %q; want the last keyword", c.query.Keyword)
	}
	c.reply <- fetchReply{rows: rows(1)}
	rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })

	select {
	case extra := <-fetcher.calls:
		t.Errorf("unexpected extra fetch for %q", extra.query.Keyword)
	default:
	}
}

func TestSession_LoaderShownAfterGrace(t *testing.T) {
	s, sched, fetcher, rec := newTestSession(t, Options{LoaderGrace: 20 * time.Millisecond})

	s.Dispatch(Mounted{})
	c := fetcher.next(t)

	sched.fire(t, 20*time.Millisecond)
	rec.waitFor(t, func(s State) bool { return s.ShowLoader })

	c.reply <- fetchReply{rows: rows(1)}
	got := rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })
	if got.ShowLoader {
		t.Error("loader should hide once results arrive")
	}
}

func TestSession_StaleResponseIgnored(t *testing.T) {
	s, _, fetcher, rec := newTestSession(t, Options{})

	s.Dispatch(Mounted{})
	slow := fetcher.next(t)
	s.Dispatch(SortClicked{Key: "lastName"})
	fast := fetcher.next(t)

	fast.reply <- fetchReply{rows: rows(1)}
	rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })

	slow.reply <- fetchReply{rows: rows(7)}
	// The stale reply changes nothing; close to wait for its goroutine.
	s.Close()

	if got := len(s.State().Rows); got != 1 {
		t.Errorf("rows = %d; stale response was applied", got)
	}
}

func TestSession_FailureLogsAndClears(t *testing.T) {
	var logs bytes.Buffer
	s, _, fetcher, rec := newTestSession(t, Options{
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})

	s.Dispatch(Mounted{})
	fetcher.next(t).reply <- fetchReply{rows: rows(3)}
	rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })

	s.Dispatch(SortClicked{Key: "city"})
	fetcher.next(t).reply <- fetchReply{err: errors.New("status 500: boom")}
	got := rec.waitFor(t, func(s State) bool { return s.Status == StatusErrored })

	if got.Err != MsgFetchFailed || len(got.Rows) != 0 {
		t.Errorf("state = %+v; want generic error and no rows", got)
	}
	s.Close()
	if !strings.Contains(logs.String(), "boom") {
		t.Errorf("cause not logged: %s", logs.String())
	}
}

func TestSession_CloseCancelsInFlight(t *testing.T) {
	s, sched, fetcher, _ := newTestSession(t, Options{})

	s.Dispatch(Mounted{})
	c := fetcher.next(t)
	s.Dispatch(KeywordChanged{Keyword: "x"})

	s.Close()

	if c.ctx.Err() == nil {
		t.Error("in-flight fetch context should be canceled")
	}
	for _, tm := range sched.timers {
		if !tm.stopped.Load() {
			t.Errorf("timer %v still pending after Close", tm.d)
		}
	}

	s.Dispatch(Mounted{})
	select {
	case <-fetcher.calls:
		t.Error("dispatch after Close issued a fetch")
	default:
	}
	s.Close()
}

func TestSession_OnChangeInOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		gens []uint64
	)
	s := NewSession(newFakeFetcher(), Options{
		Scheduler: &fakeScheduler{},
		OnChange: func(st State) {
			mu.Lock()
			gens = append(gens, st.DebounceGen)
			mu.Unlock()
		},
	})
	defer s.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.Dispatch(KeywordChanged{Keyword: fmt.Sprintf("typist-%d-%d", g, i)})
			}
		}(g)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(gens) == 0 {
		t.Fatal("no states delivered")
	}
	for i := 1; i < len(gens); i++ {
		if gens[i] <= gens[i-1] {
			t.Fatalf("snapshot %d has DebounceGen %d after %d", i, gens[i], gens[i-1])
		}
	}
	if last := gens[len(gens)-1]; last != s.State().DebounceGen {
		t.Errorf("last delivered DebounceGen = %d; want %d", last, s.State().DebounceGen)
	}
}

func TestSession_NotifySkipsSupersededSnapshot(t *testing.T) {
	s, _, _, rec := newTestSession(t, Options{})

	s.notify(2, State{Keyword: "newer"})
	s.notify(1, State{Keyword: "older"})

	if got := <-rec.ch; got.Keyword != "newer" {
		t.Fatalf("first delivered = %q; want newer", got.Keyword)
	}
	select {
	case got := <-rec.ch:
		t.Errorf("superseded snapshot %q was delivered", got.Keyword)
	default:
	}
}

func TestSession_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("keyword") == "dant" {
			_, _ = w.Write([]byte(`{"success":true,"data":{"data":[{"id":3,"degree":"Dental Attendant"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"data":[]}}`))
	}))
	defer srv.Close()

	rec := newStateRecorder()
	s := NewSession(NewHTTPFetcher(srv.URL, srv.Client()), Options{
		Debounce:    time.Millisecond,
		LoaderGrace: time.Second,
		OnChange:    rec.onChange,
	})
	defer s.Close()

	s.Dispatch(KeywordChanged{Keyword: "dant"})
	got := rec.waitFor(t, func(s State) bool { return s.Status == StatusLoaded })
	if len(got.Rows) != 1 || got.Rows[0].Degree != "Dental Attendant" {
		t.Errorf("rows = %+v", got.Rows)
	}
}
