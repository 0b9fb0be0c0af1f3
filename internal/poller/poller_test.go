package poller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/probablyprofit/dashsync/internal/metrics"
)

// call is one in-flight Fetch waiting for the test to answer it.
type call struct {
	endpoint string
	reply    chan reply
}

type reply struct {
	body []byte
	err  error
}

func (c *call) ok(body string) { c.reply <- reply{body: []byte(body)} }
func (c *call) fail(err error) { c.reply <- reply{err: err} }

// fakeFetcher hands every Fetch to the test through calls.
type fakeFetcher struct {
	calls     chan *call
	ignoreCtx bool // keep waiting for a reply after cancellation
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *call, 16)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	c := &call{endpoint: endpoint, reply: make(chan reply, 1)}
	f.calls <- c

	if f.ignoreCtx {
		r := <-c.reply
		return r.body, r.err
	}

	select {
	case r := <-c.reply:
		return r.body, r.err
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
		t.Fatal("timed out waiting for fetch")
		return nil
	}
}

func (f *fakeFetcher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch of %s", c.endpoint)
	case <-time.After(50 * time.Millisecond):
	}
}

func stringConfig(interval time.Duration) Config[string] {
	return Config[string]{
		Name:     "status",
		Endpoint: "/status",
		Interval: interval,
		Decode:   func(b []byte) (string, error) { return string(b), nil },
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startPoller(t *testing.T, p *Poller[string]) {
	t.Helper()
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p.Stop(ctx)
	})
}

func TestPoller_ImmediateFetchAndLoading(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)

	if s := p.Snapshot(); s.Loading || s.HasValue {
		t.Errorf("before Start: %+v, want zero snapshot", s)
	}

	startPoller(t, p)

	c := f.next(t)
	if c.endpoint != "/status" {
		t.Errorf("endpoint = %q, want /status", c.endpoint)
	}
	if s := p.Snapshot(); !s.Loading {
		t.Error("Loading should be true while the first fetch is in flight")
	}

	c.ok("v1")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	s := p.Snapshot()
	if s.Value != "v1" || s.Loading || s.Err != "" || s.Seq != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	// Interval 0 never re-polls.
	f.expectNone(t)
}

func TestPoller_OutOfOrderResponses(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFakeFetcher()
	p := New(stringConfig(0), f, WithMetrics(metrics.New(reg)))
	startPoller(t, p)

	f.next(t).ok("initial")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	older := make(chan error, 1)
	go func() { older <- p.Refresh(context.Background()) }()
	c2 := f.next(t)

	newer := make(chan error, 1)
	go func() { newer <- p.Refresh(context.Background()) }()
	c3 := f.next(t)

	// The later request completes first.
	c3.ok("newest")
	if err := <-newer; err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	c2.ok("older")
	if err := <-older; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	s := p.Snapshot()
	if s.Value != "newest" || s.Seq != 3 {
		t.Errorf("snapshot = %+v, want value newest seq 3", s)
	}

	expected := `
# HELP dashsync_poll_stale_discarded_total Responses discarded because a newer one was applied or the poller was stopped.
# TYPE dashsync_poll_stale_discarded_total counter
dashsync_poll_stale_discarded_total{resource="status"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dashsync_poll_stale_discarded_total"); err != nil {
		t.Error(err)
	}
}

func TestPoller_FailureKeepsValue(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)
	startPoller(t, p)

	f.next(t).ok("good")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).fail(errors.New("api error: 502"))
	if err := <-done; err != nil {
		t.Fatalf("Refresh returned fetch error: %v", err)
	}

	s := p.Snapshot()
	if s.Value != "good" || !s.HasValue {
		t.Errorf("value = %q, want good", s.Value)
	}
	if s.Err != "api error: 502" {
		t.Errorf("Err = %q, want api error: 502", s.Err)
	}
	if !s.Stale() {
		t.Error("Stale() should be true")
	}

	// A later success clears the error.
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).ok("better")
	<-done

	s = p.Snapshot()
	if s.Value != "better" || s.Err != "" {
		t.Errorf("snapshot = %+v, want better without error", s)
	}
}

func TestPoller_DecodeFailureKeepsValue(t *testing.T) {
	f := newFakeFetcher()
	cfg := Config[int]{Name: "perf", Endpoint: "/performance"}
	p := New(cfg, f)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(context.Background())

	f.next(t).ok("42")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).ok("{not json")
	<-done

	s := p.Snapshot()
	if s.Value != 42 || s.Err == "" {
		t.Errorf("snapshot = %+v, want 42 with decode error", s)
	}
}

func TestPoller_StopDiscardsInFlightLoopResponse(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(time.Hour), f)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c := f.next(t)

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	c.ok("late")

	s := p.Snapshot()
	if s.HasValue || s.Err != "" || s.Seq != 0 {
		t.Errorf("snapshot mutated after Stop: %+v", s)
	}
	select {
	case <-p.Changes():
		t.Error("change signalled after Stop")
	default:
	}
}

func TestPoller_StopDiscardsInFlightRefresh(t *testing.T) {
	f := newFakeFetcher()
	f.ignoreCtx = true
	p := New(stringConfig(0), f)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.next(t).ok("before")
	waitFor(t, func() bool { return p.Snapshot().HasValue })
	<-p.Changes()

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	c := f.next(t)

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// The response arrives after teardown.
	c.ok("after")
	<-done

	s := p.Snapshot()
	if s.Value != "before" || s.Seq != 1 {
		t.Errorf("snapshot mutated after Stop: %+v", s)
	}
	select {
	case <-p.Changes():
		t.Error("change signalled after Stop")
	default:
	}
}

func TestPoller_RefreshKeepsTickerPhase(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f := newFakeFetcher()
	p := New(stringConfig(5*time.Second), f, WithClock(clock))
	startPoller(t, p)

	f.next(t).ok("t0")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	clock.Advance(4 * time.Second)
	f.expectNone(t)

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).ok("manual")
	<-done

	// The next tick is still due 5s after Start, not 5s after the refresh.
	clock.Advance(time.Second)
	f.next(t).ok("t5")
	waitFor(t, func() bool { return p.Snapshot().Value == "t5" })

	clock.Advance(4 * time.Second)
	f.expectNone(t)
	clock.Advance(time.Second)
	f.next(t).ok("t10")
	waitFor(t, func() bool { return p.Snapshot().Value == "t10" })
}

func TestPoller_ExecSharesSequence(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)
	startPoller(t, p)

	f.next(t).ok("cached-1")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	s, err := p.Exec(context.Background(), func(ctx context.Context) (string, error) {
		return "scanned", nil
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if s.Value != "scanned" || s.Seq != 2 {
		t.Errorf("after Exec: %+v, want scanned seq 2", s)
	}

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).ok("cached-2")
	<-done

	if got := p.Snapshot().Value; got != "cached-2" {
		t.Errorf("after Refresh: %q, want cached-2", got)
	}
}

func TestPoller_ExecSupersededByNewerFetch(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)
	startPoller(t, p)

	f.next(t).ok("cached-1")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	release := make(chan struct{})
	entered := make(chan struct{})
	type result struct {
		snap Snapshot[string]
		err  error
	}
	execDone := make(chan result, 1)
	go func() {
		s, err := p.Exec(context.Background(), func(ctx context.Context) (string, error) {
			close(entered)
			<-release
			return "scanned", nil
		})
		execDone <- result{s, err}
	}()
	<-entered

	done := make(chan error, 1)
	go func() { done <- p.Refresh(context.Background()) }()
	f.next(t).ok("cached-2")
	<-done

	close(release)
	r := <-execDone
	if r.err != nil {
		t.Fatalf("Exec: %v", r.err)
	}
	if r.snap.Value != "cached-2" {
		t.Errorf("Exec snapshot = %q, want cached-2", r.snap.Value)
	}
	if got := p.Snapshot().Value; got != "cached-2" {
		t.Errorf("snapshot = %q, want cached-2", got)
	}
}

func TestPoller_ExecErrorNotWritten(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)
	startPoller(t, p)

	f.next(t).ok("cached")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	boom := errors.New("scan failed")
	s, err := p.Exec(context.Background(), func(ctx context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want scan failed", err)
	}
	if s.Value != "cached" || s.Err != "" {
		t.Errorf("snapshot = %+v, want cached without error", s)
	}
}

func TestPoller_Lifecycle(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)

	if err := p.Refresh(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Refresh before Start = %v, want ErrNotStarted", err)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	f.next(t).ok("x")

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
	if err := p.Refresh(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Refresh after Stop = %v, want ErrStopped", err)
	}
	if _, err := p.Exec(context.Background(), func(context.Context) (string, error) { return "", nil }); !errors.Is(err, ErrStopped) {
		t.Errorf("Exec after Stop = %v, want ErrStopped", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop = %v, want ErrStopped", err)
	}
}

func TestPoller_ChangesCoalesce(t *testing.T) {
	f := newFakeFetcher()
	p := New(stringConfig(0), f)
	startPoller(t, p)

	f.next(t).ok("a")
	waitFor(t, func() bool { return p.Snapshot().HasValue })

	for _, v := range []string{"b", "c"} {
		done := make(chan error, 1)
		go func() { done <- p.Refresh(context.Background()) }()
		f.next(t).ok(v)
		<-done
	}

	select {
	case <-p.Changes():
	default:
		t.Fatal("expected a pending change")
	}
	select {
	case <-p.Changes():
		t.Error("changes should coalesce into one signal")
	default:
	}
}

func TestPoller_StopWaitsForContext(t *testing.T) {
	f := newFakeFetcher()
	f.ignoreCtx = true
	p := New(stringConfig(time.Hour), f)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c := f.next(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop = %v, want deadline exceeded", err)
	}

	c.ok("late")
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop = %v", err)
	}
	if p.Snapshot().HasValue {
		t.Error("late loop response applied after Stop")
	}
}
