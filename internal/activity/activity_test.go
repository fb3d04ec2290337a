package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockRecorder struct {
	mu      sync.Mutex
	batches []map[string]time.Time
	err     error
}

func (m *mockRecorder) RecordLogins(ctx context.Context, logins map[string]time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, logins)
	return m.err
}

func (m *mockRecorder) users() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time)
	for _, b := range m.batches {
		for id, at := range b {
			out[id] = at
		}
	}
	return out
}

type mockObserver struct {
	mu     sync.Mutex
	users  int
	errors int
}

func (o *mockObserver) ObserveActivityFlush(users int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.users += users
	if err != nil {
		o.errors++
	}
}

func TestCollector_KeepsLatestPerUser(t *testing.T) {
	ms := &mockRecorder{}
	c := NewCollector(ms, 100, time.Hour, nil)

	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	c.Record("u-1", t0.Add(time.Hour))
	c.Record("u-1", t0)
	c.Record("u-2", t0)
	c.Record("", t0)

	c.mu.Lock()
	n := len(c.pending)
	c.mu.Unlock()
	if n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}

	c.flush()
	got := ms.users()
	if !got["u-1"].Equal(t0.Add(time.Hour)) {
		t.Errorf("u-1 last seen = %v, want latest", got["u-1"])
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (o *mockObserver) snapshot() (users, errs int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.users, o.errors
}

func TestCollector_FlushOnBatchSize(t *testing.T) {
	ms := &mockRecorder{}
	obs := &mockObserver{}
	c := NewCollector(ms, 3, time.Hour, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	now := time.Now()
	c.Record("u-1", now)
	c.Record("u-2", now)
	time.Sleep(20 * time.Millisecond)
	if len(ms.users()) != 0 {
		t.Fatal("flushed before batch size was reached")
	}
	c.Record("u-3", now)

	waitFor(t, func() bool { return len(ms.users()) == 3 })
	if users, errs := obs.snapshot(); users != 3 || errs != 0 {
		t.Errorf("observer users=%d errors=%d", users, errs)
	}
	c.Stop()
}

func TestCollector_RecordDoesNotWrite(t *testing.T) {
	ms := &mockRecorder{}
	c := NewCollector(ms, 1, time.Hour, nil)

	c.Record("u-1", time.Now())
	c.Record("u-2", time.Now())
	if len(ms.batches) != 0 {
		t.Fatal("Record wrote to the store on the caller's goroutine")
	}

	c.flush()
	if got := len(ms.users()); got != 2 {
		t.Errorf("flushed %d users, want 2", got)
	}
}

func TestCollector_StopDoesFinalFlush(t *testing.T) {
	ms := &mockRecorder{}
	c := NewCollector(ms, 100, time.Hour, nil)

	finished := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(finished)
	}()

	c.Record("u-1", time.Now())
	c.Stop()
	c.Stop()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if len(ms.users()) != 1 {
		t.Fatal("expected final flush on Stop")
	}
}

func TestCollector_TimerFlush(t *testing.T) {
	ms := &mockRecorder{}
	c := NewCollector(ms, 100, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	c.Record("u-1", time.Now())
	time.Sleep(200 * time.Millisecond)

	if len(ms.users()) != 1 {
		t.Fatal("expected timer flush")
	}
	c.Stop()
}

func TestCollector_ErrorIsObserved(t *testing.T) {
	ms := &mockRecorder{err: errors.New("db down")}
	obs := &mockObserver{}
	c := NewCollector(ms, 1, time.Hour, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	c.Record("u-1", time.Now())
	waitFor(t, func() bool {
		_, errs := obs.snapshot()
		return errs == 1
	})
	c.Stop()
}

func TestCollector_ConcurrentRecords(t *testing.T) {
	ms := &mockRecorder{}
	c := NewCollector(ms, 10, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record(fmt.Sprintf("u-%d", i), time.Now())
		}(i)
	}
	wg.Wait()
	c.flush()

	if got := len(ms.users()); got != 50 {
		t.Fatalf("recorded %d users, want 50", got)
	}
}

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) CleanExpiredSessions(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestRunJanitor(t *testing.T) {
	cleaner := &countingCleaner{}
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		RunJanitor(ctx, cleaner, 20*time.Millisecond)
		close(finished)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
	if n := cleaner.calls.Load(); n < 2 {
		t.Errorf("sweeps = %d, want at least 2", n)
	}
}
