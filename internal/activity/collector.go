// Package activity tracks when users were last seen and keeps the session
// table tidy. Both run as background loops owned by the serve command.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LoginRecorder persists last-login times in bulk.
type LoginRecorder interface {
	RecordLogins(ctx context.Context, logins map[string]time.Time) error
}

// Observer receives flush outcomes.
type Observer interface {
	ObserveActivityFlush(users int, err error)
}

// Collector buffers last-seen times per user in memory and periodically
// writes them through to the store. Only the latest time per user is kept,
// so a busy user costs one row per flush. It is safe for concurrent use.
type Collector struct {
	store         LoginRecorder
	obs           Observer
	pending       map[string]time.Time
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	kick          chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a Collector that flushes when batchSize distinct users
// are pending or every flushInterval, whichever comes first. obs may be nil.
func NewCollector(store LoginRecorder, batchSize int, flushInterval time.Duration, obs Observer) *Collector {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Collector{
		store:         store,
		obs:           obs,
		pending:       make(map[string]time.Time, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		kick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start flushes on a timer, and whenever Record fills a batch, until Stop is
// called or ctx is cancelled. It then performs a final flush. All writes
// happen on the goroutine running Start.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.kick:
			c.flush()
		case <-ctx.Done():
			c.flush()
			return
		case <-c.done:
			c.flush()
			return
		}
	}
}

// Record notes that userID was active at at. Earlier times for a user
// already in the buffer are ignored. A full batch wakes Start; Record itself
// never touches the store.
func (c *Collector) Record(userID string, at time.Time) {
	if userID == "" {
		return
	}
	c.mu.Lock()
	if prev, ok := c.pending[userID]; !ok || at.After(prev) {
		c.pending[userID] = at
	}
	shouldFlush := len(c.pending) >= c.batchSize
	c.mu.Unlock()

	if shouldFlush {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}

// flush logs store errors instead of returning them; a lost batch only
// delays a last-login timestamp.
func (c *Collector) flush() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.pending
	c.pending = make(map[string]time.Time, c.batchSize)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := c.store.RecordLogins(ctx, batch)
	if err != nil {
		slog.Error("failed to flush user activity", "users", len(batch), "error", err)
	}
	if c.obs != nil {
		c.obs.ObserveActivityFlush(len(batch), err)
	}
}

// Stop signals Start to return after a final flush. It is safe to call more
// than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
