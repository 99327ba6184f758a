package datasync

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultSaveDelay is how long a save waits for further changes
const DefaultSaveDelay = 1200 * time.Millisecond

// Debouncer batches save requests. Each Trigger restarts the timer, and when
// it fires every deck key triggered since the last flush is passed to the
// flush function at once.
type Debouncer struct {
	mu sync.Mutex

	// flushMu serializes flushes so Stop and Flush return after a running one
	flushMu sync.Mutex
	delay   time.Duration
	flush   func(deckKeys []string)
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, flush func(deckKeys []string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Debouncer{
		delay:   delay,
		flush:   flush,
		pending: make(map[string]struct{}),
	}
}

// Trigger queues a save of the deck. It does nothing once stopped.
func (d *Debouncer) Trigger(deckKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending[deckKey] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.run)
}

// Flush saves the queued decks right away, after any flush in progress
func (d *Debouncer) Flush() {
	d.run()
}

// Stop waits for a flush in progress, flushes the queued decks and ignores
// later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.run()
}

func (d *Debouncer) run() {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	keys := lo.Keys(d.pending)
	clear(d.pending)
	d.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	slices.Sort(keys)
	d.flush(keys)
}
