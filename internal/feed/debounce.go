package feed

import (
	"strings"
	"sync"
	"time"
)

const DefaultSearchDebounce = 250 * time.Millisecond

// Debouncer coalesces rapid query updates. Only the value that stays
// unchanged for the quiet period is applied.
type Debouncer struct {
	quiet time.Duration
	apply func(string)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending string
}

func NewDebouncer(quiet time.Duration, apply func(string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultSearchDebounce
	}
	return &Debouncer{quiet: quiet, apply: apply}
}

func (d *Debouncer) Set(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	d.pending = strings.TrimSpace(query)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		q := d.pending
		d.mu.Unlock()
		d.apply(q)
	})
}

// Flush applies the pending query immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	q := d.pending
	d.mu.Unlock()
	d.apply(q)
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
