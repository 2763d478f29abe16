package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/despondency/notification-sync/internal/eventbus"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

//go:generate mockgen -source=store.go -destination=feedmocks/backend.go -package=feedmocks

// Backend is the part of the REST API the feed depends on.
type Backend interface {
	Notifications(ctx context.Context) ([]NotificationRecord, error)
	MarkAsRead(ctx context.Context, id string) (*NotificationRecord, error)
	MarkAllAsRead(ctx context.Context) error
}

var (
	ErrMarkFailed = fmt.Errorf("mark as read failed")
	ErrClosed     = fmt.Errorf("feed store closed")
)

// Status reports the in-flight flags and the outcome of the last fetch.
type Status struct {
	Loading    bool      `json:"loading"`
	Refreshing bool      `json:"refreshing"`
	Loaded     bool      `json:"loaded"`
	LastError  string    `json:"lastError,omitempty"`
	LastLoaded time.Time `json:"lastLoaded,omitempty"`
}

// Store is the client-side record of the notification feed. Mutations are
// applied optimistically and rolled back to the pre-mutation snapshot when
// the backend rejects them.
type Store struct {
	backend   Backend
	debouncer *Debouncer
	closed    *atomic.Bool

	mu         sync.Mutex
	records    []NotificationRecord
	query      string
	loading    int
	refreshing int
	loaded     bool
	lastErr    error
	lastLoaded time.Time
	bus        *eventbus.Bus

	// loadIssued is the sequence handed to the most recently issued fetch,
	// loadApplied the sequence of the fetch whose result is in records.
	loadIssued  uint64
	loadApplied uint64
	// mutations counts optimistic mutations and rollbacks.
	mutations uint64
}

func NewStore(backend Backend, searchDebounce time.Duration) *Store {
	s := &Store{
		backend: backend,
		closed:  atomic.NewBool(false),
	}
	s.debouncer = NewDebouncer(searchDebounce, s.applyQuery)
	return s
}

// Load fetches the whole feed and replaces the in-memory set. On failure
// the previous set is kept.
func (s *Store) Load(ctx context.Context) error {
	return s.load(ctx, false)
}

// Refresh is the user-initiated variant of Load, tracked by its own flag.
func (s *Store) Refresh(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Store) load(ctx context.Context, manual bool) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	s.loadIssued++
	seq := s.loadIssued
	mutationsAtIssue := s.mutations
	if manual {
		s.refreshing++
	} else {
		s.loading++
	}
	s.mu.Unlock()

	start := time.Now()
	fetched, err := s.backend.Notifications(ctx)
	metrics.FeedLoadDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if manual {
		s.refreshing--
	} else {
		s.loading--
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		s.lastErr = err
		metrics.FeedLoads.WithLabelValues("error").Inc()
		log.Err(err).Bool("manual", manual).Msg("failed to load notifications")
		return fmt.Errorf("loading notifications: %w", err)
	}
	if seq < s.loadApplied {
		metrics.FeedLoads.WithLabelValues("stale").Inc()
		log.Debug().Uint64("seq", seq).Uint64("applied", s.loadApplied).Msg("discarding stale feed load")
		return nil
	}

	next := SortNewestFirst(fetched)
	if s.mutations != mutationsAtIssue {
		next = mergeRead(next, s.records)
	}
	s.records = next
	s.loadApplied = seq
	s.loaded = true
	s.lastErr = nil
	s.lastLoaded = time.Now()
	metrics.FeedLoads.WithLabelValues("ok").Inc()
	return nil
}

// MarkOne marks id as read locally before calling the backend. When the
// backend call fails the whole feed is restored to the state it had right
// before the mutation and the returned error wraps ErrMarkFailed.
func (s *Store) MarkOne(ctx context.Context, id string) error {
	return <-s.MarkOneAsync(ctx, id)
}

// MarkAll marks every record as read with the same optimistic protocol as MarkOne.
func (s *Store) MarkAll(ctx context.Context) error {
	return <-s.MarkAllAsync(ctx)
}

// MarkOneAsync applies the optimistic update before returning and settles
// it in the background. The channel yields the outcome exactly once.
func (s *Store) MarkOneAsync(ctx context.Context, id string) <-chan error {
	return s.mutate(ctx, "one", func(r *NotificationRecord) bool { return r.ID == id }, func(ctx context.Context) error {
		_, err := s.backend.MarkAsRead(ctx, id)
		return err
	})
}

func (s *Store) MarkAllAsync(ctx context.Context) <-chan error {
	return s.mutate(ctx, "all", func(*NotificationRecord) bool { return true }, s.backend.MarkAllAsRead)
}

func (s *Store) mutate(ctx context.Context, op string, match func(*NotificationRecord) bool, call func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	if s.closed.Load() {
		done <- ErrClosed
		return done
	}
	s.mu.Lock()
	before := cloneAll(s.records)
	for i := range s.records {
		if match(&s.records[i]) {
			s.records[i].Read = true
		}
	}
	s.mutations++
	s.mu.Unlock()

	go func() {
		done <- s.settle(ctx, op, before, call)
	}()
	return done
}

func (s *Store) settle(ctx context.Context, op string, before []NotificationRecord, call func(context.Context) error) error {
	if err := call(ctx); err != nil {
		s.mu.Lock()
		if !s.closed.Load() {
			s.records = before
			s.mutations++
		}
		s.mu.Unlock()
		metrics.MarkOperations.WithLabelValues(op, "rolled_back").Inc()
		log.Err(err).Str("op", op).Msg("mark as read rejected, feed rolled back")
		return fmt.Errorf("%w: %w", ErrMarkFailed, err)
	}

	metrics.MarkOperations.WithLabelValues(op, "ok").Inc()
	s.mu.Lock()
	bus := s.bus
	s.mu.Unlock()
	if bus != nil && !s.closed.Load() {
		bus.Emit(eventbus.BadgePoke, nil)
	}
	return nil
}

// Mount reloads the feed on every RefreshAll signal until the returned
// func is called.
func (s *Store) Mount(bus *eventbus.Bus) func() {
	s.mu.Lock()
	s.bus = bus
	s.mu.Unlock()

	sub := bus.Subscribe(eventbus.RefreshAll, func(interface{}) {
		go func() {
			_ = s.Load(context.Background())
		}()
	})
	return func() {
		sub.Unsubscribe()
		s.mu.Lock()
		if s.bus == bus {
			s.bus = nil
		}
		s.mu.Unlock()
	}
}

// Close stops all further state updates, including ones from fetches
// still in flight.
func (s *Store) Close() {
	s.closed.Store(true)
	s.debouncer.Stop()
}

// SetQuery schedules a search query; it is applied after the debounce quiet period.
func (s *Store) SetQuery(q string) {
	s.debouncer.Set(q)
}

func (s *Store) SettledQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Store) applyQuery(q string) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current feed, newest first.
func (s *Store) Snapshot() []NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records)
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if !r.Read {
			n++
		}
	}
	return n
}

func (s *Store) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Loading:    s.loading > 0,
		Refreshing: s.refreshing > 0,
		Loaded:     s.loaded,
		LastLoaded: s.lastLoaded,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// View derives the sections for filter using the settled search query.
func (s *Store) View(filter Filter, now time.Time) View {
	s.mu.Lock()
	records := cloneAll(s.records)
	query := s.query
	s.mu.Unlock()
	return BuildView(records, filter, query, now)
}

// mergeRead carries local read flags onto a fetched set. Read only moves
// from false to true, so a local true always wins.
func mergeRead(fetched, local []NotificationRecord) []NotificationRecord {
	read := make(map[string]bool, len(local))
	for _, r := range local {
		if r.Read {
			read[r.ID] = true
		}
	}
	for i := range fetched {
		if read[fetched[i].ID] {
			fetched[i].Read = true
		}
	}
	return fetched
}
