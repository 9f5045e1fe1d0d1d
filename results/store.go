package results

import (
	"sync"
	"time"

	"stockout-app/models"
)

type entry struct {
	result  *models.Result
	expires time.Time
}

// Store keeps scored results between the upload and the follow-up filter and
// download requests. Entries expire after a TTL; nothing is written to disk.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]entry

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewStore starts a store whose janitor sweeps expired entries every sweep.
func NewStore(ttl, sweep time.Duration) *Store {
	return newStore(ttl, sweep, time.Now)
}

func newStore(ttl, sweep time.Duration, now func() time.Time) *Store {
	s := &Store{
		ttl:   ttl,
		now:   now,
		items: make(map[string]entry),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if sweep <= 0 {
		sweep = time.Minute
	}
	go s.janitor(sweep)
	return s
}

// Put stores r under its run id.
func (s *Store) Put(r *models.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.RunID] = entry{result: r, expires: s.now().Add(s.ttl)}
}

// Get returns the result for id unless it expired.
func (s *Store) Get(id string) (*models.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expires) {
		delete(s.items, id)
		return nil, false
	}
	return e.result, true
}

// Len returns the number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.items {
		if now.After(e.expires) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Close stops the janitor and waits for it to exit.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *Store) janitor(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
