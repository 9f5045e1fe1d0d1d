package results

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"stockout-app/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newStore(ttl, time.Hour, clock.Now), clock
}

func TestStore_PutGet(t *testing.T) {
	defer goleak.VerifyNone(t)
	s, clock := newTestStore(10 * time.Minute)
	defer s.Close()

	s.Put(&models.Result{RunID: "a"})
	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.RunID)

	clock.Advance(11 * time.Minute)
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	defer goleak.VerifyNone(t)
	s, clock := newTestStore(time.Minute)
	defer s.Close()

	s.Put(&models.Result{RunID: "old"})
	clock.Advance(2 * time.Minute)
	s.Put(&models.Result{RunID: "new"})

	assert.Equal(t, 1, s.Sweep())
	_, ok := s.Get("new")
	assert.True(t, ok)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := NewStore(time.Minute, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Close()
	s.Close()
}
