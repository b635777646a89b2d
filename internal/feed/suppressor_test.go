package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wolfman30/herbal-board/internal/patients"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSuppressor(ttl time.Duration) (*Suppressor, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)}
	s := NewSuppressor(ttl)
	s.now = clock.now
	return s, clock
}

func str(s string) *string { return &s }

func TestSuppressorLifecycle(t *testing.T) {
	s, _ := newTestSuppressor(time.Minute)
	assert.Equal(t, Idle, s.State("p-1"))

	token := s.Begin("p-1", patients.Patch{Contact: str("010")}, "")
	assert.NotEmpty(t, token)
	assert.Equal(t, Syncing, s.State("p-1"))

	s.Persisted("p-1", token)
	assert.Equal(t, EchoSuppressed, s.State("p-1"))

	assert.False(t, s.Echo(Event{PatientID: "p-1", Token: "someone-else"}))
	assert.True(t, s.Echo(Event{PatientID: "p-1", Token: token}))
	assert.Equal(t, Idle, s.State("p-1"))
	assert.False(t, s.Echo(Event{PatientID: "p-1", Token: token}), "a token suppresses once")
}

func TestSuppressorIsPerRecord(t *testing.T) {
	s, _ := newTestSuppressor(time.Minute)
	token := s.Begin("p-1", patients.Patch{}, "shared-token")
	s.Persisted("p-1", token)

	assert.False(t, s.Echo(Event{PatientID: "p-2", Token: token}))
	assert.Equal(t, Idle, s.State("p-2"))
	assert.Equal(t, EchoSuppressed, s.State("p-1"))
}

func TestSuppressorAbort(t *testing.T) {
	s, _ := newTestSuppressor(time.Minute)
	token := s.Begin("p-1", patients.Patch{Name: str("a")}, "t1")
	s.Abort("p-1", token)
	assert.Equal(t, Idle, s.State("p-1"))
	_, ok := s.Pending("p-1")
	assert.False(t, ok)
}

func TestSuppressorExpiresLostEchoes(t *testing.T) {
	s, clock := newTestSuppressor(time.Second)
	token := s.Begin("p-1", patients.Patch{}, "")
	s.Persisted("p-1", token)

	clock.advance(2 * time.Second)
	assert.Equal(t, Idle, s.State("p-1"))
	assert.False(t, s.Echo(Event{PatientID: "p-1", Token: token}))
}

func TestSuppressorPendingMergesInOrder(t *testing.T) {
	s, clock := newTestSuppressor(time.Minute)
	s.Begin("p-1", patients.Patch{Contact: str("first"), Name: str("n")}, "t1")
	clock.advance(time.Millisecond)
	s.Begin("p-1", patients.Patch{Contact: str("second")}, "t2")

	pending, ok := s.Pending("p-1")
	assert.True(t, ok)
	assert.Equal(t, "second", *pending.Contact)
	assert.Equal(t, "n", *pending.Name)

	s.Persisted("p-1", "t1")
	assert.Equal(t, Syncing, s.State("p-1"), "any unpersisted write keeps the record syncing")
}
