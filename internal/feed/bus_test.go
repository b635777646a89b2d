package feed

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventDelete, PatientID: "p-1"}))
	assert.Equal(t, "p-1", receive(t, a).PatientID)
	assert.Equal(t, "p-1", receive(t, b).PatientID)
}

func TestMemoryBusClosesOnCancel(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventInsert}))
}

func TestMemoryBusDropsForFullSubscriber(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+3; i++ {
		require.NoError(t, bus.Publish(context.Background(), Event{Type: EventUpdate}))
	}
	assert.Equal(t, int64(3), bus.Dropped())
}

func TestRedisBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client, patients.DefaultOwnerKey, logging.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	sent := Event{
		Type:      EventUpdate,
		PatientID: "p-1",
		Patient:   &patients.Patient{ID: "p-1", Name: "김하나", Status: patients.StatusActive},
		Origin:    "instance-a",
		Token:     "tok-1",
		At:        at,
	}
	require.NoError(t, bus.Publish(context.Background(), sent))

	got := receive(t, ch)
	assert.Equal(t, patients.DefaultOwnerKey, got.OwnerKey)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "instance-a", got.Origin)
	require.NotNil(t, got.Patient)
	assert.Equal(t, "김하나", got.Patient.Name)
	assert.True(t, at.Equal(got.At))
}

func TestRedisBusIgnoresOtherBoardsAndGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisBus(client, "board-a", logging.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventInsert, OwnerKey: "board-b", PatientID: "other"}))
	mr.Publish(Channel("board-a"), "not json")
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventInsert, PatientID: "mine"}))

	assert.Equal(t, "mine", receive(t, ch).PatientID)
}
