package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/herbal-board/internal/cache"
	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/observability/metrics"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

var fixedNow = time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)

var errStoreDown = errors.New("store down")

// recordingHub keeps every broadcast event.
type recordingHub struct {
	mu     sync.Mutex
	events []feed.Event
}

func (h *recordingHub) Broadcast(ev feed.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHub) all() []feed.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]feed.Event(nil), h.events...)
}

// flakyRepo fails the calls whose flag is set.
type flakyRepo struct {
	*patients.InMemoryRepository
	failLoad   bool
	failUpdate bool
}

func (r *flakyRepo) LoadAll(ctx context.Context, owner string) ([]*patients.Patient, error) {
	if r.failLoad {
		return nil, errStoreDown
	}
	return r.InMemoryRepository.LoadAll(ctx, owner)
}

func (r *flakyRepo) Get(ctx context.Context, id string) (*patients.Patient, error) {
	if r.failLoad {
		return nil, errStoreDown
	}
	return r.InMemoryRepository.Get(ctx, id)
}

func (r *flakyRepo) Update(ctx context.Context, id string, patch patients.Patch) (*patients.Patient, error) {
	if r.failUpdate {
		return nil, errStoreDown
	}
	return r.InMemoryRepository.Update(ctx, id, patch)
}

// failingBus accepts subscriptions but never publishes.
type failingBus struct{}

func (failingBus) Publish(context.Context, feed.Event) error { return errors.New("bus down") }

func (failingBus) Subscribe(ctx context.Context) (<-chan feed.Event, error) {
	ch := make(chan feed.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fixture struct {
	svc        *Service
	repo       *flakyRepo
	cache      *cache.Memory
	bus        feed.Bus
	hub        *recordingHub
	suppressor *feed.Suppressor
}

func newFixture(t *testing.T, bus feed.Bus) *fixture {
	t.Helper()
	f := &fixture{
		repo:       &flakyRepo{InMemoryRepository: patients.NewInMemoryRepository()},
		cache:      cache.NewMemory(),
		bus:        bus,
		hub:        &recordingHub{},
		suppressor: feed.NewSuppressor(time.Minute),
	}
	f.svc = NewService(f.repo, f.cache, bus, f.hub, f.suppressor,
		metrics.NewBoardMetrics(prometheus.NewRegistry()), logging.New("error"),
		Options{Owner: "clinic", InstanceID: "node-a", Now: func() time.Time { return fixedNow }})
	return f
}

func (f *fixture) register(t *testing.T, name string, mutate func(*patients.RegisterRequest)) *patients.Patient {
	t.Helper()
	req := patients.RegisterRequest{Name: name, TreatmentStartDate: "2024-01-01"}
	if mutate != nil {
		mutate(&req)
	}
	p, err := f.svc.Register(context.Background(), req, "")
	require.NoError(t, err)
	return p
}

func (f *fixture) cached(t *testing.T, id string) *patients.Patient {
	t.Helper()
	list, err := f.cache.LoadAll(context.Background())
	require.NoError(t, err)
	for _, p := range list {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
