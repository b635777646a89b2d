package board

import (
	"context"
	"time"

	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// Mirror applies changes published by other instances to the local cache and
// to connected browsers.
type Mirror struct {
	svc    *Service
	bus    feed.Bus
	logger *logging.Logger
	retry  time.Duration
}

// NewMirror creates a mirror reading from bus into svc.
func NewMirror(svc *Service, bus feed.Bus, logger *logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.Default()
	}
	return &Mirror{svc: svc, bus: bus, logger: logger, retry: 5 * time.Second}
}

// WithRetry overrides the resubscribe delay after the feed drops.
func (m *Mirror) WithRetry(d time.Duration) *Mirror {
	if d > 0 {
		m.retry = d
	}
	return m
}

// Start subscribes and mirrors events until ctx is cancelled, resubscribing
// whenever the subscription ends.
func (m *Mirror) Start(ctx context.Context) {
	if m == nil || m.bus == nil {
		return
	}
	ticker := time.NewTicker(m.retry)
	defer ticker.Stop()

	for {
		events, err := m.bus.Subscribe(ctx)
		if err != nil {
			m.logger.Error("board: feed subscribe failed", "error", err)
		} else {
			for ev := range events {
				m.Handle(ctx, ev)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handle applies one feed event. Echoes of local writes are dropped. When a
// local write to the same record is still in flight its fields are laid over
// the incoming row so the newer local edit is not rolled back.
func (m *Mirror) Handle(ctx context.Context, ev feed.Event) {
	s := m.svc
	if ev.OwnerKey != "" && ev.OwnerKey != s.owner {
		return
	}
	if s.suppressor.Echo(ev) {
		s.metrics.ObserveFeedEvent(string(ev.Type), "echo")
		return
	}
	if ev.Type != feed.EventDelete {
		if ev.Patient == nil {
			s.metrics.ObserveFeedEvent(string(ev.Type), "invalid")
			m.logger.Warn("board: feed event without patient", "type", ev.Type, "patient_id", ev.PatientID)
			return
		}
		if pending, ok := s.suppressor.Pending(ev.PatientID); ok {
			ev.Patient = patients.Overlay(ev.Patient, pending)
		}
	}
	s.apply(ctx, ev)
	s.metrics.ObserveFeedEvent(string(ev.Type), "applied")
}
