// Package board runs the treatment board: it applies writes to the store,
// keeps the local cache and connected browsers current, and mirrors changes
// made by other instances.
package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/herbal-board/internal/cache"
	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/observability/metrics"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/internal/schedule"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// Broadcaster pushes events to connected browsers.
type Broadcaster interface {
	Broadcast(ev feed.Event)
}

// Options tune a Service.
type Options struct {
	Owner      string
	InstanceID string
	Now        func() time.Time
}

// Service orchestrates board reads and writes.
type Service struct {
	repo       patients.Repository
	cache      cache.Cache
	bus        feed.Bus
	hub        Broadcaster
	suppressor *feed.Suppressor
	metrics    *metrics.BoardMetrics
	logger     *logging.Logger

	owner    string
	instance string
	now      func() time.Time
}

// NewService wires a service. cache, bus and hub may be nil.
func NewService(repo patients.Repository, c cache.Cache, bus feed.Bus, hub Broadcaster, suppressor *feed.Suppressor, m *metrics.BoardMetrics, logger *logging.Logger, opts Options) *Service {
	if repo == nil {
		panic("board: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if suppressor == nil {
		suppressor = feed.NewSuppressor(feed.DefaultSuppressTTL)
	}
	if opts.Owner == "" {
		opts.Owner = patients.DefaultOwnerKey
	}
	if opts.InstanceID == "" {
		opts.InstanceID = patients.NewID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:       repo,
		cache:      c,
		bus:        bus,
		hub:        hub,
		suppressor: suppressor,
		metrics:    m,
		logger:     logger,
		owner:      opts.Owner,
		instance:   opts.InstanceID,
		now:        opts.Now,
	}
}

// Owner returns the board key the service writes under.
func (s *Service) Owner() string { return s.owner }

// Warm reconciles the cache with the store at startup. Store rows replace
// the cache; an empty store leaves a non-empty cache alone so a fresh or
// broken database cannot wipe the last good snapshot.
func (s *Service) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if n, err := s.cache.CleanupStale(ctx); err != nil {
		s.logger.Warn("board: stale cache cleanup failed", "error", err)
	} else if n > 0 {
		s.logger.Info("board: removed stale cache snapshots", "count", n)
	}

	stored, err := s.repo.LoadAll(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("board: warm: %w", err)
	}
	if len(stored) > 0 {
		if err := s.cache.Replace(ctx, stored); err != nil {
			return fmt.Errorf("board: warm: %w", err)
		}
		s.logger.Info("board: cache warmed from store", "patients", len(stored))
		return nil
	}
	cached, err := s.cache.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("board: warm: %w", err)
	}
	if len(cached) > 0 {
		s.logger.Warn("board: store is empty but cache has records, keeping cache", "cached", len(cached))
	}
	return nil
}

// ListResult is one board tab plus counts over the whole board.
type ListResult struct {
	Patients []*patients.Patient `json:"patients"`
	Counts   patients.TabCounts  `json:"counts"`
	Stale    bool                `json:"stale"`
}

// List returns the rows matching f. When the store fails the cached snapshot
// is served and marked stale.
func (s *Service) List(ctx context.Context, f patients.Filter) (*ListResult, error) {
	all, stale, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Patients: patients.Select(all, f),
		Counts:   patients.CountTabs(all),
		Stale:    stale,
	}, nil
}

// Stats summarises the board.
type Stats struct {
	Tabs    patients.TabCounts    `json:"tabs"`
	Reviews patients.ReviewCounts `json:"reviews"`
	Stale   bool                  `json:"stale"`
}

// Stats counts rows per tab and per review kind.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, stale, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Tabs: patients.CountTabs(all), Reviews: patients.CountReviews(all), Stale: stale}, nil
}

// Snapshot returns every row of the board, newest first.
func (s *Service) Snapshot(ctx context.Context) ([]*patients.Patient, error) {
	all, _, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return patients.Select(all, patients.Filter{}), nil
}

func (s *Service) loadAll(ctx context.Context) ([]*patients.Patient, bool, error) {
	all, err := s.repo.LoadAll(ctx, s.owner)
	if err == nil {
		return all, false, nil
	}
	if s.cache == nil {
		return nil, false, fmt.Errorf("board: load: %w", err)
	}
	cached, cacheErr := s.cache.LoadAll(ctx)
	if cacheErr != nil {
		return nil, false, fmt.Errorf("board: load: %w", errors.Join(err, cacheErr))
	}
	s.metrics.ObserveCacheFallback()
	s.logger.Warn("board: store unavailable, serving cached snapshot", "error", err, "cached", len(cached))
	return cached, true, nil
}

// Get returns one record, from the cache when the store is unreachable.
func (s *Service) Get(ctx context.Context, id string) (*patients.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err == nil || errors.Is(err, patients.ErrPatientNotFound) {
		return p, err
	}
	if s.cache != nil {
		if cached, cacheErr := s.cache.LoadAll(ctx); cacheErr == nil {
			for _, c := range cached {
				if c.ID == id {
					return c, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("board: get: %w", err)
}

// ScheduleView is the rendered week grid of one patient.
type ScheduleView struct {
	PatientID   string           `json:"patient_id"`
	Start       string           `json:"treatment_start_date"`
	VisitPeriod int              `json:"visit_period"`
	Cadence     schedule.Cadence `json:"visit_interval"`
	Today       string           `json:"today"`
	TodayCode   string           `json:"today_code"`
	Slots       []schedule.Slot  `json:"slots"`
	Summary     schedule.Summary `json:"summary"`
}

// Schedule renders the week grid of a patient as of now.
func (s *Service) Schedule(ctx context.Context, id string) (*ScheduleView, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildScheduleView(p, s.now()), nil
}

// BuildScheduleView renders the week grid of p as of today.
func BuildScheduleView(p *patients.Patient, today time.Time) *ScheduleView {
	plan := p.Plan()
	slots := p.Grid(today)
	return &ScheduleView{
		PatientID:   p.ID,
		Start:       p.TreatmentStartDate,
		VisitPeriod: p.VisitPeriod,
		Cadence:     p.VisitInterval,
		Today:       schedule.FormatDate(today),
		TodayCode:   schedule.WeekOf(today).Code,
		Slots:       slots,
		Summary:     schedule.Summarize(plan, slots),
	}
}
