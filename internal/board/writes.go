package board

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/internal/schedule"
)

// Register validates and stores a new patient.
func (s *Service) Register(ctx context.Context, req patients.RegisterRequest, token string) (*patients.Patient, error) {
	p, err := patients.Register(req, s.owner, s.now())
	if err != nil {
		return nil, err
	}
	patch := patients.Patch{Name: &p.Name}
	return s.commit(ctx, "insert", feed.EventInsert, p.ID, patch, token, func(ctx context.Context) (*patients.Patient, error) {
		if err := s.repo.Insert(ctx, s.owner, p); err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Update applies a partial update. Moving a patient into graduated without a
// date fills one in from the attendance record.
func (s *Service) Update(ctx context.Context, id string, patch patients.Patch, token string) (*patients.Patient, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, patch.WithGraduation(current, s.now()), token)
}

// SetAttendance records the mark of one week-slot. reason is only stored for
// missed slots.
func (s *Service) SetAttendance(ctx context.Context, id string, week int, mark schedule.Mark, reason *string, token string) (*patients.Patient, error) {
	if week < 0 || week >= schedule.SlotCount {
		return nil, patients.ErrWeekOutOfRange
	}
	if mark != schedule.MarkMissed {
		reason = nil
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	visits, reasons := schedule.SetMark(current.WeeklyVisits, current.MissedReasons, week, mark, reason)
	return s.update(ctx, id, patients.Patch{WeeklyVisits: &visits, MissedReasons: &reasons}, token)
}

// ClearReason deletes the missed reason of one week-slot.
func (s *Service) ClearReason(ctx context.Context, id string, week int, token string) (*patients.Patient, error) {
	if week < 0 || week >= schedule.SlotCount {
		return nil, patients.ErrWeekOutOfRange
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	reasons := schedule.ClearReason(current.MissedReasons, week)
	return s.update(ctx, id, patients.Patch{MissedReasons: &reasons}, token)
}

// ToggleSkip flips the override of one week-slot inside the visit horizon.
func (s *Service) ToggleSkip(ctx context.Context, id string, week int, token string) (*patients.Patient, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Plan().InRange(week) {
		return nil, patients.ErrWeekOutOfRange
	}
	skips := current.SkipWeeks.Toggle(week)
	return s.update(ctx, id, patients.Patch{SkipWeeks: &skips}, token)
}

// SetHerbal stores the record of one herbal month. month is zero based and
// must be open for the patient's prescription.
func (s *Service) SetHerbal(ctx context.Context, id string, month int, rec patients.HerbalRecord, token string) (*patients.Patient, error) {
	if month < 0 || month >= patients.HerbalMonths {
		return nil, patients.ErrMonthOutOfRange
	}
	if rec.Date != "" {
		if _, ok := schedule.ParseDate(rec.Date); !ok {
			return nil, fmt.Errorf("%w: date", patients.ErrInvalidField)
		}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.HerbalMonthActive(month) {
		return nil, patients.ErrMonthOutOfRange
	}
	herbal := append([]patients.HerbalRecord(nil), current.Herbal...)
	rec.Month = month + 1
	herbal[month] = rec
	return s.update(ctx, id, patients.Patch{Herbal: &herbal}, token)
}

// Delete removes a patient.
func (s *Service) Delete(ctx context.Context, id string, token string) error {
	_, err := s.commit(ctx, "delete", feed.EventDelete, id, patients.Patch{}, token, func(ctx context.Context) (*patients.Patient, error) {
		return nil, s.repo.Delete(ctx, id)
	})
	return err
}

func (s *Service) update(ctx context.Context, id string, patch patients.Patch, token string) (*patients.Patient, error) {
	return s.commit(ctx, "update", feed.EventUpdate, id, patch, token, func(ctx context.Context) (*patients.Patient, error) {
		return s.repo.Update(ctx, id, patch)
	})
}

// commit persists one write. The token is registered with the suppressor
// before the store is touched so an echo arriving early is still recognised.
// Once persisted, the local cache and browsers are updated before the change
// is published; a publish failure does not fail the write and releases the
// token.
func (s *Service) commit(ctx context.Context, op string, typ feed.EventType, id string, patch patients.Patch, token string, persist func(context.Context) (*patients.Patient, error)) (*patients.Patient, error) {
	started := time.Now()
	token = s.suppressor.Begin(id, patch, token)

	p, err := persist(ctx)
	if err != nil {
		s.suppressor.Abort(id, token)
		s.metrics.ObserveWrite(op, "error", time.Since(started).Seconds())
		s.logger.Error("board: write failed", "op", op, "patient_id", id, "error", err)
		return nil, err
	}
	s.suppressor.Persisted(id, token)

	ev := feed.Event{
		Type:      typ,
		OwnerKey:  s.owner,
		PatientID: id,
		Patient:   p,
		Origin:    s.instance,
		Token:     token,
		At:        s.now().UTC(),
	}
	s.apply(ctx, ev)
	if s.bus != nil {
		if err := s.bus.Publish(ctx, ev); err != nil {
			// No echo will arrive; stop overlaying this write on remote events.
			s.suppressor.Abort(id, token)
			s.metrics.ObserveFeedEvent(string(typ), "publish_error")
			s.logger.Warn("board: change not published", "op", op, "patient_id", id, "error", err)
		} else {
			s.metrics.ObserveFeedEvent(string(typ), "published")
		}
	}
	s.metrics.ObserveWrite(op, "ok", time.Since(started).Seconds())
	return p, nil
}

// apply brings the cache and connected browsers up to date with ev.
func (s *Service) apply(ctx context.Context, ev feed.Event) {
	if s.cache != nil {
		var err error
		if ev.Type == feed.EventDelete {
			err = s.cache.Delete(ctx, ev.PatientID)
		} else if ev.Patient != nil {
			err = s.cache.Put(ctx, ev.Patient)
		}
		if err != nil {
			s.logger.Warn("board: cache update failed", "patient_id", ev.PatientID, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(ev)
	}
}
