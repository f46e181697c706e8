package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
)

// SweepResult lists the tasks whose state changed during one proximity sweep.
// Both slices empty is a normal outcome, not an error.
type SweepResult struct {
	Started   []uint `json:"started"`
	Completed []uint `json:"completed"`
}

// Changed reports whether the sweep transitioned anything.
func (r *SweepResult) Changed() bool {
	return len(r.Started) > 0 || len(r.Completed) > 0
}

// VisitService advances visit tasks through
// pending → in-progress → completed based on proximity, and handles the
// explicit complete/cancel actions.
type VisitService struct {
	store    Store
	clock    Clock
	settings Settings
	log      *zap.SugaredLogger
}

// NewVisitService wires a visit-task resolver.
func NewVisitService(store Store, clock Clock, settings Settings, log *zap.SugaredLogger) *VisitService {
	return &VisitService{store: store, clock: clock, settings: settings, log: log}
}

// Sweep evaluates all of the user's open tasks against the current position
// and applies at most one transition per task: a pending task inside the auto
// radius starts, an in-progress task inside it completes. Each transition is
// a conditional write keyed on the prior status, so a concurrent sweep for
// the same user cannot double-apply; the loser simply reports no change.
func (s *VisitService) Sweep(ctx context.Context, userID uint, coord geo.Coordinate) (*SweepResult, error) {
	if err := coord.Validate(); err != nil {
		return nil, invalidArgument("coordinate: %v", err)
	}

	tasks, err := s.store.FindTasksByUserAndStatusIn(ctx, userID,
		[]string{models.VisitPending, models.VisitInProgress})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := &SweepResult{Started: []uint{}, Completed: []uint{}}
	for _, task := range tasks {
		target := geo.GeofenceTarget{
			Center:       geo.Coordinate{Latitude: task.Latitude, Longitude: task.Longitude},
			RadiusMeters: s.settings.AutoRadiusMeters,
		}
		if !geo.IsWithin(coord, target) {
			continue
		}

		switch task.VisitStatus {
		case models.VisitPending:
			ok, err := s.store.UpdateTaskStatus(ctx, task.ID, models.VisitPending, models.VisitInProgress,
				map[string]interface{}{"visit_date": now})
			if err != nil {
				return nil, err
			}
			if ok {
				result.Started = append(result.Started, task.ID)
			}
		case models.VisitInProgress:
			ok, err := s.store.UpdateTaskStatus(ctx, task.ID, models.VisitInProgress, models.VisitCompleted,
				map[string]interface{}{"visit_date": now, "auto_completed": true})
			if err != nil {
				return nil, err
			}
			if ok {
				result.Completed = append(result.Completed, task.ID)
			}
		}
	}

	if result.Changed() {
		s.log.Infow("visit sweep applied transitions",
			"user_id", userID, "started", result.Started, "completed", result.Completed)
	}
	return result, nil
}

// ManualComplete marks a task completed by explicit user action. The supplied
// coordinate must lie within the manual-completion radius of the target;
// otherwise an OutOfRangeError carrying the computed distance is returned.
// An already-terminal task is a no-op, not an error.
func (s *VisitService) ManualComplete(ctx context.Context, userID, taskID uint, coord geo.Coordinate) (*models.VisitTask, error) {
	if err := coord.Validate(); err != nil {
		return nil, invalidArgument("coordinate: %v", err)
	}
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Terminal() {
		return task, nil
	}

	dist := geo.DistanceMeters(coord, geo.Coordinate{Latitude: task.Latitude, Longitude: task.Longitude})
	if dist > s.settings.ManualRadiusMeters {
		return nil, &OutOfRangeError{DistanceMeters: dist, RadiusMeters: s.settings.ManualRadiusMeters}
	}

	now := s.clock.Now()
	ok, err := s.store.UpdateTaskStatus(ctx, task.ID, task.VisitStatus, models.VisitCompleted,
		map[string]interface{}{"visit_date": now, "auto_completed": false})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Raced with the sweep or another request; report whatever won.
		return s.ownedTask(ctx, userID, taskID)
	}

	task.VisitStatus = models.VisitCompleted
	task.VisitDate = &now
	task.AutoCompleted = false
	s.log.Infow("visit completed manually", "user_id", userID, "task_id", task.ID, "distance_m", dist)
	return task, nil
}

// Cancel moves a pending or in-progress task to cancelled. Terminal tasks are
// a no-op success so retried cancellations stay idempotent.
func (s *VisitService) Cancel(ctx context.Context, userID, taskID uint) (*models.VisitTask, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Terminal() {
		return task, nil
	}

	ok, err := s.store.UpdateTaskStatus(ctx, task.ID, task.VisitStatus, models.VisitCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.ownedTask(ctx, userID, taskID)
	}

	task.VisitStatus = models.VisitCancelled
	s.log.Infow("visit cancelled", "user_id", userID, "task_id", task.ID)
	return task, nil
}

// ownedTask loads a task and hides other users' tasks behind ErrNotFound.
func (s *VisitService) ownedTask(ctx context.Context, userID, taskID uint) (*models.VisitTask, error) {
	task, err := s.store.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrNotFound
	}
	return task, nil
}
