package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geotrail/geotrail/models"
)

// Store is the narrow persistence surface the resolvers depend on. The gorm
// implementation below is the production one; tests substitute an in-memory
// fake.
type Store interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)

	FindAttendanceByUserAndDay(ctx context.Context, userID uint, day string) (*models.Attendance, error)
	// CreateAttendance inserts the record unless a row for (user, day) already
	// exists. Returns false without error when the insert lost to an existing
	// row, which callers treat as "already marked".
	CreateAttendance(ctx context.Context, rec *models.Attendance) (bool, error)
	// StampAttendanceLogout sets logout time and final status on the record,
	// only if no logout has been stamped yet. Returns whether a row changed.
	StampAttendanceLogout(ctx context.Context, attendanceID uint, at time.Time, status string) (bool, error)

	FindTaskByID(ctx context.Context, id uint) (*models.VisitTask, error)
	FindTasksByUserAndStatusIn(ctx context.Context, userID uint, statuses []string) ([]models.VisitTask, error)
	// UpdateTaskStatus transitions a task from an expected prior status.
	// Returns false when the task was no longer in that status, so concurrent
	// sweeps cannot double-apply a transition.
	UpdateTaskStatus(ctx context.Context, taskID uint, from, to string, set map[string]interface{}) (bool, error)

	ListActiveGeofences(ctx context.Context) ([]models.Geofence, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore wraps a gorm DB in the Store interface.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

func (s *gormStore) FindAttendanceByUserAndDay(ctx context.Context, userID uint, day string) (*models.Attendance, error) {
	var rec models.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find attendance user=%d day=%s: %w", userID, day, err)
	}
	return &rec, nil
}

func (s *gormStore) CreateAttendance(ctx context.Context, rec *models.Attendance) (bool, error) {
	// Atomic insert-if-absent against the (user_id, day) unique index; a lost
	// race shows up as zero rows affected, never as an error.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("create attendance user=%d day=%s: %w", rec.UserID, rec.Day, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) StampAttendanceLogout(ctx context.Context, attendanceID uint, at time.Time, status string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("id = ? AND logout_time IS NULL", attendanceID).
		Updates(map[string]interface{}{
			"logout_time": at,
			"status":      status,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("stamp logout attendance=%d: %w", attendanceID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) FindTaskByID(ctx context.Context, id uint) (*models.VisitTask, error) {
	var task models.VisitTask
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find visit task %d: %w", id, err)
	}
	return &task, nil
}

func (s *gormStore) FindTasksByUserAndStatusIn(ctx context.Context, userID uint, statuses []string) ([]models.VisitTask, error) {
	var tasks []models.VisitTask
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND visit_status IN ?", userID, statuses).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list visit tasks user=%d: %w", userID, err)
	}
	return tasks, nil
}

func (s *gormStore) UpdateTaskStatus(ctx context.Context, taskID uint, from, to string, set map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"visit_status": to,
		"updated_at":   time.Now(),
	}
	for k, v := range set {
		updates[k] = v
	}
	res := s.db.WithContext(ctx).
		Model(&models.VisitTask{}).
		Where("id = ? AND visit_status = ?", taskID, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition visit task %d %s->%s: %w", taskID, from, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) ListActiveGeofences(ctx context.Context) ([]models.Geofence, error) {
	var fences []models.Geofence
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&fences).Error; err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}
	return fences, nil
}
