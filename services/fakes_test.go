package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
)

// fakeStore is the in-memory Store used by the resolver tests. Hooks let a
// test interleave a concurrent writer between the service's read and write.
type fakeStore struct {
	users  map[uint]*models.User
	att    map[string]*models.Attendance
	tasks  map[uint]*models.VisitTask
	fences []models.Geofence

	fencesErr error

	nextAttID uint

	// beforeCreateAttendance runs just before the insert decision, simulating
	// a concurrent login that wins the (user, day) race.
	beforeCreateAttendance func()
	// beforeUpdateTask runs just before a conditional status update.
	beforeUpdateTask func(taskID uint)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[uint]*models.User{},
		att:   map[string]*models.Attendance{},
		tasks: map[uint]*models.VisitTask{},
	}
}

func attKey(userID uint, day string) string {
	return fmt.Sprintf("%d|%s", userID, day)
}

func (f *fakeStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FindAttendanceByUserAndDay(ctx context.Context, userID uint, day string) (*models.Attendance, error) {
	rec, ok := f.att[attKey(userID, day)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) CreateAttendance(ctx context.Context, rec *models.Attendance) (bool, error) {
	if f.beforeCreateAttendance != nil {
		f.beforeCreateAttendance()
	}
	key := attKey(rec.UserID, rec.Day)
	if _, exists := f.att[key]; exists {
		return false, nil
	}
	f.nextAttID++
	rec.ID = f.nextAttID
	cp := *rec
	f.att[key] = &cp
	return true, nil
}

func (f *fakeStore) StampAttendanceLogout(ctx context.Context, attendanceID uint, at time.Time, status string) (bool, error) {
	for _, rec := range f.att {
		if rec.ID == attendanceID {
			if rec.LogoutTime != nil {
				return false, nil
			}
			stamp := at
			rec.LogoutTime = &stamp
			rec.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FindTaskByID(ctx context.Context, id uint) (*models.VisitTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeStore) FindTasksByUserAndStatusIn(ctx context.Context, userID uint, statuses []string) ([]models.VisitTask, error) {
	var out []models.VisitTask
	// deterministic iteration order by id
	for id := uint(1); id <= uint(len(f.tasks))+100; id++ {
		task, ok := f.tasks[id]
		if !ok || task.UserID != userID {
			continue
		}
		for _, st := range statuses {
			if task.VisitStatus == st {
				out = append(out, *task)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTaskStatus(ctx context.Context, taskID uint, from, to string, set map[string]interface{}) (bool, error) {
	if f.beforeUpdateTask != nil {
		f.beforeUpdateTask(taskID)
	}
	task, ok := f.tasks[taskID]
	if !ok || task.VisitStatus != from {
		return false, nil
	}
	task.VisitStatus = to
	if v, ok := set["visit_date"]; ok {
		when := v.(time.Time)
		task.VisitDate = &when
	}
	if v, ok := set["auto_completed"]; ok {
		task.AutoCompleted = v.(bool)
	}
	return true, nil
}

func (f *fakeStore) ListActiveGeofences(ctx context.Context) ([]models.Geofence, error) {
	if f.fencesErr != nil {
		return nil, f.fencesErr
	}
	return f.fences, nil
}

// fixedClock returns a pinned time; tests advance it directly.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

var testOffice = geo.Coordinate{Latitude: 21.12354197063915, Longitude: 79.039775255145}

// offsetLat shifts a coordinate north by roughly the given number of meters.
func offsetLat(c geo.Coordinate, meters float64) geo.Coordinate {
	return geo.Coordinate{Latitude: c.Latitude + meters/(math.Pi*6371000/180), Longitude: c.Longitude}
}

func testSettings() Settings {
	return Settings{
		Office: geo.GeofenceTarget{
			Name:         "head office",
			Center:       testOffice,
			RadiusMeters: 50,
		},
		AutoRadiusMeters:   50,
		ManualRadiusMeters: 100,
		MinWork:            4 * time.Hour,
	}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
