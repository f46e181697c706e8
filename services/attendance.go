package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
)

// dayKey is the calendar-day format attendance records are keyed by.
// Days are interpreted in UTC so the unique (user, day) constraint means the
// same thing regardless of which server handled the login.
const dayKey = "2006-01-02"

// AttendanceResolution is the outcome of a login resolution.
type AttendanceResolution struct {
	Record        *models.Attendance `json:"record"`
	AlreadyMarked bool               `json:"already_marked"`
}

// AttendanceService turns login/logout events into the single daily
// attendance record per user.
type AttendanceService struct {
	store    Store
	clock    Clock
	settings Settings
	log      *zap.SugaredLogger
}

// NewAttendanceService wires an attendance resolver.
func NewAttendanceService(store Store, clock Clock, settings Settings, log *zap.SugaredLogger) *AttendanceService {
	return &AttendanceService{store: store, clock: clock, settings: settings, log: log}
}

// ResolveLogin decides present/absent for today's login and persists exactly
// one record per (user, UTC day). Repeat logins on the same day return the
// stored record untouched and flag it as already marked; a concurrent first
// login is resolved the same way via the unique index, never as an error.
// A nil coordinate is a valid business state (device sent no location) and
// marks the user absent.
func (s *AttendanceService) ResolveLogin(ctx context.Context, userID uint, coord *geo.Coordinate) (*AttendanceResolution, error) {
	if coord != nil {
		if err := coord.Validate(); err != nil {
			return nil, invalidArgument("coordinate: %v", err)
		}
	}
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	day := now.UTC().Format(dayKey)

	if existing, err := s.store.FindAttendanceByUserAndDay(ctx, userID, day); err == nil {
		return &AttendanceResolution{Record: existing, AlreadyMarked: true}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec := &models.Attendance{
		UserID:    userID,
		Day:       day,
		LoginTime: now,
		Status:    models.AttendanceAbsent,
	}

	if coord != nil {
		fence, dist, inOffice := s.resolveFence(ctx, *coord)
		status := models.AttendanceAbsent
		if inOffice {
			status = models.AttendancePresent
		}
		lat, lng, d := coord.Latitude, coord.Longitude, dist
		rec.Status = status
		rec.Latitude = &lat
		rec.Longitude = &lng
		rec.DistanceMeters = &d
		rec.InOffice = inOffice
		if inOffice {
			rec.FenceName = fence.Name
		}
	}

	created, err := s.store.CreateAttendance(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the first-login race; the winner's row is the record of truth.
		existing, err := s.store.FindAttendanceByUserAndDay(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		return &AttendanceResolution{Record: existing, AlreadyMarked: true}, nil
	}

	s.log.Infow("attendance marked",
		"user_id", userID, "day", day, "status", rec.Status, "in_office", rec.InOffice)
	return &AttendanceResolution{Record: rec}, nil
}

// ResolveLogout stamps logout time on today's record. No record today is a
// soft no-op: users can log out without ever having triggered a location
// check. A present user leaving before the minimum working duration is
// downgraded to half-day. Repeat logouts keep the first stamp.
func (s *AttendanceService) ResolveLogout(ctx context.Context, userID uint) (*models.Attendance, error) {
	now := s.clock.Now()
	day := now.UTC().Format(dayKey)

	rec, err := s.store.FindAttendanceByUserAndDay(ctx, userID, day)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if rec.LogoutTime != nil {
		return rec, nil
	}

	status := rec.Status
	if status == models.AttendancePresent && now.Sub(rec.LoginTime) < s.settings.MinWork {
		status = models.AttendanceHalfDay
	}

	stamped, err := s.store.StampAttendanceLogout(ctx, rec.ID, now, status)
	if err != nil {
		return nil, err
	}
	if stamped {
		rec.LogoutTime = &now
		rec.Status = status
	}
	return rec, nil
}

// resolveFence evaluates the office fence plus all active named fences.
// A fence containing the point wins (closest such fence on ties); otherwise
// the nearest fence is reported with its distance so the record can show how
// far off the employee was. The office fence alone is used when the fence
// listing fails, so a degraded database read cannot turn a present employee
// absent.
func (s *AttendanceService) resolveFence(ctx context.Context, coord geo.Coordinate) (geo.GeofenceTarget, float64, bool) {
	targets := []geo.GeofenceTarget{s.settings.Office}
	fences, err := s.store.ListActiveGeofences(ctx)
	if err != nil {
		s.log.Warnw("geofence listing failed, using office fence only", "err", err)
	} else {
		for _, f := range fences {
			targets = append(targets, geo.GeofenceTarget{
				Name:         f.Name,
				Center:       geo.Coordinate{Latitude: f.Latitude, Longitude: f.Longitude},
				RadiusMeters: f.RadiusMeters,
			})
		}
	}

	var containing []geo.GeofenceTarget
	for _, t := range targets {
		if geo.IsWithin(coord, t) {
			containing = append(containing, t)
		}
	}
	if len(containing) > 0 {
		best, dist, _ := geo.Nearest(coord, containing)
		return best, dist, true
	}
	best, dist, _ := geo.Nearest(coord, targets)
	return best, dist, false
}
