package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
)

func newAttendanceFixture() (*AttendanceService, *fakeStore, *fixedClock) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, Username: "asha", Role: models.RoleEmployee}
	clock := &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewAttendanceService(store, clock, testSettings(), testLogger())
	return svc, store, clock
}

func TestResolveLoginInsideOffice(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	coord := offsetLat(testOffice, 30)
	res, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if res.AlreadyMarked {
		t.Error("first login of the day reported already marked")
	}
	rec := res.Record
	if rec.Status != models.AttendancePresent {
		t.Errorf("status = %q, want present", rec.Status)
	}
	if !rec.InOffice {
		t.Error("in_office = false, want true")
	}
	if rec.FenceName != "head office" {
		t.Errorf("fence_name = %q, want head office", rec.FenceName)
	}
	if rec.Day != "2025-03-10" {
		t.Errorf("day = %q, want 2025-03-10", rec.Day)
	}
	if rec.DistanceMeters == nil || *rec.DistanceMeters > 35 {
		t.Errorf("distance = %v, want about 30", rec.DistanceMeters)
	}
}

func TestResolveLoginOutsideAllFences(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	coord := offsetLat(testOffice, 1000)
	res, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	rec := res.Record
	if rec.Status != models.AttendanceAbsent {
		t.Errorf("status = %q, want absent", rec.Status)
	}
	if rec.InOffice {
		t.Error("in_office = true, want false")
	}
	if rec.FenceName != "" {
		t.Errorf("fence_name = %q, want empty", rec.FenceName)
	}
	if rec.DistanceMeters == nil || *rec.DistanceMeters < 995 || *rec.DistanceMeters > 1006 {
		t.Errorf("distance = %v, want about 1000", rec.DistanceMeters)
	}
}

func TestResolveLoginWithoutLocation(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	res, err := svc.ResolveLogin(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	rec := res.Record
	if rec.Status != models.AttendanceAbsent {
		t.Errorf("status = %q, want absent", rec.Status)
	}
	if rec.Latitude != nil || rec.Longitude != nil || rec.DistanceMeters != nil {
		t.Error("record without location should not carry coordinates")
	}
}

func TestResolveLoginSameDayIdempotent(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	inside := offsetLat(testOffice, 10)
	first, err := svc.ResolveLogin(context.Background(), 1, &inside)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	// Later the same day from far away; must not rewrite the record.
	clock.now = clock.now.Add(3 * time.Hour)
	outside := offsetLat(testOffice, 5000)
	second, err := svc.ResolveLogin(context.Background(), 1, &outside)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if !second.AlreadyMarked {
		t.Error("repeat login not flagged already marked")
	}
	if second.Record.ID != first.Record.ID {
		t.Errorf("repeat login returned record %d, want %d", second.Record.ID, first.Record.ID)
	}
	if second.Record.Status != models.AttendancePresent {
		t.Errorf("repeat login changed status to %q", second.Record.Status)
	}
}

func TestResolveLoginNextDayCreatesNewRecord(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	coord := offsetLat(testOffice, 10)
	first, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("day one login: %v", err)
	}

	clock.now = clock.now.Add(24 * time.Hour)
	second, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("day two login: %v", err)
	}
	if second.AlreadyMarked {
		t.Error("next-day login flagged already marked")
	}
	if second.Record.ID == first.Record.ID {
		t.Error("next-day login reused the previous record")
	}
	if second.Record.Day != "2025-03-11" {
		t.Errorf("day = %q, want 2025-03-11", second.Record.Day)
	}
}

func TestResolveLoginLostInsertRace(t *testing.T) {
	svc, store, clock := newAttendanceFixture()

	// Between the existence check and the insert, a concurrent login wins.
	winner := &models.Attendance{
		UserID:    1,
		Day:       clock.now.UTC().Format("2006-01-02"),
		LoginTime: clock.now,
		Status:    models.AttendancePresent,
		InOffice:  true,
	}
	store.beforeCreateAttendance = func() {
		store.beforeCreateAttendance = nil
		created, err := store.CreateAttendance(context.Background(), winner)
		if err != nil || !created {
			t.Fatalf("seeding winner row failed: created=%v err=%v", created, err)
		}
	}

	coord := offsetLat(testOffice, 5000)
	res, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("ResolveLogin after lost race: %v", err)
	}
	if !res.AlreadyMarked {
		t.Error("lost race not reported as already marked")
	}
	if res.Record.ID != winner.ID {
		t.Errorf("returned record %d, want winner %d", res.Record.ID, winner.ID)
	}
	if res.Record.Status != models.AttendancePresent {
		t.Errorf("winner status overwritten: %q", res.Record.Status)
	}
}

func TestResolveLoginInvalidCoordinate(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	coord := geo.Coordinate{Latitude: 95, Longitude: 79}
	_, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestResolveLoginUnknownUser(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	_, err := svc.ResolveLogin(context.Background(), 99, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveLoginNamedFence(t *testing.T) {
	svc, store, _ := newAttendanceFixture()

	site := offsetLat(testOffice, 3000)
	store.fences = []models.Geofence{
		{ID: 1, Name: "warehouse", Latitude: site.Latitude, Longitude: site.Longitude, RadiusMeters: 100, Active: true},
	}

	coord := offsetLat(site, 40)
	res, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if res.Record.Status != models.AttendancePresent {
		t.Errorf("status = %q, want present inside named fence", res.Record.Status)
	}
	if res.Record.FenceName != "warehouse" {
		t.Errorf("fence_name = %q, want warehouse", res.Record.FenceName)
	}
}

func TestResolveLoginFenceListingFailureDegradesToOffice(t *testing.T) {
	svc, store, _ := newAttendanceFixture()
	store.fencesErr = errors.New("connection refused")

	coord := offsetLat(testOffice, 10)
	res, err := svc.ResolveLogin(context.Background(), 1, &coord)
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if res.Record.Status != models.AttendancePresent {
		t.Errorf("status = %q, want present via office fence", res.Record.Status)
	}
}

func TestResolveLogoutWithoutRecord(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	rec, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("ResolveLogout: %v", err)
	}
	if rec != nil {
		t.Errorf("logout without attendance returned %+v, want nil", rec)
	}
}

func TestResolveLogoutHalfDayDowngrade(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	coord := offsetLat(testOffice, 10)
	if _, err := svc.ResolveLogin(context.Background(), 1, &coord); err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)
	rec, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Status != models.AttendanceHalfDay {
		t.Errorf("status = %q, want half-day after 2h of a 4h minimum", rec.Status)
	}
	if rec.LogoutTime == nil || !rec.LogoutTime.Equal(clock.now) {
		t.Errorf("logout_time = %v, want %v", rec.LogoutTime, clock.now)
	}
}

func TestResolveLogoutFullDayStaysPresent(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	coord := offsetLat(testOffice, 10)
	if _, err := svc.ResolveLogin(context.Background(), 1, &coord); err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.now = clock.now.Add(8 * time.Hour)
	rec, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Status != models.AttendancePresent {
		t.Errorf("status = %q, want present", rec.Status)
	}
}

func TestResolveLogoutAbsentNeverDowngraded(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	if _, err := svc.ResolveLogin(context.Background(), 1, nil); err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	rec, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Status != models.AttendanceAbsent {
		t.Errorf("status = %q, want absent unchanged", rec.Status)
	}
}

func TestResolveLogoutRepeatKeepsFirstStamp(t *testing.T) {
	svc, _, clock := newAttendanceFixture()

	coord := offsetLat(testOffice, 10)
	if _, err := svc.ResolveLogin(context.Background(), 1, &coord); err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.now = clock.now.Add(8 * time.Hour)
	first, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("first logout: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	second, err := svc.ResolveLogout(context.Background(), 1)
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if !second.LogoutTime.Equal(*first.LogoutTime) {
		t.Errorf("repeat logout moved the stamp: %v -> %v", first.LogoutTime, second.LogoutTime)
	}
}
