package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/config"
	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/services"
	"github.com/geotrail/geotrail/utils"
)

// LocationController ingests background location updates from the mobile app.
// Each ping is persisted, cached as the user's latest position, and fed to
// the visit sweep; task transitions produce notification records.
type LocationController struct {
	db     *gorm.DB
	visits *services.VisitService
}

// NewLocationController creates a LocationController.
func NewLocationController(db *gorm.DB, visits *services.VisitService) *LocationController {
	return &LocationController{db: db, visits: visits}
}

type pingRequest struct {
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	Accuracy   *float64 `json:"accuracy_meters"`
	RecordedAt *int64   `json:"recorded_at"` // unix seconds; defaults to server time
}

// latestPosition is the redis-cached shape of a user's last known location.
type latestPosition struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ping handles one background location update.
func (l *LocationController) Ping(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req pingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "latitude and longitude required")
		return
	}

	coord := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := coord.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, err.Error())
		return
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil && *req.RecordedAt > 0 {
		recordedAt = time.Unix(*req.RecordedAt, 0)
	}

	ping := models.LocationPing{
		UserID:         userID,
		Latitude:       coord.Latitude,
		Longitude:      coord.Longitude,
		AccuracyMeters: req.Accuracy,
		RecordedAt:     recordedAt,
	}
	if err := l.db.Create(&ping).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store location")
		return
	}

	cfg := config.Get()
	utils.CacheSetJSON(latestKey(userID), latestPosition{
		Latitude:   coord.Latitude,
		Longitude:  coord.Longitude,
		RecordedAt: recordedAt,
	}, time.Duration(cfg.LatestPingTTLMinute)*time.Minute)

	sweep, err := l.visits.Sweep(ctx.Request.Context(), userID, coord)
	if err != nil {
		respondServiceError(ctx, err, 50031, "failed to evaluate visit tasks")
		return
	}
	if sweep.Changed() {
		l.notifySweep(userID, sweep)
	}

	utils.Success(ctx, gin.H{
		"ping_id": ping.ID,
		"sweep":   sweep,
	})
}

// Latest returns a user's cached last known position (admin use). Falls back
// to the newest stored ping when the cache entry has expired.
func (l *LocationController) Latest(ctx *gin.Context) {
	userID, ok := parseUintParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid user id")
		return
	}

	var pos latestPosition
	if utils.CacheGetJSON(latestKey(userID), &pos) {
		utils.Success(ctx, gin.H{"user_id": userID, "position": pos, "cached": true})
		return
	}

	var ping models.LocationPing
	err := l.db.Where("user_id = ?", userID).Order("recorded_at DESC").First(&ping).Error
	if err == gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusNotFound, 40430, "no location recorded for user")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load location")
		return
	}
	utils.Success(ctx, gin.H{
		"user_id": userID,
		"position": latestPosition{
			Latitude:   ping.Latitude,
			Longitude:  ping.Longitude,
			RecordedAt: ping.RecordedAt,
		},
		"cached": false,
	})
}

// notifySweep records in-app notifications for tasks the sweep moved.
// Best-effort: a failed insert is logged, not surfaced to the device.
func (l *LocationController) notifySweep(userID uint, sweep *services.SweepResult) {
	for _, id := range sweep.Started {
		taskID := id
		n := models.Notification{
			UserID:  userID,
			Kind:    models.NotifyVisitStarted,
			Title:   "Visit started",
			Body:    "You arrived at a visit location; the task is now in progress.",
			VisitID: &taskID,
		}
		if err := l.db.Create(&n).Error; err != nil {
			utils.Sugar.Warnw("failed to record visit-started notification", "task_id", taskID, "err", err)
		}
	}
	for _, id := range sweep.Completed {
		taskID := id
		n := models.Notification{
			UserID:  userID,
			Kind:    models.NotifyVisitCompleted,
			Title:   "Visit completed",
			Body:    "A visit task was completed automatically by proximity.",
			VisitID: &taskID,
		}
		if err := l.db.Create(&n).Error; err != nil {
			utils.Sugar.Warnw("failed to record visit-completed notification", "task_id", taskID, "err", err)
		}
	}
}

func latestKey(userID uint) string {
	return fmt.Sprintf("loc:latest:%d", userID)
}
