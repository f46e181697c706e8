package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/services"
	"github.com/geotrail/geotrail/utils"
)

// VisitController exposes visit tasks to employees (their own tasks) and
// admins (assignment and oversight). Status transitions go through the
// VisitService; this layer never mutates visit_status directly.
type VisitController struct {
	db     *gorm.DB
	visits *services.VisitService
}

// NewVisitController creates a VisitController.
func NewVisitController(db *gorm.DB, visits *services.VisitService) *VisitController {
	return &VisitController{db: db, visits: visits}
}

// ListMine returns the caller's visit tasks, optionally filtered by status.
func (v *VisitController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	q := v.db.Where("user_id = ?", userID)
	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		if !validVisitStatus(status) {
			utils.Error(ctx, http.StatusBadRequest, 40040, "unknown visit status")
			return
		}
		q = q.Where("visit_status = ?", status)
	}

	var tasks []models.VisitTask
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load visit tasks")
		return
	}
	utils.Success(ctx, gin.H{"tasks": tasks})
}

// Get returns one of the caller's tasks.
func (v *VisitController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	taskID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid task id")
		return
	}

	var task models.VisitTask
	err := v.db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40440, "visit task not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load visit task")
		return
	}
	utils.Success(ctx, task)
}

type completeRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Complete marks a task visited by explicit user action; the position must be
// within the manual-completion radius.
func (v *VisitController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	taskID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid task id")
		return
	}

	var req completeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "latitude and longitude required")
		return
	}

	coord := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	task, err := v.visits.ManualComplete(ctx.Request.Context(), userID, taskID, coord)
	if err != nil {
		respondServiceError(ctx, err, 50042, "failed to complete visit")
		return
	}
	utils.Success(ctx, task)
}

// Cancel cancels a pending or in-progress task.
func (v *VisitController) Cancel(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	taskID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid task id")
		return
	}

	task, err := v.visits.Cancel(ctx.Request.Context(), userID, taskID)
	if err != nil {
		respondServiceError(ctx, err, 50043, "failed to cancel visit")
		return
	}
	utils.Success(ctx, task)
}

type feedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,max=2000"`
}

// Feedback attaches free-text feedback to one of the caller's tasks.
// Passed through sanitized, otherwise unchanged.
func (v *VisitController) Feedback(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	taskID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid task id")
		return
	}

	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "feedback required")
		return
	}

	res := v.db.Model(&models.VisitTask{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Update("feedback", utils.Sanitize(req.Feedback))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to save feedback")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40440, "visit task not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "feedback saved"})
}

type assignRequest struct {
	UserID    uint     `json:"user_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address" binding:"max=512"`
	Notes     string   `json:"notes" binding:"max=2000"`
}

// Assign creates a pending visit task for an employee (admin only) and
// records an assignment notification.
func (v *VisitController) Assign(ctx *gin.Context) {
	adminID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req assignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "user_id, latitude and longitude required")
		return
	}

	coord := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := coord.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, err.Error())
		return
	}

	var user models.User
	if err := v.db.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load user")
		return
	}

	task := models.VisitTask{
		RefCode:     uuid.NewString(),
		UserID:      req.UserID,
		Latitude:    coord.Latitude,
		Longitude:   coord.Longitude,
		Address:     utils.Sanitize(req.Address),
		Notes:       utils.Sanitize(req.Notes),
		VisitStatus: models.VisitPending,
		AssignedBy:  adminID,
	}
	if err := v.db.Create(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to create visit task")
		return
	}

	notif := models.Notification{
		UserID:  task.UserID,
		Kind:    models.NotifyVisitAssigned,
		Title:   "New visit assigned",
		Body:    "A new field visit has been assigned to you.",
		VisitID: &task.ID,
	}
	if err := v.db.Create(&notif).Error; err != nil {
		utils.Sugar.Warnw("failed to record assignment notification", "task_id", task.ID, "err", err)
	}

	utils.Success(ctx, task)
}

// AdminList returns visit tasks across users with optional filters.
func (v *VisitController) AdminList(ctx *gin.Context) {
	q := v.db.Model(&models.VisitTask{})
	if userID, ok := parseUintParam(ctx, "user_id"); ok {
		q = q.Where("user_id = ?", userID)
	}
	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		if !validVisitStatus(status) {
			utils.Error(ctx, http.StatusBadRequest, 40040, "unknown visit status")
			return
		}
		q = q.Where("visit_status = ?", status)
	}

	var tasks []models.VisitTask
	if err := q.Order("created_at DESC").Limit(200).Find(&tasks).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load visit tasks")
		return
	}
	utils.Success(ctx, gin.H{"tasks": tasks})
}

// AdminDelete removes a visit task (terminal admin action).
func (v *VisitController) AdminDelete(ctx *gin.Context) {
	taskID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid task id")
		return
	}

	res := v.db.Delete(&models.VisitTask{}, taskID)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to delete visit task")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40440, "visit task not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "visit task deleted"})
}

func validVisitStatus(s string) bool {
	switch s {
	case models.VisitPending, models.VisitInProgress, models.VisitCompleted, models.VisitCancelled:
		return true
	}
	return false
}
