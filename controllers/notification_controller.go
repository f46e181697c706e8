package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/utils"
)

// NotificationController serves the in-app notification feed the mobile
// client polls. Creation happens where events originate (assignment, sweep).
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a NotificationController.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's notifications, newest first. ?unread=true limits
// to unread ones.
func (n *NotificationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	limit := 50
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	q := n.db.Where("user_id = ?", userID)
	if strings.EqualFold(ctx.Query("unread"), "true") {
		q = q.Where("`read` = ?", false)
	}

	var rows []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load notifications")
		return
	}

	var unread int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&unread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to count notifications")
		return
	}

	utils.Success(ctx, gin.H{"notifications": rows, "unread_count": unread})
}

// MarkRead flags one notification as read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid notification id")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40450, "notification not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "marked read"})
}

// ReadAll flags every unread notification of the caller as read.
func (n *NotificationController) ReadAll(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to update notifications")
		return
	}
	utils.Success(ctx, gin.H{"marked": res.RowsAffected})
}
