package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/utils"
)

// AdminController covers account provisioning, named geofence management and
// the activity dashboard.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// ListUsers returns paginated users.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	var users []models.User
	var total int64

	page, pageSize := 1, 20
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to count users")
		return
	}
	if err := a.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to retrieve users")
		return
	}

	utils.Success(ctx, gin.H{
		"items": users,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

type createUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=6"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name" binding:"max=128"`
	Department  string `json:"department" binding:"max=64"`
	Role        string `json:"role"`
}

// CreateUser provisions an employee (or another admin) account.
func (a *AdminController) CreateUser(ctx *gin.Context) {
	var req createUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	role := models.RoleEmployee
	if req.Role != "" {
		if req.Role != models.RoleEmployee && req.Role != models.RoleAdmin {
			utils.Error(ctx, http.StatusBadRequest, 40061, "role must be employee or admin")
			return
		}
		role = req.Role
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		DisplayName:  utils.Sanitize(req.DisplayName),
		Department:   utils.Sanitize(req.Department),
		Role:         role,
	}
	if err := a.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			utils.Error(ctx, http.StatusConflict, 40910, "username already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to create user")
		return
	}

	// Cached daily reports list employees without a record; a new account
	// changes that set for every cached day.
	utils.InvalidateByPrefix("cache:attendance:report:")

	utils.Success(ctx, user)
}

// ListGeofences returns all named fences including inactive ones.
func (a *AdminController) ListGeofences(ctx *gin.Context) {
	var fences []models.Geofence
	if err := a.db.Order("name ASC").Find(&fences).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load geofences")
		return
	}
	utils.Success(ctx, gin.H{"geofences": fences})
}

type geofenceRequest struct {
	Name         string   `json:"name" binding:"required,max=64"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	RadiusMeters float64  `json:"radius_meters"`
	Active       *bool    `json:"active"`
}

// CreateGeofence adds a named fence used by attendance resolution.
func (a *AdminController) CreateGeofence(ctx *gin.Context) {
	var req geofenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "name, latitude and longitude required")
		return
	}

	coord := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := coord.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, err.Error())
		return
	}
	if req.RadiusMeters < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40064, "radius must be non-negative")
		return
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = 50
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	fence := models.Geofence{
		Name:         utils.Sanitize(req.Name),
		Latitude:     coord.Latitude,
		Longitude:    coord.Longitude,
		RadiusMeters: radius,
		Active:       active,
	}
	if err := a.db.Create(&fence).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			utils.Error(ctx, http.StatusConflict, 40911, "geofence name already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to create geofence")
		return
	}
	utils.Success(ctx, fence)
}

// DeleteGeofence removes a named fence.
func (a *AdminController) DeleteGeofence(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40065, "invalid geofence id")
		return
	}

	res := a.db.Delete(&models.Geofence{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to delete geofence")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40460, "geofence not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "geofence deleted"})
}

// activityRow joins the per-day counter with user identity.
type activityRow struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

// Activity returns per-user request counts for one day.
func (a *AdminController) Activity(ctx *gin.Context) {
	day := strings.TrimSpace(ctx.Query("date"))
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}
	if !validDay(day) {
		utils.Error(ctx, http.StatusBadRequest, 40066, "date must be YYYY-MM-DD")
		return
	}

	var rows []activityRow
	err := a.db.Model(&models.DailyActivity{}).
		Select("daily_activities.user_id, users.username, users.display_name, daily_activities.count").
		Joins("JOIN users ON users.id = daily_activities.user_id").
		Where("daily_activities.day = ?", day).
		Order("daily_activities.count DESC").
		Scan(&rows).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to load activity")
		return
	}
	utils.Success(ctx, gin.H{"date": day, "activity": rows})
}
