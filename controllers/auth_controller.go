package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/config"
	"github.com/geotrail/geotrail/geo"
	"github.com/geotrail/geotrail/middleware"
	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/services"
	"github.com/geotrail/geotrail/utils"
)

// AuthController handles authentication endpoints. Login doubles as the
// attendance trigger: the mobile app sends its position with the credentials
// and gets the day's attendance resolution back with the token.
type AuthController struct {
	db         *gorm.DB
	attendance *services.AttendanceService
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, attendance *services.AttendanceService) *AuthController {
	return &AuthController{db: db, attendance: attendance}
}

type loginRequest struct {
	Username  string   `json:"username" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Login verifies credentials, issues a JWT and resolves today's attendance.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load user")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}

	cfg := config.Get()
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to issue token")
		return
	}

	var coord *geo.Coordinate
	if req.Latitude != nil && req.Longitude != nil {
		coord = &geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	resolution, err := a.attendance.ResolveLogin(ctx.Request.Context(), user.ID, coord)
	if err != nil {
		respondServiceError(ctx, err, 50012, "failed to resolve attendance")
		return
	}

	if !resolution.AlreadyMarked && resolution.Record != nil {
		utils.CacheDelete("cache:attendance:report:" + resolution.Record.Day)
	}

	now := time.Now()
	a.db.Model(&user).Update("last_login_at", now)

	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": now.Add(tokenTTL),
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"role":         user.Role,
		},
		"attendance": resolution,
	})
}

// Logout revokes the bearer token and stamps today's logout time.
func (a *AuthController) Logout(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	if raw, exists := ctx.Get(middleware.ContextTokenKey); exists {
		if token, ok := raw.(string); ok && token != "" {
			if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
				utils.BlacklistToken(token, claims.ExpiresAt.Time)
			}
		}
	}

	rec, err := a.attendance.ResolveLogout(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err, 50013, "failed to record logout")
		return
	}
	if rec != nil {
		utils.CacheDelete("cache:attendance:report:" + rec.Day)
	}

	utils.Success(ctx, gin.H{
		"message":    "logged out",
		"attendance": rec,
	})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load user")
		return
	}
	utils.Success(ctx, user)
}

type profileRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	DeviceToken *string `json:"device_token"`
}

// UpdateProfile patches display name, email and the device push token.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req profileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = utils.Sanitize(*req.DisplayName)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.DeviceToken != nil {
		updates["device_token"] = strings.TrimSpace(*req.DeviceToken)
	}
	if len(updates) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "nothing to update")
		return
	}

	if err := a.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to update profile")
		return
	}
	utils.Success(ctx, gin.H{"message": "profile updated"})
}

// getUserID extracts the authenticated user id placed by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

// parseUintParam reads a positive integer path or query parameter.
func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	if raw == "" {
		raw = strings.TrimSpace(ctx.Query(name))
	}
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// respondServiceError maps resolver errors onto the response envelope.
func respondServiceError(ctx *gin.Context, err error, fallbackCode int, fallbackMsg string) {
	var oor *services.OutOfRangeError
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, err.Error())
	case errors.As(err, &oor):
		utils.Respond(ctx, http.StatusUnprocessableEntity, 42210, oor.Error(), gin.H{
			"distance_meters": oor.DistanceMeters,
			"radius_meters":   oor.RadiusMeters,
		})
	default:
		// Transient storage failures land here; the client may retry.
		utils.Error(ctx, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
