package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/utils"
)

// AttendanceController serves attendance reads. Writes happen through the
// resolver on login/logout, never through these endpoints.
type AttendanceController struct {
	db *gorm.DB
}

// NewAttendanceController creates an AttendanceController.
func NewAttendanceController(db *gorm.DB) *AttendanceController {
	return &AttendanceController{db: db}
}

// Today returns the caller's attendance record for the current UTC day, or an
// empty marker when no login happened yet.
func (a *AttendanceController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	day := time.Now().UTC().Format("2006-01-02")
	var rec models.Attendance
	err := a.db.Where("user_id = ? AND day = ?", userID, day).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		utils.Success(ctx, gin.H{"day": day, "marked": false})
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load attendance")
		return
	}
	utils.Success(ctx, gin.H{"day": day, "marked": true, "record": rec})
}

// History returns the caller's attendance records in a day range, newest
// first. Defaults to the last 30 days.
func (a *AttendanceController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	to := strings.TrimSpace(ctx.Query("to"))
	from := strings.TrimSpace(ctx.Query("from"))
	if to == "" {
		to = time.Now().UTC().Format("2006-01-02")
	}
	if from == "" {
		from = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}
	if !validDay(from) || !validDay(to) {
		utils.Error(ctx, http.StatusBadRequest, 40021, "from/to must be YYYY-MM-DD")
		return
	}

	var rows []models.Attendance
	err := a.db.Where("user_id = ? AND day >= ? AND day <= ?", userID, from, to).
		Order("day DESC").Find(&rows).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load attendance history")
		return
	}
	utils.Success(ctx, gin.H{"from": from, "to": to, "records": rows})
}

// adminReportRow joins attendance with the user it belongs to.
type adminReportRow struct {
	models.Attendance
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AdminReport returns every user's attendance for one day, with absentees
// (no record at all) listed separately. Cached briefly since admins poll it.
func (a *AttendanceController) AdminReport(ctx *gin.Context) {
	day := strings.TrimSpace(ctx.Query("date"))
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}
	if !validDay(day) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "date must be YYYY-MM-DD")
		return
	}

	cacheKey := "cache:attendance:report:" + day
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var rows []adminReportRow
	err := a.db.Model(&models.Attendance{}).
		Select("attendances.*, users.username, users.display_name").
		Joins("JOIN users ON users.id = attendances.user_id").
		Where("attendances.day = ?", day).
		Order("attendances.login_time ASC").
		Scan(&rows).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to build report")
		return
	}

	var unmarked []models.User
	sub := a.db.Model(&models.Attendance{}).Select("user_id").Where("day = ?", day)
	if err := a.db.Where("role = ? AND id NOT IN (?)", models.RoleEmployee, sub).Find(&unmarked).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list unmarked users")
		return
	}

	payload := gin.H{"date": day, "records": rows, "unmarked": unmarked}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 2*time.Minute)
	utils.Success(ctx, payload)
}

func validDay(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
