package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/geotrail/geotrail/config"
	"github.com/geotrail/geotrail/controllers"
	"github.com/geotrail/geotrail/middleware"
	"github.com/geotrail/geotrail/services"
	"github.com/geotrail/geotrail/utils"
)

// SetupRouter wires routes, middlewares, controllers and the resolver services.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	settings := services.SettingsFromConfig(cfg)
	store := services.NewStore(db)
	attendanceSvc := services.NewAttendanceService(store, services.SystemClock, settings, utils.Sugar)
	visitSvc := services.NewVisitService(store, services.SystemClock, settings, utils.Sugar)

	authController := controllers.NewAuthController(db, attendanceSvc)
	attendanceController := controllers.NewAttendanceController(db)
	locationController := controllers.NewLocationController(db, visitSvc)
	visitController := controllers.NewVisitController(db, visitSvc)
	notificationController := controllers.NewNotificationController(db)
	adminController := controllers.NewAdminController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.ActivityRecorder(db))

	// Background location stream; rate limited separately since devices can
	// misbehave and flood pings.
	protected.POST("/location/ping", middleware.RateLimitMiddleware(), locationController.Ping)

	protected.GET("/attendance/today", attendanceController.Today)
	protected.GET("/attendance/history", attendanceController.History)

	protected.GET("/visits", visitController.ListMine)
	protected.GET("/visits/:id", visitController.Get)
	protected.POST("/visits/:id/complete", visitController.Complete)
	protected.POST("/visits/:id/cancel", visitController.Cancel)
	protected.POST("/visits/:id/feedback", visitController.Feedback)

	protected.GET("/notifications", notificationController.List)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)
	protected.POST("/notifications/read-all", notificationController.ReadAll)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.GET("/users", adminController.ListUsers)
	admin.POST("/users", adminController.CreateUser)
	admin.GET("/attendance", attendanceController.AdminReport)
	admin.GET("/activity", adminController.Activity)
	admin.GET("/location/latest/:user_id", locationController.Latest)
	admin.POST("/visits", visitController.Assign)
	admin.GET("/visits", visitController.AdminList)
	admin.DELETE("/visits/:id", visitController.AdminDelete)
	admin.GET("/geofences", adminController.ListGeofences)
	admin.POST("/geofences", adminController.CreateGeofence)
	admin.DELETE("/geofences/:id", adminController.DeleteGeofence)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
