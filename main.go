package main

import (
	"github.com/geotrail/geotrail/config"
	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/routes"
	"github.com/geotrail/geotrail/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Attendance{},
		&models.VisitTask{},
		&models.Geofence{},
		&models.Notification{},
		&models.LocationPing{},
		&models.DailyActivity{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
