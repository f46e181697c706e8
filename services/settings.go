package services

import (
	"time"

	"github.com/geotrail/geotrail/config"
	"github.com/geotrail/geotrail/geo"
)

// Settings carries the geofence thresholds the resolvers evaluate against.
// Injected at construction so there are no hidden globals.
type Settings struct {
	// Office is the default fence used for attendance when no named geofence
	// is closer.
	Office geo.GeofenceTarget
	// AutoRadiusMeters is the proximity-sweep threshold that silently
	// advances visit tasks.
	AutoRadiusMeters float64
	// ManualRadiusMeters is the (typically larger) threshold enforced when a
	// user explicitly marks a visit complete.
	ManualRadiusMeters float64
	// MinWork is the working duration below which a present user who logs
	// out is downgraded to half-day.
	MinWork time.Duration
}

// SettingsFromConfig maps the loaded app configuration onto resolver settings.
func SettingsFromConfig(cfg config.AppConfig) Settings {
	return Settings{
		Office: geo.GeofenceTarget{
			Name: cfg.OfficeName,
			Center: geo.Coordinate{
				Latitude:  cfg.OfficeLatitude,
				Longitude: cfg.OfficeLongitude,
			},
			RadiusMeters: cfg.OfficeRadiusMeters,
		},
		AutoRadiusMeters:   cfg.AutoRadiusMeters,
		ManualRadiusMeters: cfg.ManualRadiusMeters,
		MinWork:            time.Duration(cfg.MinWorkHours * float64(time.Hour)),
	}
}
