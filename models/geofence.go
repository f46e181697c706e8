package models

import "time"

// Geofence is an admin-managed named fence. Attendance resolves against the
// nearest of the configured office fence plus all active rows here, so a
// company with several sites marks employees present at any of them.
type Geofence struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Latitude     float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude    float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	RadiusMeters float64   `gorm:"not null;default:50" json:"radius_meters"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
