package models

import "time"

// LocationPing stores one background location update from a device.
// Using separate lat/lng columns for portability and Haversine queries.
// The most recent position per user is also cached in redis; these rows are
// the durable audit trail.
type LocationPing struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index:idx_ping_user_time,priority:1;not null" json:"user_id"`
	Latitude       float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude      float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	AccuracyMeters *float64  `gorm:"type:decimal(8,2)" json:"accuracy_meters"`
	RecordedAt     time.Time `gorm:"not null;index:idx_ping_user_time,priority:2" json:"recorded_at"`
	CreatedAt      time.Time `json:"created_at"`
}
