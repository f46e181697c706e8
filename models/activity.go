package models

import "time"

// DailyActivity counts authenticated API requests per user per day. Rows are
// maintained with an atomic upsert from middleware and feed the admin
// activity dashboard.
type DailyActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uniq_activity_user_day,priority:1" json:"user_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:uniq_activity_user_day,priority:2;index" json:"day"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
