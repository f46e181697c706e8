package models

import "time"

// Attendance status values.
const (
	AttendancePresent = "present"
	AttendanceHalfDay = "half-day"
	AttendanceAbsent  = "absent"
)

// Attendance is the single per-user-per-day record capturing login/logout
// time and in-office status. The composite unique index on (user_id, day)
// backs the find-or-create path: a concurrent first login of the day loses
// the insert and reads back the winner's row.
type Attendance struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex:uniq_attendance_user_day,priority:1" json:"user_id"`
	Day            string     `gorm:"size:10;not null;uniqueIndex:uniq_attendance_user_day,priority:2;index" json:"day"` // UTC calendar day, YYYY-MM-DD
	LoginTime      time.Time  `gorm:"not null" json:"login_time"`
	LogoutTime     *time.Time `json:"logout_time"`
	Status         string     `gorm:"size:16;not null" json:"status"`
	Latitude       *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude      *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	DistanceMeters *float64   `gorm:"type:decimal(10,2)" json:"distance_meters"`
	InOffice       bool       `gorm:"default:false" json:"in_office"`
	FenceName      string     `gorm:"size:64" json:"fence_name,omitempty"` // which geofence matched, if any
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
