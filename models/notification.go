package models

import "time"

// Notification kinds.
const (
	NotifyVisitAssigned  = "visit_assigned"
	NotifyVisitStarted   = "visit_started"
	NotifyVisitCompleted = "visit_completed"
)

// Notification is an in-app notification record polled by the mobile client.
// Delivery to the device (push) happens outside this service.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"size:1024" json:"body"`
	VisitID   *uint     `json:"visit_id,omitempty"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
