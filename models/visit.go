package models

import "time"

// Visit task status values. Completed and cancelled are terminal.
const (
	VisitPending    = "pending"
	VisitInProgress = "in-progress"
	VisitCompleted  = "completed"
	VisitCancelled  = "cancelled"
)

// VisitTask is an admin-assigned field visit with a target location and a
// pending → in-progress → completed lifecycle. Status transitions go through
// conditional updates (WHERE visit_status = expected) so concurrent sweeps
// cannot double-apply a transition.
type VisitTask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	RefCode       string     `gorm:"size:36;uniqueIndex" json:"ref_code"` // uuid shown to the mobile client
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	Latitude      float64    `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude     float64    `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Address       string     `gorm:"size:512" json:"address"`
	Notes         string     `gorm:"type:text" json:"notes"`
	VisitStatus   string     `gorm:"size:16;not null;default:'pending';index" json:"visit_status"`
	VisitDate     *time.Time `json:"visit_date"`
	AutoCompleted bool       `gorm:"default:false" json:"auto_completed"`
	Feedback      string     `gorm:"type:text" json:"feedback"`
	AssignedBy    uint       `json:"assigned_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Terminal reports whether the task can no longer transition.
func (t *VisitTask) Terminal() bool {
	return t.VisitStatus == VisitCompleted || t.VisitStatus == VisitCancelled
}
