package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/geotrail/geotrail/models"
)

// ActivityRecorder counts successful authenticated requests per user per UTC
// day. Must run after AuthRequired so the user id is present.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		v, ok := c.Get(ContextUserIDKey)
		if !ok {
			return
		}
		userID, ok := v.(uint)
		if !ok || userID == 0 {
			return
		}

		day := time.Now().UTC().Format("2006-01-02")

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.DailyActivity{UserID: userID, Day: day, Count: 1, UpdatedAt: time.Now()}).Error
	}
}
