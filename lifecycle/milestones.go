package lifecycle

import (
	"time"

	"github.com/rooftrack/rooftrack_backend/models"
)

// StampOnce records when a status was first reached. If the stamp is already
// present it is left alone and ok is false; otherwise the stamp is written
// into m and the dotted document key for the $set is returned. The set-once
// rule is what lets the milestones subdocument double as an audit trail.
func StampOnce(m *models.Milestones, s models.DealStatus, now time.Time) (key string, ok bool) {
	if !models.IsValidStatus(s) {
		return "", false
	}
	if m.Get(s) != nil {
		return "", false
	}
	m.Set(s, now)
	return models.MilestoneKey(s), true
}
