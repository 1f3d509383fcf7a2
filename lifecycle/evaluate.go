// Package lifecycle derives a deal's status from its data. The status field
// in storage is a cache of what Evaluate returns, never an input to it, and
// it only ever moves forward outside the explicit admin override.
package lifecycle

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

// prereq reports whether the deal's data supports holding one status. All
// checks are presence checks on fields reps fill in as the job moves.
type prereq func(d *models.Deal) bool

var prereqs = map[models.DealStatus]prereq{
	models.StatusLead:                func(d *models.Deal) bool { return true },
	models.StatusInspectionScheduled: func(d *models.Deal) bool { return d.InspectionDate != nil },
	models.StatusClaimFiled:          func(d *models.Deal) bool { return d.ClaimNumber != "" },
	models.StatusAdjusterMet:         func(d *models.Deal) bool { return d.AdjusterMeetingDate != nil },
	models.StatusApproved: func(d *models.Deal) bool {
		return d.ApprovalType != "" && (d.RCV > 0 || d.ACV > 0)
	},
	models.StatusSigned:            func(d *models.Deal) bool { return d.ContractSigned },
	models.StatusCollectACV:        func(d *models.Deal) bool { return d.ACVCheckCollected },
	models.StatusCollectDeductible: func(d *models.Deal) bool { return d.DeductibleCollected },
	models.StatusMaterialsSelected: func(d *models.Deal) bool {
		return d.MaterialType != "" && d.MaterialColor != ""
	},
	models.StatusInstallScheduled: func(d *models.Deal) bool { return d.InstallDate != nil },
	models.StatusInstalled: func(d *models.Deal) bool {
		return d.InstallCompletedDate != nil || len(d.InstallPhotos) > 0
	},
	models.StatusInvoiceSent: func(d *models.Deal) bool {
		return d.InvoiceSentDate != nil || d.InvoiceNumber != ""
	},
	models.StatusDepreciationCollected: func(d *models.Deal) bool { return d.DepreciationCollected },
	models.StatusComplete: func(d *models.Deal) bool {
		return d.ContractURL != "" && len(d.CompletionPhotos) > 0 && d.InvoiceNumber != ""
	},
}

// Evaluate returns the furthest status whose prerequisites, and those of
// every status before it, are satisfied by the deal's current data. It never
// reads d.Status.
func Evaluate(d *models.Deal) models.DealStatus {
	furthest := models.StatusLead
	for _, s := range models.StatusOrder {
		if !prereqs[s](d) {
			break
		}
		furthest = s
	}
	return furthest
}

// Apply recomputes the status after the caller has merged an update into d.
// The stored status only ever advances through this path: when the evaluated
// step is at or below the stored one nothing changes and the patch is empty.
// On an advance the newly adopted status's milestone is stamped, once, and
// both changes come back as a $set patch. Skipped statuses in a multi-step
// jump keep nil milestones.
func Apply(d *models.Deal, now time.Time) (models.DealStatus, bson.M) {
	evaluated := Evaluate(d)
	if models.StepNumber(evaluated) <= models.StepNumber(d.Status) {
		return d.Status, bson.M{}
	}
	d.Status = evaluated
	patch := bson.M{"status": evaluated}
	if key, ok := StampOnce(&d.Milestones, evaluated, now); ok {
		patch[key] = now
	}
	return evaluated, patch
}

// Initialize seeds a brand-new deal at the bottom of the ladder with the
// lead milestone set to the creation time.
func Initialize(d *models.Deal, now time.Time) {
	d.Status = models.StatusLead
	d.Milestones.Set(models.StatusLead, now)
}

// Override force-sets a status in either direction. Reaching for this is an
// admin action; the engine still refuses statuses outside the catalog and a
// downgrade never erases milestone stamps.
func Override(d *models.Deal, target models.DealStatus, now time.Time) (bson.M, error) {
	if !models.IsValidStatus(target) {
		return nil, apperrors.Validation("status")
	}
	d.Status = target
	patch := bson.M{"status": target}
	if key, ok := StampOnce(&d.Milestones, target, now); ok {
		patch[key] = now
	}
	return patch, nil
}
