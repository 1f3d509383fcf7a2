package lifecycle

import (
	"testing"
	"time"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

var testTime = time.Date(2025, 4, 7, 9, 30, 0, 0, time.UTC)

// dealThrough builds a deal whose data satisfies every prerequisite up to and
// including the given status, and nothing beyond it.
func dealThrough(s models.DealStatus) *models.Deal {
	d := &models.Deal{Status: models.StatusLead}
	ts := testTime
	step := models.StepNumber(s)
	if step >= 2 {
		d.InspectionDate = &ts
	}
	if step >= 3 {
		d.ClaimNumber = "CLM-1042"
	}
	if step >= 4 {
		d.AdjusterMeetingDate = &ts
	}
	if step >= 5 {
		d.ApprovalType = "full"
		d.RCV = 20000
	}
	if step >= 6 {
		d.ContractSigned = true
	}
	if step >= 7 {
		d.ACVCheckCollected = true
	}
	if step >= 8 {
		d.DeductibleCollected = true
	}
	if step >= 9 {
		d.MaterialType = "architectural shingle"
		d.MaterialColor = "weathered wood"
	}
	if step >= 10 {
		d.InstallDate = &ts
	}
	if step >= 11 {
		d.InstallCompletedDate = &ts
	}
	if step >= 12 {
		d.InvoiceNumber = "INV-2025-044"
		d.InvoiceSentDate = &ts
	}
	if step >= 13 {
		d.DepreciationCollected = true
	}
	if step >= 14 {
		d.ContractURL = "/uploads/documents/contract.pdf"
		d.CompletionPhotos = []string{"/uploads/photos/done.jpg"}
	}
	return d
}

func TestEvaluateEveryStep(t *testing.T) {
	for _, s := range models.StatusOrder {
		if got := Evaluate(dealThrough(s)); got != s {
			t.Errorf("deal built through %q evaluated to %q", s, got)
		}
	}
}

func TestEvaluateShortCircuitsOnGaps(t *testing.T) {
	ts := testTime
	tests := []struct {
		name string
		deal *models.Deal
		want models.DealStatus
	}{
		{
			name: "claim number without inspection date",
			deal: &models.Deal{ClaimNumber: "CLM-9"},
			want: models.StatusLead,
		},
		{
			name: "signed contract with nothing before it",
			deal: &models.Deal{ContractSigned: true},
			want: models.StatusLead,
		},
		{
			name: "install scheduled but materials not selected",
			deal: func() *models.Deal {
				d := dealThrough(models.StatusCollectDeductible)
				d.InstallDate = &ts
				return d
			}(),
			want: models.StatusCollectDeductible,
		},
		{
			name: "approval type without any claim valuation",
			deal: func() *models.Deal {
				d := dealThrough(models.StatusAdjusterMet)
				d.ApprovalType = "partial"
				return d
			}(),
			want: models.StatusAdjusterMet,
		},
		{
			name: "everything but completion photos",
			deal: func() *models.Deal {
				d := dealThrough(models.StatusComplete)
				d.CompletionPhotos = nil
				return d
			}(),
			want: models.StatusDepreciationCollected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.deal); got != tt.want {
				t.Errorf("Evaluate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluateIgnoresStoredStatus(t *testing.T) {
	d := &models.Deal{Status: models.StatusComplete}
	if got := Evaluate(d); got != models.StatusLead {
		t.Errorf("empty deal marked complete evaluated to %q, want lead", got)
	}
}

func TestApplyAdvancesAndStamps(t *testing.T) {
	d := dealThrough(models.StatusClaimFiled)
	d.Status = models.StatusLead

	status, patch := Apply(d, testTime)
	if status != models.StatusClaimFiled {
		t.Fatalf("Apply returned %q, want claim_filed", status)
	}
	if d.Status != models.StatusClaimFiled {
		t.Errorf("deal status not updated in memory: %q", d.Status)
	}
	if patch["status"] != models.StatusClaimFiled {
		t.Errorf("patch status = %v", patch["status"])
	}
	if _, ok := patch["milestones.claim_filed"]; !ok {
		t.Error("adopted status milestone missing from patch")
	}
	// skipped statuses keep nil stamps
	if d.Milestones.InspectionScheduled != nil {
		t.Error("skipped status was stamped")
	}
	if d.Milestones.ClaimFiled == nil || !d.Milestones.ClaimFiled.Equal(testTime) {
		t.Errorf("claim_filed stamp = %v", d.Milestones.ClaimFiled)
	}
}

func TestApplyNeverRegresses(t *testing.T) {
	d := &models.Deal{Status: models.StatusApproved}

	status, patch := Apply(d, testTime)
	if status != models.StatusApproved {
		t.Fatalf("Apply regressed to %q", status)
	}
	if len(patch) != 0 {
		t.Errorf("regression attempt produced a patch: %v", patch)
	}
	if models.StepNumber(d.Status) < models.StepNumber(models.StatusApproved) {
		t.Error("stored status moved backward")
	}
}

func TestApplyEqualStepIsNoop(t *testing.T) {
	d := dealThrough(models.StatusSigned)
	d.Status = models.StatusSigned
	stamp := testTime.Add(-48 * time.Hour)
	d.Milestones.Signed = &stamp

	status, patch := Apply(d, testTime)
	if status != models.StatusSigned || len(patch) != 0 {
		t.Fatalf("re-apply at same step: status=%q patch=%v", status, patch)
	}
	if !d.Milestones.Signed.Equal(stamp) {
		t.Error("existing stamp was overwritten on re-apply")
	}
}

func TestApplyPreservesBackfilledStamp(t *testing.T) {
	d := dealThrough(models.StatusClaimFiled)
	d.Status = models.StatusLead
	backfilled := testTime.Add(-72 * time.Hour)
	d.Milestones.ClaimFiled = &backfilled

	status, patch := Apply(d, testTime)
	if status != models.StatusClaimFiled {
		t.Fatalf("Apply returned %q", status)
	}
	if _, ok := patch["milestones.claim_filed"]; ok {
		t.Error("patch restamps a milestone that was already set")
	}
	if !d.Milestones.ClaimFiled.Equal(backfilled) {
		t.Error("backfilled stamp was overwritten")
	}
}

func TestApplyMultiStepJump(t *testing.T) {
	d := dealThrough(models.StatusApproved)
	d.Status = models.StatusLead

	status, patch := Apply(d, testTime)
	if status != models.StatusApproved {
		t.Fatalf("jump landed on %q, want approved", status)
	}
	if _, ok := patch["milestones.approved"]; !ok {
		t.Error("adopted status not stamped")
	}
	for _, s := range []models.DealStatus{
		models.StatusInspectionScheduled,
		models.StatusClaimFiled,
		models.StatusAdjusterMet,
	} {
		if d.Milestones.Get(s) != nil {
			t.Errorf("skipped status %q was stamped", s)
		}
		if _, ok := patch[models.MilestoneKey(s)]; ok {
			t.Errorf("skipped status %q appears in patch", s)
		}
	}
}

func TestInitialize(t *testing.T) {
	var d models.Deal
	Initialize(&d, testTime)
	if d.Status != models.StatusLead {
		t.Errorf("new deal status = %q", d.Status)
	}
	if d.Milestones.Lead == nil || !d.Milestones.Lead.Equal(testTime) {
		t.Errorf("lead stamp = %v", d.Milestones.Lead)
	}
}

func TestOverride(t *testing.T) {
	t.Run("forward stamps once", func(t *testing.T) {
		d := &models.Deal{Status: models.StatusLead}
		patch, err := Override(d, models.StatusInstalled, testTime)
		if err != nil {
			t.Fatalf("Override: %v", err)
		}
		if d.Status != models.StatusInstalled {
			t.Errorf("status = %q", d.Status)
		}
		if _, ok := patch["milestones.installed"]; !ok {
			t.Error("override did not stamp first reach")
		}
	})

	t.Run("downgrade keeps stamps", func(t *testing.T) {
		d := &models.Deal{Status: models.StatusSigned}
		signedAt := testTime.Add(-24 * time.Hour)
		d.Milestones.Signed = &signedAt

		patch, err := Override(d, models.StatusClaimFiled, testTime)
		if err != nil {
			t.Fatalf("Override: %v", err)
		}
		if d.Status != models.StatusClaimFiled {
			t.Errorf("status = %q", d.Status)
		}
		if d.Milestones.Signed == nil || !d.Milestones.Signed.Equal(signedAt) {
			t.Error("downgrade erased a milestone stamp")
		}
		if patch["status"] != models.StatusClaimFiled {
			t.Errorf("patch = %v", patch)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		d := &models.Deal{Status: models.StatusLead}
		if _, err := Override(d, models.DealStatus("paused"), testTime); err == nil {
			t.Fatal("expected error for unknown status")
		} else if apperrors.KindOf(err) != apperrors.KindValidation {
			t.Errorf("kind = %v, want validation", apperrors.KindOf(err))
		}
	})
}
