// models/status.go
package models

// DealStatus is one step in the fixed deal lifecycle. Statuses form a single
// linear sequence; the step number is the only transition rule (it may only
// grow, see the lifecycle package).
type DealStatus string

const (
	StatusLead                  DealStatus = "lead"
	StatusInspectionScheduled   DealStatus = "inspection_scheduled"
	StatusClaimFiled            DealStatus = "claim_filed"
	StatusAdjusterMet           DealStatus = "adjuster_met"
	StatusApproved              DealStatus = "approved"
	StatusSigned                DealStatus = "signed"
	StatusCollectACV            DealStatus = "collect_acv"
	StatusCollectDeductible     DealStatus = "collect_deductible"
	StatusMaterialsSelected     DealStatus = "materials_selected"
	StatusInstallScheduled      DealStatus = "install_scheduled"
	StatusInstalled             DealStatus = "installed"
	StatusInvoiceSent           DealStatus = "invoice_sent"
	StatusDepreciationCollected DealStatus = "depreciation_collected"
	StatusComplete              DealStatus = "complete"
)

// StatusPhase groups statuses for progress displays and crew scoping.
type StatusPhase string

const (
	PhaseSign     StatusPhase = "sign"
	PhaseBuild    StatusPhase = "build"
	PhaseCollect  StatusPhase = "collect"
	PhaseComplete StatusPhase = "complete"
)

// StatusInfo is the catalog entry for one status: its position, phase, display
// metadata and the optional manual-advance action.
type StatusInfo struct {
	Status      DealStatus  `json:"status"`
	Step        int         `json:"step"`
	Phase       StatusPhase `json:"phase"`
	Label       string      `json:"label"`
	Color       string      `json:"color"`
	ActionLabel string      `json:"actionLabel,omitempty"`
	Next        DealStatus  `json:"next,omitempty"`
}

// StatusOrder is the authoritative lifecycle ordering. Step numbers are the
// 1-based positions in this slice; every consumer of "how far along is this
// deal" derives from here.
var StatusOrder = []DealStatus{
	StatusLead,
	StatusInspectionScheduled,
	StatusClaimFiled,
	StatusAdjusterMet,
	StatusApproved,
	StatusSigned,
	StatusCollectACV,
	StatusCollectDeductible,
	StatusMaterialsSelected,
	StatusInstallScheduled,
	StatusInstalled,
	StatusInvoiceSent,
	StatusDepreciationCollected,
	StatusComplete,
}

var statusCatalog = map[DealStatus]StatusInfo{
	StatusLead: {
		Status: StatusLead, Step: 1, Phase: PhaseSign,
		Label: "Lead", Color: "#9E9E9E",
		ActionLabel: "Schedule Inspection", Next: StatusInspectionScheduled,
	},
	StatusInspectionScheduled: {
		Status: StatusInspectionScheduled, Step: 2, Phase: PhaseSign,
		Label: "Inspection Scheduled", Color: "#03A9F4",
		ActionLabel: "File Claim", Next: StatusClaimFiled,
	},
	StatusClaimFiled: {
		Status: StatusClaimFiled, Step: 3, Phase: PhaseSign,
		Label: "Claim Filed", Color: "#00BCD4",
		ActionLabel: "Adjuster Met", Next: StatusAdjusterMet,
	},
	StatusAdjusterMet: {
		Status: StatusAdjusterMet, Step: 4, Phase: PhaseSign,
		Label: "Adjuster Met", Color: "#009688",
		ActionLabel: "Mark Approved", Next: StatusApproved,
	},
	StatusApproved: {
		Status: StatusApproved, Step: 5, Phase: PhaseSign,
		Label: "Claim Approved", Color: "#8BC34A",
		ActionLabel: "Mark Signed", Next: StatusSigned,
	},
	StatusSigned: {
		Status: StatusSigned, Step: 6, Phase: PhaseSign,
		Label: "Contract Signed", Color: "#4CAF50",
		ActionLabel: "Collect ACV", Next: StatusCollectACV,
	},
	StatusCollectACV: {
		Status: StatusCollectACV, Step: 7, Phase: PhaseBuild,
		Label: "ACV Collected", Color: "#CDDC39",
		ActionLabel: "Collect Deductible", Next: StatusCollectDeductible,
	},
	StatusCollectDeductible: {
		Status: StatusCollectDeductible, Step: 8, Phase: PhaseBuild,
		Label: "Deductible Collected", Color: "#FFEB3B",
		ActionLabel: "Select Materials", Next: StatusMaterialsSelected,
	},
	StatusMaterialsSelected: {
		Status: StatusMaterialsSelected, Step: 9, Phase: PhaseBuild,
		Label: "Materials Selected", Color: "#FFC107",
		ActionLabel: "Schedule Install", Next: StatusInstallScheduled,
	},
	StatusInstallScheduled: {
		Status: StatusInstallScheduled, Step: 10, Phase: PhaseBuild,
		Label: "Install Scheduled", Color: "#FF9800",
		ActionLabel: "Mark Installed", Next: StatusInstalled,
	},
	StatusInstalled: {
		Status: StatusInstalled, Step: 11, Phase: PhaseBuild,
		Label: "Installed", Color: "#FF5722",
		ActionLabel: "Send Invoice", Next: StatusInvoiceSent,
	},
	StatusInvoiceSent: {
		Status: StatusInvoiceSent, Step: 12, Phase: PhaseCollect,
		Label: "Invoice Sent", Color: "#795548",
		ActionLabel: "Collect Depreciation", Next: StatusDepreciationCollected,
	},
	StatusDepreciationCollected: {
		Status: StatusDepreciationCollected, Step: 13, Phase: PhaseCollect,
		Label: "Depreciation Collected", Color: "#607D8B",
		ActionLabel: "Mark Complete", Next: StatusComplete,
	},
	StatusComplete: {
		Status: StatusComplete, Step: 14, Phase: PhaseComplete,
		Label: "Complete", Color: "#3F51B5",
	},
}

// StepNumber returns the 1-based position of a status, or 0 for an unknown one.
func StepNumber(s DealStatus) int {
	if info, ok := statusCatalog[s]; ok {
		return info.Step
	}
	return 0
}

// CatalogEntry returns the full catalog row for a status.
func CatalogEntry(s DealStatus) (StatusInfo, bool) {
	info, ok := statusCatalog[s]
	return info, ok
}

// IsValidStatus reports whether s is part of the catalog.
func IsValidStatus(s DealStatus) bool {
	_, ok := statusCatalog[s]
	return ok
}

// StatusCatalog returns every catalog entry in lifecycle order, for progress
// indicators and admin tooling.
func StatusCatalog() []StatusInfo {
	out := make([]StatusInfo, 0, len(StatusOrder))
	for _, s := range StatusOrder {
		out = append(out, statusCatalog[s])
	}
	return out
}
