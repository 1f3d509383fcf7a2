// models/deal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Milestones holds the first time each lifecycle status was reached. A stamp
// is written once by the lifecycle engine and never cleared automatically;
// reps may backfill or correct individual dates through the update allow-list.
type Milestones struct {
	Lead                  *time.Time `bson:"lead,omitempty" json:"lead,omitempty"`
	InspectionScheduled   *time.Time `bson:"inspection_scheduled,omitempty" json:"inspection_scheduled,omitempty"`
	ClaimFiled            *time.Time `bson:"claim_filed,omitempty" json:"claim_filed,omitempty"`
	AdjusterMet           *time.Time `bson:"adjuster_met,omitempty" json:"adjuster_met,omitempty"`
	Approved              *time.Time `bson:"approved,omitempty" json:"approved,omitempty"`
	Signed                *time.Time `bson:"signed,omitempty" json:"signed,omitempty"`
	CollectACV            *time.Time `bson:"collect_acv,omitempty" json:"collect_acv,omitempty"`
	CollectDeductible     *time.Time `bson:"collect_deductible,omitempty" json:"collect_deductible,omitempty"`
	MaterialsSelected     *time.Time `bson:"materials_selected,omitempty" json:"materials_selected,omitempty"`
	InstallScheduled      *time.Time `bson:"install_scheduled,omitempty" json:"install_scheduled,omitempty"`
	Installed             *time.Time `bson:"installed,omitempty" json:"installed,omitempty"`
	InvoiceSent           *time.Time `bson:"invoice_sent,omitempty" json:"invoice_sent,omitempty"`
	DepreciationCollected *time.Time `bson:"depreciation_collected,omitempty" json:"depreciation_collected,omitempty"`
	Complete              *time.Time `bson:"complete,omitempty" json:"complete,omitempty"`
}

// Get returns the stamp for a status, nil when unset or unknown.
func (m *Milestones) Get(s DealStatus) *time.Time {
	switch s {
	case StatusLead:
		return m.Lead
	case StatusInspectionScheduled:
		return m.InspectionScheduled
	case StatusClaimFiled:
		return m.ClaimFiled
	case StatusAdjusterMet:
		return m.AdjusterMet
	case StatusApproved:
		return m.Approved
	case StatusSigned:
		return m.Signed
	case StatusCollectACV:
		return m.CollectACV
	case StatusCollectDeductible:
		return m.CollectDeductible
	case StatusMaterialsSelected:
		return m.MaterialsSelected
	case StatusInstallScheduled:
		return m.InstallScheduled
	case StatusInstalled:
		return m.Installed
	case StatusInvoiceSent:
		return m.InvoiceSent
	case StatusDepreciationCollected:
		return m.DepreciationCollected
	case StatusComplete:
		return m.Complete
	}
	return nil
}

// Set overwrites the stamp for a status. Unknown statuses are ignored.
func (m *Milestones) Set(s DealStatus, t time.Time) {
	switch s {
	case StatusLead:
		m.Lead = &t
	case StatusInspectionScheduled:
		m.InspectionScheduled = &t
	case StatusClaimFiled:
		m.ClaimFiled = &t
	case StatusAdjusterMet:
		m.AdjusterMet = &t
	case StatusApproved:
		m.Approved = &t
	case StatusSigned:
		m.Signed = &t
	case StatusCollectACV:
		m.CollectACV = &t
	case StatusCollectDeductible:
		m.CollectDeductible = &t
	case StatusMaterialsSelected:
		m.MaterialsSelected = &t
	case StatusInstallScheduled:
		m.InstallScheduled = &t
	case StatusInstalled:
		m.Installed = &t
	case StatusInvoiceSent:
		m.InvoiceSent = &t
	case StatusDepreciationCollected:
		m.DepreciationCollected = &t
	case StatusComplete:
		m.Complete = &t
	}
}

// MilestoneKey is the dotted document path for one milestone stamp, used so
// partial updates never replace the whole milestones subdocument.
func MilestoneKey(s DealStatus) string {
	return "milestones." + string(s)
}

// Deal is a single insurance-funded roofing job, from door knock to closeout.
type Deal struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	RepID     primitive.ObjectID  `bson:"repId" json:"repId"`
	PinID     *primitive.ObjectID `bson:"pinId,omitempty" json:"pinId,omitempty"`
	CreatedBy primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`

	Status     DealStatus `bson:"status" json:"status"`
	Milestones Milestones `bson:"milestones" json:"milestones"`

	// Homeowner
	HomeownerName         string `bson:"homeownerName" json:"homeownerName"`
	HomeownerPhone        string `bson:"homeownerPhone,omitempty" json:"homeownerPhone,omitempty"`
	HomeownerEmail        string `bson:"homeownerEmail,omitempty" json:"homeownerEmail,omitempty"`
	SecondaryContactName  string `bson:"secondaryContactName,omitempty" json:"secondaryContactName,omitempty"`
	SecondaryContactPhone string `bson:"secondaryContactPhone,omitempty" json:"secondaryContactPhone,omitempty"`

	// Property
	Address     string  `bson:"address" json:"address"`
	City        string  `bson:"city,omitempty" json:"city,omitempty"`
	State       string  `bson:"state,omitempty" json:"state,omitempty"`
	Zip         string  `bson:"zip,omitempty" json:"zip,omitempty"`
	Lat         float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng         float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	LeadSource  string  `bson:"leadSource,omitempty" json:"leadSource,omitempty"`
	GateCode    string  `bson:"gateCode,omitempty" json:"gateCode,omitempty"`
	HOAName     string  `bson:"hoaName,omitempty" json:"hoaName,omitempty"`
	HOAApproved bool    `bson:"hoaApproved,omitempty" json:"hoaApproved,omitempty"`

	// Insurance and claim
	InsuranceCompany    string     `bson:"insuranceCompany,omitempty" json:"insuranceCompany,omitempty"`
	PolicyNumber        string     `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	ClaimNumber         string     `bson:"claimNumber,omitempty" json:"claimNumber,omitempty"`
	MortgageCompany     string     `bson:"mortgageCompany,omitempty" json:"mortgageCompany,omitempty"`
	AdjusterName        string     `bson:"adjusterName,omitempty" json:"adjusterName,omitempty"`
	AdjusterPhone       string     `bson:"adjusterPhone,omitempty" json:"adjusterPhone,omitempty"`
	AdjusterEmail       string     `bson:"adjusterEmail,omitempty" json:"adjusterEmail,omitempty"`
	AdjusterMeetingDate *time.Time `bson:"adjusterMeetingDate,omitempty" json:"adjusterMeetingDate,omitempty"`
	InspectionDate      *time.Time `bson:"inspectionDate,omitempty" json:"inspectionDate,omitempty"`
	ApprovalType        string     `bson:"approvalType,omitempty" json:"approvalType,omitempty"`

	// Claim financials. RCV is the full replacement value; the carrier pays
	// ACV up front and releases Depreciation after completion, so
	// ACV + Depreciation = RCV. The deductible is the homeowner's share and
	// lives outside that identity.
	RCV              float64 `bson:"rcv,omitempty" json:"rcv,omitempty"`
	ACV              float64 `bson:"acv,omitempty" json:"acv,omitempty"`
	Deductible       float64 `bson:"deductible,omitempty" json:"deductible,omitempty"`
	Depreciation     float64 `bson:"depreciation,omitempty" json:"depreciation,omitempty"`
	SalesTax         float64 `bson:"salesTax,omitempty" json:"salesTax,omitempty"`
	TotalPrice       float64 `bson:"totalPrice,omitempty" json:"totalPrice,omitempty"`
	SupplementAmount float64 `bson:"supplementAmount,omitempty" json:"supplementAmount,omitempty"`
	SupplementStatus string  `bson:"supplementStatus,omitempty" json:"supplementStatus,omitempty"`

	// Money collected
	ACVCheckCollected     bool       `bson:"acvCheckCollected,omitempty" json:"acvCheckCollected,omitempty"`
	DeductibleCollected   bool       `bson:"deductibleCollected,omitempty" json:"deductibleCollected,omitempty"`
	DepreciationCollected bool       `bson:"depreciationCollected,omitempty" json:"depreciationCollected,omitempty"`
	PaymentRequested      bool       `bson:"paymentRequested,omitempty" json:"paymentRequested,omitempty"`
	PaymentRequestDate    *time.Time `bson:"paymentRequestDate,omitempty" json:"paymentRequestDate,omitempty"`

	// Contract and documents
	ContractSigned   bool   `bson:"contractSigned,omitempty" json:"contractSigned,omitempty"`
	ContractURL      string `bson:"contractUrl,omitempty" json:"contractUrl,omitempty"`
	PermitURL        string `bson:"permitUrl,omitempty" json:"permitUrl,omitempty"`
	LossStatementURL string `bson:"lossStatementUrl,omitempty" json:"lossStatementUrl,omitempty"`
	SupplementURL    string `bson:"supplementUrl,omitempty" json:"supplementUrl,omitempty"`

	// Roof and build
	RoofType             string     `bson:"roofType,omitempty" json:"roofType,omitempty"`
	MaterialType         string     `bson:"materialType,omitempty" json:"materialType,omitempty"`
	MaterialColor        string     `bson:"materialColor,omitempty" json:"materialColor,omitempty"`
	SquareCount          float64    `bson:"squareCount,omitempty" json:"squareCount,omitempty"`
	Pitch                string     `bson:"pitch,omitempty" json:"pitch,omitempty"`
	Layers               int        `bson:"layers,omitempty" json:"layers,omitempty"`
	Supplier             string     `bson:"supplier,omitempty" json:"supplier,omitempty"`
	InstallDate          *time.Time `bson:"installDate,omitempty" json:"installDate,omitempty"`
	InstallCompletedDate *time.Time `bson:"installCompletedDate,omitempty" json:"installCompletedDate,omitempty"`
	CrewNotes            string     `bson:"crewNotes,omitempty" json:"crewNotes,omitempty"`

	// Invoice
	InvoiceNumber   string     `bson:"invoiceNumber,omitempty" json:"invoiceNumber,omitempty"`
	InvoiceAmount   float64    `bson:"invoiceAmount,omitempty" json:"invoiceAmount,omitempty"`
	InvoiceSentDate *time.Time `bson:"invoiceSentDate,omitempty" json:"invoiceSentDate,omitempty"`
	InvoicePaidDate *time.Time `bson:"invoicePaidDate,omitempty" json:"invoicePaidDate,omitempty"`

	// Media
	InspectionPhotos   []string `bson:"inspectionPhotos,omitempty" json:"inspectionPhotos,omitempty"`
	InstallPhotos      []string `bson:"installPhotos,omitempty" json:"installPhotos,omitempty"`
	CompletionPhotos   []string `bson:"completionPhotos,omitempty" json:"completionPhotos,omitempty"`
	Documents          []string `bson:"documents,omitempty" json:"documents,omitempty"`
	InspectionVideoURL string   `bson:"inspectionVideoUrl,omitempty" json:"inspectionVideoUrl,omitempty"`

	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DealUpdate is the write surface for deal edits. Every field a caller may
// change is listed here as a pointer; anything else in the request body is
// dropped by the decoder instead of rejected, so old app builds keep working.
// Status is deliberately absent, it only moves through the lifecycle engine
// or the admin override endpoint.
type DealUpdate struct {
	// Homeowner
	HomeownerName         *string `bson:"homeownerName,omitempty" json:"homeownerName,omitempty"`
	HomeownerPhone        *string `bson:"homeownerPhone,omitempty" json:"homeownerPhone,omitempty"`
	HomeownerEmail        *string `bson:"homeownerEmail,omitempty" json:"homeownerEmail,omitempty"`
	SecondaryContactName  *string `bson:"secondaryContactName,omitempty" json:"secondaryContactName,omitempty"`
	SecondaryContactPhone *string `bson:"secondaryContactPhone,omitempty" json:"secondaryContactPhone,omitempty"`

	// Property
	Address     *string  `bson:"address,omitempty" json:"address,omitempty"`
	City        *string  `bson:"city,omitempty" json:"city,omitempty"`
	State       *string  `bson:"state,omitempty" json:"state,omitempty"`
	Zip         *string  `bson:"zip,omitempty" json:"zip,omitempty"`
	Lat         *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng         *float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	LeadSource  *string  `bson:"leadSource,omitempty" json:"leadSource,omitempty"`
	GateCode    *string  `bson:"gateCode,omitempty" json:"gateCode,omitempty"`
	HOAName     *string  `bson:"hoaName,omitempty" json:"hoaName,omitempty"`
	HOAApproved *bool    `bson:"hoaApproved,omitempty" json:"hoaApproved,omitempty"`

	// Insurance and claim
	InsuranceCompany    *string    `bson:"insuranceCompany,omitempty" json:"insuranceCompany,omitempty"`
	PolicyNumber        *string    `bson:"policyNumber,omitempty" json:"policyNumber,omitempty"`
	ClaimNumber         *string    `bson:"claimNumber,omitempty" json:"claimNumber,omitempty"`
	MortgageCompany     *string    `bson:"mortgageCompany,omitempty" json:"mortgageCompany,omitempty"`
	AdjusterName        *string    `bson:"adjusterName,omitempty" json:"adjusterName,omitempty"`
	AdjusterPhone       *string    `bson:"adjusterPhone,omitempty" json:"adjusterPhone,omitempty"`
	AdjusterEmail       *string    `bson:"adjusterEmail,omitempty" json:"adjusterEmail,omitempty"`
	AdjusterMeetingDate *time.Time `bson:"adjusterMeetingDate,omitempty" json:"adjusterMeetingDate,omitempty"`
	InspectionDate      *time.Time `bson:"inspectionDate,omitempty" json:"inspectionDate,omitempty"`
	ApprovalType        *string    `bson:"approvalType,omitempty" json:"approvalType,omitempty"`

	// Financials
	RCV              *float64 `bson:"rcv,omitempty" json:"rcv,omitempty"`
	ACV              *float64 `bson:"acv,omitempty" json:"acv,omitempty"`
	Deductible       *float64 `bson:"deductible,omitempty" json:"deductible,omitempty"`
	Depreciation     *float64 `bson:"depreciation,omitempty" json:"depreciation,omitempty"`
	SalesTax         *float64 `bson:"salesTax,omitempty" json:"salesTax,omitempty"`
	TotalPrice       *float64 `bson:"totalPrice,omitempty" json:"totalPrice,omitempty"`
	SupplementAmount *float64 `bson:"supplementAmount,omitempty" json:"supplementAmount,omitempty"`
	SupplementStatus *string  `bson:"supplementStatus,omitempty" json:"supplementStatus,omitempty"`

	// Money collected
	ACVCheckCollected     *bool      `bson:"acvCheckCollected,omitempty" json:"acvCheckCollected,omitempty"`
	DeductibleCollected   *bool      `bson:"deductibleCollected,omitempty" json:"deductibleCollected,omitempty"`
	DepreciationCollected *bool      `bson:"depreciationCollected,omitempty" json:"depreciationCollected,omitempty"`
	PaymentRequested      *bool      `bson:"paymentRequested,omitempty" json:"paymentRequested,omitempty"`
	PaymentRequestDate    *time.Time `bson:"paymentRequestDate,omitempty" json:"paymentRequestDate,omitempty"`

	// Contract and documents
	ContractSigned   *bool   `bson:"contractSigned,omitempty" json:"contractSigned,omitempty"`
	ContractURL      *string `bson:"contractUrl,omitempty" json:"contractUrl,omitempty"`
	PermitURL        *string `bson:"permitUrl,omitempty" json:"permitUrl,omitempty"`
	LossStatementURL *string `bson:"lossStatementUrl,omitempty" json:"lossStatementUrl,omitempty"`
	SupplementURL    *string `bson:"supplementUrl,omitempty" json:"supplementUrl,omitempty"`

	// Roof and build
	RoofType             *string    `bson:"roofType,omitempty" json:"roofType,omitempty"`
	MaterialType         *string    `bson:"materialType,omitempty" json:"materialType,omitempty"`
	MaterialColor        *string    `bson:"materialColor,omitempty" json:"materialColor,omitempty"`
	SquareCount          *float64   `bson:"squareCount,omitempty" json:"squareCount,omitempty"`
	Pitch                *string    `bson:"pitch,omitempty" json:"pitch,omitempty"`
	Layers               *int       `bson:"layers,omitempty" json:"layers,omitempty"`
	Supplier             *string    `bson:"supplier,omitempty" json:"supplier,omitempty"`
	InstallDate          *time.Time `bson:"installDate,omitempty" json:"installDate,omitempty"`
	InstallCompletedDate *time.Time `bson:"installCompletedDate,omitempty" json:"installCompletedDate,omitempty"`
	CrewNotes            *string    `bson:"crewNotes,omitempty" json:"crewNotes,omitempty"`

	// Invoice
	InvoiceNumber   *string    `bson:"invoiceNumber,omitempty" json:"invoiceNumber,omitempty"`
	InvoiceAmount   *float64   `bson:"invoiceAmount,omitempty" json:"invoiceAmount,omitempty"`
	InvoiceSentDate *time.Time `bson:"invoiceSentDate,omitempty" json:"invoiceSentDate,omitempty"`
	InvoicePaidDate *time.Time `bson:"invoicePaidDate,omitempty" json:"invoicePaidDate,omitempty"`

	// Media
	InspectionPhotos   *[]string `bson:"inspectionPhotos,omitempty" json:"inspectionPhotos,omitempty"`
	InstallPhotos      *[]string `bson:"installPhotos,omitempty" json:"installPhotos,omitempty"`
	CompletionPhotos   *[]string `bson:"completionPhotos,omitempty" json:"completionPhotos,omitempty"`
	Documents          *[]string `bson:"documents,omitempty" json:"documents,omitempty"`
	InspectionVideoURL *string   `bson:"inspectionVideoUrl,omitempty" json:"inspectionVideoUrl,omitempty"`

	Notes *string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Milestone corrections reuse the stamp struct, every entry optional.
	Milestones *Milestones `bson:"milestones,omitempty" json:"milestones,omitempty"`
}

// SetPatch renders the update as a flat $set document. Milestone stamps are
// written under dotted keys so untouched stamps in the subdocument survive.
func (u *DealUpdate) SetPatch() (bson.M, error) {
	raw, err := bson.Marshal(u)
	if err != nil {
		return nil, err
	}
	patch := bson.M{}
	if err := bson.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}
	if sub, ok := patch["milestones"].(bson.M); ok {
		delete(patch, "milestones")
		for k, v := range sub {
			patch["milestones."+k] = v
		}
	}
	return patch, nil
}

// ApplyTo merges the update into an in-memory deal so the lifecycle engine
// evaluates the same state the database will hold after the write.
func (u *DealUpdate) ApplyTo(d *Deal) {
	if u.HomeownerName != nil {
		d.HomeownerName = *u.HomeownerName
	}
	if u.HomeownerPhone != nil {
		d.HomeownerPhone = *u.HomeownerPhone
	}
	if u.HomeownerEmail != nil {
		d.HomeownerEmail = *u.HomeownerEmail
	}
	if u.SecondaryContactName != nil {
		d.SecondaryContactName = *u.SecondaryContactName
	}
	if u.SecondaryContactPhone != nil {
		d.SecondaryContactPhone = *u.SecondaryContactPhone
	}
	if u.Address != nil {
		d.Address = *u.Address
	}
	if u.City != nil {
		d.City = *u.City
	}
	if u.State != nil {
		d.State = *u.State
	}
	if u.Zip != nil {
		d.Zip = *u.Zip
	}
	if u.Lat != nil {
		d.Lat = *u.Lat
	}
	if u.Lng != nil {
		d.Lng = *u.Lng
	}
	if u.LeadSource != nil {
		d.LeadSource = *u.LeadSource
	}
	if u.GateCode != nil {
		d.GateCode = *u.GateCode
	}
	if u.HOAName != nil {
		d.HOAName = *u.HOAName
	}
	if u.HOAApproved != nil {
		d.HOAApproved = *u.HOAApproved
	}
	if u.InsuranceCompany != nil {
		d.InsuranceCompany = *u.InsuranceCompany
	}
	if u.PolicyNumber != nil {
		d.PolicyNumber = *u.PolicyNumber
	}
	if u.ClaimNumber != nil {
		d.ClaimNumber = *u.ClaimNumber
	}
	if u.MortgageCompany != nil {
		d.MortgageCompany = *u.MortgageCompany
	}
	if u.AdjusterName != nil {
		d.AdjusterName = *u.AdjusterName
	}
	if u.AdjusterPhone != nil {
		d.AdjusterPhone = *u.AdjusterPhone
	}
	if u.AdjusterEmail != nil {
		d.AdjusterEmail = *u.AdjusterEmail
	}
	if u.AdjusterMeetingDate != nil {
		d.AdjusterMeetingDate = u.AdjusterMeetingDate
	}
	if u.InspectionDate != nil {
		d.InspectionDate = u.InspectionDate
	}
	if u.ApprovalType != nil {
		d.ApprovalType = *u.ApprovalType
	}
	if u.RCV != nil {
		d.RCV = *u.RCV
	}
	if u.ACV != nil {
		d.ACV = *u.ACV
	}
	if u.Deductible != nil {
		d.Deductible = *u.Deductible
	}
	if u.Depreciation != nil {
		d.Depreciation = *u.Depreciation
	}
	if u.SalesTax != nil {
		d.SalesTax = *u.SalesTax
	}
	if u.TotalPrice != nil {
		d.TotalPrice = *u.TotalPrice
	}
	if u.SupplementAmount != nil {
		d.SupplementAmount = *u.SupplementAmount
	}
	if u.SupplementStatus != nil {
		d.SupplementStatus = *u.SupplementStatus
	}
	if u.ACVCheckCollected != nil {
		d.ACVCheckCollected = *u.ACVCheckCollected
	}
	if u.DeductibleCollected != nil {
		d.DeductibleCollected = *u.DeductibleCollected
	}
	if u.DepreciationCollected != nil {
		d.DepreciationCollected = *u.DepreciationCollected
	}
	if u.PaymentRequested != nil {
		d.PaymentRequested = *u.PaymentRequested
	}
	if u.PaymentRequestDate != nil {
		d.PaymentRequestDate = u.PaymentRequestDate
	}
	if u.ContractSigned != nil {
		d.ContractSigned = *u.ContractSigned
	}
	if u.ContractURL != nil {
		d.ContractURL = *u.ContractURL
	}
	if u.PermitURL != nil {
		d.PermitURL = *u.PermitURL
	}
	if u.LossStatementURL != nil {
		d.LossStatementURL = *u.LossStatementURL
	}
	if u.SupplementURL != nil {
		d.SupplementURL = *u.SupplementURL
	}
	if u.RoofType != nil {
		d.RoofType = *u.RoofType
	}
	if u.MaterialType != nil {
		d.MaterialType = *u.MaterialType
	}
	if u.MaterialColor != nil {
		d.MaterialColor = *u.MaterialColor
	}
	if u.SquareCount != nil {
		d.SquareCount = *u.SquareCount
	}
	if u.Pitch != nil {
		d.Pitch = *u.Pitch
	}
	if u.Layers != nil {
		d.Layers = *u.Layers
	}
	if u.Supplier != nil {
		d.Supplier = *u.Supplier
	}
	if u.InstallDate != nil {
		d.InstallDate = u.InstallDate
	}
	if u.InstallCompletedDate != nil {
		d.InstallCompletedDate = u.InstallCompletedDate
	}
	if u.CrewNotes != nil {
		d.CrewNotes = *u.CrewNotes
	}
	if u.InvoiceNumber != nil {
		d.InvoiceNumber = *u.InvoiceNumber
	}
	if u.InvoiceAmount != nil {
		d.InvoiceAmount = *u.InvoiceAmount
	}
	if u.InvoiceSentDate != nil {
		d.InvoiceSentDate = u.InvoiceSentDate
	}
	if u.InvoicePaidDate != nil {
		d.InvoicePaidDate = u.InvoicePaidDate
	}
	if u.InspectionPhotos != nil {
		d.InspectionPhotos = *u.InspectionPhotos
	}
	if u.InstallPhotos != nil {
		d.InstallPhotos = *u.InstallPhotos
	}
	if u.CompletionPhotos != nil {
		d.CompletionPhotos = *u.CompletionPhotos
	}
	if u.Documents != nil {
		d.Documents = *u.Documents
	}
	if u.InspectionVideoURL != nil {
		d.InspectionVideoURL = *u.InspectionVideoURL
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	if u.Milestones != nil {
		for _, s := range StatusOrder {
			if t := u.Milestones.Get(s); t != nil {
				d.Milestones.Set(s, *t)
			}
		}
	}
}

// CreateDealRequest is the minimal payload to open a deal by hand, without
// going through a map pin.
type CreateDealRequest struct {
	HomeownerName    string  `json:"homeownerName" validate:"required"`
	HomeownerPhone   string  `json:"homeownerPhone"`
	HomeownerEmail   string  `json:"homeownerEmail" validate:"omitempty,email"`
	Address          string  `json:"address" validate:"required"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Zip              string  `json:"zip"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	LeadSource       string  `json:"leadSource"`
	InsuranceCompany string  `json:"insuranceCompany"`
	Notes            string  `json:"notes"`
	RepID            string  `json:"repId"`
}

// DealProgress pairs a deal with its catalog position for list screens.
type DealProgress struct {
	Step       int         `json:"step"`
	TotalSteps int         `json:"totalSteps"`
	Phase      StatusPhase `json:"phase"`
	Label      string      `json:"label"`
	Color      string      `json:"color"`
}

// ProgressFor derives the progress card for a status. Unknown statuses fall
// back to step 0 so legacy rows render instead of crashing list views.
func ProgressFor(s DealStatus) DealProgress {
	info, ok := CatalogEntry(s)
	if !ok {
		return DealProgress{Step: 0, TotalSteps: len(StatusOrder), Label: string(s)}
	}
	return DealProgress{
		Step:       info.Step,
		TotalSteps: len(StatusOrder),
		Phase:      info.Phase,
		Label:      info.Label,
		Color:      info.Color,
	}
}
