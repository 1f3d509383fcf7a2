// Package commission computes rep payouts and homeowner check breakdowns
// from a deal's claim financials. Everything here is pure math over the
// snapshot it is handed; persistence and gating live with the callers.
package commission

import "github.com/rooftrack/rooftrack_backend/models"

// FallbackTaxRate is applied when a deal carries no explicit sales tax.
const FallbackTaxRate = 0.0825

// FinancialInput is the slice of deal fields the calculator reads. Absent
// monetary fields are zero.
type FinancialInput struct {
	RCV          float64
	ACV          float64
	Depreciation float64
	Deductible   float64
	SalesTax     float64
}

// FromDeal pulls the calculator inputs off a deal.
func FromDeal(d *models.Deal) FinancialInput {
	return FinancialInput{
		RCV:          d.RCV,
		ACV:          d.ACV,
		Depreciation: d.Depreciation,
		Deductible:   d.Deductible,
		SalesTax:     d.SalesTax,
	}
}

// Result is the full commission and check breakdown for one rep on one deal.
// FirstCheck and SecondCheck are the homeowner-facing insurance checks: the
// ACV check net of deductible, then the depreciation release. Together with
// the deductible they reconcile back to CalculatedRCV.
type Result struct {
	CalculatedRCV float64 `json:"calculatedRcv"`
	SalesTax      float64 `json:"salesTax"`
	BaseAmount    float64 `json:"baseAmount"`
	Percent       float64 `json:"percent"`
	Amount        float64 `json:"amount"`
	Overridden    bool    `json:"overridden,omitempty"`
	FirstCheck    float64 `json:"firstCheck"`
	SecondCheck   float64 `json:"secondCheck"`
}

// Calculate derives the payable commission. When rcv is absent it is rebuilt
// as acv + depreciation; when sales tax is absent the fallback rate applies.
// An explicit override amount, when present, wins over the percent formula
// but the rest of the breakdown is still reported.
func Calculate(in FinancialInput, percent float64, override *float64) Result {
	calculatedRcv := in.RCV
	if calculatedRcv <= 0 {
		calculatedRcv = in.ACV + in.Depreciation
	}

	tax := in.SalesTax
	if tax <= 0 {
		tax = calculatedRcv * FallbackTaxRate
	}

	base := calculatedRcv - tax
	amount := base * percent / 100

	res := Result{
		CalculatedRCV: calculatedRcv,
		SalesTax:      tax,
		BaseAmount:    base,
		Percent:       percent,
		Amount:        amount,
		FirstCheck:    in.ACV - in.Deductible,
		SecondCheck:   in.Depreciation,
	}
	if override != nil {
		res.Amount = *override
		res.Overridden = true
	}
	return res
}
