package commission

import (
	"math"
	"testing"

	"github.com/rooftrack/rooftrack_backend/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestJuniorRepFullScenario(t *testing.T) {
	in := FinancialInput{
		RCV:          20000,
		ACV:          17000,
		Depreciation: 3000,
		Deductible:   1000,
	}
	res := Calculate(in, models.DefaultCommissionPercent(models.TierJunior), nil)

	if !approx(res.CalculatedRCV, 20000) {
		t.Errorf("CalculatedRCV = %v", res.CalculatedRCV)
	}
	if !approx(res.SalesTax, 1650) {
		t.Errorf("SalesTax = %v", res.SalesTax)
	}
	if !approx(res.BaseAmount, 18350) {
		t.Errorf("BaseAmount = %v", res.BaseAmount)
	}
	if !approx(res.Amount, 917.50) {
		t.Errorf("Amount = %v, want 917.50", res.Amount)
	}
	if !approx(res.FirstCheck, 16000) {
		t.Errorf("FirstCheck = %v", res.FirstCheck)
	}
	if !approx(res.SecondCheck, 3000) {
		t.Errorf("SecondCheck = %v", res.SecondCheck)
	}
}

func TestRCVFallsBackToACVPlusDepreciation(t *testing.T) {
	in := FinancialInput{ACV: 17000, Depreciation: 3000}
	res := Calculate(in, 10, nil)
	if !approx(res.CalculatedRCV, 20000) {
		t.Errorf("CalculatedRCV = %v, want acv+depreciation", res.CalculatedRCV)
	}
}

func TestExplicitSalesTaxWins(t *testing.T) {
	in := FinancialInput{RCV: 10000, SalesTax: 500}
	res := Calculate(in, 10, nil)
	if !approx(res.SalesTax, 500) {
		t.Errorf("SalesTax = %v, want explicit 500", res.SalesTax)
	}
	if !approx(res.Amount, 950) {
		t.Errorf("Amount = %v", res.Amount)
	}
}

func TestOverrideAmountWins(t *testing.T) {
	in := FinancialInput{RCV: 20000, ACV: 17000, Depreciation: 3000}
	override := 1200.0
	res := Calculate(in, 5, &override)
	if !res.Overridden {
		t.Error("Overridden flag not set")
	}
	if !approx(res.Amount, 1200) {
		t.Errorf("Amount = %v, want override", res.Amount)
	}
	if !approx(res.BaseAmount, 18350) {
		t.Errorf("breakdown should still be reported, BaseAmount = %v", res.BaseAmount)
	}
}

func TestZeroInputs(t *testing.T) {
	res := Calculate(FinancialInput{}, 13, nil)
	if !approx(res.CalculatedRCV, 0) || !approx(res.SalesTax, 0) || !approx(res.Amount, 0) {
		t.Errorf("zero inputs should yield zero money: %+v", res)
	}
}

func TestTierPercentFormula(t *testing.T) {
	in := FinancialInput{RCV: 20000, ACV: 17000, Depreciation: 3000}
	tiers := []struct {
		tier models.RepTier
		want float64
	}{
		{models.TierJunior, 5},
		{models.TierSenior, 10},
		{models.TierManager, 13},
	}
	for _, tt := range tiers {
		pct := models.DefaultCommissionPercent(tt.tier)
		if pct != tt.want {
			t.Fatalf("percent for %q = %v, want %v", tt.tier, pct, tt.want)
		}
		res := Calculate(in, pct, nil)
		if !approx(res.Amount, res.BaseAmount*pct/100) {
			t.Errorf("tier %q: amount %v does not match base*%v%%", tt.tier, res.Amount, pct)
		}
	}
}

func TestReconciliationInvariant(t *testing.T) {
	inputs := []FinancialInput{
		{ACV: 17000, Depreciation: 3000, Deductible: 1000},
		{ACV: 8500.25, Depreciation: 1499.75, Deductible: 2500},
		{ACV: 0, Depreciation: 0, Deductible: 0},
	}
	for _, in := range inputs {
		res := Calculate(in, 10, nil)
		sum := res.FirstCheck + in.Deductible + res.SecondCheck
		if !approx(sum, res.CalculatedRCV) {
			t.Errorf("checks do not reconcile: %v + %v + %v != %v",
				res.FirstCheck, in.Deductible, res.SecondCheck, res.CalculatedRCV)
		}
	}
}
