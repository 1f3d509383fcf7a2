package models

import "testing"

func TestStatusOrderMatchesCatalog(t *testing.T) {
	if len(StatusOrder) != 14 {
		t.Fatalf("expected 14 statuses, got %d", len(StatusOrder))
	}
	for i, s := range StatusOrder {
		info, ok := CatalogEntry(s)
		if !ok {
			t.Fatalf("status %q missing from catalog", s)
		}
		if info.Step != i+1 {
			t.Errorf("status %q: step %d, want %d", s, info.Step, i+1)
		}
		if info.Label == "" || info.Color == "" {
			t.Errorf("status %q: missing display metadata", s)
		}
	}
}

func TestStepNumber(t *testing.T) {
	tests := []struct {
		status DealStatus
		want   int
	}{
		{StatusLead, 1},
		{StatusSigned, 6},
		{StatusComplete, 14},
		{DealStatus("bogus"), 0},
		{DealStatus(""), 0},
	}
	for _, tt := range tests {
		if got := StepNumber(tt.status); got != tt.want {
			t.Errorf("StepNumber(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestManualAdvanceIsSingleStep(t *testing.T) {
	for _, s := range StatusOrder {
		info, _ := CatalogEntry(s)
		if info.Next == "" {
			if s != StatusComplete {
				t.Errorf("status %q has no next pointer but is not terminal", s)
			}
			continue
		}
		next, ok := CatalogEntry(info.Next)
		if !ok {
			t.Fatalf("status %q points at unknown next %q", s, info.Next)
		}
		if next.Step != info.Step+1 {
			t.Errorf("status %q: next %q jumps from step %d to %d", s, info.Next, info.Step, next.Step)
		}
		if info.ActionLabel == "" {
			t.Errorf("status %q has a next pointer but no action label", s)
		}
	}
}

func TestPhasesAreContiguous(t *testing.T) {
	seen := map[StatusPhase]bool{}
	var last StatusPhase
	for _, s := range StatusOrder {
		info, _ := CatalogEntry(s)
		if info.Phase != last {
			if seen[info.Phase] {
				t.Fatalf("phase %q appears in two separate runs", info.Phase)
			}
			seen[info.Phase] = true
			last = info.Phase
		}
	}
	for _, p := range []StatusPhase{PhaseSign, PhaseBuild, PhaseCollect, PhaseComplete} {
		if !seen[p] {
			t.Errorf("phase %q not present in catalog", p)
		}
	}
}

func TestStatusCatalogOrdered(t *testing.T) {
	catalog := StatusCatalog()
	if len(catalog) != len(StatusOrder) {
		t.Fatalf("catalog has %d entries, want %d", len(catalog), len(StatusOrder))
	}
	for i, info := range catalog {
		if info.Status != StatusOrder[i] {
			t.Errorf("catalog[%d] = %q, want %q", i, info.Status, StatusOrder[i])
		}
	}
}
