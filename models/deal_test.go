package models

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestSetPatchFlattensMilestones(t *testing.T) {
	ts := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	u := DealUpdate{
		HomeownerName:  strPtr("Dana Wells"),
		ContractSigned: boolPtr(true),
		RCV:            floatPtr(20000),
		Milestones:     &Milestones{Signed: &ts},
	}

	patch, err := u.SetPatch()
	if err != nil {
		t.Fatalf("SetPatch: %v", err)
	}

	if got := patch["homeownerName"]; got != "Dana Wells" {
		t.Errorf("homeownerName = %v", got)
	}
	if got := patch["contractSigned"]; got != true {
		t.Errorf("contractSigned = %v", got)
	}
	if got := patch["rcv"]; got != float64(20000) {
		t.Errorf("rcv = %v", got)
	}
	if _, ok := patch["milestones"]; ok {
		t.Error("milestones subdocument should be flattened into dotted keys")
	}
	if got, ok := patch["milestones.signed"]; !ok {
		t.Error("milestones.signed missing from patch")
	} else if got != primitive.NewDateTimeFromTime(ts) {
		t.Errorf("milestones.signed = %v", got)
	}
	if _, ok := patch["homeownerPhone"]; ok {
		t.Error("unset field leaked into patch")
	}
	if _, ok := patch["status"]; ok {
		t.Error("status must never appear in an update patch")
	}
}

func TestSetPatchExplicitFalse(t *testing.T) {
	u := DealUpdate{ContractSigned: boolPtr(false)}
	patch, err := u.SetPatch()
	if err != nil {
		t.Fatalf("SetPatch: %v", err)
	}
	if got, ok := patch["contractSigned"]; !ok || got != false {
		t.Errorf("explicit false should be written, got %v (present=%v)", got, ok)
	}
}

func TestApplyToMergesFields(t *testing.T) {
	ts := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	deal := Deal{
		HomeownerName:  "Old Name",
		HomeownerPhone: "555-0100",
		ContractSigned: true,
		Milestones:     Milestones{Lead: timePtr(ts)},
	}

	u := DealUpdate{
		HomeownerName:  strPtr("New Name"),
		ContractSigned: boolPtr(false),
		ACV:            floatPtr(17000),
		Milestones:     &Milestones{ClaimFiled: timePtr(ts)},
	}
	u.ApplyTo(&deal)

	if deal.HomeownerName != "New Name" {
		t.Errorf("HomeownerName = %q", deal.HomeownerName)
	}
	if deal.HomeownerPhone != "555-0100" {
		t.Errorf("untouched field changed: %q", deal.HomeownerPhone)
	}
	if deal.ContractSigned {
		t.Error("explicit false did not overwrite true")
	}
	if deal.ACV != 17000 {
		t.Errorf("ACV = %v", deal.ACV)
	}
	if deal.Milestones.Lead == nil || !deal.Milestones.Lead.Equal(ts) {
		t.Error("existing milestone lost during merge")
	}
	if deal.Milestones.ClaimFiled == nil || !deal.Milestones.ClaimFiled.Equal(ts) {
		t.Error("milestone correction not applied")
	}
}

func TestUnknownJSONFieldsDropped(t *testing.T) {
	body := []byte(`{"homeownerName":"Dana","status":"complete","isAdmin":true,"rcv":1000}`)
	var u DealUpdate
	if err := json.Unmarshal(body, &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.HomeownerName == nil || *u.HomeownerName != "Dana" {
		t.Errorf("known field not decoded: %+v", u.HomeownerName)
	}
	if u.RCV == nil || *u.RCV != 1000 {
		t.Errorf("rcv not decoded: %+v", u.RCV)
	}
	patch, err := u.SetPatch()
	if err != nil {
		t.Fatalf("SetPatch: %v", err)
	}
	for _, banned := range []string{"status", "isAdmin"} {
		if _, ok := patch[banned]; ok {
			t.Errorf("field %q escaped the allow-list", banned)
		}
	}
}

func TestMilestoneGetSet(t *testing.T) {
	var m Milestones
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, s := range StatusOrder {
		if m.Get(s) != nil {
			t.Fatalf("fresh milestones should be empty for %q", s)
		}
		m.Set(s, ts)
		got := m.Get(s)
		if got == nil || !got.Equal(ts) {
			t.Fatalf("Get after Set mismatch for %q: %v", s, got)
		}
	}
	if m.Get(DealStatus("bogus")) != nil {
		t.Error("unknown status should read nil")
	}
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(StatusSigned)
	if p.Step != 6 || p.TotalSteps != 14 || p.Phase != PhaseSign {
		t.Errorf("unexpected progress: %+v", p)
	}
	legacy := ProgressFor(DealStatus("old_status"))
	if legacy.Step != 0 || legacy.Label != "old_status" {
		t.Errorf("unknown status should degrade gracefully: %+v", legacy)
	}
}
