package lifecycle

import (
	"testing"
	"time"

	"github.com/rooftrack/rooftrack_backend/models"
)

func TestStampOnce(t *testing.T) {
	var m models.Milestones
	first := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	later := first.Add(6 * time.Hour)

	key, ok := StampOnce(&m, models.StatusSigned, first)
	if !ok {
		t.Fatal("first stamp rejected")
	}
	if key != "milestones.signed" {
		t.Errorf("key = %q", key)
	}
	if m.Signed == nil || !m.Signed.Equal(first) {
		t.Fatalf("stamp not written: %v", m.Signed)
	}

	if _, ok := StampOnce(&m, models.StatusSigned, later); ok {
		t.Error("second stamp accepted")
	}
	if !m.Signed.Equal(first) {
		t.Error("second stamp overwrote the first")
	}
}

func TestStampOnceUnknownStatus(t *testing.T) {
	var m models.Milestones
	if _, ok := StampOnce(&m, models.DealStatus("nope"), time.Now()); ok {
		t.Error("unknown status stamped")
	}
}
