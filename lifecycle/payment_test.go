package lifecycle

import (
	"testing"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

func TestCheckPaymentRequest(t *testing.T) {
	t.Run("blocked until depreciation collected", func(t *testing.T) {
		d := &models.Deal{}
		if _, err := CheckPaymentRequest(d); apperrors.KindOf(err) != apperrors.KindState {
			t.Fatalf("err = %v, want state kind", err)
		}
	})

	t.Run("first request allowed", func(t *testing.T) {
		d := &models.Deal{DepreciationCollected: true}
		already, err := CheckPaymentRequest(d)
		if err != nil {
			t.Fatalf("CheckPaymentRequest: %v", err)
		}
		if already {
			t.Error("fresh deal reported as already requested")
		}
	})

	t.Run("repeat request reports already flagged", func(t *testing.T) {
		d := &models.Deal{DepreciationCollected: true, PaymentRequested: true}
		already, err := CheckPaymentRequest(d)
		if err != nil {
			t.Fatalf("CheckPaymentRequest: %v", err)
		}
		if !already {
			t.Error("flagged deal not reported as already requested")
		}
	})
}
