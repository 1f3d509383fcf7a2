package lifecycle

import (
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

// CheckPaymentRequest guards the payout request. The depreciation check must
// be in before a deal can be flagged for office processing; a deal that is
// already flagged reports alreadyRequested so callers can answer the repeat
// request with the original date instead of an error.
func CheckPaymentRequest(d *models.Deal) (alreadyRequested bool, err error) {
	if !d.DepreciationCollected {
		return false, apperrors.Statef("depreciation must be collected before requesting payment")
	}
	return d.PaymentRequested, nil
}
