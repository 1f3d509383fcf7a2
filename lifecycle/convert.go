// lifecycle/convert.go
package lifecycle

import (
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

// CheckConvertible guards pin conversion. A pin carries its deal id once it
// has been converted, and the link is one way and one shot, so a pin that
// already points at a deal conflicts with a second conversion.
func CheckConvertible(p *models.Pin) error {
	if p.DealID != nil {
		return apperrors.Conflict("pin has already been converted to a deal")
	}
	return nil
}
