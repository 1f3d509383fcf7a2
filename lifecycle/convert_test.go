package lifecycle

import (
	"testing"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckConvertible(t *testing.T) {
	t.Run("fresh pin converts", func(t *testing.T) {
		p := &models.Pin{Status: models.PinAppointment}
		if err := CheckConvertible(p); err != nil {
			t.Fatalf("CheckConvertible: %v", err)
		}
	})

	t.Run("second conversion conflicts", func(t *testing.T) {
		dealID := primitive.NewObjectID()
		p := &models.Pin{Status: models.PinInstalled, DealID: &dealID}
		if err := CheckConvertible(p); apperrors.KindOf(err) != apperrors.KindConflict {
			t.Fatalf("err = %v, want conflict kind", err)
		}
	})
}
