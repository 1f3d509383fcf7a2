package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionType says how the rep earned their cut of a deal.
type CommissionType string

const (
	CommissionSetter  CommissionType = "setter"
	CommissionCloser  CommissionType = "closer"
	CommissionSelfGen CommissionType = "self_gen"
)

// IsValidCommissionType reports whether t is a known commission type.
func IsValidCommissionType(t CommissionType) bool {
	switch t {
	case CommissionSetter, CommissionCloser, CommissionSelfGen:
		return true
	}
	return false
}

// Commission is one rep's stake in one deal. A deal can carry several rows,
// for example a setter plus a separately assigned closer. The (deal, rep,
// type) tuple is unique. These rows also drive ownership checks: a non-admin
// caller may touch a deal only when a commission row links them to it.
type Commission struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	DealID         primitive.ObjectID  `bson:"dealId" json:"dealId"`
	RepID          primitive.ObjectID  `bson:"repId" json:"repId"`
	Type           CommissionType      `bson:"type" json:"type"`
	Percent        float64             `bson:"percent" json:"percent"`
	OverrideAmount *float64            `bson:"overrideAmount,omitempty" json:"overrideAmount,omitempty"`
	Amount         float64             `bson:"amount" json:"amount"`
	Paid           bool                `bson:"paid" json:"paid"`
	PaidAt         *time.Time          `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaidBy         *primitive.ObjectID `bson:"paidBy,omitempty" json:"paidBy,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// UpdateCommissionRequest is the admin payload for adjusting a commission row
// before payout.
type UpdateCommissionRequest struct {
	Percent        *float64 `json:"percent"`
	OverrideAmount *float64 `json:"overrideAmount"`
	Notes          *string  `json:"notes"`
}
