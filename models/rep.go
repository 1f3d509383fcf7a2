package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RepTier bands a salesperson for commission purposes.
type RepTier string

const (
	TierJunior  RepTier = "junior"
	TierSenior  RepTier = "senior"
	TierManager RepTier = "manager"
)

// tierPercents is the default commission percent per tier. Applied at rep
// creation and again whenever a tier changes without an explicit percent.
var tierPercents = map[RepTier]float64{
	TierJunior:  5,
	TierSenior:  10,
	TierManager: 13,
}

// DefaultCommissionPercent returns the tier's standard percent, 0 for an
// unknown tier.
func DefaultCommissionPercent(t RepTier) float64 {
	return tierPercents[t]
}

// IsValidTier reports whether t is a known commission tier.
func IsValidTier(t RepTier) bool {
	_, ok := tierPercents[t]
	return ok
}

// Rep is a salesperson profile. The auth identity lives in the users
// collection; UserID links the two.
type Rep struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID  `bson:"userId,omitempty" json:"userId,omitempty"`
	Name              string              `bson:"name" json:"name"`
	Email             string              `bson:"email" json:"email"`
	Phone             string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Tier              RepTier             `bson:"tier" json:"tier"`
	CommissionPercent float64             `bson:"commissionPercent" json:"commissionPercent"`
	SelfGen           bool                `bson:"selfGen" json:"selfGen"`
	TrainingCompleted bool                `bson:"trainingCompleted" json:"trainingCompleted"`
	ManagerID         *primitive.ObjectID `bson:"managerId,omitempty" json:"managerId,omitempty"`
	Active            bool                `bson:"active" json:"active"`
	PhotoURL          string              `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	CreatedBy         primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CreateRepRequest is the admin payload for onboarding a salesperson. When a
// password is supplied a login account is created alongside the profile;
// otherwise the account is linked on the rep's first Google sign-in.
type CreateRepRequest struct {
	Name              string   `json:"name" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Phone             string   `json:"phone"`
	Tier              RepTier  `json:"tier" validate:"required,oneof=junior senior manager"`
	CommissionPercent *float64 `json:"commissionPercent"`
	SelfGen           bool     `json:"selfGen"`
	ManagerID         string   `json:"managerId"`
	Password          string   `json:"password" validate:"omitempty,min=8"`
}

// UpdateRepRequest carries partial rep-profile edits. A tier change without
// an explicit CommissionPercent re-derives the percent from the new tier.
type UpdateRepRequest struct {
	Name              *string  `json:"name"`
	Phone             *string  `json:"phone"`
	Tier              *RepTier `json:"tier" validate:"omitempty,oneof=junior senior manager"`
	CommissionPercent *float64 `json:"commissionPercent"`
	SelfGen           *bool    `json:"selfGen"`
	TrainingCompleted *bool    `json:"trainingCompleted"`
	ManagerID         *string  `json:"managerId"`
	Active            *bool    `json:"active"`
	PhotoURL          *string  `json:"photoUrl"`
}
