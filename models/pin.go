// models/pin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PinStatus is the knock outcome recorded on a map pin. Pins are not part of
// the deal lifecycle; this enum is flat and unordered.
type PinStatus string

const (
	PinLead          PinStatus = "lead"
	PinFollowUp      PinStatus = "follow_up"
	PinAppointment   PinStatus = "appointment"
	PinRenter        PinStatus = "renter"
	PinNotInterested PinStatus = "not_interested"
	PinInstalled     PinStatus = "installed"
)

// IsValidPinStatus reports whether s is a known knock outcome.
func IsValidPinStatus(s PinStatus) bool {
	switch s {
	case PinLead, PinFollowUp, PinAppointment, PinRenter, PinNotInterested, PinInstalled:
		return true
	}
	return false
}

// Pin is a prospective lead dropped on the canvassing map. It belongs to the
// rep who knocked the door and may be handed to a second rep as closer. At
// most one deal can ever come out of a pin; DealID is set exactly once by the
// conversion flow and never cleared.
type Pin struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	RepID            primitive.ObjectID  `bson:"repId" json:"repId"`
	AssignedCloserID *primitive.ObjectID `bson:"assignedCloserId,omitempty" json:"assignedCloserId,omitempty"`
	DealID           *primitive.ObjectID `bson:"dealId,omitempty" json:"dealId,omitempty"`
	Status           PinStatus           `bson:"status" json:"status"`
	HomeownerName    string              `bson:"homeownerName,omitempty" json:"homeownerName,omitempty"`
	HomeownerPhone   string              `bson:"homeownerPhone,omitempty" json:"homeownerPhone,omitempty"`
	HomeownerEmail   string              `bson:"homeownerEmail,omitempty" json:"homeownerEmail,omitempty"`
	Address          string              `bson:"address,omitempty" json:"address,omitempty"`
	City             string              `bson:"city,omitempty" json:"city,omitempty"`
	State            string              `bson:"state,omitempty" json:"state,omitempty"`
	Zip              string              `bson:"zip,omitempty" json:"zip,omitempty"`
	Lat              float64             `bson:"lat" json:"lat"`
	Lng              float64             `bson:"lng" json:"lng"`
	AppointmentDate  *time.Time          `bson:"appointmentDate,omitempty" json:"appointmentDate,omitempty"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Photos           []string            `bson:"photos,omitempty" json:"photos,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CreatePinRequest drops a new pin at a location.
type CreatePinRequest struct {
	Lat              float64    `json:"lat" validate:"required"`
	Lng              float64    `json:"lng" validate:"required"`
	Status           PinStatus  `json:"status" validate:"required"`
	HomeownerName    string     `json:"homeownerName"`
	HomeownerPhone   string     `json:"homeownerPhone"`
	HomeownerEmail   string     `json:"homeownerEmail" validate:"omitempty,email"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Zip              string     `json:"zip"`
	AppointmentDate  *time.Time `json:"appointmentDate"`
	Notes            string     `json:"notes"`
	AssignedCloserID string     `json:"assignedCloserId"`
}

// UpdatePinRequest carries partial pin edits from the knocking rep or the
// assigned closer.
type UpdatePinRequest struct {
	Status          *PinStatus `json:"status"`
	HomeownerName   *string    `json:"homeownerName"`
	HomeownerPhone  *string    `json:"homeownerPhone"`
	HomeownerEmail  *string    `json:"homeownerEmail" validate:"omitempty,email"`
	Address         *string    `json:"address"`
	City            *string    `json:"city"`
	State           *string    `json:"state"`
	Zip             *string    `json:"zip"`
	AppointmentDate *time.Time `json:"appointmentDate"`
	Notes           *string    `json:"notes"`
	Photos          *[]string  `json:"photos"`
}

// AssignCloserRequest hands a pin to a second rep who will run the close.
type AssignCloserRequest struct {
	CloserRepID string `json:"closerRepId" validate:"required"`
}
