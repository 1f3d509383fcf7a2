// Package access decides who may read, change or delete a record. Every
// handler derives a Caller once from the request claims and funnels each
// record touch through the same capability checks, so ownership rules are
// not re-invented per endpoint.
package access

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

// Role is the caller's single effective role for a request.
type Role int

const (
	RoleCrew Role = iota
	RoleRep
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleRep:
		return "rep"
	default:
		return "crew"
	}
}

// RoleFromGroups maps identity group claims to the highest role they grant.
// Unrecognized groups are ignored; a caller with no recognized group gets the
// lowest role.
func RoleFromGroups(groups []string) Role {
	role := RoleCrew
	for _, g := range groups {
		switch strings.ToLower(strings.TrimSpace(g)) {
		case "admin":
			return RoleAdmin
		case "rep":
			if role < RoleRep {
				role = RoleRep
			}
		}
	}
	return role
}

// Caller identifies who is asking. RepID is zero for callers without a rep
// profile, which can never satisfy an ownership check.
type Caller struct {
	UserID primitive.ObjectID
	RepID  primitive.ObjectID
	Role   Role
}

// ResourceKind names what is being touched, for error messages.
type ResourceKind string

const (
	ResourceDeal       ResourceKind = "deal"
	ResourcePin        ResourceKind = "pin"
	ResourceCommission ResourceKind = "commission"
)

// Resource is the ownership view of one record. For deals OwnerRepIDs holds
// every rep linked through a commission row; for pins the owner and the
// assigned closer; for commissions the earning rep.
type Resource struct {
	Kind        ResourceKind
	OwnerRepIDs []primitive.ObjectID
}

func (c Caller) owns(r Resource) bool {
	if c.RepID.IsZero() {
		return false
	}
	for _, id := range r.OwnerRepIDs {
		if id == c.RepID {
			return true
		}
	}
	return false
}

// CanRead allows admins everywhere and everyone else only on records they
// are linked to.
func CanRead(c Caller, r Resource) error {
	if c.Role == RoleAdmin {
		return nil
	}
	if !c.owns(r) {
		return apperrors.Forbidden(fmt.Sprintf("you do not have access to this %s", r.Kind))
	}
	return nil
}

// CanMutate is CanRead plus the crew restriction: crew accounts are
// read-only.
func CanMutate(c Caller, r Resource) error {
	if c.Role == RoleAdmin {
		return nil
	}
	if c.Role == RoleCrew {
		return apperrors.Forbidden("crew access is read-only")
	}
	if !c.owns(r) {
		return apperrors.Forbidden(fmt.Sprintf("you cannot modify this %s", r.Kind))
	}
	return nil
}

// CanDelete is admin-only regardless of ownership.
func CanDelete(c Caller, r Resource) error {
	if c.Role != RoleAdmin {
		return apperrors.Forbidden(fmt.Sprintf("only admins can delete a %s", r.Kind))
	}
	return nil
}

// RequireCloserForAppointment enforces the tier rule on appointment pins:
// junior reps hand the close to an assigned closer, senior and manager tiers
// run their own appointments.
func RequireCloserForAppointment(tier models.RepTier, hasCloser bool) error {
	if tier == models.TierJunior && !hasCloser {
		return apperrors.Statef("appointment pins from junior reps need an assigned closer")
	}
	return nil
}

// RequireCloserForStatusChange applies the appointment closer rule when a pin
// moves into appointment from another status. Pins already sitting at
// appointment were vetted on the way in.
func RequireCloserForStatusChange(tier models.RepTier, hasCloser bool, from, to models.PinStatus) error {
	if to != models.PinAppointment || from == models.PinAppointment {
		return nil
	}
	return RequireCloserForAppointment(tier, hasCloser)
}
