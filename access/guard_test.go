package access

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/models"
)

func TestRoleFromGroups(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   Role
	}{
		{"admin", []string{"admin"}, RoleAdmin},
		{"rep", []string{"rep"}, RoleRep},
		{"crew", []string{"crew"}, RoleCrew},
		{"admin wins over rep", []string{"rep", "admin"}, RoleAdmin},
		{"rep wins over crew", []string{"crew", "rep"}, RoleRep},
		{"no groups", nil, RoleCrew},
		{"unknown group", []string{"finance"}, RoleCrew},
		{"case and spacing normalized", []string{" Admin "}, RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleFromGroups(tt.groups); got != tt.want {
				t.Errorf("RoleFromGroups(%v) = %v, want %v", tt.groups, got, tt.want)
			}
		})
	}
}

func TestAdminBypassesOwnership(t *testing.T) {
	admin := Caller{UserID: primitive.NewObjectID(), Role: RoleAdmin}
	res := Resource{Kind: ResourceDeal, OwnerRepIDs: []primitive.ObjectID{primitive.NewObjectID()}}

	if err := CanRead(admin, res); err != nil {
		t.Errorf("admin read denied: %v", err)
	}
	if err := CanMutate(admin, res); err != nil {
		t.Errorf("admin mutate denied: %v", err)
	}
	if err := CanDelete(admin, res); err != nil {
		t.Errorf("admin delete denied: %v", err)
	}
}

func TestPinClosersShareAccess(t *testing.T) {
	owner := primitive.NewObjectID()
	closer := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	pin := Resource{Kind: ResourcePin, OwnerRepIDs: []primitive.ObjectID{owner, closer}}

	callerB := Caller{RepID: closer, Role: RoleRep}
	if err := CanRead(callerB, pin); err != nil {
		t.Errorf("assigned closer read denied: %v", err)
	}
	if err := CanMutate(callerB, pin); err != nil {
		t.Errorf("assigned closer mutate denied: %v", err)
	}

	callerC := Caller{RepID: stranger, Role: RoleRep}
	if err := CanRead(callerC, pin); err == nil {
		t.Error("unrelated rep read allowed")
	} else if apperrors.KindOf(err) != apperrors.KindAuthorization {
		t.Errorf("kind = %v, want authorization", apperrors.KindOf(err))
	}
	if err := CanMutate(callerC, pin); apperrors.KindOf(err) != apperrors.KindAuthorization {
		t.Errorf("unrelated rep mutate: %v", err)
	}
}

func TestCrewIsReadOnly(t *testing.T) {
	repID := primitive.NewObjectID()
	crew := Caller{RepID: repID, Role: RoleCrew}
	deal := Resource{Kind: ResourceDeal, OwnerRepIDs: []primitive.ObjectID{repID}}

	if err := CanRead(crew, deal); err != nil {
		t.Errorf("linked crew read denied: %v", err)
	}
	if err := CanMutate(crew, deal); apperrors.KindOf(err) != apperrors.KindAuthorization {
		t.Errorf("crew mutate should be denied, got %v", err)
	}
}

func TestDeleteIsAdminOnly(t *testing.T) {
	repID := primitive.NewObjectID()
	owner := Caller{RepID: repID, Role: RoleRep}
	deal := Resource{Kind: ResourceDeal, OwnerRepIDs: []primitive.ObjectID{repID}}

	if err := CanDelete(owner, deal); apperrors.KindOf(err) != apperrors.KindAuthorization {
		t.Errorf("owning rep delete should be denied, got %v", err)
	}
}

func TestCallerWithoutRepProfile(t *testing.T) {
	caller := Caller{UserID: primitive.NewObjectID(), Role: RoleRep}
	deal := Resource{Kind: ResourceDeal, OwnerRepIDs: []primitive.ObjectID{primitive.NewObjectID()}}
	if err := CanRead(caller, deal); err == nil {
		t.Error("caller with zero rep id passed an ownership check")
	}
}

func TestRequireCloserForAppointment(t *testing.T) {
	tests := []struct {
		name      string
		tier      models.RepTier
		hasCloser bool
		wantKind  apperrors.Kind
		wantErr   bool
	}{
		{"junior without closer", models.TierJunior, false, apperrors.KindState, true},
		{"junior with closer", models.TierJunior, true, 0, false},
		{"senior without closer", models.TierSenior, false, 0, false},
		{"manager without closer", models.TierManager, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireCloserForAppointment(tt.tier, tt.hasCloser)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.KindOf(err) != tt.wantKind {
					t.Errorf("kind = %v, want %v", apperrors.KindOf(err), tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRequireCloserForStatusChange(t *testing.T) {
	tests := []struct {
		name      string
		tier      models.RepTier
		hasCloser bool
		from      models.PinStatus
		to        models.PinStatus
		wantErr   bool
	}{
		{"junior into appointment without closer", models.TierJunior, false, models.PinLead, models.PinAppointment, true},
		{"junior into appointment with closer", models.TierJunior, true, models.PinLead, models.PinAppointment, false},
		{"senior into appointment without closer", models.TierSenior, false, models.PinFollowUp, models.PinAppointment, false},
		{"junior already at appointment", models.TierJunior, false, models.PinAppointment, models.PinAppointment, false},
		{"junior leaving appointment", models.TierJunior, false, models.PinAppointment, models.PinInstalled, false},
		{"junior move that skips appointment", models.TierJunior, false, models.PinLead, models.PinNotInterested, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireCloserForStatusChange(tt.tier, tt.hasCloser, tt.from, tt.to)
			if tt.wantErr {
				if apperrors.KindOf(err) != apperrors.KindState {
					t.Fatalf("err = %v, want state error", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
