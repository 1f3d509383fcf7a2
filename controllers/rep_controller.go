// controllers/rep_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/security"
	"github.com/rooftrack/rooftrack_backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// RepController handles salesperson profiles: onboarding, the directory reps
// pick closers from, tier and commission settings, and account access.
type RepController struct {
	db          *mongo.Client
	reps        *repositories.RepRepository
	commissions *repositories.CommissionRepository
	logger      *log.Logger
}

// NewRepController creates a new rep controller
func NewRepController(db *mongo.Client) *RepController {
	return &RepController{
		db:          db,
		reps:        repositories.NewRepRepository(db),
		commissions: repositories.NewCommissionRepository(db),
		logger:      log.New(os.Stdout, "[REP] ", log.LstdFlags),
	}
}

// repPublicView is the directory entry other reps see when picking closers.
type repPublicView struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Tier     models.RepTier     `json:"tier"`
	PhotoURL string             `json:"photoUrl,omitempty"`
	Active   bool               `json:"active"`
}

func (rc *RepController) usersCollection() *mongo.Collection {
	return rc.db.Database("rooftrack").Collection("users")
}

// CreateRep onboards a salesperson. Admin only. A supplied password also
// provisions a login account; without one the rep signs in with Google and
// the account links by email.
func (rc *RepController) CreateRep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role != access.RoleAdmin {
		return utils.RespondError(c, apperrors.Forbidden("only admins can create reps"))
	}

	var req models.CreateRepRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Tier == "" {
		missing = append(missing, "tier")
	}
	if len(missing) > 0 {
		return utils.RespondError(c, apperrors.Validation(missing...))
	}
	if !models.IsValidTier(req.Tier) {
		return utils.RespondError(c, apperrors.Validation("tier"))
	}
	if req.Password != "" && len(req.Password) < 8 {
		return utils.RespondError(c, apperrors.Validation("password"))
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("email"))
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("phone"))
	}

	if _, err := rc.reps.FindByEmail(ctx, email); err == nil {
		return utils.RespondError(c, apperrors.Conflict("a rep with this email already exists"))
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return utils.RespondError(c, err)
	}

	percent := models.DefaultCommissionPercent(req.Tier)
	if req.CommissionPercent != nil {
		if *req.CommissionPercent < 0 || *req.CommissionPercent > 100 {
			return utils.RespondError(c, apperrors.Validation("commissionPercent"))
		}
		percent = *req.CommissionPercent
	}

	var managerID *primitive.ObjectID
	if req.ManagerID != "" {
		id, err := primitive.ObjectIDFromHex(req.ManagerID)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation("managerId"))
		}
		if _, err := rc.reps.FindByID(ctx, id); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.RespondError(c, apperrors.NotFoundf("manager %s not found", req.ManagerID))
			}
			return utils.RespondError(c, err)
		}
		managerID = &id
	}

	now := time.Now()
	rep := models.Rep{
		Name:              utils.SanitizeInput(req.Name),
		Email:             email,
		Phone:             phone,
		Tier:              req.Tier,
		CommissionPercent: percent,
		SelfGen:           req.SelfGen,
		ManagerID:         managerID,
		Active:            true,
		CreatedBy:         caller.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := rc.reps.Create(ctx, &rep); err != nil {
		return utils.RespondError(c, err)
	}

	if req.Password != "" {
		if err := rc.provisionAccount(ctx, &rep, req.Password); err != nil {
			rc.logger.Printf("Account for rep %s not provisioned: %v", rep.ID.Hex(), err)
		} else {
			utils.SendEmail(rep.Email, "Welcome to RoofTrack",
				fmt.Sprintf("Hi %s,\n\nYour RoofTrack account is ready. Sign in with this email address and the password your admin set for you.\n", rep.Name))
		}
	}

	rc.logger.Printf("Rep %s (%s) created by admin %s", rep.ID.Hex(), rep.Tier, caller.UserID.Hex())
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Rep created successfully",
		Data:    rep,
	})
}

// provisionAccount creates the login account for a rep, refusing to clobber
// an existing user with the same email.
func (rc *RepController) provisionAccount(ctx context.Context, rep *models.Rep, password string) error {
	count, err := rc.usersCollection().CountDocuments(ctx, bson.M{"email": rep.Email})
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user with email %s already exists", rep.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := models.User{
		Email:     rep.Email,
		Password:  string(hash),
		FullName:  rep.Name,
		Groups:    []string{"rep"},
		RepID:     &rep.ID,
		Phone:     rep.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := rc.usersCollection().InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if userID, ok := res.InsertedID.(primitive.ObjectID); ok {
		if _, err := rc.reps.UpdateSet(ctx, rep.ID, bson.M{"userId": userID}); err != nil {
			rc.logger.Printf("Rep %s not linked to user %s: %v", rep.ID.Hex(), userID.Hex(), err)
		} else {
			rep.UserID = userID
		}
	}
	return nil
}

// GetReps lists rep profiles. Admins get the full roster; reps get the
// active directory they pick closers from.
func (rc *RepController) GetReps(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role == access.RoleCrew {
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access the rep roster"))
	}

	if caller.Role == access.RoleAdmin {
		activeOnly := c.QueryParam("active") == "true"
		reps, err := rc.reps.FindAll(ctx, activeOnly)
		if err != nil {
			return utils.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Reps retrieved successfully",
			Data:    reps,
		})
	}

	reps, err := rc.reps.FindAll(ctx, true)
	if err != nil {
		return utils.RespondError(c, err)
	}
	views := make([]repPublicView, 0, len(reps))
	for _, rep := range reps {
		views = append(views, repPublicView{
			ID:       rep.ID,
			Name:     rep.Name,
			Tier:     rep.Tier,
			PhotoURL: rep.PhotoURL,
			Active:   rep.Active,
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Reps retrieved successfully",
		Data:    views,
	})
}

// GetMyProfile returns the caller's rep profile with a commission earnings
// summary.
func (rc *RepController) GetMyProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.RepID.IsZero() {
		return utils.RespondError(c, apperrors.NotFoundf("no rep profile is linked to your account"))
	}

	rep, err := rc.reps.FindByID(ctx, caller.RepID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", caller.RepID.Hex()))
		}
		return utils.RespondError(c, err)
	}

	paid, pending, err := rc.commissions.EarningsForRep(ctx, caller.RepID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data: map[string]interface{}{
			"rep": rep,
			"earnings": map[string]float64{
				"paid":    paid,
				"pending": pending,
			},
		},
	})
}

// GetRep returns one rep profile. Admins and the rep themself get the full
// record; other reps get the public directory entry.
func (rc *RepController) GetRep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role == access.RoleCrew {
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access the rep roster"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	rep, err := rc.reps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if caller.Role == access.RoleAdmin || caller.RepID == id {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Rep retrieved successfully",
			Data:    rep,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rep retrieved successfully",
		Data: repPublicView{
			ID:       rep.ID,
			Name:     rep.Name,
			Tier:     rep.Tier,
			PhotoURL: rep.PhotoURL,
			Active:   rep.Active,
		},
	})
}

// UpdateRep edits a rep profile. Reps may touch their own name, phone and
// photo; tier, percent and the other compensation levers are admin only. A
// tier change without an explicit percent re-derives it from the new tier.
func (rc *RepController) UpdateRep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	isAdmin := caller.Role == access.RoleAdmin
	if !isAdmin && caller.RepID != id {
		return utils.RespondError(c, apperrors.Forbidden("you cannot modify another rep's profile"))
	}

	if _, err := rc.reps.FindByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	var req models.UpdateRepRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	if !isAdmin {
		if req.Tier != nil || req.CommissionPercent != nil || req.SelfGen != nil ||
			req.TrainingCompleted != nil || req.ManagerID != nil || req.Active != nil {
			return utils.RespondError(c, apperrors.Forbidden("only admins can change tier or commission settings"))
		}
	}

	patch := bson.M{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return utils.RespondError(c, apperrors.Validation("name"))
		}
		patch["name"] = utils.SanitizeInput(*req.Name)
	}
	if req.Phone != nil {
		phone, err := utils.SanitizePhone(*req.Phone)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation("phone"))
		}
		patch["phone"] = phone
	}
	if req.PhotoURL != nil {
		patch["photoUrl"] = *req.PhotoURL
	}
	if req.Tier != nil {
		if !models.IsValidTier(*req.Tier) {
			return utils.RespondError(c, apperrors.Validation("tier"))
		}
		patch["tier"] = *req.Tier
		if req.CommissionPercent == nil {
			patch["commissionPercent"] = models.DefaultCommissionPercent(*req.Tier)
		}
	}
	if req.CommissionPercent != nil {
		if *req.CommissionPercent < 0 || *req.CommissionPercent > 100 {
			return utils.RespondError(c, apperrors.Validation("commissionPercent"))
		}
		patch["commissionPercent"] = *req.CommissionPercent
	}
	if req.SelfGen != nil {
		patch["selfGen"] = *req.SelfGen
	}
	if req.TrainingCompleted != nil {
		patch["trainingCompleted"] = *req.TrainingCompleted
	}
	if req.ManagerID != nil {
		if *req.ManagerID == "" {
			patch["managerId"] = nil
		} else {
			managerID, err := primitive.ObjectIDFromHex(*req.ManagerID)
			if err != nil {
				return utils.RespondError(c, apperrors.Validation("managerId"))
			}
			if managerID == id {
				return utils.RespondError(c, apperrors.Validation("managerId"))
			}
			if _, err := rc.reps.FindByID(ctx, managerID); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					return utils.RespondError(c, apperrors.NotFoundf("manager %s not found", *req.ManagerID))
				}
				return utils.RespondError(c, err)
			}
			patch["managerId"] = managerID
		}
	}
	if req.Active != nil {
		patch["active"] = *req.Active
	}

	if len(patch) == 0 {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	updated, err := rc.reps.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	// Keep the login account's enabled flag in step with the profile.
	if req.Active != nil {
		if _, err := rc.usersCollection().UpdateOne(ctx,
			bson.M{"repId": id},
			bson.M{"$set": bson.M{"isActive": *req.Active, "updatedAt": time.Now()}},
		); err != nil {
			rc.logger.Printf("User active flag for rep %s not updated: %v", id.Hex(), err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rep updated successfully",
		Data:    updated,
	})
}

// DeactivateRep disables a rep profile and the linked login account. Their
// deal and commission history stays put.
func (rc *RepController) DeactivateRep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role != access.RoleAdmin {
		return utils.RespondError(c, apperrors.Forbidden("only admins can deactivate reps"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	if err := rc.reps.Deactivate(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if _, err := rc.usersCollection().UpdateOne(ctx,
		bson.M{"repId": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	); err != nil {
		rc.logger.Printf("Login for rep %s not disabled: %v", id.Hex(), err)
	}

	rc.logger.Printf("Rep %s deactivated by admin %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rep deactivated successfully",
	})
}

// ResetRepAccess issues a temporary password for a rep and emails it to
// them, creating the login account if it never existed. Admin only.
func (rc *RepController) ResetRepAccess(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role != access.RoleAdmin {
		return utils.RespondError(c, apperrors.Forbidden("only admins can reset rep access"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	rep, err := rc.reps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	tempPassword, err := security.GenerateTempPassword()
	if err != nil {
		return utils.RespondError(c, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.RespondError(c, err)
	}

	now := time.Now()
	if _, err := rc.usersCollection().UpdateOne(ctx,
		bson.M{"email": rep.Email},
		bson.M{
			"$set": bson.M{
				"password":  string(hash),
				"fullName":  rep.Name,
				"repId":     rep.ID,
				"isActive":  true,
				"updatedAt": now,
			},
			"$setOnInsert": bson.M{
				"email":     rep.Email,
				"groups":    []string{"rep"},
				"createdAt": now,
			},
		},
		options.Update().SetUpsert(true),
	); err != nil {
		return utils.RespondError(c, err)
	}

	utils.SendEmail(rep.Email, "Your RoofTrack password was reset",
		fmt.Sprintf("Hi %s,\n\nYour temporary password is: %s\n\nSign in with it and change it right away.\n", rep.Name, tempPassword))

	rc.logger.Printf("Temporary password issued for rep %s by admin %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Temporary password sent to the rep's email",
	})
}
