// controllers/deal_controller.go
package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/commission"
	"github.com/rooftrack/rooftrack_backend/lifecycle"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
	"github.com/rooftrack/rooftrack_backend/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DealController handles the deal lifecycle endpoints. Status never moves
// through a plain field write here: every change funnels through the
// lifecycle engine or the explicit admin override.
type DealController struct {
	db          *mongo.Client
	deals       *repositories.DealRepository
	commissions *repositories.CommissionRepository
	reps        *repositories.RepRepository
	hub         *websocket.Hub
	logger      *log.Logger
}

// NewDealController creates a new deal controller
func NewDealController(db *mongo.Client, hub *websocket.Hub) *DealController {
	return &DealController{
		db:          db,
		deals:       repositories.NewDealRepository(db),
		commissions: repositories.NewCommissionRepository(db),
		reps:        repositories.NewRepRepository(db),
		hub:         hub,
		logger:      log.New(os.Stdout, "[DEAL] ", log.LstdFlags),
	}
}

// dealWithProgress decorates a deal with its catalog position for list and
// detail responses.
type dealWithProgress struct {
	models.Deal
	Progress models.DealProgress `json:"progress"`
}

// crewDealView is the trimmed deal shape install crews see: the job site and
// build details, none of the claim money.
type crewDealView struct {
	ID                   primitive.ObjectID  `json:"id"`
	HomeownerName        string              `json:"homeownerName"`
	Address              string              `json:"address"`
	City                 string              `json:"city,omitempty"`
	State                string              `json:"state,omitempty"`
	Zip                  string              `json:"zip,omitempty"`
	GateCode             string              `json:"gateCode,omitempty"`
	Status               models.DealStatus   `json:"status"`
	Progress             models.DealProgress `json:"progress"`
	RoofType             string              `json:"roofType,omitempty"`
	MaterialType         string              `json:"materialType,omitempty"`
	MaterialColor        string              `json:"materialColor,omitempty"`
	SquareCount          float64             `json:"squareCount,omitempty"`
	Pitch                string              `json:"pitch,omitempty"`
	Layers               int                 `json:"layers,omitempty"`
	Supplier             string              `json:"supplier,omitempty"`
	InstallDate          *time.Time          `json:"installDate,omitempty"`
	InstallCompletedDate *time.Time          `json:"installCompletedDate,omitempty"`
	CrewNotes            string              `json:"crewNotes,omitempty"`
	InstallPhotos        []string            `json:"installPhotos,omitempty"`
}

func newCrewDealView(d *models.Deal) crewDealView {
	return crewDealView{
		ID:                   d.ID,
		HomeownerName:        d.HomeownerName,
		Address:              d.Address,
		City:                 d.City,
		State:                d.State,
		Zip:                  d.Zip,
		GateCode:             d.GateCode,
		Status:               d.Status,
		Progress:             models.ProgressFor(d.Status),
		RoofType:             d.RoofType,
		MaterialType:         d.MaterialType,
		MaterialColor:        d.MaterialColor,
		SquareCount:          d.SquareCount,
		Pitch:                d.Pitch,
		Layers:               d.Layers,
		Supplier:             d.Supplier,
		InstallDate:          d.InstallDate,
		InstallCompletedDate: d.InstallCompletedDate,
		CrewNotes:            d.CrewNotes,
		InstallPhotos:        d.InstallPhotos,
	}
}

// dealResource assembles the ownership view of a deal: the rep on the deal
// plus every rep holding a commission row on it.
func dealResource(ctx context.Context, commissions *repositories.CommissionRepository, deal *models.Deal) (access.Resource, error) {
	owners := make([]primitive.ObjectID, 0, 2)
	if !deal.RepID.IsZero() {
		owners = append(owners, deal.RepID)
	}
	rows, err := commissions.FindByDeal(ctx, deal.ID)
	if err != nil {
		return access.Resource{}, err
	}
	for _, row := range rows {
		if !row.RepID.IsZero() && row.RepID != deal.RepID {
			owners = append(owners, row.RepID)
		}
	}
	return access.Resource{Kind: access.ResourceDeal, OwnerRepIDs: owners}, nil
}

// notifyDealAdvance fans a status change out to everyone linked to the deal.
// The write is already durable by the time this runs; delivery failures only
// log.
func notifyDealAdvance(ctx context.Context, db *mongo.Client, hub *websocket.Hub, reps *repositories.RepRepository, deal *models.Deal, ownerRepIDs []primitive.ObjectID) {
	info, _ := models.CatalogEntry(deal.Status)
	label := info.Label
	if label == "" {
		label = string(deal.Status)
	}

	userIDs := make([]primitive.ObjectID, 0, len(ownerRepIDs))
	for _, repID := range ownerRepIDs {
		rep, err := reps.FindByID(ctx, repID)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, rep.UserID)
	}
	hub.NotifyStatusAdvanced(userIDs, map[string]interface{}{
		"dealId": deal.ID.Hex(),
		"status": deal.Status,
		"label":  label,
		"step":   info.Step,
	})

	go utils.SendDealStatusNotification(db, deal.RepID, deal.ID, deal.HomeownerName, label)

	// The milestones a manager actually wants in their inbox.
	switch deal.Status {
	case models.StatusApproved, models.StatusSigned, models.StatusComplete:
		dealID := deal.ID
		repID := deal.RepID
		homeowner := deal.HomeownerName
		go func() {
			if err := utils.NotifyManagerOfDealMilestone(db, repID, dealID, homeowner, label); err != nil {
				log.Printf("Manager notification for deal %s failed: %v", dealID.Hex(), err)
			}
		}()
	}
}

// CreateDeal opens a new deal at the bottom of the lifecycle and seeds the
// creating rep's commission row.
func (dc *DealController) CreateDeal(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew access is read-only"))
	}

	var req models.CreateDealRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	var missing []string
	if strings.TrimSpace(req.HomeownerName) == "" {
		missing = append(missing, "homeownerName")
	}
	if strings.TrimSpace(req.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return utils.RespondError(c, apperrors.Validation(missing...))
	}

	// Reps always create for themselves; only admins may name another rep.
	repID := caller.RepID
	if caller.Role == access.RoleAdmin && req.RepID != "" {
		repID, err = primitive.ObjectIDFromHex(req.RepID)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation("repId"))
		}
	}
	if repID.IsZero() {
		return utils.RespondError(c, apperrors.Validation("repId"))
	}

	rep, err := dc.reps.FindByID(ctx, repID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", repID.Hex()))
		}
		return utils.RespondError(c, err)
	}
	if !rep.Active {
		return utils.RespondError(c, apperrors.Statef("rep %s is deactivated", rep.Name))
	}

	homeownerPhone, err := utils.SanitizePhone(req.HomeownerPhone)
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("homeownerPhone"))
	}
	homeownerEmail := ""
	if req.HomeownerEmail != "" {
		homeownerEmail, err = utils.SanitizeEmail(req.HomeownerEmail)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation("homeownerEmail"))
		}
	}

	now := time.Now()
	deal := models.Deal{
		RepID:            repID,
		CreatedBy:        caller.UserID,
		HomeownerName:    utils.SanitizeInput(req.HomeownerName),
		HomeownerPhone:   homeownerPhone,
		HomeownerEmail:   homeownerEmail,
		Address:          utils.SanitizeInput(req.Address),
		City:             utils.SanitizeInput(req.City),
		State:            utils.SanitizeInput(req.State),
		Zip:              utils.SanitizeInput(req.Zip),
		Lat:              req.Lat,
		Lng:              req.Lng,
		LeadSource:       utils.SanitizeInput(req.LeadSource),
		InsuranceCompany: utils.SanitizeInput(req.InsuranceCompany),
		Notes:            utils.SanitizeInput(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	lifecycle.Initialize(&deal, now)

	commissionType := models.CommissionSetter
	if rep.SelfGen {
		commissionType = models.CommissionSelfGen
	}
	calc := commission.Calculate(commission.FromDeal(&deal), rep.CommissionPercent, nil)
	row := models.Commission{
		RepID:     rep.ID,
		Type:      commissionType,
		Percent:   rep.CommissionPercent,
		Amount:    calc.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The deal and its seed commission row land together or not at all.
	err = repositories.InTransaction(ctx, dc.db, func(sc mongo.SessionContext) error {
		if err := dc.deals.Create(sc, &deal); err != nil {
			return err
		}
		row.DealID = deal.ID
		return dc.commissions.Create(sc, &row)
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	dc.logger.Printf("Deal %s created for rep %s", deal.ID.Hex(), rep.ID.Hex())
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Deal created successfully",
		Data: dealWithProgress{
			Deal:     deal,
			Progress: models.ProgressFor(deal.Status),
		},
	})
}

// GetDeals lists deals scoped to the caller: admins see everything, reps see
// deals they are linked to, crews see jobs in the build phase.
func (dc *DealController) GetDeals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	status := c.QueryParam("status")
	if status != "" && !models.IsValidStatus(models.DealStatus(status)) {
		return utils.RespondError(c, apperrors.Validation("status"))
	}

	if caller.Role == access.RoleCrew {
		deals, err := dc.deals.FindAll(ctx, status)
		if err != nil {
			return utils.RespondError(c, err)
		}
		views := make([]crewDealView, 0, len(deals))
		for i := range deals {
			if models.ProgressFor(deals[i].Status).Phase != models.PhaseBuild {
				continue
			}
			views = append(views, newCrewDealView(&deals[i]))
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Deals retrieved successfully",
			Data:    views,
		})
	}

	var deals []models.Deal
	if caller.Role == access.RoleAdmin {
		deals, err = dc.deals.FindAll(ctx, status)
	} else {
		deals, err = dc.deals.FindForRep(ctx, caller.RepID, status)
	}
	if err != nil {
		return utils.RespondError(c, err)
	}

	out := make([]dealWithProgress, 0, len(deals))
	for i := range deals {
		out = append(out, dealWithProgress{
			Deal:     deals[i],
			Progress: models.ProgressFor(deals[i].Status),
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deals retrieved successfully",
		Data:    out,
	})
}

// GetDeal returns one deal. Existence is checked before ownership so a caller
// probing someone else's deal gets a 403, not a 404.
func (dc *DealController) GetDeal(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if caller.Role == access.RoleCrew {
		if models.ProgressFor(deal.Status).Phase != models.PhaseBuild {
			return utils.RespondError(c, apperrors.Forbidden("crew access is limited to jobs in the build phase"))
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Deal retrieved successfully",
			Data:    newCrewDealView(deal),
		})
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanRead(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deal retrieved successfully",
		Data: dealWithProgress{
			Deal:     *deal,
			Progress: models.ProgressFor(deal.Status),
		},
	})
}

// UpdateDeal merges a partial edit into the deal and lets the lifecycle
// engine decide whether the new data carries the status forward. The stored
// status never moves backward through this path.
func (dc *DealController) UpdateDeal(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	var upd models.DealUpdate
	if err := c.Bind(&upd); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	patch, err := upd.SetPatch()
	if err != nil {
		return utils.RespondError(c, err)
	}

	prev := deal.Status
	upd.ApplyTo(deal)
	now := time.Now()
	status, lifePatch := lifecycle.Apply(deal, now)
	for k, v := range lifePatch {
		patch[k] = v
	}

	if len(patch) == 0 {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Nothing to update",
			Data: dealWithProgress{
				Deal:     *deal,
				Progress: models.ProgressFor(deal.Status),
			},
		})
	}

	updated, err := dc.deals.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if status != prev {
		dc.logger.Printf("Deal %s advanced from %s to %s", id.Hex(), prev, status)
		notifyDealAdvance(ctx, dc.db, dc.hub, dc.reps, updated, resource.OwnerRepIDs)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deal updated successfully",
		Data: dealWithProgress{
			Deal:     *updated,
			Progress: models.ProgressFor(updated.Status),
		},
	})
}

// DeleteDeal removes a deal and its commission rows. Admin only.
func (dc *DealController) DeleteDeal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if err := access.CanDelete(caller, access.Resource{Kind: access.ResourceDeal}); err != nil {
		return utils.RespondError(c, err)
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	if err := dc.deals.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	dc.logger.Printf("Deal %s deleted by admin %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deal deleted successfully",
	})
}

// AdvanceDeal is the action button behind each status: the request carries
// the fields the next step needs, the engine re-evaluates, and the deal moves
// only if the data now supports it.
func (dc *DealController) AdvanceDeal(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	entry, ok := models.CatalogEntry(deal.Status)
	if !ok {
		return utils.RespondError(c, apperrors.Statef("deal holds unknown status %q", deal.Status))
	}
	if entry.Next == "" {
		return utils.RespondError(c, apperrors.Statef("deal is already complete"))
	}
	next, _ := models.CatalogEntry(entry.Next)

	// The action dialog submits whatever fields the next step asks for; an
	// empty body just re-evaluates what is already on the deal.
	var upd models.DealUpdate
	if err := c.Bind(&upd); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	patch, err := upd.SetPatch()
	if err != nil {
		return utils.RespondError(c, err)
	}

	prev := deal.Status
	upd.ApplyTo(deal)
	now := time.Now()
	status, lifePatch := lifecycle.Apply(deal, now)
	if status == prev {
		return utils.RespondError(c, apperrors.Statef("cannot advance to %s yet, required fields are missing", next.Label))
	}
	for k, v := range lifePatch {
		patch[k] = v
	}

	updated, err := dc.deals.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	dc.logger.Printf("Deal %s advanced from %s to %s", id.Hex(), prev, status)
	notifyDealAdvance(ctx, dc.db, dc.hub, dc.reps, updated, resource.OwnerRepIDs)

	info, _ := models.CatalogEntry(updated.Status)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Deal advanced to %s", info.Label),
		Data: dealWithProgress{
			Deal:     *updated,
			Progress: models.ProgressFor(updated.Status),
		},
	})
}

type overrideStatusRequest struct {
	Status models.DealStatus `json:"status"`
}

// OverrideStatus force-sets a deal's status in either direction. Admin only;
// milestone stamps survive a downgrade.
func (dc *DealController) OverrideStatus(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("only admins can override a deal status"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	var req overrideStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	prev := deal.Status
	now := time.Now()
	patch, err := lifecycle.Override(deal, req.Status, now)
	if err != nil {
		return utils.RespondError(c, err)
	}

	updated, err := dc.deals.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	dc.logger.Printf("Deal %s status overridden from %s to %s by admin %s", id.Hex(), prev, req.Status, caller.UserID.Hex())

	resource, err := dealResource(ctx, dc.commissions, updated)
	if err == nil {
		info, _ := models.CatalogEntry(updated.Status)
		userIDs := make([]primitive.ObjectID, 0, len(resource.OwnerRepIDs))
		for _, repID := range resource.OwnerRepIDs {
			rep, err := dc.reps.FindByID(ctx, repID)
			if err != nil {
				continue
			}
			userIDs = append(userIDs, rep.UserID)
		}
		dc.hub.NotifyDealEvent(userIDs, websocket.NotificationTypeDealUpdated,
			fmt.Sprintf("Deal status set to %s", info.Label), map[string]interface{}{
				"dealId": updated.ID.Hex(),
				"status": updated.Status,
			})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deal status overridden",
		Data: dealWithProgress{
			Deal:     *updated,
			Progress: models.ProgressFor(updated.Status),
		},
	})
}

// RequestPayment flags a deal for office payout processing. Only allowed once
// the depreciation check is in; asking again is a no-op that returns the
// original request date.
func (dc *DealController) RequestPayment(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanMutate(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	alreadyRequested, err := lifecycle.CheckPaymentRequest(deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if alreadyRequested {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Payment already requested",
			Data: map[string]interface{}{
				"paymentRequested":   true,
				"paymentRequestDate": deal.PaymentRequestDate,
			},
		})
	}

	now := time.Now()
	updated, err := dc.deals.UpdateSet(ctx, id, bson.M{
		"paymentRequested":   true,
		"paymentRequestDate": now,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	dc.logger.Printf("Payment requested on deal %s by %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment requested",
		Data: map[string]interface{}{
			"paymentRequested":   true,
			"paymentRequestDate": updated.PaymentRequestDate,
		},
	})
}

// GetDealChecks returns the homeowner-facing insurance check breakdown.
func (dc *DealController) GetDealChecks(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanRead(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	calc := commission.Calculate(commission.FromDeal(deal), 0, nil)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Check breakdown retrieved successfully",
		Data: map[string]interface{}{
			"calculatedRcv": calc.CalculatedRCV,
			"firstCheck":    calc.FirstCheck,
			"deductible":    deal.Deductible,
			"secondCheck":   calc.SecondCheck,
			"total":         calc.FirstCheck + deal.Deductible + calc.SecondCheck,
		},
	})
}

// GetDealQR renders a QR code that deep-links the homeowner portal page for
// the deal, for leave-behind paperwork.
func (dc *DealController) GetDealQR(c echo.Context) error {
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

	deal, err := dc.deals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	resource, err := dealResource(ctx, dc.commissions, deal)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := access.CanRead(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	portalBase := os.Getenv("PORTAL_BASE_URL")
	if portalBase == "" {
		portalBase = "https://portal.rooftrack.app"
	}
	content := portalBase + "/deals/" + deal.ID.Hex()

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return utils.RespondError(c, err)
	}
	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return utils.RespondError(c, err)
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return utils.RespondError(c, err)
	}

	c.Response().Header().Set("Content-Disposition", "inline; filename=deal-"+deal.ID.Hex()+".png")
	return c.Blob(http.StatusOK, "image/png", buffer.Bytes())
}

// GetStatusCatalog returns the full lifecycle catalog so clients render
// progress bars and action buttons without hardcoding the ladder.
func (dc *DealController) GetStatusCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Status catalog retrieved successfully",
		Data: map[string]interface{}{
			"steps":      models.StatusCatalog(),
			"totalSteps": len(models.StatusOrder),
		},
	})
}
