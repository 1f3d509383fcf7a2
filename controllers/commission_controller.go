// controllers/commission_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/commission"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CommissionController handles commission rows and payouts. Stored amounts
// are snapshots; every read recomputes from the deal's live financials so
// reps watch their number move as the claim fills in.
type CommissionController struct {
	db          *mongo.Client
	commissions *repositories.CommissionRepository
	deals       *repositories.DealRepository
	reps        *repositories.RepRepository
	logger      *log.Logger
}

// NewCommissionController creates a new commission controller
func NewCommissionController(db *mongo.Client) *CommissionController {
	return &CommissionController{
		db:          db,
		commissions: repositories.NewCommissionRepository(db),
		deals:       repositories.NewDealRepository(db),
		reps:        repositories.NewRepRepository(db),
		logger:      log.New(os.Stdout, "[COMMISSION] ", log.LstdFlags),
	}
}

// commissionWithComputed pairs a stored row with the calculation off the
// deal's current financials.
type commissionWithComputed struct {
	models.Commission
	Computed *commission.Result `json:"computed,omitempty"`
}

// paidFilter parses the optional ?paid= query parameter.
func paidFilter(c echo.Context) (*bool, error) {
	switch c.QueryParam("paid") {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, apperrors.Validation("paid")
}

// computeRow runs the calculator for a row against its deal. A missing deal
// leaves Computed nil rather than failing the listing.
func (cc *CommissionController) computeRow(ctx context.Context, row *models.Commission) *commission.Result {
	deal, err := cc.deals.FindByID(ctx, row.DealID)
	if err != nil {
		return nil
	}
	res := commission.Calculate(commission.FromDeal(deal), row.Percent, row.OverrideAmount)
	return &res
}

// GetCommissions lists commission rows: reps see their own, admins see
// everyone's, both optionally narrowed by paid state.
func (cc *CommissionController) GetCommissions(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access commissions"))
	}

	paid, err := paidFilter(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var rows []models.Commission
	if caller.Role == access.RoleAdmin {
		if repHex := c.QueryParam("repId"); repHex != "" {
			repID, err := primitive.ObjectIDFromHex(repHex)
			if err != nil {
				return utils.RespondError(c, apperrors.Validation("repId"))
			}
			rows, err = cc.commissions.FindForRep(ctx, repID, paid)
			if err != nil {
				return utils.RespondError(c, err)
			}
		} else {
			rows, err = cc.commissions.FindAll(ctx, paid)
			if err != nil {
				return utils.RespondError(c, err)
			}
		}
	} else {
		rows, err = cc.commissions.FindForRep(ctx, caller.RepID, paid)
		if err != nil {
			return utils.RespondError(c, err)
		}
	}

	out := make([]commissionWithComputed, 0, len(rows))
	for i := range rows {
		out = append(out, commissionWithComputed{
			Commission: rows[i],
			Computed:   cc.computeRow(ctx, &rows[i]),
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved successfully",
		Data:    out,
	})
}

// GetDealCommissions lists the commission rows on one deal, for callers who
// can read the deal.
func (cc *CommissionController) GetDealCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	deal, err := cc.deals.FindByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", dealID.Hex()))
		}
		return utils.RespondError(c, err)
	}

	rows, err := cc.commissions.FindByDeal(ctx, dealID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	owners := make([]primitive.ObjectID, 0, len(rows)+1)
	if !deal.RepID.IsZero() {
		owners = append(owners, deal.RepID)
	}
	for i := range rows {
		owners = append(owners, rows[i].RepID)
	}
	resource := access.Resource{Kind: access.ResourceCommission, OwnerRepIDs: owners}
	if err := access.CanRead(caller, resource); err != nil {
		return utils.RespondError(c, err)
	}

	input := commission.FromDeal(deal)
	out := make([]commissionWithComputed, 0, len(rows))
	for i := range rows {
		res := commission.Calculate(input, rows[i].Percent, rows[i].OverrideAmount)
		out = append(out, commissionWithComputed{
			Commission: rows[i],
			Computed:   &res,
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deal commissions retrieved successfully",
		Data:    out,
	})
}

type addCommissionRequest struct {
	RepID   string                `json:"repId"`
	Type    models.CommissionType `json:"type"`
	Percent *float64              `json:"percent"`
}

// AddCommission attaches another rep to a deal with a new commission row.
// Admin only; the unique (deal, rep, type) index turns repeats into a 409.
func (cc *CommissionController) AddCommission(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("only admins can add commission rows"))
	}

	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	var req addCommissionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}
	if req.RepID == "" {
		return utils.RespondError(c, apperrors.Validation("repId"))
	}
	if !models.IsValidCommissionType(req.Type) {
		return utils.RespondError(c, apperrors.Validation("type"))
	}

	repID, err := primitive.ObjectIDFromHex(req.RepID)
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("repId"))
	}

	deal, err := cc.deals.FindByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", dealID.Hex()))
		}
		return utils.RespondError(c, err)
	}

	rep, err := cc.reps.FindByID(ctx, repID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", req.RepID))
		}
		return utils.RespondError(c, err)
	}

	percent := rep.CommissionPercent
	if req.Percent != nil {
		if *req.Percent < 0 || *req.Percent > 100 {
			return utils.RespondError(c, apperrors.Validation("percent"))
		}
		percent = *req.Percent
	}

	now := time.Now()
	row := models.Commission{
		DealID:    deal.ID,
		RepID:     rep.ID,
		Type:      req.Type,
		Percent:   percent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := cc.commissions.Create(ctx, &row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.RespondError(c, apperrors.Conflict("this rep already holds that commission type on the deal"))
		}
		return utils.RespondError(c, err)
	}

	cc.logger.Printf("Commission row %s (%s) added to deal %s by admin %s", row.ID.Hex(), row.Type, dealID.Hex(), caller.UserID.Hex())
	res := commission.Calculate(commission.FromDeal(deal), row.Percent, row.OverrideAmount)
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Commission row added successfully",
		Data: commissionWithComputed{
			Commission: row,
			Computed:   &res,
		},
	})
}

// UpdateCommission adjusts percent, override amount or notes on an unpaid
// row. Admin only; paid rows are accounting records and stay frozen.
func (cc *CommissionController) UpdateCommission(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("only admins can adjust commissions"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	row, err := cc.commissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	if row.Paid {
		return utils.RespondError(c, apperrors.Statef("a paid commission cannot be adjusted"))
	}

	var req models.UpdateCommissionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	patch := bson.M{}
	if req.Percent != nil {
		if *req.Percent < 0 || *req.Percent > 100 {
			return utils.RespondError(c, apperrors.Validation("percent"))
		}
		patch["percent"] = *req.Percent
	}
	if req.OverrideAmount != nil {
		if *req.OverrideAmount < 0 {
			return utils.RespondError(c, apperrors.Validation("overrideAmount"))
		}
		patch["overrideAmount"] = *req.OverrideAmount
	}
	if req.Notes != nil {
		patch["notes"] = utils.SanitizeInput(*req.Notes)
	}
	if len(patch) == 0 {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	updated, err := cc.commissions.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission updated successfully",
		Data: commissionWithComputed{
			Commission: *updated,
			Computed:   cc.computeRow(ctx, updated),
		},
	})
}

// PreviewCommission returns a stored commission row next to what the
// calculator produces from the deal's current financials, so drift is
// visible before a payout freezes the amount.
func (cc *CommissionController) PreviewCommission(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access commissions"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	row, err := cc.commissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	if caller.Role != access.RoleAdmin && caller.RepID != row.RepID {
		return utils.RespondError(c, apperrors.Forbidden("you cannot view another rep's commission"))
	}

	computed := cc.computeRow(ctx, row)
	if computed == nil {
		return utils.RespondError(c, apperrors.NotFoundf("deal %s not found", row.DealID.Hex()))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission preview calculated",
		Data: commissionWithComputed{
			Commission: *row,
			Computed:   computed,
		},
	})
}

// PayCommission settles a commission row: the amount is frozen from the
// deal's financials at pay time and the paid flag flips exactly once.
// Calling it again is a no-op reporting the already paid row.
func (cc *CommissionController) PayCommission(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("only admins can pay commissions"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	row, err := cc.commissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	if row.Paid {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Commission already paid",
			Data:    row,
		})
	}

	amount := row.Amount
	if res := cc.computeRow(ctx, row); res != nil {
		amount = res.Amount
	}

	claimed, err := cc.commissions.MarkPaid(ctx, id, caller.UserID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if !claimed {
		// Raced with another payout; report the settled row untouched.
		settled, err := cc.commissions.FindByID(ctx, id)
		if err != nil {
			return utils.RespondError(c, err)
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Commission already paid",
			Data:    settled,
		})
	}

	updated, err := cc.commissions.UpdateSet(ctx, id, bson.M{"amount": amount})
	if err != nil {
		return utils.RespondError(c, err)
	}

	cc.logger.Printf("Commission %s paid (%.2f) by admin %s", id.Hex(), amount, caller.UserID.Hex())
	go utils.NotifyRepOfCommissionPaid(cc.db, updated.RepID, updated.DealID, updated.Amount, string(updated.Type))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission paid successfully",
		Data:    updated,
	})
}

// DeleteCommission removes an unpaid commission row. Admin only; rows that
// have been paid out stay on the books.
func (cc *CommissionController) DeleteCommission(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("only admins can delete commission rows"))
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	row, err := cc.commissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}
	if row.Paid {
		return utils.RespondError(c, apperrors.Statef("a paid commission cannot be deleted"))
	}

	if err := cc.commissions.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("commission %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	cc.logger.Printf("Commission %s deleted by admin %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission deleted successfully",
	})
}

// GetMyEarnings sums the caller's paid and pending commission amounts.
// Admins may ask about any rep with ?repId=.
func (cc *CommissionController) GetMyEarnings(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access commissions"))
	}

	repID := caller.RepID
	if caller.Role == access.RoleAdmin {
		if repHex := c.QueryParam("repId"); repHex != "" {
			repID, err = primitive.ObjectIDFromHex(repHex)
			if err != nil {
				return utils.RespondError(c, apperrors.Validation("repId"))
			}
		}
	}
	if repID.IsZero() {
		return utils.RespondError(c, apperrors.NotFoundf("no rep profile is linked to your account"))
	}

	paid, pending, err := cc.commissions.EarningsForRep(ctx, repID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings retrieved successfully",
		Data: map[string]float64{
			"paid":    paid,
			"pending": pending,
			"total":   paid + pending,
		},
	})
}

type calculateCommissionRequest struct {
	RCV            float64  `json:"rcv"`
	ACV            float64  `json:"acv"`
	Depreciation   float64  `json:"depreciation"`
	Deductible     float64  `json:"deductible"`
	SalesTax       float64  `json:"salesTax"`
	Percent        float64  `json:"percent"`
	OverrideAmount *float64 `json:"overrideAmount"`
}

// CalculateCommission runs the calculator over hand-entered numbers, the
// what-if tool reps use at the kitchen table.
func (cc *CommissionController) CalculateCommission(c echo.Context) error {
	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if caller.Role == access.RoleCrew {
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access commissions"))
	}

	var req calculateCommissionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}
	if req.Percent < 0 || req.Percent > 100 {
		return utils.RespondError(c, apperrors.Validation("percent"))
	}

	res := commission.Calculate(commission.FinancialInput{
		RCV:          req.RCV,
		ACV:          req.ACV,
		Depreciation: req.Depreciation,
		Deductible:   req.Deductible,
		SalesTax:     req.SalesTax,
	}, req.Percent, req.OverrideAmount)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission preview calculated",
		Data:    res,
	})
}
