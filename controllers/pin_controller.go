// controllers/pin_controller.go
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

// PinController handles the canvassing map endpoints. A pin can spawn at
// most one deal; the conversion flow enforces that with a conditional claim
// on the dealId slot.
type PinController struct {
	db          *mongo.Client
	pins        *repositories.PinRepository
	deals       *repositories.DealRepository
	commissions *repositories.CommissionRepository
	reps        *repositories.RepRepository
	hub         *websocket.Hub
	logger      *log.Logger
}

// NewPinController creates a new pin controller
func NewPinController(db *mongo.Client, hub *websocket.Hub) *PinController {
	return &PinController{
		db:          db,
		pins:        repositories.NewPinRepository(db),
		deals:       repositories.NewDealRepository(db),
		commissions: repositories.NewCommissionRepository(db),
		reps:        repositories.NewRepRepository(db),
		hub:         hub,
		logger:      log.New(os.Stdout, "[PIN] ", log.LstdFlags),
	}
}

// pinResource is the ownership view of a pin: the knocking rep plus the
// assigned closer, when there is one.
func pinResource(p *models.Pin) access.Resource {
	owners := make([]primitive.ObjectID, 0, 2)
	if !p.RepID.IsZero() {
		owners = append(owners, p.RepID)
	}
	if p.AssignedCloserID != nil && !p.AssignedCloserID.IsZero() {
		owners = append(owners, *p.AssignedCloserID)
	}
	return access.Resource{Kind: access.ResourcePin, OwnerRepIDs: owners}
}

// resolveCloser loads and vets a closer candidate for a pin owned by ownerID.
func (pc *PinController) resolveCloser(ctx context.Context, closerHex string, ownerID primitive.ObjectID) (*models.Rep, error) {
	closerID, err := primitive.ObjectIDFromHex(closerHex)
	if err != nil {
		return nil, apperrors.Validation("closerRepId")
	}
	if closerID == ownerID {
		return nil, apperrors.Validation("closerRepId")
	}
	closer, err := pc.reps.FindByID(ctx, closerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("rep %s not found", closerHex)
		}
		return nil, err
	}
	if !closer.Active {
		return nil, apperrors.Statef("rep %s is deactivated", closer.Name)
	}
	return closer, nil
}

// CreatePin drops a pin on the canvassing map for the calling rep.
func (pc *PinController) CreatePin(c echo.Context) error {
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
	if caller.RepID.IsZero() {
		return utils.RespondError(c, apperrors.Forbidden("a rep profile is required to drop pins"))
	}

	var req models.CreatePinRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	var missing []string
	if req.Lat == 0 {
		missing = append(missing, "lat")
	}
	if req.Lng == 0 {
		missing = append(missing, "lng")
	}
	if req.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return utils.RespondError(c, apperrors.Validation(missing...))
	}
	if !models.IsValidPinStatus(req.Status) {
		return utils.RespondError(c, apperrors.Validation("status"))
	}

	rep, err := pc.reps.FindByID(ctx, caller.RepID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", caller.RepID.Hex()))
		}
		return utils.RespondError(c, err)
	}

	var closerID *primitive.ObjectID
	if req.AssignedCloserID != "" {
		closer, err := pc.resolveCloser(ctx, req.AssignedCloserID, caller.RepID)
		if err != nil {
			return utils.RespondError(c, err)
		}
		closerID = &closer.ID
	}

	if req.Status == models.PinAppointment {
		if err := access.RequireCloserForAppointment(rep.Tier, closerID != nil); err != nil {
			return utils.RespondError(c, err)
		}
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
	pin := models.Pin{
		RepID:            caller.RepID,
		AssignedCloserID: closerID,
		Status:           req.Status,
		HomeownerName:    utils.SanitizeInput(req.HomeownerName),
		HomeownerPhone:   homeownerPhone,
		HomeownerEmail:   homeownerEmail,
		Address:          utils.SanitizeInput(req.Address),
		City:             utils.SanitizeInput(req.City),
		State:            utils.SanitizeInput(req.State),
		Zip:              utils.SanitizeInput(req.Zip),
		Lat:              req.Lat,
		Lng:              req.Lng,
		AppointmentDate:  req.AppointmentDate,
		Notes:            utils.SanitizeInput(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := pc.pins.Create(ctx, &pin); err != nil {
		return utils.RespondError(c, err)
	}

	if closerID != nil {
		pc.notifyCloserAssigned(ctx, &pin, *closerID)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Pin created successfully",
		Data:    pin,
	})
}

// GetPins lists pins scoped to the caller, optionally filtered by knock
// outcome.
func (pc *PinController) GetPins(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access canvassing pins"))
	}

	status := c.QueryParam("status")
	if status != "" && !models.IsValidPinStatus(models.PinStatus(status)) {
		return utils.RespondError(c, apperrors.Validation("status"))
	}

	var pins []models.Pin
	if caller.Role == access.RoleAdmin {
		pins, err = pc.pins.FindAll(ctx, status)
	} else {
		pins, err = pc.pins.FindForRep(ctx, caller.RepID, status)
	}
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pins retrieved successfully",
		Data:    pins,
	})
}

// GetMapPins returns the pins inside a map viewport. Reps see their own
// canvas; admins see everyone's and may narrow to a single rep.
func (pc *PinController) GetMapPins(c echo.Context) error {
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
		return utils.RespondError(c, apperrors.Forbidden("crew accounts cannot access canvassing pins"))
	}

	bounds := []struct {
		name     string
		min, max float64
	}{
		{"minLat", -90, 90},
		{"maxLat", -90, 90},
		{"minLng", -180, 180},
		{"maxLng", -180, 180},
	}
	values := [4]float64{}
	for i, b := range bounds {
		v, err := utils.ParseCoordinate(c.QueryParam(b.name), b.min, b.max)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation(b.name))
		}
		values[i] = v
	}
	minLat, maxLat, minLng, maxLng := values[0], values[1], values[2], values[3]
	if minLat >= maxLat || minLng >= maxLng {
		return utils.RespondError(c, apperrors.Validation("minLat", "maxLat", "minLng", "maxLng"))
	}

	var repScope *primitive.ObjectID
	if caller.Role == access.RoleAdmin {
		if repHex := c.QueryParam("repId"); repHex != "" {
			repID, err := primitive.ObjectIDFromHex(repHex)
			if err != nil {
				return utils.RespondError(c, apperrors.Validation("repId"))
			}
			repScope = &repID
		}
	} else {
		repID := caller.RepID
		repScope = &repID
	}

	pins, err := pc.pins.FindInBounds(ctx, minLat, maxLat, minLng, maxLng, repScope)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pins retrieved successfully",
		Data:    pins,
	})
}

// GetPin returns one pin after an ownership check.
func (pc *PinController) GetPin(c echo.Context) error {
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

	pin, err := pc.pins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanRead(caller, pinResource(pin)); err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pin retrieved successfully",
		Data:    pin,
	})
}

// UpdatePin merges partial edits from the knocking rep or the assigned
// closer. Moving a junior rep's pin to appointment still requires a closer.
func (pc *PinController) UpdatePin(c echo.Context) error {
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

	pin, err := pc.pins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanMutate(caller, pinResource(pin)); err != nil {
		return utils.RespondError(c, err)
	}

	var req models.UpdatePinRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}

	patch := bson.M{}
	if req.Status != nil {
		if !models.IsValidPinStatus(*req.Status) {
			return utils.RespondError(c, apperrors.Validation("status"))
		}
		owner, err := pc.reps.FindByID(ctx, pin.RepID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", pin.RepID.Hex()))
			}
			return utils.RespondError(c, err)
		}
		if err := access.RequireCloserForStatusChange(owner.Tier, pin.AssignedCloserID != nil, pin.Status, *req.Status); err != nil {
			return utils.RespondError(c, err)
		}
		patch["status"] = *req.Status
	}
	if req.HomeownerName != nil {
		patch["homeownerName"] = utils.SanitizeInput(*req.HomeownerName)
	}
	if req.HomeownerPhone != nil {
		phone, err := utils.SanitizePhone(*req.HomeownerPhone)
		if err != nil {
			return utils.RespondError(c, apperrors.Validation("homeownerPhone"))
		}
		patch["homeownerPhone"] = phone
	}
	if req.HomeownerEmail != nil {
		email := ""
		if *req.HomeownerEmail != "" {
			var err error
			email, err = utils.SanitizeEmail(*req.HomeownerEmail)
			if err != nil {
				return utils.RespondError(c, apperrors.Validation("homeownerEmail"))
			}
		}
		patch["homeownerEmail"] = email
	}
	if req.Address != nil {
		patch["address"] = utils.SanitizeInput(*req.Address)
	}
	if req.City != nil {
		patch["city"] = utils.SanitizeInput(*req.City)
	}
	if req.State != nil {
		patch["state"] = utils.SanitizeInput(*req.State)
	}
	if req.Zip != nil {
		patch["zip"] = utils.SanitizeInput(*req.Zip)
	}
	if req.AppointmentDate != nil {
		patch["appointmentDate"] = *req.AppointmentDate
	}
	if req.Notes != nil {
		patch["notes"] = utils.SanitizeInput(*req.Notes)
	}
	if req.Photos != nil {
		patch["photos"] = utils.SanitizeStringArray(*req.Photos)
	}

	if len(patch) == 0 {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Nothing to update",
			Data:    pin,
		})
	}

	updated, err := pc.pins.UpdateSet(ctx, id, patch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pin updated successfully",
		Data:    updated,
	})
}

// AssignCloser hands the pin to a second rep who will run the close.
func (pc *PinController) AssignCloser(c echo.Context) error {
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

	pin, err := pc.pins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanMutate(caller, pinResource(pin)); err != nil {
		return utils.RespondError(c, err)
	}

	var req models.AssignCloserRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, apperrors.Validation("body"))
	}
	if req.CloserRepID == "" {
		return utils.RespondError(c, apperrors.Validation("closerRepId"))
	}

	closer, err := pc.resolveCloser(ctx, req.CloserRepID, pin.RepID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	updated, err := pc.pins.UpdateSet(ctx, id, bson.M{"assignedCloserId": closer.ID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	pc.notifyCloserAssigned(ctx, updated, closer.ID)
	pc.logger.Printf("Pin %s closer set to %s", id.Hex(), closer.ID.Hex())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Closer assigned successfully",
		Data:    updated,
	})
}

// ConvertPin turns a pin into a deal. A pin converts at most once: the deal,
// the pin's dealId claim and the commission rows are written in one
// transaction, so a second conversion attempt fails the conditional claim
// and rolls the whole set back.
func (pc *PinController) ConvertPin(c echo.Context) error {
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

	pin, err := pc.pins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	if err := access.CanMutate(caller, pinResource(pin)); err != nil {
		return utils.RespondError(c, err)
	}

	if err := lifecycle.CheckConvertible(pin); err != nil {
		return utils.RespondError(c, err)
	}

	owner, err := pc.reps.FindByID(ctx, pin.RepID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", pin.RepID.Hex()))
		}
		return utils.RespondError(c, err)
	}

	now := time.Now()
	deal := models.Deal{
		RepID:          pin.RepID,
		PinID:          &pin.ID,
		CreatedBy:      caller.UserID,
		HomeownerName:  pin.HomeownerName,
		HomeownerPhone: pin.HomeownerPhone,
		HomeownerEmail: pin.HomeownerEmail,
		Address:        pin.Address,
		City:           pin.City,
		State:          pin.State,
		Zip:            pin.Zip,
		Lat:            pin.Lat,
		Lng:            pin.Lng,
		LeadSource:     "door_knock",
		Notes:          pin.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	lifecycle.Initialize(&deal, now)

	setterType := models.CommissionSetter
	if pin.AssignedCloserID == nil && owner.SelfGen {
		setterType = models.CommissionSelfGen
	}
	rows := []models.Commission{{
		RepID:     owner.ID,
		Type:      setterType,
		Percent:   owner.CommissionPercent,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	notifyUserIDs := []primitive.ObjectID{owner.UserID}
	if pin.AssignedCloserID != nil {
		closer, err := pc.reps.FindByID(ctx, *pin.AssignedCloserID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.RespondError(c, apperrors.NotFoundf("rep %s not found", pin.AssignedCloserID.Hex()))
			}
			return utils.RespondError(c, err)
		}
		rows = append(rows, models.Commission{
			RepID:     closer.ID,
			Type:      models.CommissionCloser,
			Percent:   closer.CommissionPercent,
			CreatedAt: now,
			UpdatedAt: now,
		})
		notifyUserIDs = append(notifyUserIDs, closer.UserID)
	}

	// Deal, pin claim and commission rows commit together; losing the claim
	// race aborts the transaction and nothing is written.
	err = repositories.InTransaction(ctx, pc.db, func(sc mongo.SessionContext) error {
		if err := pc.deals.Create(sc, &deal); err != nil {
			return err
		}
		claimed, err := pc.pins.AttachDeal(sc, pin.ID, deal.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return apperrors.Conflict("pin has already been converted to a deal")
		}
		for i := range rows {
			rows[i].DealID = deal.ID
			if err := pc.commissions.Create(sc, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	pc.hub.NotifyDealEvent(notifyUserIDs, websocket.NotificationTypePinConverted,
		"Pin converted to deal", map[string]interface{}{
			"pinId":  pin.ID.Hex(),
			"dealId": deal.ID.Hex(),
		})

	pc.logger.Printf("Pin %s converted to deal %s by %s", id.Hex(), deal.ID.Hex(), caller.UserID.Hex())
	pin.DealID = &deal.ID
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Pin converted to deal successfully",
		Data: map[string]interface{}{
			"deal": dealWithProgress{
				Deal:     deal,
				Progress: models.ProgressFor(deal.Status),
			},
			"pin": pin,
		},
	})
}

// DeletePin removes a pin from the map. Admin only.
func (pc *PinController) DeletePin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if err := access.CanDelete(caller, access.Resource{Kind: access.ResourcePin}); err != nil {
		return utils.RespondError(c, err)
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	if err := pc.pins.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.RespondError(c, apperrors.NotFoundf("pin %s not found", id.Hex()))
		}
		return utils.RespondError(c, err)
	}

	pc.logger.Printf("Pin %s deleted by admin %s", id.Hex(), caller.UserID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pin deleted successfully",
	})
}

// notifyCloserAssigned tells the closer they picked up an appointment, over
// the socket and as a push. Failures only log.
func (pc *PinController) notifyCloserAssigned(ctx context.Context, pin *models.Pin, closerRepID primitive.ObjectID) {
	closer, err := pc.reps.FindByID(ctx, closerRepID)
	if err != nil || closer.UserID.IsZero() {
		return
	}

	if err := pc.hub.NotifyCloserAssigned(closer.UserID, map[string]interface{}{
		"pinId":           pin.ID.Hex(),
		"homeownerName":   pin.HomeownerName,
		"address":         pin.Address,
		"appointmentDate": pin.AppointmentDate,
	}); err != nil {
		pc.logger.Printf("Closer socket notification for pin %s failed: %v", pin.ID.Hex(), err)
	}

	title := "New appointment assigned"
	message := "You were assigned as closer on " + pin.Address
	if pin.HomeownerName != "" {
		message = "You were assigned as closer for " + pin.HomeownerName
	}
	_ = utils.SaveNotification(pc.db, closer.UserID, title, message, "closer_assigned", map[string]interface{}{
		"pinId": pin.ID.Hex(),
	})
	userID := closer.UserID
	pinID := pin.ID
	go func() {
		if err := utils.SendFCMNotificationToUser(pc.db, userID, title, message, map[string]interface{}{
			"type":  "closer_assigned",
			"pinId": pinID.Hex(),
		}); err != nil {
			log.Printf("Closer push for pin %s not delivered: %v", pinID.Hex(), err)
		}
	}()
}
