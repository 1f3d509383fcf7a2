// controllers/admin_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// AdminController serves the back office: admin sign-in, the pipeline
// dashboard and the payout queue.
type AdminController struct {
	db          *mongo.Client
	users       *repositories.UserRepository
	deals       *repositories.DealRepository
	pins        *repositories.PinRepository
	reps        *repositories.RepRepository
	commissions *repositories.CommissionRepository
	logger      *log.Logger
}

func NewAdminController(db *mongo.Client) *AdminController {
	return &AdminController{
		db:          db,
		users:       repositories.NewUserRepository(db),
		deals:       repositories.NewDealRepository(db),
		pins:        repositories.NewPinRepository(db),
		reps:        repositories.NewRepRepository(db),
		commissions: repositories.NewCommissionRepository(db),
		logger:      log.New(os.Stdout, "[ADMIN] ", log.LstdFlags),
	}
}

// matchesEnvAdmin reports whether the credentials match the ADMIN_EMAIL /
// ADMIN_PASSWORD pair from the environment. This is the bootstrap path for a
// fresh install, before any admin user document exists.
func matchesEnvAdmin(email, password string) bool {
	envEmail := os.Getenv("ADMIN_EMAIL")
	envPassword := os.Getenv("ADMIN_PASSWORD")
	if envEmail == "" || envPassword == "" {
		return false
	}
	sanitized, err := utils.SanitizeEmail(envEmail)
	if err != nil {
		return false
	}
	return sanitized == email && password == envPassword
}

// bootstrapAdminUser upserts the users document behind the environment
// admin. Tokens always carry a real user ID, so even the env path needs a
// row in the users collection.
func (ac *AdminController) bootstrapAdminUser(ctx context.Context, email string) (*models.User, error) {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":     email,
			"fullName":  "Administrator",
			"isActive":  true,
			"createdAt": now,
		},
		"$addToSet": bson.M{"groups": "admin"},
		"$set": bson.M{
			"lastActivityAt": now,
			"updatedAt":      now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	collection := ac.db.Database("rooftrack").Collection("users")
	var user models.User
	if err := collection.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminLogin signs an administrator in. Two paths: the ADMIN_EMAIL /
// ADMIN_PASSWORD pair from the environment, or a regular user document that
// carries the admin group. Both end up with the same JWT.
func (ac *AdminController) AdminLogin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request payload",
		})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	var user *models.User
	if matchesEnvAdmin(email, req.Password) {
		user, err = ac.bootstrapAdminUser(ctx, email)
		if err != nil {
			ac.logger.Printf("Failed to bootstrap admin account %s: %v", email, err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to prepare admin account",
			})
		}
	} else {
		user, err = ac.users.FindByEmail(ctx, email)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		// A non-admin account gets the same answer as a wrong password.
		if access.RoleFromGroups(user.Groups) != access.RoleAdmin {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		if !user.IsActive {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Account is deactivated",
			})
		}
	}

	accessToken, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Groups, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	cookie := new(http.Cookie)
	cookie.Name = "admin_token"
	cookie.Value = accessToken
	cookie.Expires = time.Now().Add(24 * time.Hour)
	cookie.HttpOnly = true
	cookie.Secure = false // Set to true in production
	cookie.SameSite = http.SameSiteStrictMode
	c.SetCookie(cookie)

	ac.logger.Printf("Admin login: %s", user.Email)

	user.Password = ""
	user.OTPInfo = nil
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Admin login successful",
		Data: map[string]interface{}{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"user":         user,
		},
	})
}

// Dashboard returns the numbers the back office opens with: the deal
// pipeline broken down by status, pin counts, commission totals and the rep
// headcount. The route group already enforces the admin role.
func (ac *AdminController) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dealCounts, err := ac.deals.CountsByStatus(ctx)
	if err != nil {
		ac.logger.Printf("Failed to count deals: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	// Render the pipeline in lifecycle order so the dashboard does not have
	// to know the sequence.
	pipeline := make([]map[string]interface{}, 0, len(models.StatusOrder))
	var totalDeals int64
	for _, status := range models.StatusOrder {
		info, _ := models.CatalogEntry(status)
		count := dealCounts[string(status)]
		totalDeals += count
		pipeline = append(pipeline, map[string]interface{}{
			"status": status,
			"label":  info.Label,
			"step":   info.Step,
			"phase":  info.Phase,
			"count":  count,
		})
	}

	pinCounts, err := ac.pins.CountsByStatus(ctx)
	if err != nil {
		ac.logger.Printf("Failed to count pins: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	paidTotal, pendingTotal, err := ac.commissions.Totals(ctx)
	if err != nil {
		ac.logger.Printf("Failed to total commissions: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	reps, err := ac.reps.FindAll(ctx, false)
	if err != nil {
		ac.logger.Printf("Failed to list reps: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}
	activeReps := 0
	for i := range reps {
		if reps[i].Active {
			activeReps++
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data: map[string]interface{}{
			"deals": map[string]interface{}{
				"total":    totalDeals,
				"pipeline": pipeline,
			},
			"pins": pinCounts,
			"commissions": map[string]interface{}{
				"paid":    paidTotal,
				"pending": pendingTotal,
				"total":   paidTotal + pendingTotal,
			},
			"reps": map[string]interface{}{
				"total":  len(reps),
				"active": activeReps,
			},
		},
	})
}

// PendingPayouts lists unpaid commission rows with enough context to cut
// checks: who earned it, on which deal, and the current amount.
func (ac *AdminController) PendingPayouts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unpaid := false
	rows, err := ac.commissions.FindAll(ctx, &unpaid)
	if err != nil {
		ac.logger.Printf("Failed to list pending commissions: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load payouts",
		})
	}

	// The queue repeats reps and deals, so look each up once.
	repCache := make(map[primitive.ObjectID]*models.Rep)
	dealCache := make(map[primitive.ObjectID]*models.Deal)

	payouts := make([]map[string]interface{}, 0, len(rows))
	var total float64
	for i := range rows {
		row := &rows[i]

		rep, ok := repCache[row.RepID]
		if !ok {
			var err error
			rep, err = ac.reps.FindByID(ctx, row.RepID)
			if err != nil {
				ac.logger.Printf("Failed to load rep %s for payout queue: %v", row.RepID.Hex(), err)
			}
			repCache[row.RepID] = rep
		}
		deal, ok := dealCache[row.DealID]
		if !ok {
			var err error
			deal, err = ac.deals.FindByID(ctx, row.DealID)
			if err != nil {
				ac.logger.Printf("Failed to load deal %s for payout queue: %v", row.DealID.Hex(), err)
			}
			dealCache[row.DealID] = deal
		}

		entry := map[string]interface{}{
			"commission": row,
		}
		if rep != nil {
			entry["rep"] = map[string]interface{}{
				"id":   rep.ID,
				"name": rep.Name,
				"tier": rep.Tier,
			}
		}
		if deal != nil {
			entry["deal"] = map[string]interface{}{
				"id":        deal.ID,
				"homeowner": deal.HomeownerName,
				"status":    deal.Status,
			}
		}
		total += row.Amount
		payouts = append(payouts, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending payouts retrieved successfully",
		Data: map[string]interface{}{
			"payouts": payouts,
			"count":   len(payouts),
			"total":   total,
		},
	})
}
