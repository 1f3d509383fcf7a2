// controllers/auth_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/config"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/services"
	"github.com/rooftrack/rooftrack_backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts   = 5
	loginLockoutWindow = 30 * time.Minute
)

// loginAttempt tracks failed password attempts per email for lockout.
type loginAttempt struct {
	count       int
	lastAttempt time.Time
}

// AuthController handles login, token management and password recovery.
// Accounts are provisioned by admins or linked on first Google sign-in; there
// is no open signup.
type AuthController struct {
	DB       *mongo.Client
	users    *repositories.UserRepository
	reps     *repositories.RepRepository
	identity *services.IdentityService
	logger   *log.Logger

	loginAttemptsMu sync.RWMutex
	loginAttempts   map[string]loginAttempt
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	ac := &AuthController{
		DB:            db,
		users:         repositories.NewUserRepository(db),
		reps:          repositories.NewRepRepository(db),
		identity:      services.NewIdentityService(db),
		logger:        log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		loginAttempts: make(map[string]loginAttempt),
	}
	go ac.sweepLoginAttempts()
	return ac
}

// sweepLoginAttempts drops lockout entries past their window so the map does
// not grow forever.
func (ac *AuthController) sweepLoginAttempts() {
	ticker := time.NewTicker(time.Hour)
	for range ticker.C {
		ac.loginAttemptsMu.Lock()
		for id, attempt := range ac.loginAttempts {
			if time.Since(attempt.lastAttempt) > loginLockoutWindow {
				delete(ac.loginAttempts, id)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}

func (ac *AuthController) recordFailedLogin(email string) {
	ac.loginAttemptsMu.Lock()
	attempt := ac.loginAttempts[email]
	attempt.count++
	attempt.lastAttempt = time.Now()
	ac.loginAttempts[email] = attempt
	ac.loginAttemptsMu.Unlock()
}

// linkedRep loads the rep profile for a user, nil when there is none.
func (ac *AuthController) linkedRep(ctx context.Context, user *models.User) *models.Rep {
	if user.RepID == nil {
		return nil
	}
	rep, err := ac.reps.FindByID(ctx, *user.RepID)
	if err != nil {
		return nil
	}
	return rep
}

// storeRememberMe parks encrypted credentials in Redis for 30 days. Returns
// "" when Redis is unavailable; login proceeds without the convenience token.
func (ac *AuthController) storeRememberMe(user *models.User, rep *models.Rep, deviceInfo string) string {
	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return ""
	}
	token, err := utils.GenerateRememberMeToken()
	if err != nil {
		return ""
	}

	repID := ""
	if rep != nil {
		repID = rep.ID.Hex()
	}
	credentials := utils.RememberedCredentials{
		Email:      user.Email,
		Phone:      user.Phone,
		RepID:      repID,
		UserID:     user.ID.Hex(),
		ExpiresAt:  time.Now().AddDate(0, 1, 0),
		DeviceInfo: deviceInfo,
	}
	if err := utils.StoreRememberedCredentials(redisClient, token, credentials, 30*24*time.Hour); err != nil {
		ac.logger.Printf("Failed to store remember me credentials: %v", err)
		return ""
	}
	return token
}

// Login authenticates with email and password. Google-linked accounts without
// a password are pointed at the Google flow instead of surfacing a bcrypt
// mismatch.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
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

	ac.loginAttemptsMu.RLock()
	attempt, seen := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()
	if seen && attempt.count >= maxLoginAttempts && time.Since(attempt.lastAttempt) < loginLockoutWindow {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	if user.Password == "" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "This account signs in with Google",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		ac.recordFailedLogin(email)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, email)
	ac.loginAttemptsMu.Unlock()

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}

	rep := ac.linkedRep(ctx, user)
	repID := ""
	if rep != nil {
		repID = rep.ID.Hex()
	}

	accessToken, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Groups, repID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	// Record the sign-in; never fail the login over it.
	set := bson.M{"lastActivityAt": time.Now(), "updatedAt": time.Now()}
	if req.FCMToken != "" {
		set["fcmToken"] = req.FCMToken
	}
	users := config.GetCollection(ac.DB, "users")
	if _, err := users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		ac.logger.Printf("Failed to record sign-in for %s: %v", user.Email, err)
	}

	user.Password = ""
	user.OTPInfo = nil

	responseData := map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	}
	if rep != nil {
		responseData["rep"] = rep
	}
	if req.RememberMe {
		if token := ac.storeRememberMe(user, rep, c.Request().UserAgent()); token != "" {
			responseData["rememberMeToken"] = token
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    responseData,
	})
}

// GoogleAuth signs a user in with a Google ID token. The first sign-in links
// a pre-provisioned rep profile by email; unknown emails get a crew account.
func (ac *AuthController) GoogleAuth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var req models.GoogleAuthRequest
	if err := c.Bind(&req); err != nil || req.TokenID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Google ID token is required",
		})
	}

	data, err := ac.identity.AuthenticateGoogle(ctx, req.TokenID, req.FCMToken)
	if err != nil {
		ac.logger.Printf("Google sign-in failed: %v", err)
		if strings.Contains(err.Error(), "deactivated") {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Account is deactivated",
			})
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Google sign-in failed",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    data,
	})
}

// Logout blacklists the current token until its natural expiry.
func (ac *AuthController) Logout(c echo.Context) error {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "No token found",
		})
	}
	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token claims",
		})
	}

	now := time.Now()
	tokenExpiry := now.Add(24 * time.Hour)
	if claims.ExpiresAt > 0 {
		tokenExpiry = time.Unix(claims.ExpiresAt, 0)
	}
	middleware.BlacklistToken(token.Raw, tokenExpiry)

	if objID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		users := config.GetCollection(ac.DB, "users")
		if _, err := users.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
			"lastActivityAt": now,
			"updatedAt":      now,
		}}); err != nil {
			ac.logger.Printf("Failed to record logout for %s: %v", claims.UserID, err)
		}
	}

	ac.logger.Printf("User logout - UserID: %s, Email: %s, IP: %s", claims.UserID, claims.Email, c.RealIP())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// RefreshToken issues a fresh token pair for a still-valid token.
func (ac *AuthController) RefreshToken(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")

	response, err := utils.ValidateTokenFromHeader(authHeader, ac.DB)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error validating token: " + err.Error(),
		})
	}
	if !response.Valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: response.Message,
		})
	}

	user := response.User
	repID := ""
	if user.RepID != nil {
		repID = user.RepID.Hex()
	}
	accessToken, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Groups, repID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate new tokens",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed successfully",
		Data: map[string]interface{}{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"user":         user,
		},
	})
}

// ValidateToken reports whether the presented token is still good. The
// frontend session check calls this on focus.
func (ac *AuthController) ValidateToken(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")

	response, err := utils.ValidateTokenFromHeader(authHeader, ac.DB)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error validating token: " + err.Error(),
		})
	}

	if !response.Valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: response.Message,
			Data: map[string]interface{}{
				"valid": response.Valid,
			},
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: response.Message,
		Data: map[string]interface{}{
			"valid":     response.Valid,
			"user":      response.User,
			"expiresAt": response.ExpiresAt,
		},
	})
}

// Me returns the authenticated account with its linked rep profile. The app
// calls it on startup to decide which home screen to show.
func (ac *AuthController) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	user, err := ac.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load account",
		})
	}
	user.Password = ""
	user.OTPInfo = nil

	data := map[string]interface{}{
		"user": user,
		"role": access.RoleFromGroups(user.Groups).String(),
	}
	if rep := ac.linkedRep(ctx, user); rep != nil {
		data["rep"] = rep
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account retrieved successfully",
		Data:    data,
	})
}

// GetRememberedCredentials retrieves stored credentials using a remember me
// token so the app can prefill the login form.
func (ac *AuthController) GetRememberedCredentials(c echo.Context) error {
	var req struct {
		RememberMeToken string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err != nil || req.RememberMeToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Remember me service unavailable",
		})
	}

	credentials, err := utils.RetrieveRememberedCredentials(redisClient, req.RememberMeToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Remembered credentials retrieved successfully",
		Data: map[string]interface{}{
			"email":  credentials.Email,
			"phone":  credentials.Phone,
			"repId":  credentials.RepID,
			"userId": credentials.UserID,
		},
	})
}

// RemoveRememberedCredentials drops stored credentials, e.g. on "forget this
// device".
func (ac *AuthController) RemoveRememberedCredentials(c echo.Context) error {
	var req struct {
		RememberMeToken string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err != nil || req.RememberMeToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Remember me service unavailable",
		})
	}

	if err := utils.RemoveRememberedCredentials(redisClient, req.RememberMeToken); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to remove remembered credentials",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Remembered credentials removed successfully",
	})
}

// ForgotPassword sends a reset code over SMS. The response never discloses
// whether the phone is registered.
func (ac *AuthController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number is required",
		})
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	users := config.GetCollection(ac.DB, "users")
	var user models.User
	if err := users.FindOne(ctx, bson.M{"phone": phone}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "If an account exists for this phone number, a reset code has been sent",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	if redisClient := config.GetRedisClient(); redisClient != nil {
		if err := utils.ValidateOTPAttempts(user.ID.Hex(), redisClient); err != nil {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many reset attempts. Please try again later.",
			})
		}
	}

	otp, err := utils.GenerateSecureOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate reset code",
		})
	}

	otpInfo := models.OTPInfo{OTP: otp, ExpiresAt: time.Now().Add(10 * time.Minute)}
	if _, err := users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"otpInfo":   otpInfo,
		"updatedAt": time.Now(),
	}}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store reset code",
		})
	}

	go func() {
		if err := utils.SendOTPViaSMSWithMessage(phone, otp, ""); err != nil {
			ac.logger.Printf("Failed to send reset code to %s: %v", phone, err)
		}
	}()

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "If an account exists for this phone number, a reset code has been sent",
	})
}

// ResetPassword verifies the SMS code and sets a new password. Bad phone and
// bad code get the same answer so the endpoint cannot probe phone numbers.
func (ac *AuthController) ResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.Phone == "" || req.OTP == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone, reset code and new password are required",
		})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters",
		})
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	users := config.GetCollection(ac.DB, "users")
	var user models.User
	if err := users.FindOne(ctx, bson.M{"phone": phone}).Decode(&user); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired reset code",
		})
	}

	if user.OTPInfo == nil || user.OTPInfo.OTP != req.OTP || time.Now().After(user.OTPInfo.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired reset code",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	if _, err := users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set":   bson.M{"password": string(hashed), "updatedAt": time.Now()},
		"$unset": bson.M{"otpInfo": ""},
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	ac.logger.Printf("Password reset completed for user %s", user.ID.Hex())
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully",
	})
}

// ChangePassword rotates the password of the authenticated account.
func (ac *AuthController) ChangePassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Current and new password are required",
		})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters",
		})
	}

	user, err := ac.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load account",
		})
	}

	if user.Password == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "This account signs in with Google and has no password",
		})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Current password is incorrect",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	users := config.GetCollection(ac.DB, "users")
	if _, err := users.UpdateOne(ctx, bson.M{"_id": caller.UserID}, bson.M{"$set": bson.M{
		"password":  string(hashed),
		"updatedAt": time.Now(),
	}}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password changed successfully",
	})
}

// SetFCMToken registers the device push token; an empty token clears it.
func (ac *AuthController) SetFCMToken(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req struct {
		FCMToken string `json:"fcmToken"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := ac.users.SetFCMToken(ctx, caller.UserID, req.FCMToken); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update device token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Device token updated",
	})
}
