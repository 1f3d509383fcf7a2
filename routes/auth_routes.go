package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
)

// RegisterAuthRoutes sets up the authentication routes. Sign-in and the
// password reset flow are public; everything touching the current session
// needs a live token.
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/google", authController.GoogleAuth)
	e.POST("/api/auth/refresh", authController.RefreshToken)
	e.GET("/api/auth/validate", authController.ValidateToken)
	e.POST("/api/auth/remember-me/get", authController.GetRememberedCredentials)
	e.POST("/api/auth/remember-me/remove", authController.RemoveRememberedCredentials)
	e.POST("/api/auth/forgot-password", authController.ForgotPassword)
	e.POST("/api/auth/reset-password", authController.ResetPassword)

	// Session routes
	r := e.Group("/api/auth")
	r.Use(middleware.JWTMiddleware())
	r.POST("/logout", authController.Logout)
	r.GET("/me", authController.Me)
	r.POST("/change-password", authController.ChangePassword)
	r.PUT("/fcm-token", authController.SetFCMToken)
}
