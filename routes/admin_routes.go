package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
)

// RegisterAdminRoutes sets up the back-office routes. Login is public;
// everything else requires the admin role.
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Client) {
	adminController := controllers.NewAdminController(db)

	e.POST("/api/admin/login", adminController.AdminLogin)

	r := e.Group("/api/admin")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.RequireAdmin())
	r.GET("/dashboard", adminController.Dashboard)
	r.GET("/payouts", adminController.PendingPayouts)
}
