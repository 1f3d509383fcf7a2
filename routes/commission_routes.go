package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
)

// RegisterCommissionRoutes sets up the commission routes, all JWT-protected.
// Deal-scoped listing and creation live with the deal routes.
func RegisterCommissionRoutes(e *echo.Echo, db *mongo.Client) {
	commissionController := controllers.NewCommissionController(db)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	r.GET("/commissions", commissionController.GetCommissions)
	r.GET("/commissions/earnings", commissionController.GetMyEarnings)
	r.POST("/commissions/calculate", commissionController.CalculateCommission)
	r.GET("/commissions/:id/preview", commissionController.PreviewCommission)
	r.PUT("/commissions/:id", commissionController.UpdateCommission)
	r.PUT("/commissions/:id/pay", commissionController.PayCommission)
	r.DELETE("/commissions/:id", commissionController.DeleteCommission)
}
