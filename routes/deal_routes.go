package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/websocket"
)

// RegisterDealRoutes sets up the deal lifecycle routes, all JWT-protected.
func RegisterDealRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	dealController := controllers.NewDealController(db, hub)
	commissionController := controllers.NewCommissionController(db)
	uploadController := controllers.NewUploadController(db, hub)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	// Core lifecycle
	r.POST("/deals", dealController.CreateDeal)
	r.GET("/deals", dealController.GetDeals)
	r.GET("/deals/progress", dealController.GetStatusCatalog)
	r.GET("/deals/:id", dealController.GetDeal)
	r.PUT("/deals/:id", dealController.UpdateDeal)
	r.DELETE("/deals/:id", dealController.DeleteDeal)
	r.POST("/deals/:id/advance", dealController.AdvanceDeal)
	r.PUT("/deals/:id/status", dealController.OverrideStatus)
	r.POST("/deals/:id/request-payment", dealController.RequestPayment)
	r.GET("/deals/:id/checks", dealController.GetDealChecks)
	r.GET("/deals/:id/qr", dealController.GetDealQR)

	// Commission rows hang off the deal they belong to
	r.GET("/deals/:id/commissions", commissionController.GetDealCommissions)
	r.POST("/deals/:id/commissions", commissionController.AddCommission)

	// Media
	r.POST("/deals/:id/photos", uploadController.UploadDealPhotos)
	r.POST("/deals/:id/video", uploadController.UploadDealVideo)
	r.POST("/deals/:id/documents", uploadController.UploadDealDocument)
	r.DELETE("/deals/:id/documents", uploadController.DeleteDealDocument)
}
