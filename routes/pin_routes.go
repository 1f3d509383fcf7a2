package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/websocket"
)

// RegisterPinRoutes sets up the door-knocking map routes, all JWT-protected.
func RegisterPinRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	pinController := controllers.NewPinController(db, hub)
	uploadController := controllers.NewUploadController(db, hub)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	r.POST("/pins", pinController.CreatePin)
	r.GET("/pins", pinController.GetPins)
	r.GET("/pins/map", pinController.GetMapPins)
	r.GET("/pins/:id", pinController.GetPin)
	r.PUT("/pins/:id", pinController.UpdatePin)
	r.DELETE("/pins/:id", pinController.DeletePin)
	r.PUT("/pins/:id/assign-closer", pinController.AssignCloser)
	r.POST("/pins/:id/convert", pinController.ConvertPin)
	r.POST("/pins/:id/photos", uploadController.UploadPinPhotos)
}
