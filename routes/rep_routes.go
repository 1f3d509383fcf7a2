package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/websocket"
)

// RegisterRepRoutes sets up the sales rep management routes, all
// JWT-protected. Creation, tier changes and deactivation are admin-gated in
// the controller.
func RegisterRepRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	repController := controllers.NewRepController(db)
	uploadController := controllers.NewUploadController(db, hub)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	r.POST("/reps", repController.CreateRep)
	r.GET("/reps", repController.GetReps)
	r.GET("/reps/me", repController.GetMyProfile)
	r.GET("/reps/:id", repController.GetRep)
	r.PUT("/reps/:id", repController.UpdateRep)
	r.PUT("/reps/:id/deactivate", repController.DeactivateRep)
	r.POST("/reps/:id/reset-access", repController.ResetRepAccess)
	r.POST("/reps/:id/photo", uploadController.UploadRepPhoto)
}
