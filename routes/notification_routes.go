package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/middleware"
)

// RegisterNotificationRoutes sets up the in-app notification routes, all
// JWT-protected.
func RegisterNotificationRoutes(e *echo.Echo, db *mongo.Client) {
	notificationController := controllers.NewNotificationController(db)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	r.GET("/notifications", notificationController.ListNotifications)
	r.PUT("/notifications/read-all", notificationController.MarkAllNotificationsRead)
	r.PUT("/notifications/:id/read", notificationController.MarkNotificationRead)
}
