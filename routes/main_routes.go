package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/controllers"
	"github.com/rooftrack/rooftrack_backend/websocket"
)

// SetupRoutes wires every route group onto the Echo instance. The hub must
// already be running; controllers push deal events through it.
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	authController := controllers.NewAuthController(db)

	RegisterAuthRoutes(e, db, authController)
	RegisterDealRoutes(e, db, hub)
	RegisterPinRoutes(e, db, hub)
	RegisterRepRoutes(e, db, hub)
	RegisterCommissionRoutes(e, db)
	RegisterNotificationRoutes(e, db)
	RegisterAdminRoutes(e, db)
	RegisterWebSocketRoutes(e, db, hub)
}
