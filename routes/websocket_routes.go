package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/utils"
	"github.com/rooftrack/rooftrack_backend/websocket"
)

// RegisterWebSocketRoutes sets up the live deal event socket. The route stays
// outside the JWT group: browsers cannot attach an Authorization header to
// the upgrade request, so the handler accepts unauthenticated connections and
// upgrades them once the client sends its AUTH message.
func RegisterWebSocketRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	e.GET("/api/ws", func(c echo.Context) error {
		userID := primitive.NilObjectID
		if resp, err := utils.ValidateTokenFromHeader(c.Request().Header.Get("Authorization"), db); err == nil && resp.Valid && resp.User != nil {
			userID = resp.User.ID
		}
		return websocket.HandleWebSocket(c, hub, userID)
	})
}
