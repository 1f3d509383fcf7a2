package websocket

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rooftrack/rooftrack_backend/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket handles the WebSocket connection. Browser clients cannot
// set an Authorization header on the upgrade request, so connections may
// start unauthenticated and send "AUTH:<jwt>" as their first message.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != primitive.NilObjectID,
	}

	hub.register <- client

	// Send a welcome message
	if client.Authenticated {
		conn.WriteJSON(Notification{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})
	} else {
		conn.WriteJSON(Notification{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive deal updates.",
			RequiresAuth: true,
		})
	}

	// Handle disconnection
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			// Handle authentication message
			if messageType == websocket.TextMessage {
				messageStr := string(message)
				if strings.HasPrefix(messageStr, "AUTH:") {
					token := strings.TrimPrefix(messageStr, "AUTH:")
					authUserID, err := validateWSToken(token)
					if err != nil {
						conn.WriteJSON(Notification{
							Type:         "auth_response",
							Message:      "Authentication failed",
							RequiresAuth: true,
						})
						continue
					}

					hub.AuthenticateClient(client, authUserID)
					conn.WriteJSON(Notification{
						Type:    "auth_response",
						Message: "Authenticated",
						UserID:  authUserID.Hex(),
					})
					continue
				}
			}
		}
	}()

	return nil
}

// validateWSToken checks an access token sent over the socket and returns the
// user it belongs to.
func validateWSToken(tokenString string) (primitive.ObjectID, error) {
	if middleware.IsTokenBlacklisted(tokenString) {
		return primitive.NilObjectID, jwt.ErrSignatureInvalid
	}

	claims := &middleware.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, jwt.ErrSignatureInvalid
	}

	return primitive.ObjectIDFromHex(claims.UserID)
}
