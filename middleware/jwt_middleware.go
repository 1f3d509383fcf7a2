// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/access"
	"github.com/rooftrack/rooftrack_backend/config"
)

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
	RepID  string   `json:"repId,omitempty"`
	jwt.StandardClaims
}

// Valid implements the Claims interface. ExpiresAt 0 is tolerated so tokens
// issued before expiry was enforced keep working.
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// Token blacklist for explicit logouts.
var (
	blacklistMu    sync.RWMutex
	tokenBlacklist = make(map[string]time.Time)
)

// CleanupBlacklist removes expired tokens from the blacklist. The scheduler
// runs it hourly.
func CleanupBlacklist() {
	now := time.Now()
	blacklistMu.Lock()
	for token, expiry := range tokenBlacklist {
		if now.After(expiry) {
			delete(tokenBlacklist, token)
		}
	}
	blacklistMu.Unlock()
}

// BlacklistToken adds a token to the blacklist until its natural expiry.
func BlacklistToken(token string, expiry time.Time) {
	blacklistMu.Lock()
	tokenBlacklist[token] = expiry
	blacklistMu.Unlock()
}

// IsTokenBlacklisted checks if a token has been invalidated by a logout.
func IsTokenBlacklisted(token string) bool {
	blacklistMu.RLock()
	_, exists := tokenBlacklist[token]
	blacklistMu.RUnlock()
	return exists
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			if IsTokenBlacklisted(user.Raw) {
				c.Error(echo.NewHTTPError(echo.ErrUnauthorized.Code, "Token has been invalidated"))
				return
			}
			claims := user.Claims.(*JwtCustomClaims)

			// Store claims in context for easy access
			c.Set("userId", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("groups", claims.Groups)
			c.Set("repId", claims.RepID)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateJWT generates an access and refresh token pair for a user.
func GenerateJWT(userID, email string, groups []string, repID string) (string, string, error) {
	now := time.Now()
	claims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Groups: groups,
		RepID:  repID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(24 * time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	refreshClaims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Groups: groups,
		RepID:  repID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(7 * 24 * time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", "", errors.New("JWT_SECRET environment variable is required")
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	refreshTokenString, err := refreshToken.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return tokenString, refreshTokenString, nil
}

// GetUserFromToken extracts user information from JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}
	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// CallerFromContext builds the per-request caller identity from the verified
// claims. The role is derived from group claims exactly once here; handlers
// and the access package take the Caller as-is and never look at raw groups
// again.
func CallerFromContext(c echo.Context) (access.Caller, error) {
	claims := GetUserFromToken(c)
	if claims == nil {
		return access.Caller{}, errors.New("no verified claims on request")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return access.Caller{}, errors.New("invalid user id in token")
	}
	caller := access.Caller{
		UserID: userID,
		Role:   access.RoleFromGroups(claims.Groups),
	}
	if claims.RepID != "" {
		repID, err := primitive.ObjectIDFromHex(claims.RepID)
		if err != nil {
			return access.Caller{}, errors.New("invalid rep id in token")
		}
		caller.RepID = repID
	}
	return caller, nil
}

// ActivityTracker middleware updates the user's last activity timestamp.
func ActivityTracker(db *mongo.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetUserFromToken(c)
			if claims == nil {
				return next(c)
			}
			objID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return next(c)
			}

			// Update in the background, never block the request on it.
			go func() {
				collection := config.GetCollection(db, "users")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				_, err := collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
					"lastActivityAt": time.Now(),
				}})
				if err != nil {
					log.Printf("Failed to update activity for user %s: %v", claims.UserID, err)
				}
			}()

			return next(c)
		}
	}
}
