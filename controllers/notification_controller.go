package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rooftrack/rooftrack_backend/apperrors"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultNotificationLimit = 50

// NotificationController serves the in-app notification screen. Rows are
// written by utils.SaveNotification when deals advance or commissions get
// paid; this controller only lists and flags them.
type NotificationController struct {
	db            *mongo.Client
	notifications *repositories.NotificationRepository
	logger        *log.Logger
}

func NewNotificationController(db *mongo.Client) *NotificationController {
	return &NotificationController{
		db:            db,
		notifications: repositories.NewNotificationRepository(db),
		logger:        log.New(os.Stdout, "[NOTIFICATION] ", log.LstdFlags),
	}
}

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true narrows to unread rows; ?limit caps the page (default 50).
func (nc *NotificationController) ListNotifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	unreadOnly := c.QueryParam("unread") == "true"
	limit := int64(defaultNotificationLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || parsed < 1 || parsed > 200 {
			return utils.RespondError(c, apperrors.Validation("limit"))
		}
		limit = parsed
	}

	notifications, err := nc.notifications.ListForUser(ctx, caller.UserID, unreadOnly, limit)
	if err != nil {
		nc.logger.Printf("Failed to list notifications for %s: %v", caller.UserID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notifications",
		})
	}

	unreadCount, err := nc.notifications.UnreadCount(ctx, caller.UserID)
	if err != nil {
		nc.logger.Printf("Failed to count unread notifications for %s: %v", caller.UserID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notifications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data: map[string]interface{}{
			"notifications": notifications,
			"unreadCount":   unreadCount,
		},
	})
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (nc *NotificationController) MarkNotificationRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return utils.RespondError(c, apperrors.Validation("id"))
	}

	matched, err := nc.notifications.MarkRead(ctx, id, caller.UserID)
	if err != nil {
		nc.logger.Printf("Failed to mark notification %s read: %v", id.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notification",
		})
	}
	if !matched {
		return utils.RespondError(c, apperrors.NotFoundf("notification %s not found", id.Hex()))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// MarkAllNotificationsRead flags every unread notification for the caller.
func (nc *NotificationController) MarkAllNotificationsRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := middleware.CallerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	updated, err := nc.notifications.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		nc.logger.Printf("Failed to mark notifications read for %s: %v", caller.UserID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notifications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
		Data: map[string]interface{}{
			"updated": updated,
		},
	})
}
