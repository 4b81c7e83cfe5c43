package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

type NotificationController struct {
	service service.NotificationService
}

func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{service: service}
}

// List GET /api/notifications?is_read=
func (ctrl *NotificationController) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var isRead *bool
	if raw := c.Query("is_read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "is_read must be true or false")
			return
		}
		isRead = &v
	}
	page, size := pageParams(c)

	items, total, unread, err := ctrl.service.List(userID, isRead, page, size)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"total":         total,
		"unread_count":  unread,
		"page":          page,
		"page_size":     size,
	})
}

// UnreadCount GET /api/notifications/unread-count
func (ctrl *NotificationController) UnreadCount(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	count, err := ctrl.service.UnreadCount(userID)
	if err != nil {
		apperrors.InternalError(c, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkAsRead PATCH /api/notifications/:id/read
func (ctrl *NotificationController) MarkAsRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.MarkAsRead(id, userID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Notification not found")
			return
		}
		apperrors.InternalError(c, "Failed to update notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead PATCH /api/notifications/read-all
func (ctrl *NotificationController) MarkAllAsRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	if err := ctrl.service.MarkAllAsRead(userID); err != nil {
		apperrors.InternalError(c, "Failed to update notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
