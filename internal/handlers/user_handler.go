package handlers

import (
	"errors"
	"net/http"

	"sahayak/internal/middleware"
	"sahayak/internal/models"
	"sahayak/internal/services"
	"sahayak/internal/utils"
	"sahayak/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	userService         services.UserService
	notificationService services.NotificationService
	logger              *logger.Logger
}

func NewUserHandler(userService services.UserService, notificationService services.NotificationService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService:         userService,
		notificationService: notificationService,
		logger:              log,
	}
}

// GetProfile returns {userId, name, location} for the caller.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to load profile")
		utils.InternalServerErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to list notifications")
		utils.InternalServerErrorResponse(c)
		return
	}
	if notifications == nil {
		notifications = []*models.NotificationView{}
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "notification")
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			utils.NotFoundResponse(c, "notification")
			return
		}
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to mark notification read")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.AckResponse(c)
}
