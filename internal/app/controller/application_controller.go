package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/internal/report"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

// ApplicationController serves the admin review surfaces for store owner applications.
type ApplicationController struct {
	applications service.ApplicationService
}

func NewApplicationController(applications service.ApplicationService) *ApplicationController {
	return &ApplicationController{applications: applications}
}

type DecisionRequest struct {
	Action       string `json:"action" binding:"required"`
	StoreOwnerID uint   `json:"storeOwnerId" binding:"required"`
	Reason       string `json:"reason"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// parseStatusFilter treats an empty value and "all" as no filter.
func parseStatusFilter(raw string) (model.VerificationStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", true
	}
	return model.ParseVerificationStatus(raw)
}

// List returns one page of applications
// GET /api/admin/store-owners?status=&q=&page=&page_size=
func (ctrl *ApplicationController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	status, ok := parseStatusFilter(c.Query("status"))
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status must be pending, approved, rejected or all")
		return
	}
	page, size := pageParams(c)

	result, err := ctrl.applications.List(c.Request.Context(), repository.ApplicationFilter{
		Status:   status,
		Query:    c.Query("q"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		log.Error("Failed to list store applications", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "application")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": result.Items,
		"total":        result.Total,
		"page":         result.Page,
		"page_size":    result.PageSize,
		"total_pages":  result.TotalPages,
	})
}

// Get returns one application with its transition history
// GET /api/admin/store-owners/:id
func (ctrl *ApplicationController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := ctrl.applications.GetWithHistory(id)
	if err != nil {
		respondApplicationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

// Decide applies an action to an application
// POST /api/admin/store-owners
func (ctrl *ApplicationController) Decide(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid decision request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "action and storeOwnerId are required")
		return
	}

	action, err := service.ParseApplicationAction(req.Action)
	if err != nil {
		respondApplicationError(c, err)
		return
	}
	ctrl.transition(c, req.StoreOwnerID, action, req.Reason)
}

// UpdateStatus sets the status of an application
// PATCH /api/admin/store-owners/:id
func (ctrl *ApplicationController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status is required")
		return
	}

	status, _ := model.ParseVerificationStatus(req.Status)
	action, err := service.ActionForStatus(status)
	if err != nil {
		respondApplicationError(c, err)
		return
	}
	ctrl.transition(c, id, action, req.Reason)
}

// both decision endpoints end here so the transition rule lives in one place
func (ctrl *ApplicationController) transition(c *gin.Context, id uint, action service.ApplicationAction, reason string) {
	log := middleware.GetLoggerFromContext(c)

	app, err := ctrl.applications.Transition(c.Request.Context(), id, action, reason, actorFromContext(c))
	if err != nil {
		log.Warn("Application transition failed", map[string]interface{}{
			"application_id": id,
			"action":         action,
			"error":          err.Error(),
		})
		respondApplicationError(c, err)
		return
	}

	message := "Store owner approved"
	if action == service.ActionReject {
		message = "Store owner rejected"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"application": app,
	})
}

// Export downloads applications as a spreadsheet
// GET /api/admin/store-owners/export?status=
func (ctrl *ApplicationController) Export(c *gin.Context) {
	status, ok := parseStatusFilter(c.Query("status"))
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status must be pending, approved, rejected or all")
		return
	}

	apps, err := ctrl.applications.ListAll(status)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "application")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(status, time.Now())+`"`)
	c.Status(http.StatusOK)
	if err := report.WriteApplications(c.Writer, apps); err != nil {
		logger.Error("Failed to write application export", err)
	}
}

// Mine returns the caller's own application
// GET /api/me/application
func (ctrl *ApplicationController) Mine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	email, _ := middleware.GetUserEmail(c)

	app, err := ctrl.applications.GetForUser(&model.User{ID: userID, Email: email})
	if err != nil {
		respondApplicationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"application": gin.H{
			"id":                  app.ID,
			"store_name":          app.StoreName,
			"verification_status": app.VerificationStatus,
			"rejection_reason":    app.RejectionReason,
			"submitted_at":        app.SubmittedAt,
			"reviewed_at":         app.ReviewedAt,
		},
	})
}

func respondApplicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		apperrors.NotFound(c, apperrors.ApplicationNotFound, "Store application not found")
	case errors.Is(err, service.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.ApplicationAlreadyDecided, "This application has already been decided")
	case errors.Is(err, service.ErrDuplicateApplication):
		apperrors.Conflict(c, apperrors.ApplicationDuplicate, "An application with this email already exists")
	case errors.Is(err, service.ErrRejectionReasonRequired):
		apperrors.BadRequest(c, apperrors.ValidationReason, "Please provide a reason")
	case errors.Is(err, service.ErrReasonTooLong):
		apperrors.BadRequest(c, apperrors.ValidationTooLong, "Reason must be at most 1000 characters")
	case errors.Is(err, service.ErrInvalidAction):
		apperrors.BadRequest(c, apperrors.ApplicationInvalidAction, "Action must be approve or reject")
	default:
		middleware.GetLoggerFromContext(c).Error("Store application request failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "application")
	}
}
