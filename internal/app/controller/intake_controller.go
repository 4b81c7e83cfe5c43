package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/intake"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

// IntakeController exposes the store verification wizard.
type IntakeController struct {
	intake service.IntakeService
}

func NewIntakeController(intakeService service.IntakeService) *IntakeController {
	return &IntakeController{intake: intakeService}
}

func draftView(d *intake.Draft) gin.H {
	return gin.H{
		"token":        d.Token,
		"current_step": d.CurrentStep(),
		"completed":    d.Completed,
		"steps":        intake.Steps,
		"ready":        d.Ready(),
		"form":         d.Form,
		"updated_at":   d.UpdatedAt,
	}
}

// CreateDraft starts a new wizard session
// POST /api/store-applications/drafts
func (ctrl *IntakeController) CreateDraft(c *gin.Context) {
	draft, err := ctrl.intake.StartDraft(c.Request.Context())
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": draftView(draft)})
}

// GetDraft resumes a wizard session
// GET /api/store-applications/drafts/:token
func (ctrl *IntakeController) GetDraft(c *gin.Context) {
	draft, err := ctrl.intake.GetDraft(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draftView(draft)})
}

// SaveStep merges step data into the draft and advances on success
// PUT /api/store-applications/drafts/:token/steps/:step
func (ctrl *IntakeController) SaveStep(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Could not read request body")
		return
	}

	draft, err := ctrl.intake.SaveStep(c.Request.Context(), c.Param("token"), intake.Step(c.Param("step")), data)
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draftView(draft)})
}

// SubmitDraft turns a completed draft into a pending application
// POST /api/store-applications/drafts/:token/submit
func (ctrl *IntakeController) SubmitDraft(c *gin.Context) {
	app, err := ctrl.intake.SubmitDraft(c.Request.Context(), c.Param("token"), requestMeta(c))
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Application submitted for review",
		"application": app,
	})
}

// Submit accepts the whole form in one request
// POST /api/store-applications
func (ctrl *IntakeController) Submit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var form intake.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		log.Warn("Invalid application body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Request body must be a JSON application form")
		return
	}

	app, err := ctrl.intake.SubmitForm(c.Request.Context(), &form, requestMeta(c))
	if err != nil {
		respondIntakeError(c, err)
		return
	}

	log.Info("Store application received", map[string]interface{}{
		"application_id": app.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Application submitted for review",
		"application": app,
	})
}

func respondIntakeError(c *gin.Context, err error) {
	var fields intake.FieldErrors
	switch {
	case errors.As(err, &fields):
		apperrors.RespondWithValidationError(c, fields)
	case errors.Is(err, intake.ErrDraftNotFound):
		apperrors.NotFound(c, apperrors.ApplicationDraftNotFound, "Draft not found or expired")
	case errors.Is(err, intake.ErrStepOutOfOrder):
		apperrors.Conflict(c, apperrors.ApplicationStepOutOfOrder, "Complete the previous steps first")
	case errors.Is(err, intake.ErrIncomplete):
		apperrors.BadRequest(c, apperrors.ApplicationIncomplete, "Every step must be completed before submitting")
	case errors.Is(err, intake.ErrUnknownStep), errors.Is(err, intake.ErrInvalidStepData):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	default:
		respondApplicationError(c, err)
	}
}
