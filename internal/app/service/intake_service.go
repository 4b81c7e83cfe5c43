package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/intake"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/util"
)

// IntakeService drives the verification wizard on top of a draft store and
// hands completed drafts to the application service.
type IntakeService interface {
	StartDraft(ctx context.Context) (*intake.Draft, error)
	GetDraft(ctx context.Context, token string) (*intake.Draft, error)
	SaveStep(ctx context.Context, token string, step intake.Step, data json.RawMessage) (*intake.Draft, error)
	SubmitDraft(ctx context.Context, token string, meta RequestMeta) (*model.StoreApplication, error)
	SubmitForm(ctx context.Context, form *intake.Form, meta RequestMeta) (*model.StoreApplication, error)
}

type intakeService struct {
	wizard       *intake.Wizard
	drafts       intake.DraftStore
	applications ApplicationService
}

func NewIntakeService(wizard *intake.Wizard, drafts intake.DraftStore, applications ApplicationService) IntakeService {
	return &intakeService{wizard: wizard, drafts: drafts, applications: applications}
}

func (s *intakeService) StartDraft(ctx context.Context) (*intake.Draft, error) {
	token, err := util.GenerateToken(24)
	if err != nil {
		return nil, err
	}
	draft := intake.NewDraft(token)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	logger.Debug("Application draft started")
	return draft, nil
}

func (s *intakeService) GetDraft(ctx context.Context, token string) (*intake.Draft, error) {
	return s.drafts.Load(ctx, token)
}

// SaveStep keeps the submitted data even when validation fails so the
// applicant does not lose it; only the step pointer waits for valid input.
func (s *intakeService) SaveStep(ctx context.Context, token string, step intake.Step, data json.RawMessage) (*intake.Draft, error) {
	draft, err := s.drafts.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.wizard.Apply(draft, step, data); err != nil {
		return draft, err
	}

	advanceErr := s.wizard.Advance(draft, step)
	if errors.Is(advanceErr, intake.ErrStepOutOfOrder) || errors.Is(advanceErr, intake.ErrUnknownStep) {
		return draft, advanceErr
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, advanceErr
}

func (s *intakeService) SubmitDraft(ctx context.Context, token string, meta RequestMeta) (*model.StoreApplication, error) {
	draft, err := s.drafts.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	app, err := s.wizard.Submit(draft)
	if err != nil {
		return nil, err
	}

	created, err := s.applications.Submit(ctx, app, meta)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, token); err != nil {
		logger.Warn("Failed to delete submitted draft", map[string]interface{}{
			"application_id": created.ID,
			"error":          err.Error(),
		})
	}
	return created, nil
}

func (s *intakeService) SubmitForm(ctx context.Context, form *intake.Form, meta RequestMeta) (*model.StoreApplication, error) {
	app, err := s.wizard.Package(form)
	if err != nil {
		return nil, err
	}
	return s.applications.Submit(ctx, app, meta)
}
