package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/grocerly/grocerly-backend/internal/app/model"
)

type Step string

const (
	StepBusinessInfo Step = "business_info"
	StepIdentityDocs Step = "identity_docs"
	StepBusinessDocs Step = "business_docs"
	StepTerms        Step = "terms"
	StepReview       Step = "review"
)

// Steps is the fixed order of the store verification flow.
var Steps = []Step{StepBusinessInfo, StepIdentityDocs, StepBusinessDocs, StepTerms, StepReview}

func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

var (
	ErrUnknownStep     = errors.New("unknown wizard step")
	ErrStepOutOfOrder  = errors.New("previous steps must be completed first")
	ErrIncomplete      = errors.New("every step must be completed before submitting")
	ErrInvalidStepData = errors.New("step data could not be decoded")
)

// FieldErrors maps a json field name to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type BusinessInfo struct {
	OwnerName                  string `json:"owner_name" validate:"required,notblank"`
	Email                      string `json:"email" validate:"required,email"`
	Phone                      string `json:"phone" validate:"required,notblank"`
	StoreName                  string `json:"store_name" validate:"required,notblank"`
	StoreType                  string `json:"store_type" validate:"required,oneof=general fruits spices meat"`
	Description                string `json:"description"`
	Location                   string `json:"location" validate:"required,notblank,incity"`
	BusinessRegistrationNumber string `json:"business_registration_number" validate:"required,notblank"`
	TaxID                      string `json:"tax_id" validate:"required,notblank"`
}

type IdentityDocs struct {
	IDType          string `json:"id_type" validate:"required,oneof=national_id passport drivers_license"`
	IDNumber        string `json:"id_number" validate:"required,notblank"`
	IDFrontURL      string `json:"id_front_url" validate:"required,notblank"`
	IDBackURL       string `json:"id_back_url" validate:"required,notblank"`
	SelfieWithIDURL string `json:"selfie_with_id_url" validate:"required,notblank"`
}

type BusinessDocs struct {
	BusinessCertificateURL string `json:"business_certificate_url" validate:"required,notblank"`
	UtilityBillURL         string `json:"utility_bill_url" validate:"required,notblank"`
	BankStatementURL       string `json:"bank_statement_url"`
}

type Terms struct {
	Accepted   bool       `json:"accepted" validate:"required"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// Form is the complete application as accumulated across the steps.
type Form struct {
	BusinessInfo BusinessInfo `json:"business_info"`
	IdentityDocs IdentityDocs `json:"identity_docs"`
	BusinessDocs BusinessDocs `json:"business_docs"`
	Terms        Terms        `json:"terms"`
}

// Wizard validates steps with presence checks only. Whitespace does not
// count as present. The one rule beyond presence is that the location must
// name the service city.
type Wizard struct {
	validate    *validator.Validate
	serviceCity string
}

func NewWizard(serviceCity string) *Wizard {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	w := &Wizard{validate: v, serviceCity: strings.ToLower(strings.TrimSpace(serviceCity))}
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("incity", func(fl validator.FieldLevel) bool {
		if w.serviceCity == "" {
			return true
		}
		return strings.Contains(strings.ToLower(fl.Field().String()), w.serviceCity)
	})
	return w
}

func (w *Wizard) ServiceCity() string {
	return w.serviceCity
}

// Apply merges raw step data into the draft without validating it.
func (w *Wizard) Apply(d *Draft, step Step, data json.RawMessage) error {
	var target interface{}
	switch step {
	case StepBusinessInfo:
		target = &d.Form.BusinessInfo
	case StepIdentityDocs:
		target = &d.Form.IdentityDocs
	case StepBusinessDocs:
		target = &d.Form.BusinessDocs
	case StepTerms:
		target = &d.Form.Terms
	case StepReview:
		return nil
	default:
		return ErrUnknownStep
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStepData, err)
	}
	return nil
}

// Advance validates the current step and, on success, unlocks the next one.
// Revisiting an earlier step is allowed; skipping ahead is not.
func (w *Wizard) Advance(d *Draft, step Step) error {
	idx := step.Index()
	if idx < 0 {
		return ErrUnknownStep
	}
	if idx > d.Completed {
		return ErrStepOutOfOrder
	}

	if fields := w.ValidateStep(&d.Form, step); len(fields) > 0 {
		return fields
	}

	if step == StepTerms && d.Form.Terms.AcceptedAt == nil {
		now := time.Now().UTC()
		d.Form.Terms.AcceptedAt = &now
	}
	if idx == d.Completed {
		d.Completed++
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateStep returns the missing or invalid fields of one step.
// The review step re-checks everything collected so far.
func (w *Wizard) ValidateStep(f *Form, step Step) FieldErrors {
	switch step {
	case StepBusinessInfo:
		return w.check(f.BusinessInfo)
	case StepIdentityDocs:
		return w.check(f.IdentityDocs)
	case StepBusinessDocs:
		return w.check(f.BusinessDocs)
	case StepTerms:
		return w.check(f.Terms)
	case StepReview:
		return w.ValidateForm(f)
	}
	return FieldErrors{"step": "unknown step"}
}

// ValidateForm checks every step of a complete form.
func (w *Wizard) ValidateForm(f *Form) FieldErrors {
	all := FieldErrors{}
	for _, part := range []struct {
		prefix string
		value  interface{}
	}{
		{string(StepBusinessInfo), f.BusinessInfo},
		{string(StepIdentityDocs), f.IdentityDocs},
		{string(StepBusinessDocs), f.BusinessDocs},
		{string(StepTerms), f.Terms},
	} {
		for field, msg := range w.check(part.value) {
			all[part.prefix+"."+field] = msg
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

func (w *Wizard) check(v interface{}) FieldErrors {
	err := w.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = w.message(fe)
	}
	return fields
}

func (w *Wizard) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return "must be accepted"
		}
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "incity":
		return fmt.Sprintf("must be within %s", w.serviceCity)
	}
	return "is invalid"
}

// Submit checks that the draft is complete and packages it as one application.
func (w *Wizard) Submit(d *Draft) (*model.StoreApplication, error) {
	if d.Completed < len(Steps) {
		return nil, ErrIncomplete
	}
	return w.Package(&d.Form)
}

// Package validates a full form and converts it to a pending application.
func (w *Wizard) Package(f *Form) (*model.StoreApplication, error) {
	if fields := w.ValidateForm(f); len(fields) > 0 {
		return nil, fields
	}

	now := time.Now().UTC()
	acceptedAt := now
	if f.Terms.AcceptedAt != nil {
		acceptedAt = *f.Terms.AcceptedAt
	}
	bi, id, bd := f.BusinessInfo, f.IdentityDocs, f.BusinessDocs

	return &model.StoreApplication{
		OwnerName:                  strings.TrimSpace(bi.OwnerName),
		Email:                      strings.ToLower(strings.TrimSpace(bi.Email)),
		Phone:                      strings.TrimSpace(bi.Phone),
		StoreName:                  strings.TrimSpace(bi.StoreName),
		StoreType:                  model.StoreType(bi.StoreType),
		Description:                strings.TrimSpace(bi.Description),
		Location:                   strings.TrimSpace(bi.Location),
		BusinessRegistrationNumber: strings.TrimSpace(bi.BusinessRegistrationNumber),
		TaxID:                      strings.TrimSpace(bi.TaxID),
		IDType:                     model.IDType(id.IDType),
		IDNumber:                   strings.TrimSpace(id.IDNumber),
		IDFrontURL:                 id.IDFrontURL,
		IDBackURL:                  id.IDBackURL,
		SelfieWithIDURL:            id.SelfieWithIDURL,
		BusinessCertificateURL:     bd.BusinessCertificateURL,
		UtilityBillURL:             bd.UtilityBillURL,
		BankStatementURL:           bd.BankStatementURL,
		VerificationStatus:         model.VerificationStatusPending,
		TermsAcceptedAt:            acceptedAt,
		SubmittedAt:                now,
	}, nil
}
