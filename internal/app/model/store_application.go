package model

import (
	"strings"
	"time"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusApproved, VerificationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s VerificationStatus) Terminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

// ParseVerificationStatus accepts any casing and surrounding spaces.
func ParseVerificationStatus(raw string) (VerificationStatus, bool) {
	s := VerificationStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

type StoreType string

const (
	StoreTypeGeneral StoreType = "general"
	StoreTypeFruits  StoreType = "fruits"
	StoreTypeSpices  StoreType = "spices"
	StoreTypeMeat    StoreType = "meat"
)

func (t StoreType) Valid() bool {
	switch t {
	case StoreTypeGeneral, StoreTypeFruits, StoreTypeSpices, StoreTypeMeat:
		return true
	}
	return false
}

type IDType string

const (
	IDTypeNationalID     IDType = "national_id"
	IDTypePassport       IDType = "passport"
	IDTypeDriversLicense IDType = "drivers_license"
)

func (t IDType) Valid() bool {
	switch t {
	case IDTypeNationalID, IDTypePassport, IDTypeDriversLicense:
		return true
	}
	return false
}

type DocumentKind string

const (
	DocumentIDFront             DocumentKind = "id_front"
	DocumentIDBack              DocumentKind = "id_back"
	DocumentSelfieWithID        DocumentKind = "selfie_with_id"
	DocumentBusinessCertificate DocumentKind = "business_certificate"
	DocumentUtilityBill         DocumentKind = "utility_bill"
	DocumentBankStatement       DocumentKind = "bank_statement"
)

// DocumentKinds lists every kind an applicant may upload.
var DocumentKinds = []DocumentKind{
	DocumentIDFront,
	DocumentIDBack,
	DocumentSelfieWithID,
	DocumentBusinessCertificate,
	DocumentUtilityBill,
	DocumentBankStatement,
}

func (k DocumentKind) Valid() bool {
	for _, known := range DocumentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// StoreApplication is a prospective store owner's onboarding record.
// VerificationStatus moves only pending->approved or pending->rejected.
type StoreApplication struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    *uint  `gorm:"index" json:"user_id,omitempty"`
	OwnerName string `gorm:"type:varchar(120);not null" json:"owner_name"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"type:varchar(32);not null" json:"phone"`

	StoreName   string    `gorm:"type:varchar(160);not null" json:"store_name"`
	StoreType   StoreType `gorm:"type:varchar(20);not null" json:"store_type"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:varchar(255);not null" json:"location"`

	BusinessRegistrationNumber string `gorm:"type:varchar(64);not null" json:"business_registration_number"`
	TaxID                      string `gorm:"type:varchar(64);not null" json:"tax_id"`
	IDType                     IDType `gorm:"type:varchar(20);not null" json:"id_type"`
	IDNumber                   string `gorm:"type:varchar(64);not null" json:"id_number"`

	IDFrontURL             string `gorm:"type:text;not null" json:"id_front_url"`
	IDBackURL              string `gorm:"type:text;not null" json:"id_back_url"`
	SelfieWithIDURL        string `gorm:"type:text;not null" json:"selfie_with_id_url"`
	BusinessCertificateURL string `gorm:"type:text;not null" json:"business_certificate_url"`
	UtilityBillURL         string `gorm:"type:text;not null" json:"utility_bill_url"`
	BankStatementURL       string `gorm:"type:text" json:"bank_statement_url,omitempty"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"verification_status"`
	RejectionReason    string             `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy         *uint              `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`

	TermsAcceptedAt time.Time `json:"terms_accepted_at"`
	SubmittedAt     time.Time `json:"submitted_at"`
	IPAddress       string    `gorm:"type:varchar(45)" json:"-"`
	UserAgent       string    `gorm:"type:text" json:"-"`

	Transitions []ApplicationTransition `gorm:"foreignKey:ApplicationID" json:"transitions,omitempty"`
}

func (StoreApplication) TableName() string {
	return "store_applications"
}

// Documents returns the uploaded document URLs keyed by kind, skipping empty ones.
func (a *StoreApplication) Documents() map[DocumentKind]string {
	docs := map[DocumentKind]string{
		DocumentIDFront:             a.IDFrontURL,
		DocumentIDBack:              a.IDBackURL,
		DocumentSelfieWithID:        a.SelfieWithIDURL,
		DocumentBusinessCertificate: a.BusinessCertificateURL,
		DocumentUtilityBill:         a.UtilityBillURL,
		DocumentBankStatement:       a.BankStatementURL,
	}
	for k, v := range docs {
		if v == "" {
			delete(docs, k)
		}
	}
	return docs
}
