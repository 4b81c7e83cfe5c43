package service

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxReasonLength = 1000

var (
	ErrRejectionReasonRequired = errors.New("a reason is required for this action")
	ErrReasonTooLong           = errors.New("reason must be at most 1000 characters")
)

// ReasonInput is the single validator every reason-bearing transition goes
// through: application and product rejection, user suspension and bans.
type ReasonInput struct {
	Raw      string
	Required bool
}

// Normalize trims the reason and enforces presence and length.
func (r ReasonInput) Normalize() (string, error) {
	reason := strings.TrimSpace(r.Raw)
	if reason == "" {
		if r.Required {
			return "", ErrRejectionReasonRequired
		}
		return "", nil
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return "", ErrReasonTooLong
	}
	return reason, nil
}
