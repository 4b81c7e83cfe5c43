package errors

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a storage or infrastructure error into a code and a message
// that is safe to show to clients. resource names the entity involved ("application", "user").
func ParseError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(resource)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: notFoundCode(resource), Message: notFoundMessage(resource)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateKeyError(err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorInfo{Code: InternalExternalAPI, Message: "The request timed out. Please retry"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicateKeyError(pgErr.ConstraintName + " " + pgErr.Detail)
		case pgForeignKeyViolation:
			return ErrorInfo{Code: ResourceConflict, Message: "The record references data that does not exist or is still in use"}
		case pgNotNullViolation:
			return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing: " + pgErr.ColumnName}
		case pgCheckViolation:
			return ErrorInfo{Code: ValidationInvalidInput, Message: "A field holds a value outside its allowed range"}
		}
		return ErrorInfo{Code: InternalDatabaseError, Message: defaultMessage(resource)}
	}

	// sqlite reports constraint failures only as text
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate key") {
		return duplicateKeyError(lower)
	}

	if strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "i/o timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unreachable. Please retry in a moment",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(resource)}
}

func duplicateKeyError(detail string) ErrorInfo {
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "store_applications") && strings.Contains(lower, "email"):
		return ErrorInfo{Code: ApplicationDuplicate, Message: "An application already exists for this email"}
	case strings.Contains(lower, "slug"):
		return ErrorInfo{Code: StoreSlugExists, Message: "A store with this name already exists"}
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func notFoundCode(resource string) string {
	switch strings.ToLower(resource) {
	case "application":
		return ApplicationNotFound
	case "store":
		return StoreNotFound
	case "product":
		return ProductNotFound
	case "user":
		return UserNotFound
	}
	return ResourceNotFound
}

func notFoundMessage(resource string) string {
	if resource == "" {
		return "The requested record was not found"
	}
	return "The requested " + strings.ToLower(resource) + " was not found"
}

func defaultMessage(resource string) string {
	if resource == "" {
		return "Something went wrong on our side. Please try again shortly"
	}
	return "Could not process the " + strings.ToLower(resource) + ". Please try again shortly"
}

// ParseAndRespond parses err and writes it with the given status.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, resource string) {
	info := ParseError(err, resource)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
