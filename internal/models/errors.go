package models

import (
	"errors"
	"fmt"

	"postchain/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// ledgerErrorStatus maps each ledger rejection code to its HTTP status.
var ledgerErrorStatus = map[string]int{
	"NOT_AUTHORIZED":  fiber.StatusForbidden,
	"POST_NOT_FOUND":  fiber.StatusNotFound,
	"INVALID_CONTENT": fiber.StatusBadRequest,
	"CONTRACT_PAUSED": fiber.StatusLocked,
	"ALREADY_LIKED":   fiber.StatusConflict,
	"NOT_LIKED":       fiber.StatusConflict,
}

// RespondWithError creates a standardized error response. Ledger rejections
// carry their own status; other errors use the supplied fallback status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var lerr *ledger.Error
	var appErr *AppError
	switch {
	case errors.As(err, &lerr):
		response = ErrorResponse{
			Error: lerr.Message,
			Code:  lerr.Code,
		}
		if s, ok := ledgerErrorStatus[lerr.Code]; ok {
			status = s
		}
	case errors.As(err, &appErr):
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	default:
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
