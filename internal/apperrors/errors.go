package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrOverpayment indicates a payment larger than the loan's outstanding interest plus principal.
var ErrOverpayment = errors.New("payment exceeds outstanding balance")

// ErrStorage indicates a failure talking to the blob store.
var ErrStorage = errors.New("blob storage error")

// ErrPersistence indicates a failure in the relational store.
var ErrPersistence = errors.New("persistence error")

// ErrConflict indicates a concurrent modification lost a compare-and-write race.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrPartialAccrual indicates that one or more loans failed during an accrual run.
var ErrPartialAccrual = errors.New("accrual failed for one or more loans")

// AppError carries an HTTP-ish status code and a user facing message next to
// the kind sentinel and the underlying cause.
type AppError struct {
	Code    int
	Message string
	Kind    error
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewAppError builds an AppError whose kind is inferred from the status code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Kind: kindForCode(code), Err: err}
}

// NewNotFoundError returns an AppError of kind ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Kind: ErrNotFound}
}

// NewValidationError returns an AppError of kind ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message, Kind: ErrValidation}
}

// NewOverpaymentError returns an AppError of kind ErrOverpayment.
func NewOverpaymentError(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: message, Kind: ErrOverpayment}
}

// NewStorageError wraps a blob store failure.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Code: http.StatusBadGateway, Message: message, Kind: ErrStorage, Err: err}
}

// NewPersistenceError wraps a relational store failure.
func NewPersistenceError(message string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Kind: ErrPersistence, Err: err}
}

// NewConflictError returns an AppError of kind ErrConflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message, Kind: ErrConflict}
}

func kindForCode(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnprocessableEntity:
		return ErrOverpayment
	case http.StatusBadGateway:
		return ErrStorage
	default:
		return ErrPersistence
	}
}

// HTTPStatus maps any error to the status code the API layer should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOverpayment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch HTTPStatus(err) {
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Resource already exists or was modified concurrently"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusBadRequest:
		return err.Error()
	default:
		return "Internal server error"
	}
}
