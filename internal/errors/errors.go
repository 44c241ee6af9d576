package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application failure independently of its message.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindEmailConflict
	KindSocialAlreadyLinked
	KindInvalidProviderType
	KindSocialAPIFailure
	KindUnauthorized
	KindNotFound
)

// AppError is a typed failure carrying the HTTP status and a stable machine-readable code.
type AppError struct {
	Kind       Kind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports kind equality so that wrapped or re-messaged errors still match the sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy of e that records cause for logging.
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.Err = cause
	return &cp
}

var (
	// ErrInvalidArgument is returned for malformed or missing input.
	ErrInvalidArgument = &AppError{Kind: KindInvalidArgument, StatusCode: http.StatusBadRequest, Code: "INVALID_ARGUMENT", Message: "invalid argument"}
	// ErrEmailConflict is returned when the email is already registered.
	ErrEmailConflict = &AppError{Kind: KindEmailConflict, StatusCode: http.StatusConflict, Code: "EMAIL_ALREADY_EXISTS", Message: "email already registered"}
	// ErrSocialAlreadyLinked is returned when a provider identity already belongs to a user.
	ErrSocialAlreadyLinked = &AppError{Kind: KindSocialAlreadyLinked, StatusCode: http.StatusConflict, Code: "SOCIAL_ACCOUNT_ALREADY_LINKED", Message: "social account already linked"}
	// ErrInvalidProviderType is returned for an unsupported social provider.
	ErrInvalidProviderType = &AppError{Kind: KindInvalidProviderType, StatusCode: http.StatusBadRequest, Code: "INVALID_PROVIDER_TYPE", Message: "unsupported provider type"}
	// ErrSocialAPIFailure is returned when the identity provider is unreachable or rejects the token.
	ErrSocialAPIFailure = &AppError{Kind: KindSocialAPIFailure, StatusCode: http.StatusInternalServerError, Code: "KAKAO_API_FAILED", Message: "kakao api request failed"}
	// ErrUnauthorized is returned for bad credentials or tokens.
	ErrUnauthorized = &AppError{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	// ErrNotFound is returned when the referenced user does not exist.
	ErrNotFound = &AppError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	// ErrInternal is the generic failure exposed for anything unexpected.
	ErrInternal = &AppError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "internal server error"}
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything that is not an AppError, and any
// internal AppError, is reported with the generic internal message.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return NewHTTPError(ErrInternal.StatusCode, ErrInternal.Message, ErrInternal.Code)
	}
	return NewHTTPError(appErr.StatusCode, appErr.Message, appErr.Code)
}

// IsInternal reports whether err would be surfaced as a generic internal error.
func IsInternal(err error) bool {
	var appErr *AppError
	return !errors.As(err, &appErr) || appErr.Kind == KindInternal
}
