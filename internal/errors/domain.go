package errors

import (
	"context"
	stderrors "errors"
	"log"

	"github.com/gin-gonic/gin"
)

// Kind classifies a domain failure. Callers branch on the kind, never on the
// message text.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindPrecondition  Kind = "PRECONDITION"
	KindConflict      Kind = "CONFLICT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindUnavailable   Kind = "UNAVAILABLE"
)

// DomainError is a typed outcome returned by the services layer.
type DomainError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels (DomainErrors without message or cause) by kind,
// so errors.Is(err, ErrPrecondition) holds for every precondition failure.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels
var (
	ErrValidation    = &DomainError{Kind: KindValidation}
	ErrPrecondition  = &DomainError{Kind: KindPrecondition}
	ErrConflict      = &DomainError{Kind: KindConflict}
	ErrAuthorization = &DomainError{Kind: KindAuthorization}
	ErrNotFound      = &DomainError{Kind: KindNotFound}
	ErrUnavailable   = &DomainError{Kind: KindUnavailable}
)

func Validation(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

func Precondition(message string) *DomainError {
	return &DomainError{Kind: KindPrecondition, Message: message}
}

func ConflictError(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

func Authorization(message string) *DomainError {
	return &DomainError{Kind: KindAuthorization, Message: message}
}

func NotFoundError(message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: message}
}

// Unavailable wraps a collaborator failure (store timeout, driver error).
func Unavailable(message string, err error) *DomainError {
	return &DomainError{Kind: KindUnavailable, Message: message, Err: err}
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind, true
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return KindUnavailable, true
	}
	return "", false
}

// Respond writes the HTTP response for a services-layer error.
func Respond(c *gin.Context, err error) {
	kind, ok := KindOf(err)
	if !ok {
		log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		InternalError(c, "")
		return
	}

	message := err.Error()
	switch kind {
	case KindValidation:
		BadRequest(c, message)
	case KindPrecondition:
		PreconditionFailed(c, message)
	case KindConflict:
		Conflict(c, message)
	case KindAuthorization:
		Forbidden(c, message)
	case KindNotFound:
		NotFound(c, message)
	case KindUnavailable:
		log.Printf("collaborator unavailable on %s %s: %v", c.Request.Method, c.FullPath(), err)
		ServiceUnavailable(c, "")
	default:
		InternalError(c, "")
	}
}
