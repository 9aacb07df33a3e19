package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/atom-referral-tracker/internal/repository"
)

// Kind classifies a service failure. Handlers map each kind to one HTTP
// status; the message is shown to the caller verbatim except for Internal.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	}
	return "internal"
}

// Error is a classified, caller-facing failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newError(KindValidation, format, args...) }
func Unauthorized(msg string) error                { return newError(KindUnauthorized, "%s", msg) }
func Forbidden(msg string) error                   { return newError(KindForbidden, "%s", msg) }
func NotFound(msg string) error                    { return newError(KindNotFound, "%s", msg) }
func Conflict(msg string) error                    { return newError(KindConflict, "%s", msg) }
func RateLimited(msg string) error                 { return newError(KindRateLimited, "%s", msg) }

// KindOf returns the kind of err; unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var notFoundSentinels = []error{
	repository.ErrReferrerNotFound,
	repository.ErrReferralCodeNotFound,
	repository.ErrClientNotFound,
	repository.ErrProjectNotFound,
	repository.ErrPaymentNotFound,
	repository.ErrChangeRequestNotFound,
}

// classify turns repository not-found sentinels into NotFound errors and
// wraps everything else with op for the logs.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, s := range notFoundSentinels {
		if errors.Is(err, s) {
			return NotFound(s.Error())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
