package observability

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// InitSentry configures the Sentry client. An empty DSN disables reporting.
// The returned function flushes pending events.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Reportable returns false for errors that are part of normal use: bad
// input, roster rules, expired sessions, missing entities and cancellation.
func Reportable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case shared.IsValidation(err), shared.IsPolicyViolation(err),
		shared.IsSessionExpired(err), shared.IsNotFound(err):
		return false
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrForbidden),
		errors.Is(err, shared.ErrInvalidCredentials):
		return false
	}
	return true
}

// CaptureErr sends err to Sentry when it is Reportable.
func CaptureErr(err error, command string) {
	if !Reportable(err) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		sentry.CaptureException(err)
	})
}
