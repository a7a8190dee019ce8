package git

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// Base typed git errors enabling structured classification without string parsing upstream.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

type RateLimitError struct {
	Op, URL string
	Err     error
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("%s rate limited %s: %v", e.Op, e.URL, e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }

type NetworkTimeoutError struct {
	Op, URL string
	Err     error
}

func (e *NetworkTimeoutError) Error() string { return fmt.Sprintf("%s timed out %s: %v", e.Op, e.URL, e.Err) }
func (e *NetworkTimeoutError) Unwrap() error { return e.Err }

// typeRemoteError wraps clone/fetch failures into typed variants when possible.
func typeRemoteError(op, url string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return &UnsupportedProtocolError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return &RateLimitError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "timeout"):
		return &NetworkTimeoutError{Op: op, URL: url, Err: err}
	default:
		return err
	}
}

func isPermanentGitError(err error) bool {
	if err == nil {
		return false
	}
	if classified, ok := errors.AsClassified(err); ok {
		return !classified.CanRetry()
	}
	if stderrors.As(err, new(*AuthError)) || stderrors.As(err, new(*NotFoundError)) || stderrors.As(err, new(*UnsupportedProtocolError)) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no such remote") || strings.Contains(msg, "invalid reference") {
		return true
	}
	var nerr net.Error
	if stderrors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	builder := errors.GitError("git " + op + " failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url)

	switch {
	case stderrors.As(err, new(*AuthError)):
		builder.WithCategory(errors.CategoryAuth).UserAction()
	case stderrors.As(err, new(*NotFoundError)):
		builder.WithCategory(errors.CategoryNotFound).WithRetry(errors.RetryNever)
	case stderrors.As(err, new(*UnsupportedProtocolError)):
		builder.WithCategory(errors.CategoryConfig).WithRetry(errors.RetryNever)
	case stderrors.As(err, new(*RateLimitError)):
		builder.WithCategory(errors.CategoryNetwork).RateLimit()
	case stderrors.As(err, new(*NetworkTimeoutError)):
		builder.WithCategory(errors.CategoryNetwork).Retryable()
	}
	return builder.Build()
}
