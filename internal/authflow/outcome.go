package authflow

import (
	"errors"
	"fmt"
	"net/url"
)

// FailureReason classifies an unsuccessful attempt.
type FailureReason int

const (
	// ReasonUserCancelledOrDenied covers the user cancelling and any error raised by the surface.  Integrated sessions
	// report both through the same channel so they are not told apart here.
	ReasonUserCancelledOrDenied FailureReason = iota + 1
	ReasonSupersededOrCancelled
	ReasonEnvironmentError
)

func (r FailureReason) String() string {
	switch r {
	case ReasonUserCancelledOrDenied:
		return "user_cancelled_or_denied"
	case ReasonSupersededOrCancelled:
		return "superseded_or_cancelled"
	case ReasonEnvironmentError:
		return "environment_error"
	default:
		return "unknown"
	}
}

// Failure is the caller visible description of an unsuccessful attempt.
type Failure struct {
	Reason FailureReason
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Reason.String()
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome of a terminated session.  Exactly one of CallbackURL and Failure is set.
type Result struct {
	CallbackURL *url.URL
	Failure     *Failure
}

func (r Result) Succeeded() bool {
	return r.Failure == nil && r.CallbackURL != nil
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Report maps a terminated session onto the caller visible result.
func Report(s Session) (Result, error) {
	switch s.Status {
	case StatusCompleted:
		if s.Err == nil && s.CallbackURL != nil {
			return Result{CallbackURL: s.CallbackURL}, nil
		}
		return failure(ReasonUserCancelledOrDenied, s.Err), nil
	case StatusCancelled:
		cause := s.Err
		if cause == nil {
			cause = ErrSessionCancelled
		}
		return failure(ReasonSupersededOrCancelled, cause), nil
	case StatusFailed:
		return failure(ReasonEnvironmentError, s.Err), nil
	default:
		return Result{}, fmt.Errorf("session %d is %s: %w", s.ID, s.Status, ErrSessionNotTerminal)
	}
}

func failure(reason FailureReason, err error) Result {
	f := &Failure{Reason: reason, Err: err}
	if err != nil {
		f.Detail = err.Error()
	}
	return Result{Failure: f}
}

// IsReason reports whether err is a *Failure with the given reason.
func IsReason(err error, reason FailureReason) bool {
	var f *Failure
	return errors.As(err, &f) && f.Reason == reason
}
