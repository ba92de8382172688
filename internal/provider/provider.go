package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbytex91/streamfusion/internal/model"
)

// Adapter fetches streams from one upstream and maps them into model.Stream.
// Zero results is not an error.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req model.Request) ([]model.Stream, error)
}

// TimeoutAware adapters carry their own, already clamped, deadline.
type TimeoutAware interface {
	Timeout() time.Duration
}

// Error covers every runtime failure of a single upstream: network errors,
// non-2xx answers, malformed bodies and expired deadlines.
type Error struct {
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigError is returned when an enabled upstream is invoked without a
// required URL or credential.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s: missing %s", e.Provider, e.Field)
}

// IsTimeout reports whether err comes from an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Wrap turns any error into a *Error for the named provider, keeping
// existing *Error and *ConfigError values as they are.
func Wrap(name, message string, err error) error {
	if err == nil {
		return nil
	}

	var perr *Error
	var cerr *ConfigError
	if errors.As(err, &perr) || errors.As(err, &cerr) {
		return err
	}
	if IsTimeout(err) {
		message = "timed out"
	}
	return &Error{Provider: name, Message: message, Err: err}
}

// Timeouts holds the server-wide timeout policy.
type Timeouts struct {
	Default time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Clamp turns a configured timeout in milliseconds into a duration bounded
// by Min and Max. Zero selects Default.
func (t Timeouts) Clamp(ms int) time.Duration {
	d := t.Default
	if ms > 0 {
		d = time.Duration(ms) * time.Millisecond
	}
	if t.Min > 0 && d < t.Min {
		d = t.Min
	}
	if t.Max > 0 && d > t.Max {
		d = t.Max
	}
	return d
}
