package sbd

import (
	"errors"
	"fmt"
)

// ErrNoDialer is returned when a Driver is constructed without a Dialer.
//
// This indicates a configuration error. A Dialer is required in order to
// establish a connection to the modem.
var ErrNoDialer = errors.New("sbd: no dialer configured")

// ErrNotInitialized is returned when an operation is attempted on a Driver
// that has not been successfully initialized.
var ErrNotInitialized = errors.New("sbd: not initialized")

// ErrAlreadyClosed is returned when Close is called on a Driver that has
// already been closed.
var ErrAlreadyClosed = errors.New("sbd: already closed")

// ErrLoopRunning is returned when Loop is called while another Loop
// invocation is already active.
var ErrLoopRunning = errors.New("sbd: loop already running")

// ErrCommandInFlight is returned by the synchronous path New's
// initialization sequence uses (before Loop starts) when a command is
// issued while another is still inflight. This is a programming error,
// distinct from ordinary application-level send contention, which is
// instead serialized by Loop.
var ErrCommandInFlight = errors.New("sbd: command already in flight")

// ErrNoPrompt is returned by SendBinaryMessage's write phase when the modem
// never returns the expected READY prompt.
var ErrNoPrompt = errors.New("sbd: expected READY prompt not received")

// ErrorKind classifies a failure raised anywhere in the AT transport or the
// SBD session state machine.
type ErrorKind int

const (
	// KindTimeout means a per-command timer expired before completion.
	KindTimeout ErrorKind = iota
	// KindModemError means a response line matched an error pattern.
	KindModemError
	// KindParseError means a response did not match its expected shape.
	KindParseError
	// KindRadioFailure means SBDIX reported status 18.
	KindRadioFailure
	// KindNetworkFailure means SBDIX reported status 32.
	KindNetworkFailure
	// KindUnknownSBDFailure means SBDIX reported any other non-success status.
	KindUnknownSBDFailure
	// KindMaxAttemptsExceeded means mailboxSend exhausted its retry budget.
	KindMaxAttemptsExceeded
	// KindTransportError means the underlying byte stream failed.
	KindTransportError
)

// String returns a human-readable label for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindModemError:
		return "modem error"
	case KindParseError:
		return "parse error"
	case KindRadioFailure:
		return "radio failure"
	case KindNetworkFailure:
		return "network failure"
	case KindUnknownSBDFailure:
		return "unknown failure"
	case KindMaxAttemptsExceeded:
		return "max attempts exceeded"
	case KindTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// Error wraps a failure with an ErrorKind. Callers should match on kind
// with errors.As, not on message text.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &sbd.Error{Kind: sbd.KindTimeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
