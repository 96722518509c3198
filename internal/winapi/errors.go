package winapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidData reports a buffer or value returned by the OS that
	// cannot be trusted (wrong size, impossible count)
	ErrInvalidData = errors.New("invalid data")

	// ErrNoProcessors is returned when the OS reports zero logical processors
	ErrNoProcessors = fmt.Errorf("no processors were found: %w", ErrInvalidData)

	// ErrUnknownAddressFamily is returned for a client address whose family
	// tag is outside {AF_UNSPEC, AF_INET, AF_IPX, AF_NETBIOS, AF_INET6}
	ErrUnknownAddressFamily = errors.New("unsupported or unknown address family")

	// ErrNotImplemented is returned by every query on platforms other than Windows
	ErrNotImplemented = errors.New("not implemented yet")
)

// Error is the failure type of every query in this package
//
// A native-call failure has Func set to the name of the failing API and
// Code to the status or errno it reported. A data-integrity failure has
// an empty Func and a descriptive Msg
type Error struct {
	Func string
	Code uint32
	Msg  string
	Err  error
}

// Error names the failing call and its code, or the data problem
func (e *Error) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("the underlying OS call %s failed with code %#x: %v", e.Func, e.Code, e.Err)
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

func callError(fn string, code uint32, err error) error {
	return &Error{Func: fn, Code: code, Err: err}
}

func dataError(msg string, err error) error {
	return &Error{Msg: msg, Err: err}
}
