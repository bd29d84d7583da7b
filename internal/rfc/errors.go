package rfc

import (
	"errors"
	"fmt"
)

// ErrKind is the local taxonomy for remote failures. Connection covers logon
// rejection, transport failure, and communication faults; Call covers
// application and runtime faults reported by the called function.
type ErrKind int

const (
	KindConnection ErrKind = iota
	KindCall
)

// Error is the tagged error the client returns for every remote failure.
// Key carries the remote error key when the function signaled a business
// error.
type Error struct {
	Kind    ErrKind
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsConnection reports whether err is a connection-kind RFC error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConnection
}

// IsCall reports whether err is a call-kind RFC error.
func IsCall(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCall
}

// FaultClass categorizes a failure reported by the RFC transport layer. The
// dialer classifies SDK errors once; the client maps classes onto ErrKind.
type FaultClass int

const (
	FaultLogon FaultClass = iota
	FaultCommunication
	FaultApplication
	FaultRuntime
	FaultOther
)

// Fault is the error type sessions and dialers return. It is a closed tagged
// variant rather than a hierarchy: the mapping to the outward taxonomy is a
// flat lookup on Class.
type Fault struct {
	Class   FaultClass
	Key     string
	Message string
}

func (f *Fault) Error() string {
	if f.Key != "" {
		return fmt.Sprintf("%s: %s", f.Key, f.Message)
	}
	return f.Message
}
