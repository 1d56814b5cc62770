// Package gwerrors defines the error kinds the gateway core surfaces to its
// callers, distinct from plain wrapped Go errors used for internal
// bookkeeping (e.g. recording a failed upstream connect).
package gwerrors

import "fmt"

// TransportUnavailable means an upstream connection could not be opened or
// could not be sustained. Recorded in ClientManager's failed map; not
// raised to the downstream except via the list-servers meta-tool and a
// startup warning log.
type TransportUnavailable struct {
	Server string
	Err    error
}

func (e *TransportUnavailable) Error() string {
	return fmt.Sprintf("upstream %q unavailable: %v", e.Server, e.Err)
}

func (e *TransportUnavailable) Unwrap() error { return e.Err }

// UpstreamError means an upstream returned an error to a list/read/get/call
// request. Aggregation absorbs these for list operations; read/get/call
// operations re-raise them verbatim to the downstream.
type UpstreamError struct {
	Server string
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %q %s failed: %v", e.Server, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// InvalidFormat means a namespaced URI or prompt name did not match the
// required shape. Expected and Got describe the mismatch for the message.
type InvalidFormat struct {
	Expected string
	Got      string
}

func (e *InvalidFormat) Error() string {
	return fmt.Sprintf("invalid format: expected %s, got %q", e.Expected, e.Got)
}

// NotFound means a namespaced target names a server or tool absent from
// this session. Available lists what was present, for the message.
type NotFound struct {
	What      string
	Name      string
	Available []string
}

func (e *NotFound) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s %q not found (none available)", e.What, e.Name)
	}
	return fmt.Sprintf("%s %q not found (available: %v)", e.What, e.Name, e.Available)
}

// ScriptFailure means the embedded-script runtime reported a failure during
// execute. Callers convert this into a tool result with isError=true rather
// than raising it as a protocol-level error.
type ScriptFailure struct {
	Err error
}

func (e *ScriptFailure) Error() string {
	return fmt.Sprintf("script execution failed: %v", e.Err)
}

func (e *ScriptFailure) Unwrap() error { return e.Err }
