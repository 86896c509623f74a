package engine

import "fmt"

// ConnError is a transport-level failure: unreachable server, refused
// connection, TLS failure, or a connection that died mid-session. The engine
// does not retry these.
type ConnError struct {
	Server string
	Err    error
}

// Error satisfies the error interface for ConnError.
func (e *ConnError) Error() string {
	return fmt.Sprintf("engine: connection to %s failed: %v", e.Server, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnError) Unwrap() error { return e.Err }

// RegistrationError is returned when nickname collisions persist past the
// retry limit, or the server rejects registration outright.
type RegistrationError struct {
	// Attempts is the number of nicknames tried.
	Attempts int
	// Code is the numeric reply that ended the last attempt.
	Code string
}

// Error satisfies the error interface for RegistrationError.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("engine: registration failed after %d attempts (%s)",
		e.Attempts, e.Code)
}

// JoinError is an explicit channel rejection: no such channel, banned, full,
// invite-only, or bad key.
type JoinError struct {
	Channel string
	Code    string
	Reason  string
}

// Error satisfies the error interface for JoinError.
func (e *JoinError) Error() string {
	return fmt.Sprintf("engine: cannot join %s: %s (%s)",
		e.Channel, e.Reason, e.Code)
}

// BotRejectedError is an explicit bot-side denial of the pack request, such
// as "pack not found".
type BotRejectedError struct {
	Bot    string
	Reason string
}

// Error satisfies the error interface for BotRejectedError.
func (e *BotRejectedError) Error() string {
	return fmt.Sprintf("engine: request rejected by %s: %s", e.Bot, e.Reason)
}

// ProtocolError is a fatal desync with the peer, currently only an inbound
// line exceeding the decoder's buffer bound.
type ProtocolError struct {
	Err error
}

// Error satisfies the error interface for ProtocolError.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("engine: protocol violation: %v", e.Err)
}

// Unwrap returns the underlying protocol error.
func (e *ProtocolError) Unwrap() error { return e.Err }

// TimeoutError is returned when the deadline elapses, or the caller cancels,
// before the session reaches a terminal state.
type TimeoutError struct {
	// Phase names the session phase that was waiting when time ran out.
	Phase string
	// Cancelled is true when the caller's context ended the wait rather
	// than the deadline.
	Cancelled bool
}

// Error satisfies the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("engine: cancelled while %s", e.Phase)
	}
	return fmt.Sprintf("engine: timed out while %s", e.Phase)
}
