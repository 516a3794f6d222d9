package types

import "github.com/google/uuid"

// Version is the porter version. Overwritten via ldflags at release build.
var Version = "dev"

// SessionID identifies one fetch session
type SessionID string

// NewSessionID generates a new random session ID
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

func (x SessionID) String() string {
	return string(x)
}

// AttemptID identifies one transfer attempt against a single source
type AttemptID string

// NewAttemptID generates a new random attempt ID
func NewAttemptID() AttemptID {
	return AttemptID(uuid.NewString())
}

func (x AttemptID) String() string {
	return string(x)
}
