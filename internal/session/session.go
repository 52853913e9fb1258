// Package session owns the client's authentication state machine.
//
// Exactly one Session value exists per running client. The Manager is its
// only writer and the sole writer of the token store; everyone else reads
// snapshots. The transient error state of the machine is not a resting
// status: a failed transition surfaces as a returned error and an alert,
// and the session comes to rest at Unauthenticated.
package session

import (
	"github.com/schoolblog/blogctl/internal/api"
)

// Status is the authentication state of the client
type Status int

const (
	// StatusUninitialized means no session work has happened yet
	StatusUninitialized Status = iota
	// StatusLoading means a stored token is being validated
	StatusLoading
	// StatusAuthenticated means the backend accepted the token
	StatusAuthenticated
	// StatusUnauthenticated means there is no usable session
	StatusUnauthenticated
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is the client's belief about whether, and as whom,
// the user is authenticated. Token is non-empty only while
// Authenticated or Loading; User only while Authenticated.
type Session struct {
	Status Status
	Token  string
	User   *api.User
}

// Authenticated reports whether the session is usable for protected calls
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
