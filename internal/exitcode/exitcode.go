// Package exitcode maps error kinds to process exit codes.
package exitcode

import (
	"os"

	"github.com/schoolblog/blogctl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or rejected input
	UsageError = 2

	// AuthError indicates an authentication failure
	AuthError = 3

	// NotFoundError indicates the requested entity does not exist
	NotFoundError = 4

	// NetworkError indicates the backend could not be reached
	NetworkError = 5

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with a code derived from the error's kind
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to its exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.KindOf(err) {
	case errors.KindUnauthorized:
		return AuthError
	case errors.KindValidation:
		return UsageError
	case errors.KindNotFound:
		return NotFoundError
	case errors.KindNetwork:
		return NetworkError
	default:
		return GeneralError
	}
}
