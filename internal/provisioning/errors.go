package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a malformed or incomplete request. It is
// surfaced before any remote operation is attempted.
type ValidationError struct {
	Field   string // Request field that failed validation
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CommandError represents a remote command that exited non-zero or a
// postcondition that did not hold after a command succeeded. The
// pipeline does not retry these automatically; only stages known to be
// flaky opt in to the retry policy.
type CommandError struct {
	Stage    State  // Stage the command ran in
	Message  string // Human-readable error message
	ExitCode int    // Exit code of the failing command, if it ran
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// IsCommand reports whether err is a CommandError.
func IsCommand(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// PreconditionError represents a missing remote capability that no
// retry can fix, such as neither transfer tool being installed.
type PreconditionError struct {
	Message string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return e.Message
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// stderrTail compresses captured stderr into a short single-line tail
// suitable for an event message.
func stderrTail(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	const max = 200
	if len(last) > max {
		last = last[len(last)-max:]
	}
	return last
}
