package valgrind

import (
	"errors"
	"fmt"
	"strings"
)

// Failure categories for a single analysis run. Every error returned by
// this package wraps exactly one of these, so callers can classify a
// failure with errors.Is without parsing messages.
var (
	// ErrLaunch covers listener bind and process spawn failures.
	ErrLaunch = errors.New("valgrind launch failed")

	// ErrTool means valgrind spawned but exited with a non-zero status.
	ErrTool = errors.New("valgrind exited with failure")

	// ErrTransport covers accept and read failures on the report socket.
	ErrTransport = errors.New("report transport failed")

	// ErrMalformed means the report stream was not valid memcheck XML.
	ErrMalformed = errors.New("malformed valgrind report")
)

// toolError builds the tool-failure error from the child's stderr. The
// conventional "error: " prefix is stripped so the caller sees the
// tool's own explanation rather than a generic exit code.
func toolError(stderr string, cause error) error {
	msg := strings.TrimSpace(stderr)
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return fmt.Errorf("%w: %w", ErrTool, cause)
	}
	return fmt.Errorf("%w: %s", ErrTool, msg)
}
