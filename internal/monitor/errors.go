package monitor

import (
	"errors"
	"fmt"
)

var ErrAlreadyRunning = errors.New("monitor already running")

// ValidationError reports bad input that was rejected without touching loop state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
