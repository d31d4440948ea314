package model

import "fmt"

// ValidationError reports input that cannot be turned into provider
// configuration. It stops the run.
type ValidationError struct {
	Sheet  string
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	if e.Sheet != "" {
		return fmt.Sprintf("sheet %q: %s", e.Sheet, msg)
	}
	return msg
}
