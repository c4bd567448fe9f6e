package models

import "fmt"

// Severity tags a status message for presentation.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Status is the outcome of a public store operation: a short
// human-readable message with a severity tag. Store operations never
// panic or leak errors past this surface.
type Status struct {
	// Severity tags the message for presentation.
	Severity Severity `json:"severity"`

	// Message is the short human-readable outcome.
	Message string `json:"message"`
}

// OK reports whether the status is not an error.
func (s Status) OK() bool {
	return s.Severity != SeverityError
}

// Successf builds a success status.
func Successf(format string, args ...any) Status {
	return Status{Severity: SeveritySuccess, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error status.
func Errorf(format string, args ...any) Status {
	return Status{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info status.
func Infof(format string, args ...any) Status {
	return Status{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}
