package models

import "fmt"

// GeneratorError represents an error that occurred during code generation
type GeneratorError struct {
	Type        ErrorType // type of error
	File        string    // file where error occurred
	Line        int       // line number where error occurred
	Message     string    // error message
	Suggestions []string  // how to fix it
	Context     map[string]any
	Cause       error // underlying error cause
}

// Error implements the error interface
func (e *GeneratorError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}

// Unwrap returns the underlying error cause
func (e *GeneratorError) Unwrap() error {
	return e.Cause
}
