package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitSuccess      = 0 // Successful execution
	exitFailure      = 1 // Malformed expression or failed batch case
	exitCommandError = 2 // Invalid flags, unreadable files, database errors
)

// exitError is an error carrying the process exit code.
type exitError struct {
	Code    int
	Message string
	Err     error
}

func (e *exitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *exitError) Unwrap() error {
	return e.Err
}

func newExitError(code int, message string) *exitError {
	return &exitError{Code: code, Message: message}
}

func wrapExitError(code int, message string, err error) *exitError {
	return &exitError{Code: code, Message: message, Err: err}
}

// getExitCode returns exitFailure for errors that carry no code.
func getExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}

// writeOutput writes v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}
