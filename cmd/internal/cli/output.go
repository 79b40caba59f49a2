package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{FormatTable, FormatJSON, FormatYAML}

// ExitError carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err, ExitFailure when err is not an
// ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes human and machine readable command output.
type printer struct {
	format string
	out    io.Writer
	err    io.Writer
}

func (p printer) structured() bool {
	return p.format == FormatJSON || p.format == FormatYAML
}

func (p printer) Log(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "Success: "+format+"\n", args...)
}

func (p printer) Warning(format string, args ...any) {
	fmt.Fprintf(p.err, "Warning: "+format+"\n", args...)
}

func (p printer) Error(format string, args ...any) {
	fmt.Fprintf(p.err, "Error: "+format+"\n", args...)
}

// Data encodes v as JSON or YAML according to the format.
func (p printer) Data(v any) error {
	switch p.format {
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
