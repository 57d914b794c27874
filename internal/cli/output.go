package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"storefront/internal/domain"
	"storefront/internal/identity"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Backend or connection failure
	ExitCommandError = 2 // Invalid flags, arguments or form input
	ExitAuthError    = 3 // Missing or rejected credentials, insufficient role
	ExitNotFound     = 4
)

// ExitError represents an error with a specific exit code.
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify wraps a storefront error with the exit code its kind deserves.
func classify(message string, err error) error {
	code := ExitFailure
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrEmptyCart):
		code = ExitCommandError
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden):
		code = ExitAuthError
	case errors.Is(err, domain.ErrNotFound):
		code = ExitNotFound
	}
	return WrapExitError(code, message, err)
}

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// Print writes v in the configured format. text renders the human
// readable form; when nil, text output falls back to YAML.
func (f *OutputFormatter) Print(v any, text func(w io.Writer) error) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return f.yaml(v)
	}
	if text == nil {
		return f.yaml(v)
	}
	return text(f.Writer)
}

func (f *OutputFormatter) yaml(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Done reports a completed action.
func (f *OutputFormatter) Done(message string, data map[string]any) error {
	if f.Format == "text" {
		_, err := fmt.Fprintln(f.Writer, message)
		return err
	}
	out := map[string]any{"status": "ok", "message": message}
	for k, v := range data {
		out[k] = v
	}
	return f.Print(out, nil)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
