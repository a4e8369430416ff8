package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	dErrors "intentgate/pkg/domain-errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected input: undecodable batch, invalid signature
	ExitCommandError = 2 // unreadable file, bad flags
)

// ExitError carries the process exit code for an error.
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

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// rejected wraps a domain error, keeping its code visible in the message.
func rejected(err error) error {
	return &ExitError{Code: ExitFailure, Message: string(dErrors.CodeOf(err)), Err: err}
}

func commandError(message string, err error) error {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// readInput reads a file path, or stdin for "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, commandError("read stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, commandError("read "+path, err)
	}
	return data, nil
}

// emit writes v as indented JSON, or the text lines in text format.
func emit(w io.Writer, format string, v any, lines ...string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
