package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

var (
	ErrInsufficientArgs = errors.New("insufficient arguments")
	ErrArgCount         = errors.New("wrong number of arguments")
)

// Parse splits a console line into a lowercased command and its arguments.
func Parse(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// exactArgs requires exactly n arguments. A short or long list is an
// invalid format; only a missing name is reported as insufficient.
func exactArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrArgCount, n, len(args))
	}
	return nil
}

// firstArg returns the first argument and ignores the rest.
func firstArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: want a name", ErrInsufficientArgs)
	}
	return args[0], nil
}

// errorReply turns a command failure into the message shown to the user.
func errorReply(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientArgs):
		return "Error: Insufficient arguments. Please provide the correct argument(s)."
	case errors.Is(err, ErrArgCount), domain.IsValidationError(err):
		return "Error: Invalid input format. Please provide the correct argument(s)."
	case errors.Is(err, domain.ErrPhoneNotFound):
		return "Error: The phone number doesn't exist. Please check your input and try again."
	default:
		return fmt.Sprintf("Error: %s. Please check your input and try again.", err)
	}
}
