package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/odysseus0/chatvault/internal/capture"
	"github.com/odysseus0/chatvault/internal/convert"
	"github.com/odysseus0/chatvault/internal/store"
	"github.com/odysseus0/chatvault/internal/transport"
)

const (
	exitInvalidInput = 2
	exitNotFound     = 3
	exitInternal     = 1
)

var errInvalidArgs = errors.New("invalid arguments")

func isInvalidInput(err error) bool {
	for _, target := range []error{
		errInvalidArgs,
		store.ErrInvalidInput,
		convert.ErrInvalidInput,
		capture.ErrNoMessages,
		capture.ErrUnknownProfile,
		transport.ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func ErrorExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isInvalidInput(err):
		return exitInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	default:
		return exitInternal
	}
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case isInvalidInput(err):
		return fmt.Sprintf("Error [invalid-input]: %v", err)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("Error [not-found]: %v", err)
	default:
		return fmt.Sprintf("Error [internal]: %v", err)
	}
}

func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err))
}
