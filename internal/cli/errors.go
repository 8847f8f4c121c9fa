package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/odysseus0/alertbridge/internal/alerts"
	"github.com/odysseus0/alertbridge/internal/bridge"
	"github.com/odysseus0/alertbridge/internal/config"
	"github.com/odysseus0/alertbridge/internal/fetch"
	"github.com/odysseus0/alertbridge/internal/snapshot"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("unavailable")
)

const (
	exitInternal     = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitUnavailable  = 4
)

func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, config.ErrInvalidConfig):
		return "invalid-input", exitInvalidInput
	case errors.Is(err, snapshot.ErrNotFound):
		return "not-found", exitNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, fetch.ErrNoCachedFeed), errors.Is(err, bridge.ErrHopUnreachable):
		return "unavailable", exitUnavailable
	case errors.Is(err, alerts.ErrParse):
		return "parse", exitInternal
	default:
		return "internal", exitInternal
	}
}

func ErrorExitCode(err error) int {
	if err == nil {
		return 0
	}
	_, code := errorKind(err)
	return code
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := errorKind(err)
	return fmt.Sprintf("Error [%s]: %v", kind, err)
}

func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err))
}
