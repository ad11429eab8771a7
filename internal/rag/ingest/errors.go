package ingest

import (
	"errors"
	"fmt"
)

// ErrParse aborts the whole file, no units are produced.
var ErrParse = errors.New("failed to parse document")

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func wrapParse(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrParse, what, err)
}
