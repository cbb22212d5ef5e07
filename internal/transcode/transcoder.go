// Package transcode runs media conversions through an external tool.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/memohai/mediaconv/internal/media"
)

var (
	// ErrToolUnavailable indicates the conversion binary is missing or not executable.
	// It is a configuration problem and repeats on every request until fixed.
	ErrToolUnavailable = errors.New("conversion tool unavailable")
	// ErrTimeout indicates the conversion exceeded its wall-clock budget and was killed.
	ErrTimeout = errors.New("conversion timed out")
	// ErrNoOutput indicates the tool exited cleanly without producing a file.
	ErrNoOutput = errors.New("conversion produced no output")
)

// Transcoder converts a local input file according to a conversion kind.
// On error the output file does not exist.
type Transcoder interface {
	Convert(ctx context.Context, inputPath string, kind media.ConversionKind) (media.ConversionResult, error)
}

// ExitError reports a tool run that finished with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("conversion tool exited with code %d", e.Code)
	}
	return fmt.Sprintf("conversion tool exited with code %d: %s", e.Code, stderr)
}

// IsConversionFailure reports whether err means the tool ran but did not succeed.
func IsConversionFailure(err error) bool {
	if err == nil {
		return false
	}
	var exitErr *ExitError
	return errors.As(err, &exitErr) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrNoOutput)
}
