package media

import (
	"fmt"
	"io"
)

const (
	bytesPerMB = 1024 * 1024

	// DefaultMaxInputMB mirrors the Bot API download ceiling with some headroom.
	DefaultMaxInputMB = 18
)

// Limits is the process-wide size policy. It is built once at startup and
// passed by value, so request handling never observes a change.
type Limits struct {
	MaxInputBytes int64
}

// NewLimits converts a megabyte budget into a Limits value.
func NewLimits(maxInputMB float64) Limits {
	if maxInputMB <= 0 {
		maxInputMB = DefaultMaxInputMB
	}
	return Limits{MaxInputBytes: int64(maxInputMB * bytesPerMB)}
}

// Exceeds reports whether size is over the limit. Unknown sizes (<= 0) never exceed.
func (l Limits) Exceeds(size int64) bool {
	return size > 0 && size > l.MaxInputBytes
}

// MaxInputMB renders the limit for user-facing text.
func (l Limits) MaxInputMB() string {
	mb := float64(l.MaxInputBytes) / bytesPerMB
	if mb == float64(int64(mb)) {
		return fmt.Sprintf("%d", int64(mb))
	}
	return fmt.Sprintf("%.1f", mb)
}

// CopyWithLimit copies reader into w and rejects payloads larger than maxBytes.
// It stops reading as soon as maxBytes+1 bytes were seen, so an oversized
// stream is never transferred in full.
func CopyWithLimit(w io.Writer, reader io.Reader, maxBytes int64) (int64, error) {
	if reader == nil {
		return 0, fmt.Errorf("reader is required")
	}
	if maxBytes <= 0 {
		return 0, fmt.Errorf("max bytes must be greater than 0")
	}
	limited := &io.LimitedReader{
		R: reader,
		N: maxBytes + 1,
	}
	written, err := io.Copy(w, limited)
	if err != nil {
		return written, err
	}
	if written > maxBytes {
		return written, fmt.Errorf("%w: max %d bytes", ErrSizeExceeded, maxBytes)
	}
	return written, nil
}
