package media

import "errors"

var (
	// ErrUnsupportedMedia indicates the attachment kind has no conversion mapping.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrSizeExceeded indicates the payload exceeds the configured max input size.
	ErrSizeExceeded = errors.New("media input too large")
)
