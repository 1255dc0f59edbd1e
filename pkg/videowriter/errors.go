package videowriter

import "errors"

var (
	// ErrAlreadyStarted is returned by Start while a session is active.
	ErrAlreadyStarted = errors.New("videowriter: video already started")

	// ErrNotStarted is returned when no session is active.
	ErrNotStarted = errors.New("videowriter: video is not started")

	// ErrFrameSize is returned when a submitted buffer is not width*height*3 bytes.
	ErrFrameSize = errors.New("videowriter: frame buffer has wrong size")

	// ErrInvalidParams is returned by Start for unusable parameters.
	ErrInvalidParams = errors.New("videowriter: invalid parameters")
)
