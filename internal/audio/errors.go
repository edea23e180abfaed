package audio

import "errors"

var (
	// ErrAlreadyRecording is returned when a second recording is started
	// while one is active. At most one session may hold the stream.
	ErrAlreadyRecording = errors.New("recording already in progress")

	// ErrNotRecording is returned by StopRecording when no session was
	// started. Programmer-facing: a correct UI never triggers it.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrNoStream is returned when recording is started before permission
	// was granted.
	ErrNoStream = errors.New("no capture stream: permission not granted")

	// ErrPermissionDenied is returned when the user (or provider policy)
	// refuses microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDeviceUnavailable is returned when the requested capture device
	// does not exist or cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrStreamClosed is returned when pushing audio into a closed stream.
	ErrStreamClosed = errors.New("capture stream closed")
)
