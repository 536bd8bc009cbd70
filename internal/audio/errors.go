package audio

import "errors"

var (
	// ErrDeviceUnavailable is returned when no input device matches the
	// configured identifier, or the device is held by another source.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrChannelMismatch is returned when the requested channel count is
	// more than the device can deliver.
	ErrChannelMismatch = errors.New("channel count not supported by device")

	// ErrStreamFault is returned on overrun/underrun, or when a read is
	// attempted on a source that is not streaming. It ends the session.
	ErrStreamFault = errors.New("audio stream fault")

	// ErrFormat is returned for malformed PCM: a byte count that does not
	// divide into whole samples, a sample count that does not divide into
	// whole frames, or an unsupported sample width.
	ErrFormat = errors.New("malformed PCM data")
)
