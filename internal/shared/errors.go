package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Score loading errors
	ErrDataFormat         = fmt.Errorf("could not decode score data")
	ErrLibraryUnavailable = fmt.Errorf("engine library unavailable")
	ErrLoadTimeout        = fmt.Errorf("score load timed out")
	ErrEngineReported     = fmt.Errorf("engine failed to load score")
	ErrNoScore            = fmt.Errorf("no score loaded")

	// Playback errors
	ErrCommandFailed = fmt.Errorf("playback command failed")
	ErrReadOnly      = fmt.Errorf("player is read-only")
	ErrTrackIndex    = fmt.Errorf("track index out of range")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
