package service

import "errors"

var (
	ErrInvalidRole             = errors.New("invalid media role")
	ErrMissingFile             = errors.New("missing file")
	ErrInvalidMediaType        = errors.New("invalid media type")
	ErrPayloadTooLarge         = errors.New("payload too large")
	ErrUnsupportedLegacyFormat = errors.New("unsupported legacy image format, convert to JPEG before uploading")
	ErrCapacityExceeded        = errors.New("media capacity exceeded for role")
	ErrOwnerProfileNotFound    = errors.New("owner profile not found")
	ErrNotFound                = errors.New("media record not found")
	ErrOwnershipMismatch       = errors.New("media record belongs to another profile")
	ErrTranscodeFailure        = errors.New("transcode failure")
)
