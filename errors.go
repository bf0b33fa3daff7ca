package transcript

import "errors"

var (
	// ErrDocumentUnreadable is returned when the input cannot be opened or
	// decoded at all.
	ErrDocumentUnreadable = errors.New("transcript: document unreadable")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("transcript: unsupported document format")

	// ErrParsingFailed is returned when a decoded document cannot be stored
	// or serialized.
	ErrParsingFailed = errors.New("transcript: parsing failed")

	// ErrTranscriptNotFound is returned when a document ID does not exist.
	ErrTranscriptNotFound = errors.New("transcript: transcript not found")

	// ErrStoreClosed is returned when operating on a closed engine.
	ErrStoreClosed = errors.New("transcript: store is closed")

	// ErrStoreDisabled is returned by lookups on an engine running without a
	// database.
	ErrStoreDisabled = errors.New("transcript: store disabled")

	// ErrInvalidCourseKind is returned when a course lookup names an unknown
	// kind.
	ErrInvalidCourseKind = errors.New("transcript: invalid course kind")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("transcript: invalid configuration")
)
