package stores

import "errors"

var (
	// ErrInvalidURL marks a location that cannot be parsed or lacks a required part
	ErrInvalidURL = errors.New("invalid object store URL")
	// ErrUnsupportedScheme marks a location whose scheme has no backend
	ErrUnsupportedScheme = errors.New("unsupported object store scheme")
	// ErrCreatingStore marks a backend that could not be constructed
	ErrCreatingStore = errors.New("error creating object store")
	// ErrLocalSource marks an upload whose local file could not be opened or read
	ErrLocalSource = errors.New("local source unreadable")
	// ErrRemoteWrite marks an upload whose remote object could not be written
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrReadOnly marks a write to a backend that only supports reads
	ErrReadOnly = errors.New("object store is read-only")
	// ErrObjectNotFound marks a read of an object that does not exist
	ErrObjectNotFound = errors.New("object not found")
)
