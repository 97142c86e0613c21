package event

import (
	"errors"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/store"
)

// Error codes carried on the wire.
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnavailable      = "UNAVAILABLE"
)

// CodeOf maps the domain error taxonomy onto wire codes. Anything
// outside the taxonomy is a transient store failure.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, channel.ErrEmptyMessage),
		errors.Is(err, directory.ErrEmptyGroupName),
		errors.Is(err, directory.ErrNoCreator),
		errors.Is(err, store.ErrInvalidPath):
		return CodeInvalidArgument
	case errors.Is(err, channel.ErrNotMember):
		return CodePermissionDenied
	case errors.Is(err, channel.ErrGroupNotFound),
		errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	default:
		return CodeUnavailable
	}
}
