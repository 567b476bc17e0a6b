package gate

import "errors"

// Sentinel errors returned by Authorize and resolvers.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownSubject   = errors.New("unknown subject")
)
