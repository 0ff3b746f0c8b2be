package errdefs

import "errors"

var (
	// ErrNotFound signals that the requested object doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameter signals that the user input is invalid.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrConflict signals that some internal state conflicts with the requested
	// action and can't be performed. A change in state should be able to clear
	// this error.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized is used to signify that the caller is not authorized to
	// perform a specific action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists signals that the resource already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnsupported indicates that the action was not supported.
	ErrUnsupported = errors.New("unsupported")

	// ErrSystem signals that some internal error occurred. An example of this
	// would be a failed filesystem write.
	ErrSystem = errors.New("system error")

	// ErrInvalidState signals that stored state violates an invariant the
	// caller relies on. It is fatal to the request but not to the process.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknown signals that the kind of error that occurred is not known.
	ErrUnknown = errors.New("unknown error")
)
