package settings

import "errors"

var (
	// ErrDuplicateKey is returned when a key is declared twice.
	ErrDuplicateKey = errors.New("setting key already declared")
	// ErrUnknownKey is returned when looking up a key that was never declared.
	ErrUnknownKey = errors.New("unknown setting key")
	// ErrRangeViolation marks a persisted integer outside its declared bounds.
	// Load clamps such values and logs this error instead of returning it.
	ErrRangeViolation = errors.New("persisted value outside declared bounds")
	// ErrKindMismatch is returned by typed accessors used on a setting of another kind.
	ErrKindMismatch = errors.New("setting kind mismatch")
	// ErrInvalidDefinition is returned when a declaration is internally inconsistent.
	ErrInvalidDefinition = errors.New("invalid setting definition")
	// ErrAlreadyInitialized is returned when PostInit runs more than once.
	ErrAlreadyInitialized = errors.New("registry already initialized")
)
