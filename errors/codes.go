package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Argument errors
const (
	// ErrCodeInvalidArgument indicates a required input was nil or empty.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Registry/plugin errors
const (
	// ErrCodeRegistryUnavailable indicates the plugin registry could not be
	// created or could not scan the mechanism search path.
	ErrCodeRegistryUnavailable ErrorCode = "REGISTRY_UNAVAILABLE"
	// ErrCodePluginNotFound indicates no mechanism matches the configured type.
	ErrCodePluginNotFound ErrorCode = "PLUGIN_NOT_FOUND"
	// ErrCodeIncompletePlugin indicates a mechanism resolved fewer than the
	// full set of required capabilities.
	ErrCodeIncompletePlugin ErrorCode = "INCOMPLETE_PLUGIN"
	// ErrCodeRegistryBusy indicates the registry could not be released
	// because mechanisms are still in use.
	ErrCodeRegistryBusy ErrorCode = "REGISTRY_BUSY"
)

// Credential errors
const (
	// ErrCodeUnverified indicates a credential failed its authenticity check.
	ErrCodeUnverified ErrorCode = "UNVERIFIED"
	// ErrCodeUnsupported indicates the requested capability is absent on the
	// active mechanism.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRegistryUnavailable: true,
	ErrCodePluginNotFound:      false,
	ErrCodeIncompletePlugin:    false,
	ErrCodeRegistryBusy:        true,
	ErrCodeUnverified:          false,
	ErrCodeUnsupported:         false,
	ErrCodeInvalidArgument:     false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
