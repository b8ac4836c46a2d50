package logger

// Standard field key constants for structured logging.
const (
	FieldComponent  = "component"
	FieldAuthType   = "auth_type"
	FieldPluginDir  = "plugin_dir"
	FieldCapability = "capability"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldUID        = "uid"
	FieldGID        = "gid"
	FieldVersion    = "version"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("mechanism resolved", logger.Fields(logger.FieldAuthType, "none"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}
