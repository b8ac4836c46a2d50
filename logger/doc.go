// Package logger provides structured logging for the authentication core,
// built on zerolog.
//
// The dispatch layer logs through component-tagged loggers so a resource
// manager embedding this module can tell registry, context, and mechanism
// events apart:
//
//	log := logger.WithComponent("plugrack")
//	log.Warn("mechanism search path missing", logger.Fields(logger.FieldPluginDir, dir))
//
// A lazily-created global logger backs the package-level Debug/Info/Warn/Error
// helpers; embedding daemons that want full control call Init with their own
// Config before first use.
package logger
