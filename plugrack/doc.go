// Package plugrack manages discovery and activation of authentication
// mechanism plugins.
//
// The dispatch core consumes only the Rack interface: configure a category
// and load policy, scan a search path, activate a plugin by type name, and
// resolve named capabilities from it. The builtin rack satisfies that
// contract with compile-time registration: mechanism packages register a
// factory at import time, in the manner of database/sql drivers:
//
//	import _ "github.com/kbukum/authkit/auth/sharedsecret"
//
// Deployments that load mechanism modules dynamically can supply their own
// Rack; nothing in the dispatch core assumes compiled-in mechanisms.
//
// A rack refuses to be destroyed while activated plugins are outstanding.
// Callers release what they activate, then destroy the rack.
package plugrack
