// Package auth is the pluggable authentication dispatch core.
//
// Every internal component of a resource manager issues, verifies,
// transmits, and inspects identity credentials through this package without
// knowing which concrete mechanism is active. A Context binds one
// configured auth-type name to one resolved mechanism; the package-level
// functions mirror the same nine operations on a process-wide,
// lazily-initialized context.
//
// Explicit contexts:
//
//	ctx, err := auth.Create("sharedsecret")
//	cred, err := ctx.Alloc()
//	err = ctx.Activate(cred, 5*time.Minute)
//
// Ambient dispatch (auth type and search path from configuration):
//
//	cred, err := auth.Alloc()
//	if err := auth.Verify(cred); err != nil { ... }
//	uid := auth.UID(cred)
//
// The dispatch layer is fail-closed: when initialization or verification
// fails, credentials are unverified and identities degrade to the nobody
// sentinel. It never trusts and never aborts the process. Initialization
// failures leave the ambient context unset, so a later call retries once
// the underlying condition (bad search path, missing mechanism) clears.
//
// Mechanism implementations live in subpackages (none, sharedsecret, jwt,
// krb5) and register themselves with the plugin rack at import time.
package auth
