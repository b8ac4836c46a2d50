// Package errors defines the error taxonomy of the authentication core.
//
// Every failure the dispatch layer can surface maps to one machine-readable
// ErrorCode. Callers are expected to branch on codes, not on message text:
//
//	if err := ctx.Resolve(); errors.IsCode(err, errors.ErrCodePluginNotFound) {
//	    // no mechanism registered for the configured type
//	}
//
// Registry errors that stem from transient conditions (an unreadable plugin
// directory, a rack that cannot be created yet) are marked retryable so the
// lazily-initialized global binding can try again on the next dispatch call.
package errors
