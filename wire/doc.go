// Package wire provides the opaque transport buffer credentials are
// serialized into.
//
// The buffer is a plain append/extract byte stream with XDR framing
// (RFC 4506 variable-length opaque and fixed-width integers). The dispatch
// core imposes no layout beyond the framing: each mechanism owns whatever
// it appends, so credentials from different mechanism types are never
// wire-compatible with one another and never need to be.
//
// Extraction consumes the stream in append order. Malformed or truncated
// input surfaces as an error from the Extract functions; it never panics.
package wire
