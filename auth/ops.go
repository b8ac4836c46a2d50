package auth

import (
	"io"
	"time"

	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// opsTable is the resolved operation table of one active mechanism. The
// slot order matches capabilitySymbols; a context is usable only when every
// slot is populated.
type opsTable struct {
	alloc    func() (Credential, error)
	free     func(Credential)
	activate func(Credential, time.Duration) error
	verify   func(Credential) error
	getUID   func(Credential) uint32
	getGID   func(Credential) uint32
	pack     func(Credential, *wire.Buffer) error
	unpack   func(Credential, *wire.Buffer) error
	print    func(Credential, io.Writer)
}

// resolveOps resolves the nine capabilities from a plugin in the fixed
// order and reports how many resolved to the expected type. A symbol that
// is present but has the wrong signature counts as unresolved; that is
// what a stale or mismatched mechanism module looks like.
func resolveOps(p plugrack.Plugin) (opsTable, int) {
	vals, _ := plugrack.Resolve(p, CapabilitySymbols())

	var ops opsTable
	count := 0

	if f, ok := vals[0].(func() (Credential, error)); ok {
		ops.alloc = f
		count++
	}
	if f, ok := vals[1].(func(Credential)); ok {
		ops.free = f
		count++
	}
	if f, ok := vals[2].(func(Credential, time.Duration) error); ok {
		ops.activate = f
		count++
	}
	if f, ok := vals[3].(func(Credential) error); ok {
		ops.verify = f
		count++
	}
	if f, ok := vals[4].(func(Credential) uint32); ok {
		ops.getUID = f
		count++
	}
	if f, ok := vals[5].(func(Credential) uint32); ok {
		ops.getGID = f
		count++
	}
	if f, ok := vals[6].(func(Credential, *wire.Buffer) error); ok {
		ops.pack = f
		count++
	}
	if f, ok := vals[7].(func(Credential, *wire.Buffer) error); ok {
		ops.unpack = f
		count++
	}
	if f, ok := vals[8].(func(Credential, io.Writer)); ok {
		ops.print = f
		count++
	}

	return ops, count
}
