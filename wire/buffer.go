package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// maxOpaqueLen bounds a single opaque field; anything larger is treated as
// corruption rather than a legitimate credential payload.
const maxOpaqueLen = 16 << 20

// Buffer is an append/extract byte stream shared across mechanisms.
// Appends go to the tail; extracts consume from the head in append order.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	buf bytes.Buffer
}

// NewBuffer creates an empty transport buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// FromBytes creates a buffer whose head is positioned at the start of data.
// The data is copied; the caller keeps ownership of the slice.
func FromBytes(data []byte) *Buffer {
	b := &Buffer{}
	b.buf.Write(data)
	return b
}

// Bytes returns the unconsumed contents of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// AppendBytes appends a variable-length opaque field.
func (b *Buffer) AppendBytes(data []byte) error {
	if _, err := xdr.Marshal(&b.buf, data); err != nil {
		return fmt.Errorf("wire: append bytes: %w", err)
	}
	return nil
}

// AppendString appends a string field.
func (b *Buffer) AppendString(s string) error {
	if _, err := xdr.Marshal(&b.buf, s); err != nil {
		return fmt.Errorf("wire: append string: %w", err)
	}
	return nil
}

// AppendUint32 appends a fixed-width 32-bit field.
func (b *Buffer) AppendUint32(v uint32) error {
	if _, err := xdr.Marshal(&b.buf, v); err != nil {
		return fmt.Errorf("wire: append uint32: %w", err)
	}
	return nil
}

// AppendInt64 appends a fixed-width 64-bit field (e.g. a Unix timestamp).
func (b *Buffer) AppendInt64(v int64) error {
	if _, err := xdr.Marshal(&b.buf, v); err != nil {
		return fmt.Errorf("wire: append int64: %w", err)
	}
	return nil
}

// ExtractBytes consumes and returns a variable-length opaque field.
func (b *Buffer) ExtractBytes() ([]byte, error) {
	if err := b.checkOpaqueLen(); err != nil {
		return nil, err
	}
	var data []byte
	if err := b.extract(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// ExtractString consumes and returns a string field.
func (b *Buffer) ExtractString() (string, error) {
	if err := b.checkOpaqueLen(); err != nil {
		return "", err
	}
	var s string
	if err := b.extract(&s); err != nil {
		return "", err
	}
	return s, nil
}

// ExtractUint32 consumes and returns a fixed-width 32-bit field.
func (b *Buffer) ExtractUint32() (uint32, error) {
	var v uint32
	if err := b.extract(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// ExtractInt64 consumes and returns a fixed-width 64-bit field.
func (b *Buffer) ExtractInt64() (int64, error) {
	var v int64
	if err := b.extract(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// checkOpaqueLen peeks the 4-byte length prefix of the next
// variable-length field and rejects lengths the buffer cannot satisfy,
// before the decoder allocates for them.
func (b *Buffer) checkOpaqueLen() error {
	raw := b.buf.Bytes()
	if len(raw) < 4 {
		return fmt.Errorf("wire: extract: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(raw)
	if n > maxOpaqueLen {
		return fmt.Errorf("wire: opaque field exceeds %d bytes", maxOpaqueLen)
	}
	if int64(n) > int64(len(raw)-4) {
		return fmt.Errorf("wire: opaque length %d exceeds %d remaining bytes", n, len(raw)-4)
	}
	return nil
}

func (b *Buffer) extract(v any) error {
	if _, err := xdr.Unmarshal(&b.buf, v); err != nil {
		return fmt.Errorf("wire: extract: %w", err)
	}
	return nil
}
