package buf

import (
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
)

// Entity is the provenance of a buffer: which file it came from and which
// logical id (1-based, 0 for file-level data such as the header).
type Entity struct {
	File abi.FileKind
	ID   uint64
}

func (e Entity) String() string {
	return fmt.Sprintf("%s#%d", e.File, e.ID)
}

// Buffer is a contiguous byte range tagged with its provenance and the
// file-relative offset of its first byte. An owned buffer holds its own
// storage; a borrowed buffer aliases someone else's and is never released.
type Buffer struct {
	Entity
	Offset int64

	data  []byte
	owned bool
}

// New allocates an owned, zeroed buffer of size bytes.
func New(e Entity, off int64, size int) *Buffer {
	return &Buffer{Entity: e, Offset: off, data: make([]byte, size), owned: true}
}

// Own wraps data as an owned buffer. The caller must not retain data.
func Own(e Entity, off int64, data []byte) *Buffer {
	return &Buffer{Entity: e, Offset: off, data: data, owned: true}
}

// Borrow wraps data without taking ownership.
func Borrow(e Entity, off int64, data []byte) *Buffer {
	return &Buffer{Entity: e, Offset: off, data: data}
}

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Owned reports whether the buffer owns its storage.
func (b *Buffer) Owned() bool { return b.owned }

// End returns the file-relative offset one past the last byte.
func (b *Buffer) End() int64 { return b.Offset + int64(len(b.data)) }

// Copy returns an owned deep copy.
func (b *Buffer) Copy() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{Entity: b.Entity, Offset: b.Offset, data: data, owned: true}
}

// Move transfers the storage to a new buffer. The source keeps its bytes
// visible but no longer owns them.
func (b *Buffer) Move() *Buffer {
	out := &Buffer{Entity: b.Entity, Offset: b.Offset, data: b.data, owned: b.owned}
	b.owned = false
	return out
}

// Release drops owned storage. Borrowed buffers are left untouched.
func (b *Buffer) Release() {
	if b.owned {
		b.data = nil
		b.owned = false
	}
}

// Alloc resizes the buffer to size bytes, reusing owned storage when it is
// large enough and allocating otherwise. Contents are not preserved.
func (b *Buffer) Alloc(size int) {
	if b.owned && cap(b.data) >= size {
		b.data = b.data[:size]
		clear(b.data)
		return
	}
	b.data = make([]byte, size)
	b.owned = true
}

// Write replaces the contents with a copy of p.
func (b *Buffer) Write(p []byte) {
	b.Alloc(len(p))
	copy(b.data, p)
}

// Truncate shrinks the buffer to n bytes. Growing is not allowed.
func (b *Buffer) Truncate(n int) {
	if n >= 0 && n < len(b.data) {
		b.data = b.data[:n]
	}
}

// check validates a buffer-relative span.
func (b *Buffer) check(off, n int) error {
	return CheckSpan(b.Entity, int64(off), int64(n), 0, int64(len(b.data)))
}

// Slice returns a borrowed view of [off, off+n) relative to the buffer start.
func (b *Buffer) Slice(off, n int) (*Buffer, error) {
	if err := b.check(off, n); err != nil {
		return nil, err
	}
	return Borrow(b.Entity, b.Offset+int64(off), b.data[off:off+n]), nil
}

// At returns a borrowed view of the file-relative span [fileOff, fileOff+n).
// Spans starting before the buffer are OffsetBehind, spans running past it
// OffsetAhead.
func (b *Buffer) At(fileOff int64, n int) (*Buffer, error) {
	if err := CheckSpan(b.Entity, fileOff, int64(n), b.Offset, b.End()); err != nil {
		return nil, err
	}
	rel := int(fileOff - b.Offset)
	return Borrow(b.Entity, fileOff, b.data[rel:rel+n]), nil
}

// U8 reads the byte at off.
func (b *Buffer) U8(off int) (uint8, error) {
	if err := b.check(off, 1); err != nil {
		return 0, err
	}
	return b.data[off], nil
}

// U16 reads a little-endian uint16 at off.
func (b *Buffer) U16(off int) (uint16, error) {
	if err := b.check(off, 2); err != nil {
		return 0, err
	}
	return U16LE(b.data[off:]), nil
}

// U32 reads a little-endian uint32 at off.
func (b *Buffer) U32(off int) (uint32, error) {
	if err := b.check(off, 4); err != nil {
		return 0, err
	}
	return U32LE(b.data[off:]), nil
}

// U64 reads a little-endian uint64 at off.
func (b *Buffer) U64(off int) (uint64, error) {
	if err := b.check(off, 8); err != nil {
		return 0, err
	}
	return U64LE(b.data[off:]), nil
}

// Value resolves tag against a and returns a borrowed view of the value. base
// is the buffer-relative start of the structure the layout is relative to
// (a .tad slot, a block header, or 0 for the file header).
func (b *Buffer) Value(a *abi.ABI, tag abi.Tag, base int) (*Buffer, error) {
	l, err := a.Value(tag)
	if err != nil {
		return nil, err
	}
	if l.File == abi.FileConst {
		return nil, fmt.Errorf("%s is a constant: %w", tag, abi.ErrInvalidValue)
	}
	return b.Slice(base+l.Offset, l.Size)
}

// CopyValue is Value followed by a copy of the bytes.
func (b *Buffer) CopyValue(a *abi.ABI, tag abi.Tag, base int) ([]byte, error) {
	v, err := b.Value(a, tag, base)
	if err != nil {
		return nil, err
	}
	return v.Copy().Bytes(), nil
}

// Uint reads the scalar described by tag and applies its mask. Constants are
// returned directly.
func (b *Buffer) Uint(a *abi.ABI, tag abi.Tag, base int) (uint64, error) {
	l, err := a.Value(tag)
	if err != nil {
		return 0, err
	}
	if l.File == abi.FileConst {
		return l.Const, nil
	}
	off := base + l.Offset
	var v uint64
	switch l.Width {
	case abi.WidthU16:
		x, err := b.U16(off)
		if err != nil {
			return 0, err
		}
		v = uint64(x)
	case abi.WidthU32:
		x, err := b.U32(off)
		if err != nil {
			return 0, err
		}
		v = uint64(x)
	case abi.WidthU64:
		x, err := b.U64(off)
		if err != nil {
			return 0, err
		}
		v = x
	default:
		return 0, fmt.Errorf("%s is a byte array: %w", tag, abi.ErrInvalidValue)
	}
	return l.Apply(v), nil
}
