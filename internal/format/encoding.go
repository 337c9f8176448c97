package format

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
)

// PutValue writes v into the scalar described by tag, relative to base. For
// masked values only the masked bits of the word are replaced, so values
// sharing a word (a v4 offset and its reserved bits) can be written one
// after the other. Used by writers and test fixtures; the decoder never
// writes.
func PutValue(b []byte, a *abi.ABI, tag abi.Tag, base int, v uint64) error {
	l, err := a.Value(tag)
	if err != nil {
		return err
	}
	off := base + l.Offset
	if l.File == abi.FileConst || l.Width == abi.WidthBytes || off < 0 || off+l.Size > len(b) {
		return fmt.Errorf("put %s at %d: %w", tag, off, ErrTruncated)
	}
	word := v
	if l.Mask != 0 {
		word = readWord(b[off:], l.Width)&^l.Mask | v&l.Mask
	}
	switch l.Width {
	case abi.WidthU16:
		binary.LittleEndian.PutUint16(b[off:], uint16(word))
	case abi.WidthU32:
		binary.LittleEndian.PutUint32(b[off:], uint32(word))
	case abi.WidthU64:
		binary.LittleEndian.PutUint64(b[off:], word)
	}
	return nil
}

func readWord(b []byte, w abi.Width) uint64 {
	switch w {
	case abi.WidthU16:
		return uint64(binary.LittleEndian.Uint16(b))
	case abi.WidthU32:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
