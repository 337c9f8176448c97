package format

import (
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
)

// Block is a decoded block header. The first block of a record carries the
// record size (header included); continuation blocks only link forward.
//
// v3 first block: 0x00 u32 next, 0x04 u32 record size   (8 bytes)
// v3 continuation: 0x00 u32 next                        (4 bytes)
// v4 first block: 0x00 u64 next (48 bits), 0x08 u32 size (12 bytes)
// v4 continuation: 0x00 u64 next (48 bits)              (8 bytes)
type Block struct {
	Offset     int64 // file offset of the header
	Next       int64 // file offset of the next block, 0 for none
	RecordSize uint32
	HeaderSize int
	First      bool
}

// Payload returns the file offset where the block's payload starts.
func (b Block) Payload() int64 { return b.Offset + int64(b.HeaderSize) }

// FirstHeaderSize returns the first-block header size for a.
func FirstHeaderSize(a *abi.ABI) int { return int(a.MustConst(abi.FirstBlockHeaderSize)) }

// ContinuationHeaderSize returns the continuation-block header size for a.
func ContinuationHeaderSize(a *abi.ABI) int { return int(a.MustConst(abi.BlockHeaderSize)) }

// DecodeFirstBlock decodes the first-block header at file offset off. b must
// cover the header; callers pass either a block window or a fresh read.
func DecodeFirstBlock(a *abi.ABI, b *buf.Buffer, off int64) (Block, error) {
	size := FirstHeaderSize(a)
	hdr, err := b.At(off, size)
	if err != nil {
		return Block{}, err
	}
	next, err := hdr.Uint(a, abi.FirstBlockNext, 0)
	if err != nil {
		return Block{}, fmt.Errorf("first block next: %w", err)
	}
	rs, err := hdr.Uint(a, abi.FirstBlockRecordSize, 0)
	if err != nil {
		return Block{}, fmt.Errorf("first block size: %w", err)
	}
	if rs < uint64(size) {
		return Block{}, fmt.Errorf("record size %d below header size %d: %w", rs, size, ErrBadBlock)
	}
	return Block{Offset: off, Next: int64(next), RecordSize: uint32(rs), HeaderSize: size, First: true}, nil
}

// DecodeBlock decodes a continuation-block header at file offset off.
func DecodeBlock(a *abi.ABI, b *buf.Buffer, off int64) (Block, error) {
	size := ContinuationHeaderSize(a)
	hdr, err := b.At(off, size)
	if err != nil {
		return Block{}, err
	}
	next, err := hdr.Uint(a, abi.BlockNext, 0)
	if err != nil {
		return Block{}, fmt.Errorf("block next: %w", err)
	}
	return Block{Offset: off, Next: int64(next), HeaderSize: size}, nil
}
