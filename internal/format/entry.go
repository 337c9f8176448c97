package format

import (
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
)

// EntryState is the table-walk state of one logical record.
type EntryState uint8

const (
	EntryInactive      EntryState = iota // skipped, nothing is read from .dat
	EntryActiveNoBlock                   // inline span of exactly Length bytes
	EntryActiveChained                   // first block plus zero or more continuations
)

func (s EntryState) String() string {
	switch s {
	case EntryActiveNoBlock:
		return "active-noblock"
	case EntryActiveChained:
		return "active-chained"
	default:
		return "inactive"
	}
}

// Entry is one decoded .tad slot.
//
// v3 slot (12 bytes):          v4 slot (16 bytes):
//
//	0x00  u32  offset          0x00  u64  offset (low 48 bits), bit 63 deleted
//	0x04  u32  length          0x08  u32  length
//	0x08  u32  flags           0x0C  u32  checksum
//	           bit 31 no-block
type Entry struct {
	ID      uint64
	Offset  int64
	Length  uint32
	Flags   uint32
	Deleted bool
	NoBlock bool
	State   EntryState
}

// IsActive reports whether the slot refers to a live record.
func (e Entry) IsActive() bool { return e.State != EntryInactive }

// HasBlock reports whether the record uses the chained-block representation.
func (e Entry) HasBlock() bool { return e.State == EntryActiveChained }

// End returns the file offset one past the entry's declared span.
func (e Entry) End() int64 { return e.Offset + int64(e.Length) }

// DecodeEntry decodes the slot starting at buffer-relative offset slot.
func DecodeEntry(a *abi.ABI, b *buf.Buffer, slot int, id uint64) (Entry, error) {
	off, err := b.Uint(a, abi.EntryOffset, slot)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d offset: %w", id, truncated(err))
	}
	length, err := b.Uint(a, abi.EntryLength, slot)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d length: %w", id, truncated(err))
	}
	flags, err := b.Uint(a, abi.EntryFlags, slot)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d flags: %w", id, truncated(err))
	}

	e := Entry{
		ID:     id,
		Offset: int64(off),
		Length: uint32(length),
		Flags:  uint32(flags),
	}
	if a.Has(abi.EntryDeleted) {
		del, err := b.Uint(a, abi.EntryDeleted, slot)
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d reserved bits: %w", id, truncated(err))
		}
		e.Deleted = del != 0
	}
	if a.Has(abi.EntryNoBlock) {
		nb, err := b.Uint(a, abi.EntryNoBlock, slot)
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d reserved bits: %w", id, truncated(err))
		}
		e.NoBlock = nb != 0
	}
	e.State = entryState(a, e)
	return e, nil
}

func entryState(a *abi.ABI, e Entry) EntryState {
	if e.Offset == 0 || e.Length == 0 {
		return EntryInactive
	}
	if uint64(e.Length) == a.MustConst(abi.EntryInvalidLength) {
		return EntryInactive
	}
	if e.Deleted {
		return EntryInactive
	}
	if a.Has(abi.EntryDeletedFlags) {
		if e.Flags == 0 || uint64(e.Flags) == a.MustConst(abi.EntryDeletedFlags) {
			return EntryInactive
		}
	}
	if e.NoBlock {
		return EntryActiveNoBlock
	}
	return EntryActiveChained
}
