package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/crypt"
	"github.com/joshuapare/cronokit/internal/format"
)

// Common format versions for fixtures.
var (
	V3Pro   = abi.Version{Major: 1, Minor: 3}
	V3Lite  = abi.Version{Major: 1, Minor: 4}
	V3Small = abi.Version{Major: 1, Minor: 2}
	V4Pro   = abi.Version{Major: 1, Minor: 12}
	V4Lite  = abi.Version{Major: 1, Minor: 13}
	V4Small = abi.Version{Major: 1, Minor: 11}
)

// DefaultSecret is sliced to the secret size of the fixture's version.
var DefaultSecret = []byte{0x5A, 0x13, 0xC7, 0x02, 0x9E, 0x44, 0x71, 0xB8}

// BankOptions describes a synthetic .dat/.tad pair.
type BankOptions struct {
	Version     abi.Version
	BlockLength uint16 // 0 means 64
	Encrypted   bool
	Compressed  bool
	Serial      uint32 // keys the big-model crypt table
}

// Bank builds a synthetic .dat/.tad pair in memory. Records are appended in
// id order starting at 1; blocks are laid out back to back after the 4096
// byte header, each padded to the block length.
type Bank struct {
	t      testing.TB
	a      *abi.ABI
	opts   BankOptions
	secret []byte
	table  *crypt.Table

	dat    []byte
	slots  [][]byte
	blocks map[uint64][]int64
}

// NewBank starts an empty bank.
func NewBank(t testing.TB, opts BankOptions) *Bank {
	t.Helper()
	if opts.BlockLength == 0 {
		opts.BlockLength = 64
	}
	a, err := abi.NewRegistry().Resolve(opts.Version)
	require.NoError(t, err)

	b := &Bank{
		t:      t,
		a:      a,
		opts:   opts,
		dat:    make([]byte, abi.HeaderBytes),
		blocks: make(map[uint64][]int64),
	}
	secretLen := abi.SecretSizePro
	if a.IsLite() {
		secretLen = abi.SecretSizeLite
	}
	b.secret = DefaultSecret[:secretLen]
	if a.Model() == abi.ModelSmall {
		b.table = crypt.Builtin()
	} else {
		b.table = PermutationTable(7, 13)
	}
	b.writeHeader()
	return b
}

// PermutationTable returns a table whose decode half is i*mul+add (mul must
// be odd) and whose encode half is its inverse.
func PermutationTable(mul, add byte) *crypt.Table {
	var t crypt.Table
	for i := 0; i < 256; i++ {
		t[i] = byte(i)*mul + add
	}
	t.Inverse()
	return &t
}

func (b *Bank) writeHeader() {
	h := b.dat
	copy(h[abi.MagicOffset:], format.Magic)
	copy(h[abi.MajorOffset:], twoDigits(b.opts.Version.Major))
	h[abi.MajorOffset+abi.VersionDigits] = '.'
	copy(h[abi.MinorOffset:], twoDigits(b.opts.Version.Minor))

	var flags uint64
	if b.opts.Encrypted {
		flags |= abi.FlagEncrypted
	}
	if b.opts.Compressed {
		flags |= abi.FlagCompressed
	}
	require.NoError(b.t, format.PutValue(h, b.a, abi.HeaderFlags, 0, flags))
	require.NoError(b.t, format.PutValue(h, b.a, abi.HeaderBlockLength, 0, uint64(b.opts.BlockLength)))

	l, err := b.a.Value(abi.HeaderSecret)
	require.NoError(b.t, err)
	copy(h[l.Offset:], b.secret)

	if b.a.Has(abi.HeaderCryptTable) {
		region, err := crypt.SealRegion(b.table, b.opts.Serial, b.secret)
		require.NoError(b.t, err)
		l, err := b.a.Value(abi.HeaderCryptTable)
		require.NoError(b.t, err)
		copy(h[l.Offset:], region)
	}
}

func twoDigits(n int) []byte {
	return []byte{byte('0' + n/10%10), byte('0' + n%10)}
}

// ABI returns the layout the bank is written with.
func (b *Bank) ABI() *abi.ABI { return b.a }

// Table returns the crypt table records are encrypted with.
func (b *Bank) Table() *crypt.Table { return b.table }

// Secret returns the header secret.
func (b *Bank) Secret() []byte { return b.secret }

// NextID returns the id the next record will get.
func (b *Bank) NextID() uint64 { return uint64(len(b.slots)) + 1 }

// DataSize returns the current .dat size.
func (b *Bank) DataSize() int64 { return int64(len(b.dat)) }

// Blocks returns the file offsets of id's blocks, first block first.
func (b *Bank) Blocks(id uint64) []int64 { return b.blocks[id] }

// Encode applies the bank's compression and encryption to payload as the
// writer of record id would.
func (b *Bank) Encode(id uint64, payload []byte) []byte {
	return b.EncodePrefix(payload, byte(id))
}

// EncodePrefix is Encode with an explicit crypt prefix.
func (b *Bank) EncodePrefix(payload []byte, prefix byte) []byte {
	out := append([]byte(nil), payload...)
	if b.opts.Compressed {
		z, err := crypt.Deflate(out)
		require.NoError(b.t, err)
		out = z
	}
	if b.opts.Encrypted {
		b.table.Encrypt(out, prefix)
	}
	return out
}

// Add encodes payload and stores it as a chained record.
func (b *Bank) Add(payload []byte) uint64 {
	id := b.NextID()
	return b.AddRaw(b.Encode(id, payload))
}

// AddPrefix is Add with an explicit crypt prefix.
func (b *Bank) AddPrefix(payload []byte, prefix byte) uint64 {
	return b.AddRaw(b.EncodePrefix(payload, prefix))
}

// AddRaw stores record as a chained record without encoding it.
func (b *Bank) AddRaw(record []byte) uint64 {
	id := b.NextID()
	firstHdr := format.FirstHeaderSize(b.a)
	contHdr := format.ContinuationHeaderSize(b.a)
	blockLen := int(b.opts.BlockLength)

	firstCap := blockLen - firstHdr
	contCap := blockLen - contHdr
	chunks := [][]byte{record[:min(len(record), firstCap)]}
	for rest := record[len(chunks[0]):]; len(rest) > 0; {
		n := min(len(rest), contCap)
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}

	offs := make([]int64, len(chunks))
	for i := range chunks {
		offs[i] = int64(len(b.dat)) + int64(i*blockLen)
	}
	for i, c := range chunks {
		blk := make([]byte, blockLen)
		var next uint64
		if i+1 < len(offs) {
			next = uint64(offs[i+1])
		}
		if i == 0 {
			require.NoError(b.t, format.PutValue(blk, b.a, abi.FirstBlockNext, 0, next))
			require.NoError(b.t, format.PutValue(blk, b.a, abi.FirstBlockRecordSize, 0, uint64(firstHdr+len(record))))
			copy(blk[firstHdr:], c)
		} else {
			require.NoError(b.t, format.PutValue(blk, b.a, abi.BlockNext, 0, next))
			copy(blk[contHdr:], c)
		}
		b.dat = append(b.dat, blk...)
	}
	b.blocks[id] = offs
	b.addSlot(offs[0], uint32(firstHdr+len(chunks[0])), false)
	return id
}

// AddNoBlock encodes payload and stores it as an inline v3 record.
func (b *Bank) AddNoBlock(payload []byte) uint64 {
	require.True(b.t, b.a.Has(abi.EntryNoBlock), "no-block records need a v3 layout")
	id := b.NextID()
	rec := b.Encode(id, payload)
	off := int64(len(b.dat))
	b.dat = append(b.dat, rec...)
	b.blocks[id] = []int64{off}
	b.addSlot(off, uint32(len(rec)), true)
	return id
}

// AddInactive appends an unused slot.
func (b *Bank) AddInactive() uint64 {
	id := b.NextID()
	slot := make([]byte, b.a.MustConst(abi.EntrySize))
	require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryLength, 0, abi.InvalidLength))
	b.slots = append(b.slots, slot)
	return id
}

// AddDeleted appends a slot that points at data but is marked deleted.
func (b *Bank) AddDeleted(payload []byte) uint64 {
	id := b.AddRaw(payload)
	slot := b.slots[id-1]
	if b.a.Has(abi.EntryDeleted) {
		require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryDeleted, 0, ^uint64(0)))
	} else {
		require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryFlags, 0, abi.DeletedFlags))
	}
	return id
}

func (b *Bank) addSlot(off int64, length uint32, noBlock bool) {
	slot := make([]byte, b.a.MustConst(abi.EntrySize))
	require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryOffset, 0, uint64(off)))
	require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryLength, 0, uint64(length)))
	require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryFlags, 0, 0x00C0FFEE))
	if noBlock {
		require.NoError(b.t, format.PutValue(slot, b.a, abi.EntryNoBlock, 0, ^uint64(0)))
	}
	b.slots = append(b.slots, slot)
}

// SetNext rewrites the next pointer of block i (0 is the first block) of id.
func (b *Bank) SetNext(id uint64, i int, next int64) {
	offs := b.blocks[id]
	require.Less(b.t, i, len(offs))
	tag := abi.BlockNext
	if i == 0 {
		tag = abi.FirstBlockNext
	}
	require.NoError(b.t, format.PutValue(b.dat, b.a, tag, int(offs[i]), uint64(next)))
}

// SetRecordSize rewrites the declared record size in id's first block.
func (b *Bank) SetRecordSize(id uint64, size uint32) {
	require.NoError(b.t, format.PutValue(b.dat, b.a, abi.FirstBlockRecordSize, int(b.blocks[id][0]), uint64(size)))
}

// SetEntryOffset rewrites the data offset of id's slot.
func (b *Bank) SetEntryOffset(id uint64, off int64) {
	require.NoError(b.t, format.PutValue(b.slots[id-1], b.a, abi.EntryOffset, 0, uint64(off)))
}

// IndexBytes returns the .tad image.
func (b *Bank) IndexBytes() []byte {
	out := make([]byte, b.a.MustConst(abi.TadHeaderSize))
	for _, s := range b.slots {
		out = append(out, s...)
	}
	return out
}

// DataBytes returns the .dat image.
func (b *Bank) DataBytes() []byte { return b.dat }

// Write stores the pair as base.dat and base.tad and returns base.
func (b *Bank) Write(base string) string {
	b.t.Helper()
	require.NoError(b.t, os.WriteFile(base+format.DataExt, b.dat, 0o644))
	require.NoError(b.t, os.WriteFile(base+format.IndexExt, b.IndexBytes(), 0o644))
	return base
}
