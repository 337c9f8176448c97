package reader

import (
	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
)

// Part is one contiguous payload span of a record in the .dat file.
type Part struct {
	Offset int64
	Size   int
}

// RecordMap maps each active id of a block window to the payload parts of
// its record, in chain order. Records whose chain could not be walked carry
// an error instead of parts.
type RecordMap struct {
	IDStart uint64
	IDEnd   uint64

	parts map[uint64][]Part
	errs  map[uint64]error
}

// Parts returns the parts mapped for id and whether id was mapped.
func (m *RecordMap) Parts(id uint64) ([]Part, bool) {
	p, ok := m.parts[id]
	return p, ok
}

// Err returns the chain error recorded for id, if any.
func (m *RecordMap) Err(id uint64) error { return m.errs[id] }

// Len returns the number of ids mapped successfully.
func (m *RecordMap) Len() int { return len(m.parts) }

// Size returns the reassembled size of id's record.
func (m *RecordMap) Size(id uint64) int {
	n := 0
	for _, p := range m.parts[id] {
		n += p.Size
	}
	return n
}

// LoadRecordMap walks the block chain of every active entry covered by
// blocks exactly once. A broken chain is recorded against its id and does not
// stop the walk of the others.
func (f *File) LoadRecordMap(entries *EntryTable, blocks *BlockTable) *RecordMap {
	m := &RecordMap{
		IDStart: blocks.IDStart,
		IDEnd:   blocks.IDEnd,
		parts:   make(map[uint64][]Part),
		errs:    make(map[uint64]error),
	}
	for id := blocks.IDStart; id < blocks.IDEnd; id++ {
		e := entries.Entry(id)
		if !e.IsActive() {
			continue
		}
		parts, err := f.walk(e, blocks)
		if err != nil {
			err = wrapRecordErr(f.datPath, id, err)
			m.errs[id] = err
			f.log.Debug("record chain broken", "id", id, "err", err)
			continue
		}
		m.parts[id] = parts
	}
	return m
}

// walk resolves the parts of one record.
func (f *File) walk(e format.Entry, blocks *BlockTable) ([]Part, error) {
	if !e.HasBlock() {
		if err := buf.CheckSpan(buf.Entity{File: abi.FileData, ID: e.ID}, e.Offset, int64(e.Length), abi.HeaderBytes, f.datSize); err != nil {
			return nil, err
		}
		return []Part{{Offset: e.Offset, Size: int(e.Length)}}, nil
	}

	firstSize := format.FirstHeaderSize(f.abi)
	contSize := format.ContinuationHeaderSize(f.abi)
	blockLen := int64(f.head.BlockLength)

	hdr, err := f.blockHeader(e.ID, blocks, e.Offset, firstSize)
	if err != nil {
		return nil, err
	}
	first, err := format.DecodeFirstBlock(f.abi, hdr, e.Offset)
	if err != nil {
		return nil, err
	}

	remaining := int64(first.RecordSize) - int64(firstSize)
	n := remaining
	if first.Next != 0 {
		n = min(n, blockLen-int64(firstSize))
	} else {
		n = min(n, int64(e.Length)-int64(firstSize))
	}
	n = max(n, 0)
	parts := make([]Part, 0, 1+remaining/max(blockLen-int64(contSize), 1))
	if n > 0 {
		parts = append(parts, Part{Offset: first.Payload(), Size: int(n)})
	}
	if err := f.checkPart(e.ID, first.Payload(), n); err != nil {
		return nil, err
	}
	remaining -= n

	visited := map[int64]struct{}{e.Offset: {}}
	next := first.Next
	for remaining > 0 {
		if next == 0 {
			return nil, chainErr("chain ended with %d of %d bytes missing", remaining, first.RecordSize)
		}
		if _, seen := visited[next]; seen {
			return nil, chainErr("block %d revisited", next)
		}
		visited[next] = struct{}{}
		if err := buf.CheckSpan(buf.Entity{File: abi.FileData, ID: e.ID}, next, int64(contSize), abi.HeaderBytes, f.datSize); err != nil {
			return nil, chainErr("next block %d outside data file (size %d), %d bytes missing", next, f.datSize, remaining)
		}

		hdr, err := f.blockHeader(e.ID, blocks, next, contSize)
		if err != nil {
			return nil, err
		}
		blk, err := format.DecodeBlock(f.abi, hdr, next)
		if err != nil {
			return nil, err
		}
		n := min(remaining, blockLen-int64(contSize))
		if err := f.checkPart(e.ID, blk.Payload(), n); err != nil {
			return nil, err
		}
		parts = append(parts, Part{Offset: blk.Payload(), Size: int(n)})
		remaining -= n
		next = blk.Next
	}
	return parts, nil
}

// blockHeader returns n header bytes at off, from the window when it covers
// them and from the file otherwise.
func (f *File) blockHeader(id uint64, blocks *BlockTable, off int64, n int) (*buf.Buffer, error) {
	if blocks.covers(off, n) {
		return blocks.At(off, n)
	}
	return f.readSpan(id, off, n)
}

func (f *File) checkPart(id uint64, off, n int64) error {
	if err := buf.CheckSpan(buf.Entity{File: abi.FileData, ID: id}, off, n, abi.HeaderBytes, f.datSize); err != nil {
		return chainErr("payload [%d,+%d) outside data file (size %d)", off, n, f.datSize)
	}
	return nil
}
