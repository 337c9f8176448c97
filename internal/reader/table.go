package reader

import (
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
)

// TableWindow is one paginated load: a buffer tagged with the id range
// [IDStart, IDEnd) it serves.
type TableWindow struct {
	*buf.Buffer
	IDStart uint64
	IDEnd   uint64
}

// Count returns the number of ids in the window.
func (w *TableWindow) Count() int { return int(w.IDEnd - w.IDStart) }

// Contains reports whether id lies in [IDStart, IDEnd).
func (w *TableWindow) Contains(id uint64) bool { return id >= w.IDStart && id < w.IDEnd }

// mustContain enforces the window invariant; a violation is a bug in the caller.
func (w *TableWindow) mustContain(id uint64) {
	if !w.Contains(id) {
		panic(fmt.Sprintf("reader: id %d outside window [%d,%d)", id, w.IDStart, w.IDEnd))
	}
}

// EntryTable is a window over the .tad file with its slots decoded.
type EntryTable struct {
	TableWindow
	entries []format.Entry
}

// Entry returns the decoded slot for id. id must lie in the window.
func (t *EntryTable) Entry(id uint64) format.Entry {
	t.mustContain(id)
	return t.entries[id-t.IDStart]
}

// Entries returns all decoded slots in id order.
func (t *EntryTable) Entries() []format.Entry { return t.entries }

// Active returns the number of active slots.
func (t *EntryTable) Active() int {
	n := 0
	for _, e := range t.entries {
		if e.IsActive() {
			n++
		}
	}
	return n
}

func (t *EntryTable) nextActive(from uint64) (uint64, bool) {
	for id := max(from, t.IDStart); id < t.IDEnd; id++ {
		if t.entries[id-t.IDStart].IsActive() {
			return id, true
		}
	}
	return 0, false
}

// LoadEntryTable reads count slots starting at id (1-based). The window is
// shortened to the slots that physically exist; an empty window means the
// end of the .tad file. The .tad read position moves past the window.
func (f *File) LoadEntryTable(id uint64, count int) (*EntryTable, error) {
	if err := f.ensureOpen(); err != nil {
		return nil, err
	}
	if id == 0 {
		panic("reader: entry ids are 1-based")
	}
	e := buf.Entity{File: abi.FileIndex, ID: id}
	t := &EntryTable{TableWindow: TableWindow{IDStart: id, IDEnd: id}}

	total := f.EntryCount()
	if id > total || count <= 0 {
		t.Buffer = buf.New(e, f.entryPos(id), 0)
		return t, nil
	}
	n := min(uint64(count), total-id+1)

	size := int(f.entrySize())
	b, err := f.Read(e, f.entryPos(id), size, int(n))
	if err != nil {
		return nil, err
	}
	got := uint64(b.Len() / size)
	t.Buffer = b
	t.IDEnd = id + got
	t.entries = make([]format.Entry, got)
	for i := range t.entries {
		ent, err := format.DecodeEntry(f.abi, b, i*size, id+uint64(i))
		if err != nil {
			return nil, wrapRecordErr(f.tadPath, id+uint64(i), err)
		}
		t.entries[i] = ent
	}
	f.tadPos = f.entryPos(t.IDEnd)
	return t, nil
}

// BlockTable is a window over the .dat file covering the first blocks of a
// run of entries. Its buffer offset is the file offset of its first byte.
type BlockTable struct {
	TableWindow
}

// LoadBlockTable reads the .dat span covered by the active entries in
// [id, id+count): from the lowest declared offset to the highest declared
// end. The read never passes the physical end of the .dat file.
func (f *File) LoadBlockTable(entries *EntryTable, id uint64, count int) (*BlockTable, error) {
	if err := f.ensureOpen(); err != nil {
		return nil, err
	}
	end := min(id+uint64(max(count, 0)), entries.IDEnd)
	start := max(id, entries.IDStart)
	t := &BlockTable{TableWindow: TableWindow{IDStart: start, IDEnd: max(start, end)}}
	e := buf.Entity{File: abi.FileData, ID: start}

	lo, hi := int64(-1), int64(0)
	for rid := start; rid < end; rid++ {
		ent := entries.Entry(rid)
		if !ent.IsActive() {
			continue
		}
		if lo < 0 || ent.Offset < lo {
			lo = ent.Offset
		}
		hi = max(hi, ent.End())
	}
	hi = min(hi, f.datSize)
	if lo < 0 || lo >= hi {
		t.Buffer = buf.New(e, 0, 0)
		return t, nil
	}

	b, err := f.Read(e, lo, 1, int(hi-lo))
	if err != nil {
		return nil, err
	}
	t.Buffer = b
	return t, nil
}

// covers reports whether the window holds the file span [off, off+n).
func (t *BlockTable) covers(off int64, n int) bool {
	return t.Buffer != nil && off >= t.Offset && off+int64(n) <= t.End()
}
