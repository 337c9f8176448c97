package reader

// SetTableLimits splits a caller-given memory budget: a quarter for entry
// tables, the remaining three quarters for block tables.
func (f *File) SetTableLimits(total int64) {
	if total < 0 {
		total = 0
	}
	f.entryBudget = total / 4
	f.blockBudget = total/2 + total/4
}

// TableLimits returns the current (entry, block) budgets in bytes.
func (f *File) TableLimits() (entries, blocks int64) {
	return f.entryBudget, f.blockBudget
}

// Rewind moves the .tad read position back to the first entry.
func (f *File) Rewind() { f.tadPos = f.firstEntryOffset() }

// NextID returns the id of the first entry not yet loaded.
func (f *File) NextID() uint64 {
	return uint64((f.tadPos-f.firstEntryOffset())/f.entrySize()) + 1
}

// OptimalEntryCount returns how many entries the next entry table should
// hold: as many as fit in the entry budget without passing the end of the
// .tad file. It returns 0 once every entry has been loaded, and at least 1
// otherwise.
func (f *File) OptimalEntryCount() int {
	size := f.entrySize()
	remaining := f.tadSize - f.tadPos
	if remaining < size {
		return 0
	}
	n := min(f.entryBudget, remaining) / size
	return int(max(n, 1))
}

// OptimalRecordCount returns how many ids, starting at start, the next block
// table should cover. It scans from the first active entry at or after
// start, extending the span while the entries' data stays inside the block
// budget. Inactive entries are skipped, and a data offset lower than the
// previous active one (a corrupt chain) ends the scan. A window whose
// remaining entries are all inactive is covered in one step.
func (f *File) OptimalRecordCount(t *EntryTable, start uint64) int {
	if start < t.IDStart || start >= t.IDEnd {
		return 0
	}
	first, ok := t.nextActive(start)
	if !ok {
		return int(t.IDEnd - start)
	}

	base := t.Entry(first)
	prev := base
	last := first
	for id := first + 1; id < t.IDEnd; id++ {
		e := t.Entry(id)
		if !e.IsActive() {
			continue
		}
		if e.Offset < prev.Offset {
			return int(last - start + 1)
		}
		if e.End()-base.Offset > f.blockBudget {
			return int(last - start + 1)
		}
		prev, last = e, id
	}
	return int(t.IDEnd - start)
}
