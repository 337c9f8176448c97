package cronos

// Stats describes the data file of a bank.
type Stats struct {
	Version     string
	Family      string
	Lite        bool
	Model       string
	Encrypted   bool
	Compressed  bool
	BlockLength int
	DataSize    int64
	IndexSize   int64
	Entries     uint64 // slots in the index file
	Active      uint64 // slots that refer to a live record
	Bases       int
	Formulas    int
}

// Stats reads the whole index file once to count active entries. Record
// data is not touched.
func (b *Bank) Stats() (Stats, error) {
	f := b.data
	a := f.ABI()
	h := f.Header()
	st := Stats{
		Version:     h.Version.String(),
		Family:      a.Family(),
		Lite:        a.IsLite(),
		Model:       a.Model().String(),
		Encrypted:   h.Encrypted(),
		Compressed:  h.Compressed(),
		BlockLength: int(h.BlockLength),
		DataSize:    f.DataSize(),
		IndexSize:   f.IndexSize(),
		Entries:     f.EntryCount(),
		Bases:       len(b.schema.Bases),
		Formulas:    len(b.schema.Formulas),
	}

	f.Rewind()
	defer f.Rewind()
	for n := f.OptimalEntryCount(); n > 0; n = f.OptimalEntryCount() {
		t, err := f.LoadEntryTable(f.NextID(), n)
		if err != nil {
			return Stats{}, err
		}
		if t.Count() == 0 {
			break
		}
		st.Active += uint64(t.Active())
		t.Release()
	}
	return st, nil
}
