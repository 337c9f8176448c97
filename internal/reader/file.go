// Package reader opens a Cronos .dat/.tad pair and exposes paginated,
// bounds-checked access to its entries, blocks, and reassembled records.
//
// A File is owned by one goroutine. The typical burst loop is:
//
//	f.SetTableLimits(budget)
//	for n := f.OptimalEntryCount(); n > 0; n = f.OptimalEntryCount() {
//	    entries, _ := f.LoadEntryTable(f.NextID(), n)
//	    for id := entries.IDStart; id < entries.IDEnd; {
//	        c := f.OptimalRecordCount(entries, id)
//	        blocks, _ := f.LoadBlockTable(entries, id, c)
//	        records := f.LoadRecordMap(entries, blocks)
//	        ... f.LoadRecord(records, blocks, rid) ...
//	        id += uint64(c)
//	    }
//	}
//
// Tables and record maps from one burst should be dropped before the next
// burst is requested; the budget is advisory and not enforced here.
package reader

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/crypt"
	"github.com/joshuapare/cronokit/internal/fileio"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/pkg/types"
)

// DefaultBudget is the table memory budget used until SetTableLimits is called.
const DefaultBudget = 64 << 20

// Options configures Open.
type Options struct {
	// Registry resolves format versions. Nil creates a private registry.
	Registry *abi.Registry
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// File is an opened .dat/.tad pair.
type File struct {
	base    string
	datPath string
	tadPath string
	dat     *os.File
	tad     *os.File
	datSize int64
	tadSize int64

	abi   *abi.ABI
	head  format.Header
	table *crypt.Table
	log   *slog.Logger

	entryBudget int64
	blockBudget int64
	tadPos      int64

	closed bool
}

// Open opens base+".dat" and base+".tad", parses the header, and resolves the
// ABI. Both files must exist. A header whose version cannot be resolved is
// rejected with a Version error.
func Open(base string, opts Options) (*File, error) {
	if opts.Registry == nil {
		opts.Registry = abi.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	f := &File{
		base:    base,
		datPath: base + format.DataExt,
		tadPath: base + format.IndexExt,
		log:     opts.Logger.With("file", base),
	}
	var err error
	if f.dat, err = fileio.Open(f.datPath); err != nil {
		return nil, wrapOpenErr(f.datPath, err)
	}
	if f.tad, err = fileio.Open(f.tadPath); err != nil {
		_ = f.dat.Close()
		return nil, wrapOpenErr(f.tadPath, err)
	}
	if err := f.init(opts.Registry); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) init(reg *abi.Registry) error {
	st, err := f.dat.Stat()
	if err != nil {
		return wrapOpenErr(f.datPath, err)
	}
	f.datSize = st.Size()
	st, err = f.tad.Stat()
	if err != nil {
		return wrapOpenErr(f.tadPath, err)
	}
	f.tadSize = st.Size()

	n := min(f.datSize, abi.HeaderBytes)
	hb, err := f.readRaw(f.dat, f.datPath, buf.Entity{File: abi.FileData}, 0, int(n))
	if err != nil {
		return err
	}
	head, a, err := format.ParseHeader(hb, reg)
	if err != nil {
		return wrapHeaderErr(f.datPath, err)
	}
	minBlock := max(format.FirstHeaderSize(a), format.ContinuationHeaderSize(a))
	if int(head.BlockLength) <= minBlock {
		return &types.Error{
			Kind: types.ErrKindVersion,
			Msg:  fmt.Sprintf("block length %d does not exceed header size %d", head.BlockLength, minBlock),
			Path: f.datPath,
		}
	}

	f.head = head
	f.abi = a
	f.SetTableLimits(DefaultBudget)
	f.Rewind()
	f.log.Debug("opened bank file", "version", head.Version.String(), "family", a.Family(),
		"lite", a.IsLite(), "model", a.Model().String(), "encrypted", head.Encrypted(),
		"compressed", head.Compressed(), "dat", f.datSize, "tad", f.tadSize)
	return nil
}

// Close releases both file handles. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	var first error
	if f.dat != nil {
		first = f.dat.Close()
	}
	if f.tad != nil {
		if err := f.tad.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *File) ensureOpen() error {
	if f.closed {
		return types.ErrClosed
	}
	return nil
}

// Path returns the base path the pair was opened from.
func (f *File) Path() string { return f.base }

// ABI returns the resolved layout.
func (f *File) ABI() *abi.ABI { return f.abi }

// Header returns the parsed .dat header.
func (f *File) Header() format.Header { return f.head }

// DataSize returns the physical size of the .dat file.
func (f *File) DataSize() int64 { return f.datSize }

// IndexSize returns the physical size of the .tad file.
func (f *File) IndexSize() int64 { return f.tadSize }

// EntryCount returns how many whole slots the .tad file holds.
func (f *File) EntryCount() uint64 {
	first := f.firstEntryOffset()
	if f.tadSize <= first {
		return 0
	}
	return uint64((f.tadSize - first) / f.entrySize())
}

func (f *File) entrySize() int64        { return int64(f.abi.MustConst(abi.EntrySize)) }
func (f *File) firstEntryOffset() int64 { return int64(f.abi.MustConst(abi.TadHeaderSize)) }

// entryPos returns the .tad offset of slot id (1-based).
func (f *File) entryPos(id uint64) int64 {
	return f.firstEntryOffset() + int64(id-1)*f.entrySize()
}
