package reader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/pkg/types"
)

// Read is the raw read primitive: it reads count elements of size bytes
// starting at pos in the file named by e.File.
//
// A short read shrinks the buffer to the whole elements actually read. Zero
// elements at or past EOF yields an empty buffer; zero elements before EOF
// is an IO error. Any OS error other than EOF is an IO error.
func (f *File) Read(e buf.Entity, pos int64, size, count int) (*buf.Buffer, error) {
	if err := f.ensureOpen(); err != nil {
		return nil, err
	}
	file, path, fsize, err := f.handle(e.File)
	if err != nil {
		return nil, err
	}
	total, ok := buf.MulOverflowSafe(int64(size), int64(count))
	if !ok || size <= 0 {
		return nil, &types.Error{
			Kind: types.ErrKindOffset,
			Msg:  fmt.Sprintf("bad read geometry %d x %d", count, size),
			Path: path, ID: e.ID,
		}
	}
	if pos < 0 {
		return nil, &types.Error{
			Kind: types.ErrKindOffset, Msg: "seek before start of file", Path: path, ID: e.ID,
			Err: &buf.OffsetError{Entity: e, Kind: buf.OffsetBehind, Offset: pos, Size: total, Limit: fsize},
		}
	}

	b := buf.New(e, pos, int(total))
	n, err := file.ReadAt(b.Bytes(), pos)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, wrapIOErr(path, e.ID, err)
	}
	elems := n / size
	if elems == 0 && total > 0 && pos < fsize {
		return nil, wrapIOErr(path, e.ID, fmt.Errorf("short read at %d: %d of %d bytes", pos, n, size))
	}
	b.Truncate(elems * size)
	return b, nil
}

// readRaw reads n bytes at pos from file, failing on any short read.
func (f *File) readRaw(file *os.File, path string, e buf.Entity, pos int64, n int) (*buf.Buffer, error) {
	b := buf.New(e, pos, n)
	if _, err := file.ReadAt(b.Bytes(), pos); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, wrapIOErr(path, e.ID, fmt.Errorf("unexpected EOF at %d: %w", pos, err))
		}
		return nil, wrapIOErr(path, e.ID, err)
	}
	return b, nil
}

func (f *File) handle(kind abi.FileKind) (*os.File, string, int64, error) {
	switch kind {
	case abi.FileData:
		return f.dat, f.datPath, f.datSize, nil
	case abi.FileIndex:
		return f.tad, f.tadPath, f.tadSize, nil
	default:
		return nil, "", 0, &types.Error{Kind: types.ErrKindState, Msg: "no file backs " + kind.String()}
	}
}

// readSpan reads exactly [off, off+n) of the .dat file for record id,
// validating the span against the physical size first.
func (f *File) readSpan(id uint64, off int64, n int) (*buf.Buffer, error) {
	e := buf.Entity{File: abi.FileData, ID: id}
	if err := buf.CheckSpan(e, off, int64(n), 0, f.datSize); err != nil {
		return nil, err
	}
	if n == 0 {
		return buf.New(e, off, 0), nil
	}
	b, err := f.Read(e, off, n, 1)
	if err != nil {
		return nil, err
	}
	if b.Len() != n {
		return nil, chainErr("short read of %d bytes at %d", n, off)
	}
	return b, nil
}
