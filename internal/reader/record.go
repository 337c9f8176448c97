package reader

import (
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/crypt"
	"github.com/joshuapare/cronokit/pkg/types"
)

// SetupCrypt installs the decrypt table for serial. Small-model files use
// the built-in table; big-model files decode theirs from the header region.
// It may be called once per File.
func (f *File) SetupCrypt(serial uint32) error {
	if err := f.ensureOpen(); err != nil {
		return err
	}
	if f.table != nil {
		return &types.Error{Kind: types.ErrKindState, Msg: "crypt table already set up", Path: f.datPath}
	}
	if f.abi.Model() == abi.ModelSmall {
		f.table = crypt.Builtin()
		return nil
	}
	t, err := crypt.FromRegion(f.head.CryptRegion, serial, f.head.Secret)
	if err != nil {
		return wrapCryptErr(f.datPath, err)
	}
	t.Inverse()
	f.table = t
	f.log.Debug("crypt table ready", "serial", serial)
	return nil
}

// CryptTable returns the installed table, or nil before SetupCrypt.
func (f *File) CryptTable() *crypt.Table { return f.table }

// LoadRecord reassembles id from m, decrypting with the low byte of id as
// prefix and inflating when the header asks for it.
func (f *File) LoadRecord(m *RecordMap, blocks *BlockTable, id uint64) (*buf.Buffer, error) {
	return f.LoadRecordPrefix(m, blocks, id, byte(id))
}

// LoadRecordPrefix is LoadRecord with an explicit decrypt prefix.
func (f *File) LoadRecordPrefix(m *RecordMap, blocks *BlockTable, id uint64, prefix byte) (*buf.Buffer, error) {
	if err := f.ensureOpen(); err != nil {
		return nil, err
	}
	if err := m.Err(id); err != nil {
		return nil, err
	}
	parts, ok := m.Parts(id)
	if !ok {
		return nil, &types.Error{Kind: types.ErrKindState, Msg: fmt.Sprintf("id %d not mapped", id), Path: f.datPath, ID: id}
	}

	e := buf.Entity{File: abi.FileData, ID: id}
	data := make([]byte, 0, m.Size(id))
	for _, p := range parts {
		var src *buf.Buffer
		var err error
		if blocks != nil && blocks.covers(p.Offset, p.Size) {
			src, err = blocks.At(p.Offset, p.Size)
		} else {
			src, err = f.readSpan(id, p.Offset, p.Size)
		}
		if err != nil {
			return nil, wrapRecordErr(f.datPath, id, err)
		}
		data = append(data, src.Bytes()...)
	}
	var off int64
	if len(parts) > 0 {
		off = parts[0].Offset
	}
	return f.decode(buf.Own(e, off, data), prefix)
}

// decode applies the header's decrypt and inflate steps to an owned record.
func (f *File) decode(b *buf.Buffer, prefix byte) (*buf.Buffer, error) {
	if f.head.Encrypted() {
		if f.table == nil {
			return nil, &types.Error{Kind: types.ErrKindCrypto, Msg: "record is encrypted but no crypt table is set up", Path: f.datPath, ID: b.ID, Err: types.ErrNoCryptTable}
		}
		f.table.Decrypt(b.Bytes(), prefix)
	}
	if f.head.Compressed() && b.Len() > 0 {
		out, inflated, err := crypt.Inflate(b.Bytes())
		if err != nil {
			return nil, &types.Error{Kind: types.ErrKindCompress, Msg: "inflate failed", Path: f.datPath, ID: b.ID, Err: err}
		}
		if !inflated {
			f.log.Warn("record not compressed, returning raw bytes", "id", b.ID, "size", b.Len())
			return b, nil
		}
		b.Write(out)
	}
	return b, nil
}

// Records runs the burst loop over the whole file and calls fn for every
// active id, in id order. A record that fails to load is passed to fn with
// its error and a nil buffer; fn decides whether to continue. Table-level
// failures stop the loop and are returned. Returning a non-nil error from fn
// stops the loop and returns that error.
func (f *File) Records(fn func(id uint64, rec *buf.Buffer, err error) error) error {
	f.Rewind()
	for n := f.OptimalEntryCount(); n > 0; n = f.OptimalEntryCount() {
		entries, err := f.LoadEntryTable(f.NextID(), n)
		if err != nil {
			return err
		}
		if entries.Count() == 0 {
			return nil
		}
		for id := entries.IDStart; id < entries.IDEnd; {
			c := f.OptimalRecordCount(entries, id)
			blocks, err := f.LoadBlockTable(entries, id, c)
			if err != nil {
				return err
			}
			records := f.LoadRecordMap(entries, blocks)
			for rid := blocks.IDStart; rid < blocks.IDEnd; rid++ {
				if !entries.Entry(rid).IsActive() {
					continue
				}
				rec, err := f.LoadRecord(records, blocks, rid)
				if cbErr := fn(rid, rec, err); cbErr != nil {
					return cbErr
				}
			}
			blocks.Release()
			id += uint64(c)
		}
		entries.Release()
	}
	return nil
}
