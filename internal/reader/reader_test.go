package reader

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/testutil"
	"github.com/joshuapare/cronokit/pkg/types"
)

func openBank(t *testing.T, b *testutil.Bank, opts Options) *File {
	t.Helper()
	base := b.Write(filepath.Join(t.TempDir(), format.BankStem))
	f, err := Open(base, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// collect runs the burst loop and returns every record and every per-record error.
func collect(t *testing.T, f *File) (map[uint64][]byte, map[uint64]error, []uint64) {
	t.Helper()
	recs := make(map[uint64][]byte)
	errs := make(map[uint64]error)
	var order []uint64
	err := f.Records(func(id uint64, rec *buf.Buffer, err error) error {
		order = append(order, id)
		if err != nil {
			errs[id] = err
			return nil
		}
		recs[id] = rec.Copy().Bytes()
		return nil
	})
	require.NoError(t, err)
	return recs, errs, order
}

// noise returns n deterministic bytes that deflate does not shrink much.
func noise(n int, seed uint32) []byte {
	out := make([]byte, n)
	x := seed
	for i := range out {
		x = x*1664525 + 1013904223
		out[i] = byte(x >> 24)
	}
	return out
}

func TestOpen_V4LiteResolvesFamily(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V4Lite})
	b.Add([]byte("x"))
	f := openBank(t, b, Options{})

	require.Equal(t, "v4", f.ABI().Family())
	require.True(t, f.ABI().IsLite())
	require.Equal(t, abi.Version{Major: 1, Minor: 13}, f.Header().Version)
	require.Equal(t, uint64(1), f.EntryCount())
}

func TestOpen_MissingIndexFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), format.BankStem)
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
	require.NoError(t, os.WriteFile(base+format.DataExt, b.DataBytes(), 0o644))

	_, err := Open(base, Options{})
	require.Error(t, err)
	require.True(t, types.IsKind(err, types.ErrKindOpen), "got %v", err)
}

func TestOpen_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h []byte)
	}{
		{"bad magic", func(h []byte) { copy(h, "NotCron") }},
		{"unknown minor", func(h []byte) { copy(h[abi.MinorOffset:], "07") }},
		{"non digit major", func(h []byte) { copy(h[abi.MajorOffset:], "x1") }},
		{"header-only version", func(h []byte) {
			copy(h[abi.MajorOffset:], "00")
			copy(h[abi.MinorOffset:], "00")
		}},
		{"block length too small", func(h []byte) { h[abi.BlockLengthOffset], h[abi.BlockLengthOffset+1] = 4, 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
			b.Add([]byte("payload"))
			tt.mutate(b.DataBytes())
			base := b.Write(filepath.Join(t.TempDir(), format.BankStem))

			var err error
			require.NotPanics(t, func() { _, err = Open(base, Options{}) })
			require.Error(t, err)
			require.True(t, types.IsKind(err, types.ErrKindVersion), "got %v", err)
		})
	}
}

func TestOpen_EmptyDataFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), format.BankStem)
	require.NoError(t, os.WriteFile(base+format.DataExt, nil, 0o644))
	require.NoError(t, os.WriteFile(base+format.IndexExt, nil, 0o644))

	_, err := Open(base, Options{})
	require.True(t, types.IsKind(err, types.ErrKindVersion), "got %v", err)
}

func TestRecords_PlainChainedRoundTrip(t *testing.T) {
	for _, v := range []abi.Version{testutil.V3Pro, testutil.V4Pro, testutil.V4Small} {
		t.Run(v.String(), func(t *testing.T) {
			b := testutil.NewBank(t, testutil.BankOptions{Version: v, BlockLength: 64})
			short := []byte("short record")
			long := noise(300, 7)
			id1 := b.Add(short)
			id2 := b.Add(long)
			require.Greater(t, len(b.Blocks(id2)), 3)

			f := openBank(t, b, Options{})
			recs, errs, _ := collect(t, f)
			require.Empty(t, errs)
			require.Equal(t, short, recs[id1])
			require.Equal(t, long, recs[id2])
		})
	}
}

func TestRecordMap_PartSizesSumToRecord(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 64})
	id := b.Add(noise(150, 3))
	f := openBank(t, b, Options{})

	entries, err := f.LoadEntryTable(1, 1)
	require.NoError(t, err)
	blocks, err := f.LoadBlockTable(entries, 1, 1)
	require.NoError(t, err)
	m := f.LoadRecordMap(entries, blocks)

	parts, ok := m.Parts(id)
	require.True(t, ok)
	// 64-byte blocks: 56 bytes after the v3 first header, 60 after each continuation header.
	require.Equal(t, []Part{
		{Offset: b.Blocks(id)[0] + 8, Size: 56},
		{Offset: b.Blocks(id)[1] + 4, Size: 60},
		{Offset: b.Blocks(id)[2] + 4, Size: 34},
	}, parts)
	require.Equal(t, 150, m.Size(id))
}

func TestRecords_EncryptedCompressed(t *testing.T) {
	tests := []struct {
		name   string
		v      abi.Version
		serial uint32
	}{
		{"v3 big", testutil.V3Pro, 4711},
		{"v3 small", testutil.V3Small, 0},
		{"v4 lite", testutil.V4Lite, 99},
		{"v4 small", testutil.V4Small, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBank(t, testutil.BankOptions{
				Version: tt.v, BlockLength: 128, Encrypted: true, Compressed: true, Serial: tt.serial,
			})
			text := bytes.Repeat([]byte("cronos bank record "), 30)
			raw := noise(700, 11)
			id1 := b.Add(text)
			id2 := b.Add(raw)

			f := openBank(t, b, Options{})
			require.NoError(t, f.SetupCrypt(tt.serial))
			recs, errs, _ := collect(t, f)
			require.Empty(t, errs)
			require.Equal(t, text, recs[id1])
			require.Equal(t, raw, recs[id2])
		})
	}
}

func TestSetupCrypt(t *testing.T) {
	t.Run("wrong serial yields crypto error", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true, Serial: 1234})
		b.Add([]byte("secret"))
		f := openBank(t, b, Options{})
		err := f.SetupCrypt(4321)
		require.True(t, types.IsKind(err, types.ErrKindCrypto), "got %v", err)
		require.Nil(t, f.CryptTable())
	})

	t.Run("second setup is a state error", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Small, Encrypted: true})
		f := openBank(t, b, Options{})
		require.NoError(t, f.SetupCrypt(0))
		require.NotNil(t, f.CryptTable())
		err := f.SetupCrypt(0)
		require.True(t, types.IsKind(err, types.ErrKindState), "got %v", err)
	})

	t.Run("missing table fails each encrypted record", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, Encrypted: true})
		id := b.Add([]byte("secret"))
		f := openBank(t, b, Options{})
		_, errs, _ := collect(t, f)
		require.True(t, types.IsKind(errs[id], types.ErrKindCrypto), "got %v", errs[id])
	})
}

func TestRecords_InflateFallbackLogged(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, Compressed: true})
	id := b.AddRaw([]byte("hello"))

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := openBank(t, b, Options{Logger: log})

	recs, errs, _ := collect(t, f)
	require.Empty(t, errs)
	require.Equal(t, []byte("hello"), recs[id])
	require.Contains(t, logs.String(), "record not compressed, returning raw bytes")
}

func TestRecords_SkipsInactiveAndDeleted(t *testing.T) {
	for _, v := range []abi.Version{testutil.V3Pro, testutil.V4Pro} {
		t.Run(v.String(), func(t *testing.T) {
			b := testutil.NewBank(t, testutil.BankOptions{Version: v})
			b.AddInactive()
			live := b.Add([]byte("live"))
			b.AddDeleted([]byte("gone"))
			b.AddInactive()
			last := b.Add([]byte("last"))

			f := openBank(t, b, Options{})
			recs, errs, order := collect(t, f)
			require.Empty(t, errs)
			require.Equal(t, []uint64{live, last}, order)
			require.Equal(t, []byte("live"), recs[live])
			require.Equal(t, []byte("last"), recs[last])
		})
	}
}

func TestRecords_NoBlockEntry(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, Encrypted: true, Serial: 5})
	chained := b.Add([]byte("chained"))
	inline := b.AddNoBlock([]byte("inline record"))

	f := openBank(t, b, Options{})
	require.NoError(t, f.SetupCrypt(5))
	entries, err := f.LoadEntryTable(1, 2)
	require.NoError(t, err)
	require.Equal(t, format.EntryActiveNoBlock, entries.Entry(inline).State)

	f.Rewind()
	recs, errs, _ := collect(t, f)
	require.Empty(t, errs)
	require.Equal(t, []byte("chained"), recs[chained])
	require.Equal(t, []byte("inline record"), recs[inline])
}

func TestRecords_ChainPastEndOfFileIsolated(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 64})
	first := b.Add([]byte("first"))
	broken := b.Add(noise(150, 5))
	after := b.Add([]byte("after"))
	b.SetNext(broken, 1, b.DataSize()+4096)

	f := openBank(t, b, Options{})
	recs, errs, order := collect(t, f)

	require.Equal(t, []uint64{first, broken, after}, order)
	require.Len(t, errs, 1)
	require.True(t, types.IsKind(errs[broken], types.ErrKindChain), "got %v", errs[broken])
	require.ErrorIs(t, errs[broken], ErrChain)
	require.Equal(t, []byte("first"), recs[first])
	require.Equal(t, []byte("after"), recs[after])
}

func TestRecords_ChainCorruptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *testutil.Bank, id uint64)
	}{
		{"chain ends early", func(b *testutil.Bank, id uint64) { b.SetNext(id, 1, 0) }},
		{"chain loops", func(b *testutil.Bank, id uint64) { b.SetNext(id, 1, b.Blocks(id)[1]) }},
		{"record size below header", func(b *testutil.Bank, id uint64) { b.SetRecordSize(id, 2) }},
		{"entry offset past file", func(b *testutil.Bank, id uint64) { b.SetEntryOffset(id, b.DataSize()+64) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V4Pro, BlockLength: 64})
			id := b.Add(noise(200, 9))
			ok := b.Add([]byte("ok"))
			tt.mutate(b, id)

			f := openBank(t, b, Options{})
			recs, errs, _ := collect(t, f)
			require.Error(t, errs[id])
			kind, _ := types.KindOf(errs[id])
			require.False(t, kind.Fatal(), "got %v", errs[id])
			require.Equal(t, []byte("ok"), recs[ok])
		})
	}
}

func TestLoadEntryTable_TruncatesToFile(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
	for range 3 {
		b.Add([]byte("r"))
	}
	f := openBank(t, b, Options{})

	tbl, err := f.LoadEntryTable(2, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(2), tbl.IDStart)
	require.Equal(t, uint64(4), tbl.IDEnd)
	require.Equal(t, 2, tbl.Count())
	require.Equal(t, 2, tbl.Active())

	tbl, err = f.LoadEntryTable(10, 5)
	require.NoError(t, err)
	require.Zero(t, tbl.Count())

	require.Panics(t, func() { tbl.Entry(10) })
}

func TestPagination(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V4Pro, BlockLength: 64})
	for i := range 10 {
		b.Add([]byte{byte(i)})
	}
	f := openBank(t, b, Options{})

	f.SetTableLimits(64)
	e, blk := f.TableLimits()
	assert.Equal(t, int64(16), e)
	assert.Equal(t, int64(48), blk)

	// 16-byte budget: one v4 slot per window.
	require.Equal(t, 1, f.OptimalEntryCount())
	require.Equal(t, uint64(1), f.NextID())

	f.SetTableLimits(1 << 20)
	require.Equal(t, 10, f.OptimalEntryCount())
	tbl, err := f.LoadEntryTable(f.NextID(), f.OptimalEntryCount())
	require.NoError(t, err)
	require.Equal(t, 10, tbl.Count())
	require.Zero(t, f.OptimalEntryCount())
	require.Equal(t, uint64(11), f.NextID())

	f.Rewind()
	require.Equal(t, uint64(1), f.NextID())
}

func TestOptimalRecordCount(t *testing.T) {
	t.Run("single active entry", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
		b.Add([]byte("only"))
		f := openBank(t, b, Options{})
		tbl, err := f.LoadEntryTable(1, 1)
		require.NoError(t, err)
		require.Equal(t, 1, f.OptimalRecordCount(tbl, 1))
	})

	t.Run("all inactive covers window", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
		b.Add([]byte("x"))
		b.AddInactive()
		b.AddInactive()
		f := openBank(t, b, Options{})
		tbl, err := f.LoadEntryTable(1, 3)
		require.NoError(t, err)
		require.Equal(t, 2, f.OptimalRecordCount(tbl, 2))
	})

	t.Run("budget splits window", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 64})
		for range 4 {
			b.Add([]byte("record"))
		}
		f := openBank(t, b, Options{})
		tbl, err := f.LoadEntryTable(1, 4)
		require.NoError(t, err)

		f.SetTableLimits(1 << 20)
		require.Equal(t, 4, f.OptimalRecordCount(tbl, 1))
		// Blocks are 64 bytes apart; a 96-byte block budget spans two entries.
		f.SetTableLimits(128)
		require.Equal(t, 2, f.OptimalRecordCount(tbl, 1))
		require.Equal(t, 2, f.OptimalRecordCount(tbl, 3))

		recs, errs, _ := collect(t, f)
		require.Empty(t, errs)
		require.Len(t, recs, 4)
	})

	t.Run("non monotonic offset stops scan", func(t *testing.T) {
		b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 64})
		for range 3 {
			b.Add([]byte("record"))
		}
		b.SetEntryOffset(1, b.Blocks(3)[0])
		f := openBank(t, b, Options{})
		tbl, err := f.LoadEntryTable(1, 3)
		require.NoError(t, err)
		require.Equal(t, 1, f.OptimalRecordCount(tbl, 1))
	})
}

func TestRead(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
	b.Add([]byte("abc"))
	f := openBank(t, b, Options{})
	idx := buf.Entity{File: abi.FileIndex}

	t.Run("at EOF yields empty buffer", func(t *testing.T) {
		out, err := f.Read(idx, f.IndexSize(), 4, 2)
		require.NoError(t, err)
		require.Zero(t, out.Len())
	})

	t.Run("short read keeps whole elements", func(t *testing.T) {
		// 8-byte header + one 12-byte slot; ask for three 8-byte elements.
		out, err := f.Read(idx, 0, 8, 3)
		require.NoError(t, err)
		require.Equal(t, 16, out.Len())
	})

	t.Run("negative position", func(t *testing.T) {
		_, err := f.Read(idx, -1, 4, 1)
		require.True(t, types.IsKind(err, types.ErrKindOffset), "got %v", err)
		require.ErrorIs(t, err, buf.ErrOffset)
	})

	t.Run("const file kind", func(t *testing.T) {
		_, err := f.Read(buf.Entity{File: abi.FileConst}, 0, 4, 1)
		require.True(t, types.IsKind(err, types.ErrKindState), "got %v", err)
	})
}

func TestClose(t *testing.T) {
	b := testutil.NewBank(t, testutil.BankOptions{Version: testutil.V3Pro})
	b.Add([]byte("abc"))
	f := openBank(t, b, Options{})

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	_, err := f.LoadEntryTable(1, 1)
	require.ErrorIs(t, err, types.ErrClosed)
	require.ErrorIs(t, f.SetupCrypt(0), types.ErrClosed)
}
