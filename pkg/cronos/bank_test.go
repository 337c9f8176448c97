package cronos

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/fields"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/testutil"
	"github.com/joshuapare/cronokit/pkg/types"
)

const serial = 31337

func cp1251(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.Windows1251.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

var persons = testutil.BaseSpec{
	Version: 0x0108,
	Index:   3,
	Name:    "Persons",
	Fields: []testutil.FieldSpec{
		{Type: uint16(types.FieldString), Index: 1, Name: "Surname"},
		{Type: uint16(types.FieldNumber), Index: 2, Name: "Born"},
	},
}

// fixture writes a bank directory and returns it with the data bank so
// tests can corrupt records before writing.
type fixture struct {
	dir  string
	data *testutil.Bank
}

func newFixture(t *testing.T, dataOpts testutil.BankOptions) *fixture {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteStructure(t, dir, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true}, testutil.SchemaSpec{
		ID:       42,
		Name:     cp1251(t, "Сотрудники"),
		Serial:   serial,
		Password: []byte("pw"),
		Bases:    []testutil.BaseSpec{persons},
	})
	dataOpts.Serial = serial
	return &fixture{dir: dir, data: testutil.NewBank(t, dataOpts)}
}

func (fx *fixture) open(t *testing.T, opts *Options) *Bank {
	t.Helper()
	fx.data.Write(filepath.Join(fx.dir, format.BankStem))
	b, err := OpenBank(fx.dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func collect(t *testing.T, b *Bank, opts *ScanOptions) (map[uint64][]string, ScanStats) {
	t.Helper()
	got := make(map[uint64][]string)
	st, err := b.Scan(context.Background(), func(r Record) error {
		var vals []string
		for _, v := range r.Values {
			vals = append(vals, v.Name+"="+b.Text(v))
		}
		got[r.ID] = vals
		return nil
	}, opts)
	require.NoError(t, err)
	return got, st
}

func TestOpenBank_Schema(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true, Compressed: true})
	b := fx.open(t, nil)

	require.Equal(t, 42, b.ID())
	require.Equal(t, "Сотрудники", b.Name())
	require.Equal(t, uint32(serial), b.Schema().Serial)
	require.Equal(t, "pw", b.Schema().SystemPassword)
	require.Len(t, b.Bases(), 1)
	require.Equal(t, "Base0001", b.Bases()[0].Property)
	require.Equal(t, fx.dir, b.Dir())
}

func TestScan_DecodesRecords(t *testing.T) {
	for _, v := range []struct {
		name string
		opts testutil.BankOptions
	}{
		{"v4 encrypted compressed", testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true, Compressed: true}},
		{"v3 small encrypted", testutil.BankOptions{Version: testutil.V3Small, Encrypted: true, BlockLength: 32}},
		{"v3 lite plain", testutil.BankOptions{Version: testutil.V3Lite}},
	} {
		t.Run(v.name, func(t *testing.T) {
			fx := newFixture(t, v.opts)
			id1 := fx.data.Add(testutil.DataRecord(3, cp1251(t, "Иванов"), []byte("1970")))
			fx.data.AddInactive()
			id3 := fx.data.Add(testutil.DataRecord(3, cp1251(t, "Петров-Водкин, художник и теоретик искусства"), []byte("1878")))
			b := fx.open(t, nil)

			got, st := collect(t, b, nil)
			require.Equal(t, ScanStats{Records: 2}, st)
			require.Equal(t, []string{"Surname=Иванов", "Born=1970"}, got[id1])
			require.Equal(t, []string{"Surname=Петров-Водкин, художник и теоретик искусства", "Born=1878"}, got[id3])
		})
	}
}

func TestScan_CorruptChainIsolated(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 32})
	ok1 := fx.data.Add(testutil.DataRecord(3, []byte("A"), []byte("1")))
	bad := fx.data.Add(testutil.DataRecord(3, bytes.Repeat([]byte("long"), 30), []byte("2")))
	ok2 := fx.data.Add(testutil.DataRecord(3, []byte("C"), []byte("3")))
	fx.data.SetNext(bad, 1, fx.data.DataSize()+1<<20)

	var logs bytes.Buffer
	b := fx.open(t, &Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	var failed []uint64
	got, st := collect(t, b, &ScanOptions{OnError: func(id uint64, err error) bool {
		require.True(t, types.IsKind(err, types.ErrKindChain), "got %v", err)
		failed = append(failed, id)
		return true
	}})
	require.Equal(t, []uint64{bad}, failed)
	require.Equal(t, ScanStats{Records: 2, Failed: 1}, st)
	require.Contains(t, got, ok1)
	require.Contains(t, got, ok2)
	require.Contains(t, logs.String(), "record skipped")
	require.Contains(t, logs.String(), "id=2")
}

func TestScan_OnErrorStops(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V4Pro})
	fx.data.Add(testutil.DataRecord(9, []byte("no such base")))
	fx.data.Add(testutil.DataRecord(3, []byte("A"), []byte("1")))
	b := fx.open(t, nil)

	var errs []error
	got, st := collect(t, b, &ScanOptions{OnError: func(_ uint64, err error) bool {
		errs = append(errs, err)
		return false
	}})
	require.Empty(t, got)
	require.Equal(t, ScanStats{Failed: 1}, st)
	require.ErrorIs(t, errs[0], fields.ErrUnknownBase)
	require.True(t, types.IsKind(errs[0], types.ErrKindRecord), "got %v", errs[0])
}

func TestScan_FieldErrorsAreTyped(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Pro})
	unknown := fx.data.Add(testutil.DataRecord(9, []byte("no such base")))
	badTag := fx.data.Add(testutil.DataRecord(0x50, []byte("x")))
	fx.data.Add(testutil.DataRecord(3, []byte("A"), []byte("1")))
	b := fx.open(t, nil)

	failed := make(map[uint64]error)
	_, st := collect(t, b, &ScanOptions{OnError: func(id uint64, err error) bool {
		failed[id] = err
		return true
	}})
	require.Equal(t, ScanStats{Records: 1, Failed: 2}, st)
	require.ErrorIs(t, failed[unknown], fields.ErrUnknownBase)
	require.ErrorIs(t, failed[badTag], fields.ErrIdentifier)
	for id, err := range failed {
		var te *types.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, types.ErrKindRecord, te.Kind)
		require.Equal(t, id, te.ID)
		require.False(t, te.Kind.Fatal())
	}
}

func TestScan_RawAndCallbackErrors(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V4Lite})
	rec := []byte{0x0F, 0xFF, 0x00}
	id := fx.data.Add(rec)
	fx.data.Add(rec)
	b := fx.open(t, nil)

	var raw [][]byte
	st, err := b.Scan(context.Background(), func(r Record) error {
		require.Nil(t, r.Base)
		raw = append(raw, bytes.Clone(r.Data))
		return nil
	}, &ScanOptions{Raw: true})
	require.NoError(t, err)
	require.Equal(t, 2, st.Records)
	require.Equal(t, [][]byte{rec, rec}, raw)

	boom := errors.New("boom")
	st, err = b.Scan(context.Background(), func(r Record) error {
		require.Equal(t, id, r.ID)
		return boom
	}, &ScanOptions{Raw: true})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, st.Records)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Scan(ctx, func(Record) error { return nil }, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStats(t *testing.T) {
	fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Lite, Encrypted: true})
	fx.data.Add(testutil.DataRecord(3, []byte("A"), []byte("1")))
	fx.data.AddInactive()
	fx.data.AddDeleted([]byte("gone"))
	fx.data.Add(testutil.DataRecord(3, []byte("B"), []byte("2")))
	b := fx.open(t, &Options{Budget: 64})

	st, err := b.Stats()
	require.NoError(t, err)
	require.Equal(t, "v3", st.Family)
	require.Equal(t, "01.04", st.Version)
	require.True(t, st.Lite)
	require.True(t, st.Encrypted)
	require.False(t, st.Compressed)
	require.Equal(t, uint64(4), st.Entries)
	require.Equal(t, uint64(2), st.Active)
	require.Equal(t, 1, st.Bases)

	// Stats leaves the file ready for a scan.
	got, _ := collect(t, b, nil)
	require.Len(t, got, 2)
}

func TestOpenBank_Errors(t *testing.T) {
	t.Run("missing structure", func(t *testing.T) {
		_, err := OpenBank(t.TempDir(), nil)
		require.True(t, types.IsKind(err, types.ErrKindOpen), "got %v", err)
	})

	t.Run("missing data file", func(t *testing.T) {
		fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Pro})
		_, err := OpenBank(fx.dir, nil)
		require.True(t, types.IsKind(err, types.ErrKindOpen), "got %v", err)
	})

	t.Run("unknown code page", func(t *testing.T) {
		fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Pro})
		fx.data.Write(filepath.Join(fx.dir, format.BankStem))
		_, err := OpenBank(fx.dir, &Options{CodePage: "klingon"})
		require.True(t, types.IsKind(err, types.ErrKindOpen), "got %v", err)
	})

	t.Run("data keyed with another serial", func(t *testing.T) {
		fx := newFixture(t, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true})
		fx.data = testutil.NewBank(t, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true, Serial: serial + 1})
		fx.data.Write(filepath.Join(fx.dir, format.BankStem))
		_, err := OpenBank(fx.dir, nil)
		require.True(t, types.IsKind(err, types.ErrKindCrypto), "got %v", err)
	})

	t.Run("shared registry", func(t *testing.T) {
		fx := newFixture(t, testutil.BankOptions{Version: testutil.V3Pro})
		fx.data.Write(filepath.Join(fx.dir, format.BankStem))
		reg := abi.NewRegistry()
		opts := &Options{Registry: reg}
		for range 2 {
			b, err := OpenBank(fx.dir, opts)
			require.NoError(t, err)
			require.NoError(t, b.Close())
		}
		// generic, v4 structure, v3 data
		require.Equal(t, 3, reg.Len())
	})
}
