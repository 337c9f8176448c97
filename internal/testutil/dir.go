package testutil

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/joshuapare/cronokit/internal/format"
)

// SchemaSpec describes the Bank attribute of a synthetic structure file.
type SchemaSpec struct {
	ID       int
	Name     []byte // already in the bank code page
	Serial   uint32 // NS1 serial, keys the data file crypt table
	Password []byte
	Bases    []BaseSpec
}

// WriteStructure writes dir/CroStru.dat/.tad holding s. Bases are stored in
// PROP records referenced from the Bank attribute, as Base0001, Base0002, …
func WriteStructure(t testing.TB, dir string, opts BankOptions, s SchemaSpec) *Bank {
	t.Helper()
	opts.Serial = 0
	b := NewBank(t, opts)

	props := []Prop{
		InlineProp("BankId", []byte(strconv.Itoa(s.ID))),
		InlineProp("BankName", s.Name),
		InlineProp("Version", []byte("1")),
		InlineProp("NS1", NS1Payload(b.Table(), 0x2A, s.Serial, 0, s.Password)),
	}
	for i, base := range s.Bases {
		id := b.Add(PropRecord(BasePayload(base)))
		props = append(props, RefProp("Base"+pad4(i+1), id))
	}
	b.Add(AttrRecord("Bank", props...))
	b.Write(filepath.Join(dir, format.StructureStem))
	return b
}

func pad4(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// DataRecord encodes a data record for the base with index idx (< 16).
func DataRecord(idx byte, values ...[]byte) []byte {
	out := []byte{idx}
	return append(out, bytes.Join(values, []byte{format.SepValue})...)
}
