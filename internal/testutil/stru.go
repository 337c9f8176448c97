package testutil

import (
	"encoding/binary"

	"github.com/joshuapare/cronokit/internal/crypt"
	"github.com/joshuapare/cronokit/internal/format"
)

// Prop is one property of a structure-file ATTR record. A property with a
// non-zero Ref points at a PROP record; otherwise Inline is stored in place.
type Prop struct {
	Name   string
	Inline []byte
	Ref    uint64
}

// InlineProp returns a property whose payload follows it in the stream.
func InlineProp(name string, payload []byte) Prop { return Prop{Name: name, Inline: payload} }

// RefProp returns a property whose payload lives in PROP record id.
func RefProp(name string, id uint64) Prop { return Prop{Name: name, Ref: id} }

// AttrRecord encodes an ATTR record.
func AttrRecord(name string, props ...Prop) []byte {
	out := []byte{format.TypeAttr}
	out = appendStr(out, name)
	for _, p := range props {
		out = appendStr(out, p.Name)
		if p.Ref != 0 {
			out = binary.LittleEndian.AppendUint32(out, uint32(p.Ref)&format.PropValueMask)
			continue
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(len(p.Inline))|format.PropInlineBit)
		out = append(out, p.Inline...)
	}
	return out
}

// PropRecord encodes a PROP record.
func PropRecord(payload []byte) []byte {
	return append([]byte{format.TypeProp}, payload...)
}

func appendStr(b []byte, s string) []byte {
	b = append(b, byte(len(s)))
	return append(b, s...)
}

// FieldSpec describes one field of a base definition.
type FieldSpec struct {
	Type       uint16
	Index      uint32
	Name       string
	Flags      uint32
	External   bool
	DataIndex  uint32
	DataLength uint32
	Padding    int // extra bytes inside the sub-record the parser must skip
}

// FieldPayload encodes a field sub-record including its u16 size prefix.
func FieldPayload(f FieldSpec) []byte {
	var body []byte
	body = binary.LittleEndian.AppendUint16(body, f.Type)
	body = binary.LittleEndian.AppendUint32(body, f.Index)
	body = appendStr(body, f.Name)
	body = binary.LittleEndian.AppendUint32(body, f.Flags)
	if f.External {
		body = append(body, 1)
		body = binary.LittleEndian.AppendUint32(body, f.DataIndex)
		body = binary.LittleEndian.AppendUint32(body, f.DataLength)
	} else {
		body = append(body, 0)
	}
	body = append(body, make([]byte, f.Padding)...)
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(body)))
	return append(out, body...)
}

// BaseSpec describes a base definition.
type BaseSpec struct {
	VocFlags  uint16
	Version   uint16
	BitcardID uint32
	LinkedID  uint32 // written only when Version is format.BaseVersionLinked
	Index     uint32
	Name      string
	Mnemonic  string
	Flags     uint32
	Fields    []FieldSpec
}

// BasePayload encodes a base definition.
func BasePayload(b BaseSpec) []byte {
	var out []byte
	out = binary.LittleEndian.AppendUint16(out, b.VocFlags)
	out = binary.LittleEndian.AppendUint16(out, 0)
	out = binary.LittleEndian.AppendUint16(out, b.Version)
	out = binary.LittleEndian.AppendUint32(out, b.BitcardID)
	if b.Version == format.BaseVersionLinked {
		out = binary.LittleEndian.AppendUint32(out, b.LinkedID)
	}
	out = binary.LittleEndian.AppendUint32(out, b.Index)
	out = appendStr(out, b.Name)
	out = appendStr(out, b.Mnemonic)
	out = binary.LittleEndian.AppendUint32(out, b.Flags)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.Fields)))
	for _, f := range b.Fields {
		out = append(out, FieldPayload(f)...)
	}
	return out
}

// NS1Payload encodes the nested encrypted bank header with table t.
func NS1Payload(t *crypt.Table, prefix byte, serial, customProt uint32, password []byte) []byte {
	hdr := make([]byte, 0, format.NS1HeaderSize)
	hdr = binary.LittleEndian.AppendUint32(hdr, serial)
	hdr = binary.LittleEndian.AppendUint32(hdr, customProt)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(password)))
	t.Encrypt(hdr, prefix)

	pw := append([]byte(nil), password...)
	t.Encrypt(pw, prefix+format.NS1PasswordPrefix)

	out := []byte{0x00, prefix}
	out = append(out, hdr...)
	return append(out, pw...)
}
