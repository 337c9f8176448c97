package types

import "fmt"

// FieldType is the declared type of a schema field.
type FieldType uint16

const (
	FieldIndex FieldType = iota
	FieldNumber
	FieldString
	FieldDict
	FieldDate
	FieldTime
	FieldFile
	FieldForward
	FieldBackward
	FieldForwardBackward
	FieldBind
	FieldAccess
	FieldExternalFile
)

var fieldTypeNames = [...]string{
	FieldIndex:           "Index",
	FieldNumber:          "Number",
	FieldString:          "String",
	FieldDict:            "Dict",
	FieldDate:            "Date",
	FieldTime:            "Time",
	FieldFile:            "File",
	FieldForward:         "Forward",
	FieldBackward:        "Backward",
	FieldForwardBackward: "ForwardBackward",
	FieldBind:            "Bind",
	FieldAccess:          "Access",
	FieldExternalFile:    "ExternalFile",
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", uint16(t))
}

// Textual reports whether values of this type are code-page text.
func (t FieldType) Textual() bool {
	switch t {
	case FieldString, FieldDict, FieldNumber, FieldDate, FieldTime, FieldFile:
		return true
	default:
		return false
	}
}

// External describes field data stored outside the record.
type External struct {
	DataIndex  uint32
	DataLength uint32
}

// Field is one column definition of a Base.
type Field struct {
	Name     string
	Type     FieldType
	Index    uint32
	Flags    uint32
	External *External // nil when the value lives in the record
}

// Base is one table definition.
type Base struct {
	Property  string // structure property the base was read from, e.g. "Base0007"
	Name      string
	Mnemonic  string
	Index     uint32
	VocFlags  uint16
	Version   uint16
	BitcardID uint32
	LinkedID  uint32 // only set for base version 0x109
	Flags     uint32
	Fields    []Field
}

// Formula is an opaque formula payload kept verbatim.
type Formula struct {
	Name string
	Raw  []byte
}

// BankSchema is the decoded content of a bank's structure file.
type BankSchema struct {
	ID              int
	Name            string
	Serial          uint32
	CustomProt      uint32
	SystemPassword  string
	Version         int
	FormSaveVersion int
	Bases           []Base
	Formulas        []Formula

	// Extra holds properties the parser does not interpret, raw.
	Extra map[string][]byte
}

// BaseByIndex returns the base whose Index equals idx.
func (s *BankSchema) BaseByIndex(idx uint32) (*Base, bool) {
	for i := range s.Bases {
		if s.Bases[i].Index == idx {
			return &s.Bases[i], true
		}
	}
	return nil, false
}

// FieldValue is one (field name, field type, raw span) triple of a record.
type FieldValue struct {
	Name string
	Type FieldType
	Raw  []byte
}
