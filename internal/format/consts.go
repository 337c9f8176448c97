// Package format houses low-level decoders for the Cronos bank file pair:
// the .dat header, .tad entry slots, and .dat block headers. Every decoder
// reads through an abi.ABI so one code path serves all format families, and
// every read is bounds-checked against the buffer it comes from.
package format

// Magic is the seven-byte signature at the start of every .dat file.
var Magic = []byte("CroFile")

// File name stems and extensions of a bank directory.
const (
	StructureStem = "CroStru"
	BankStem      = "CroBank"
	IndexStem     = "CroIndex"

	DataExt  = ".dat"
	IndexExt = ".tad"
)

// Structure-file block type tags (first byte of each structure record).
const (
	TypeAttr = 0x03
	TypeProp = 0x04
)

// Property value encoding.
const (
	PropInlineBit = 0x80000000 // payload follows inline; low 31 bits are its length
	PropValueMask = 0x7FFFFFFF
	PropValueSize = 4
)

// Record value separators.
const (
	SepComponent  = 0x1B
	SepMultiValue = 0x1D
	SepValue      = 0x1E
)

// NS1 header: skip byte, prefix byte, then 12 encrypted bytes
// (serial u32, custom protection u32, password length u32).
const (
	NS1PrefixOffset   = 1
	NS1HeaderOffset   = 2
	NS1HeaderSize     = 12
	NS1PasswordPrefix = 0x0C // added to the NS1 prefix for the password bytes
)

// Base version that carries a linked base id.
const BaseVersionLinked = 0x109
