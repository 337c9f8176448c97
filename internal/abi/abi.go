// Package abi describes the byte layout of every structural value in a Cronos
// bank file pair. A resolved ABI is selected once per opened file from the
// (major, minor) version pair in the .dat header and never changes afterwards.
//
// Layout offsets are relative to the structure they describe: header values
// are relative to the start of the .dat file, entry values to the start of a
// .tad slot, and block values to the start of a block header.
package abi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue indicates a tag that the active family does not define.
	ErrInvalidValue = errors.New("abi: invalid value")
	// ErrUnknownVersion indicates a version pair no registered family accepts.
	ErrUnknownVersion = errors.New("abi: unknown format version")
)

// FileKind identifies where a value physically lives.
type FileKind uint8

const (
	FileConst FileKind = iota // value is a constant carried by the layout itself
	FileData                  // .dat file
	FileIndex                 // .tad file
)

func (k FileKind) String() string {
	switch k {
	case FileConst:
		return "const"
	case FileData:
		return "dat"
	case FileIndex:
		return "tad"
	default:
		return fmt.Sprintf("file(%d)", uint8(k))
	}
}

// Width is the scalar width of a value.
type Width uint8

const (
	WidthBytes Width = iota
	WidthU16
	WidthU32
	WidthU64
)

// Bytes returns the number of bytes a scalar of this width occupies. Byte
// arrays report zero; their size comes from the Layout.
func (w Width) Bytes() int {
	switch w {
	case WidthU16:
		return 2
	case WidthU32:
		return 4
	case WidthU64:
		return 8
	default:
		return 0
	}
}

// Model is the addressing model of a format variant.
type Model uint8

const (
	ModelSmall Model = iota // built-in crypt table, narrow offsets
	ModelBig                // per-file crypt table, full-width offsets
)

func (m Model) String() string {
	if m == ModelSmall {
		return "small"
	}
	return "big"
}

// Version is the (major, minor) pair stored as ASCII digits in the header.
type Version struct {
	Major int
	Minor int
}

// GenericVersion selects the header-only layout used before the real
// version of a file is known.
var GenericVersion = Version{}

func (v Version) String() string {
	return fmt.Sprintf("%02d.%02d", v.Major, v.Minor)
}

// Layout describes one value: where it is, how wide it is, and which bits of
// the word belong to it.
type Layout struct {
	File   FileKind
	Offset int
	Size   int
	Width  Width
	Mask   uint64 // zero means the whole word
	Const  uint64 // only meaningful when File == FileConst
}

// End returns the first byte offset past the value.
func (l Layout) End() int { return l.Offset + l.Size }

// Apply masks v with the layout's bitmask, if any.
func (l Layout) Apply(v uint64) uint64 {
	if l.Mask != 0 {
		return v & l.Mask
	}
	return v
}

// ABI is the resolved layout for one format version.
type ABI struct {
	version Version
	fam     *family
	lite    bool
	model   Model
	values  [tagCount]Layout
	defined [tagCount]bool
}

// Version returns the format version this ABI was resolved for.
func (a *ABI) Version() Version { return a.version }

// Family returns the name of the family that accepted the version.
func (a *ABI) Family() string { return a.fam.name }

// IsLite reports whether the version is a "lite" edition.
func (a *ABI) IsLite() bool { return a.lite }

// Model returns the addressing model.
func (a *ABI) Model() Model { return a.model }

// Has reports whether tag is defined for this ABI.
func (a *ABI) Has(tag Tag) bool {
	return tag < tagCount && a.defined[tag]
}

// Value returns the layout of tag. Tags the family does not define yield
// ErrInvalidValue rather than a zero layout.
func (a *ABI) Value(tag Tag) (Layout, error) {
	if !a.Has(tag) {
		return Layout{}, fmt.Errorf("%s (family %s): %w", tag, a.fam.name, ErrInvalidValue)
	}
	return a.values[tag], nil
}

// Const returns the constant carried by tag, which must live in FileConst.
func (a *ABI) Const(tag Tag) (uint64, error) {
	l, err := a.Value(tag)
	if err != nil {
		return 0, err
	}
	if l.File != FileConst {
		return 0, fmt.Errorf("%s is stored in %s, not a constant: %w", tag, l.File, ErrInvalidValue)
	}
	return l.Const, nil
}

// MustConst is Const for tags every concrete family defines. It panics on a
// missing tag, which is a programming error in the family tables.
func (a *ABI) MustConst(tag Tag) uint64 {
	v, err := a.Const(tag)
	if err != nil {
		panic(err)
	}
	return v
}

func (a *ABI) String() string {
	return fmt.Sprintf("%s/%s (lite=%t, model=%s)", a.fam.name, a.version, a.lite, a.model)
}
