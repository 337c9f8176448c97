// Package fields splits a bank data record into its schema fields.
//
// A record starts with an identifier selecting a base, followed by one value
// per base field in declared order, separated by 0x1E. A Reader walks the
// values as a small state machine:
//
//	Start ──Next──▶ ReadValue ──Next──▶ NextValue ──▶ ReadValue …
//	                                         └──────▶ End
//
// Running out of input before the last field, or leaving bytes after it, ends
// the walk normally; Missing and Leftover report how far off the record was.
package fields

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/pkg/types"
)

var (
	// ErrIdentifier indicates a record identifier that cannot be decoded.
	ErrIdentifier = errors.New("fields: malformed record identifier")
	// ErrUnknownBase indicates an identifier naming no base of the schema.
	ErrUnknownBase = errors.New("fields: record names an unknown base")
)

// Identifier size tags (high nibble of the first byte).
const (
	tagInt8  = 2
	tagInt16 = 3
	tagInt32 = 4
)

// ParseID decodes the identifier at the start of rec and returns the base
// index it selects and the number of bytes it occupies. A first byte with a
// zero high nibble is the index itself; otherwise the high nibble is a size
// tag for the signed little-endian integer that follows.
func ParseID(rec []byte) (uint32, int, error) {
	if len(rec) == 0 {
		return 0, 0, fmt.Errorf("%w: empty record", ErrIdentifier)
	}
	b := rec[0]
	tag := b >> 4
	if tag == 0 {
		return uint32(b), 1, nil
	}

	var v int64
	var n int
	switch tag {
	case tagInt8:
		n = 1
	case tagInt16:
		n = 2
	case tagInt32:
		n = 4
	default:
		return 0, 0, fmt.Errorf("%w: size tag %d", ErrIdentifier, tag)
	}
	if !buf.Has(rec, 1, n) {
		return 0, 0, fmt.Errorf("%w: %d-byte identifier truncated", ErrIdentifier, n)
	}
	switch n {
	case 1:
		v = int64(int8(rec[1]))
	case 2:
		v = int64(buf.I16LE(rec[1:]))
	default:
		v = int64(buf.I32LE(rec[1:]))
	}
	if v < 0 {
		return 0, 0, fmt.Errorf("%w: negative base index %d", ErrIdentifier, v)
	}
	return uint32(v), 1 + n, nil
}

// State is the position of a Reader in its walk.
type State uint8

const (
	Start State = iota
	ReadValue
	NextValue
	End
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case ReadValue:
		return "read-value"
	case NextValue:
		return "next-value"
	default:
		return "end"
	}
}

// Reader walks the field values of one record.
type Reader struct {
	data  []byte
	base  *types.Base
	state State
	field int
	pos   int // start of the current value
	end   int // one past the current value
}

// NewReader decodes rec's identifier and binds the matching base of s. The
// reader starts in the Start state; call Next to reach the first value.
func NewReader(rec []byte, s *types.BankSchema) (*Reader, error) {
	idx, n, err := ParseID(rec)
	if err != nil {
		return nil, err
	}
	base, ok := s.BaseByIndex(idx)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownBase, idx)
	}
	return &Reader{data: rec, base: base, pos: n}, nil
}

// Base returns the bound base.
func (r *Reader) Base() *types.Base { return r.base }

// State returns the current state.
func (r *Reader) State() State { return r.state }

// Next advances to the next value and reports whether one is available.
func (r *Reader) Next() bool {
	switch r.state {
	case Start:
		if len(r.base.Fields) == 0 || r.pos >= len(r.data) {
			r.state = End
			return false
		}
		r.read()
		return true
	case ReadValue:
		r.state = NextValue
		if r.end >= len(r.data) {
			r.field++
			r.pos = len(r.data)
			r.state = End
			return false
		}
		r.pos = r.end + 1 // separator
		r.field++
		if r.field >= len(r.base.Fields) {
			r.state = End
			return false
		}
		r.read()
		return true
	default:
		return false
	}
}

func (r *Reader) read() {
	r.state = ReadValue
	r.end = len(r.data)
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == format.SepValue {
			r.end = i
			break
		}
	}
}

// Field returns the schema field of the current value.
func (r *Reader) Field() types.Field { return r.base.Fields[r.field] }

// Value returns the current (name, type, span) triple. The span aliases the
// record. Only valid after Next returned true.
func (r *Reader) Value() types.FieldValue {
	f := r.base.Fields[r.field]
	return types.FieldValue{Name: f.Name, Type: f.Type, Raw: r.data[r.pos:r.end]}
}

// Missing returns how many fields got no value once the walk has ended.
func (r *Reader) Missing() int {
	if r.state != End {
		return 0
	}
	return max(len(r.base.Fields)-r.field, 0)
}

// Leftover returns how many bytes follow the last field once the walk has
// ended.
func (r *Reader) Leftover() int {
	if r.state != End || r.field < len(r.base.Fields) {
		return 0
	}
	return len(r.data) - r.pos
}

// Values collects every value of rec. Early or late termination is logged at
// debug level on log, which may be nil.
func Values(rec []byte, s *types.BankSchema, log *slog.Logger) ([]types.FieldValue, error) {
	_, vals, err := Split(rec, s, log)
	return vals, err
}

// Split is Values that also returns the base the record belongs to.
func Split(rec []byte, s *types.BankSchema, log *slog.Logger) (*types.Base, []types.FieldValue, error) {
	r, err := NewReader(rec, s)
	if err != nil {
		return nil, nil, err
	}
	out := make([]types.FieldValue, 0, len(r.base.Fields))
	for r.Next() {
		out = append(out, r.Value())
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if n := r.Missing(); n > 0 {
		log.Debug("record ended before last field", "base", r.base.Name, "missing", n)
	}
	if n := r.Leftover(); n > 0 {
		log.Debug("record has bytes after last field", "base", r.base.Name, "leftover", n)
	}
	return r.base, out, nil
}
