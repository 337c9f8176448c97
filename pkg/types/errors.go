package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindOpen     ErrKind = iota // a file of the pair is missing or unreadable; fatal for the bank
	ErrKindVersion                 // header magic/version not recognized; fatal for the bank
	ErrKindIO                      // OS-level read/seek failure
	ErrKindOffset                  // computed offset outside its valid range; per record
	ErrKindChain                   // block chain broken or short; per record
	ErrKindSchema                  // structure file malformed or incomplete; fatal for the schema
	ErrKindCrypto                  // crypt table missing or unusable
	ErrKindCompress                // inflate failed after producing output
	ErrKindState                   // invalid operation for the current state (e.g. closed)
	ErrKindRecord                  // record bytes do not split into the schema's fields; per record
)

var kindNames = map[ErrKind]string{
	ErrKindOpen:     "open",
	ErrKindVersion:  "version",
	ErrKindIO:       "io",
	ErrKindOffset:   "offset",
	ErrKindChain:    "chain",
	ErrKindSchema:   "schema",
	ErrKindCrypto:   "crypto",
	ErrKindCompress: "compress",
	ErrKindState:    "state",
	ErrKindRecord:   "record",
}

func (k ErrKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Fatal reports whether errors of this kind abort processing of a whole bank.
func (k ErrKind) Fatal() bool {
	switch k {
	case ErrKindOffset, ErrKindChain, ErrKindCompress, ErrKindRecord:
		return false
	default:
		return true
	}
}

// Error is a typed error with optional file and record context.
type Error struct {
	Kind ErrKind
	Msg  string
	Path string // file the error relates to, if any
	ID   uint64 // record id, 0 when not record-scoped
	Err  error  // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if e.Path != "" || e.ID != 0 {
		sb.WriteString(" (")
		if e.Path != "" {
			sb.WriteString(e.Path)
		}
		if e.ID != 0 {
			if e.Path != "" {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "id %d", e.ID)
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a typed error of kind k.
func IsKind(err error, k ErrKind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// Sentinels commonly returned by implementations.
var (
	// ErrClosed indicates an operation on a closed file.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "file is closed"}
	// ErrNoCryptTable indicates decryption was required before SetupCrypt.
	ErrNoCryptTable = &Error{Kind: ErrKindCrypto, Msg: "crypt table not loaded"}
	// ErrNoBankAttr indicates the structure file lacks the "Bank" attribute.
	ErrNoBankAttr = &Error{Kind: ErrKindSchema, Msg: "structure file has no Bank attribute"}
)
