package cronos

import (
	"log/slog"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/pkg/types"
)

// DefaultBudget is the table memory budget used when Options.Budget is zero.
const DefaultBudget = 64 << 20

// DefaultCodePage is the bank text encoding used when Options.CodePage is empty.
const DefaultCodePage = "windows-1251"

// Options controls how a bank is opened.
type Options struct {
	// Budget is the memory budget, in bytes, for one burst of entry and
	// block tables. Zero means DefaultBudget.
	Budget int64

	// CodePage is the IANA name of the encoding of bank text (names,
	// passwords, string fields). Empty means DefaultCodePage.
	CodePage string

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// Registry memoizes format layouts. Share one across banks opened in
	// the same process; nil creates a private one.
	Registry *abi.Registry
}

// ScanOptions controls Scan.
type ScanOptions struct {
	// OnError is called for every record that cannot be read or split into
	// fields, after it has been logged. Returning false stops the scan.
	// Nil continues past every failure.
	OnError func(id uint64, err error) bool

	// Raw skips field splitting; Record.Values is left nil.
	Raw bool
}

// Record is one decoded record of the data file.
type Record struct {
	ID     uint64
	Base   *types.Base // nil when Raw is set
	Values []types.FieldValue
	Data   []byte // reassembled, decrypted, inflated bytes
}
