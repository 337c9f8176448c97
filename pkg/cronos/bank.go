package cronos

import (
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/config"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/reader"
	"github.com/joshuapare/cronokit/internal/stru"
	"github.com/joshuapare/cronokit/pkg/types"
)

// Bank is an opened bank directory. A Bank is owned by one goroutine; open
// one Bank per goroutine to scan banks in parallel.
type Bank struct {
	dir    string
	data   *reader.File
	schema *types.BankSchema
	enc    encoding.Encoding
	dec    *encoding.Decoder
	log    *slog.Logger
}

// OpenBank opens the bank in dir: it decodes the schema from the structure
// file and prepares the data file for scanning. The structure file is
// closed again before OpenBank returns.
func OpenBank(dir string, opts *Options) (*Bank, error) {
	if opts == nil {
		opts = &Options{}
	}
	o := *opts
	if o.Budget == 0 {
		o.Budget = DefaultBudget
	}
	if o.CodePage == "" {
		o.CodePage = DefaultCodePage
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Registry == nil {
		o.Registry = abi.NewRegistry()
	}

	enc, err := config.LookupCodePage(o.CodePage)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindOpen, Msg: "bad code page", Path: dir, Err: err}
	}
	log := o.Logger.With("bank", dir)
	ropts := reader.Options{Registry: o.Registry, Logger: log}

	sf, err := reader.Open(filepath.Join(dir, format.StructureStem), ropts)
	if err != nil {
		return nil, err
	}
	sf.SetTableLimits(o.Budget)
	schema, err := stru.Load(sf, stru.Options{Encoding: enc, Logger: log})
	_ = sf.Close()
	if err != nil {
		return nil, err
	}

	df, err := reader.Open(filepath.Join(dir, format.BankStem), ropts)
	if err != nil {
		return nil, err
	}
	df.SetTableLimits(o.Budget)
	if err := df.SetupCrypt(schema.Serial); err != nil {
		if df.Header().Encrypted() {
			_ = df.Close()
			return nil, err
		}
		log.Debug("data crypt table unavailable", "err", err)
	}

	log.Info("bank opened", "id", schema.ID, "name", schema.Name, "bases", len(schema.Bases),
		"version", df.Header().Version.String(), "entries", df.EntryCount())
	return &Bank{
		dir:    dir,
		data:   df,
		schema: schema,
		enc:    enc,
		dec:    enc.NewDecoder(),
		log:    log,
	}, nil
}

// Close releases the data file.
func (b *Bank) Close() error { return b.data.Close() }

// Dir returns the bank directory.
func (b *Bank) Dir() string { return b.dir }

// Schema returns the decoded schema.
func (b *Bank) Schema() *types.BankSchema { return b.schema }

// ID returns the bank id from the schema.
func (b *Bank) ID() int { return b.schema.ID }

// Name returns the bank display name.
func (b *Bank) Name() string { return b.schema.Name }

// Bases returns the table definitions.
func (b *Bank) Bases() []types.Base { return b.schema.Bases }

// Text decodes a value span through the bank code page. Non-textual spans
// are returned as Go strings of their raw bytes.
func (b *Bank) Text(v types.FieldValue) string {
	if !v.Type.Textual() {
		return string(v.Raw)
	}
	out, err := b.dec.Bytes(v.Raw)
	if err != nil {
		return string(v.Raw)
	}
	return string(out)
}
