// Package stru decodes a bank's structure file (CroStru) into a
// types.BankSchema.
//
// The structure file is an ordinary .dat/.tad pair whose records are typed
// blocks: ATTR (0x03) records hold a name and a property stream, PROP (0x04)
// records hold a single payload referenced by id from a property. The schema
// lives in the properties of the ATTR record named "Bank".
package stru

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/reader"
	"github.com/joshuapare/cronokit/pkg/types"
)

// BankAttr is the name of the ATTR record that carries the schema.
const BankAttr = "Bank"

// Property names with a fixed meaning.
const (
	PropFormSaveVer = "BankFormSaveVer"
	PropBankID      = "BankId"
	PropBankName    = "BankName"
	PropNS1         = "NS1"
	PropVersion     = "Version"

	basePrefix    = "Base"
	formulaPrefix = "Formuls"
	suffixDigits  = 4
)

// Options configures Load.
type Options struct {
	// Encoding is the bank code page. Nil means windows-1251.
	Encoding encoding.Encoding
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Load reads every record of the structure file f and decodes the Bank
// attribute. The file's crypt table is set up with serial 0 when it is not
// already. Records that fail to load are logged and skipped; a missing Bank
// attribute or a malformed property is a Schema error.
func Load(f *reader.File, opts Options) (*types.BankSchema, error) {
	if opts.Encoding == nil {
		opts.Encoding = charmap.Windows1251
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := opts.Logger.With("structure", f.Path())

	if f.CryptTable() == nil {
		if err := f.SetupCrypt(0); err != nil {
			if f.Header().Encrypted() {
				return nil, err
			}
			log.Debug("structure crypt table unavailable", "err", err)
		}
	}

	records := make(map[uint64][]byte)
	err := f.Records(func(id uint64, rec *buf.Buffer, err error) error {
		if err != nil {
			log.Warn("structure record unreadable", "id", id, "err", err)
			return nil
		}
		records[id] = rec.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}

	p := &parser{
		path:    f.Path(),
		records: records,
		dec:     opts.Encoding.NewDecoder(),
		log:     log,
	}
	if t := f.CryptTable(); t != nil {
		p.cipher = t
	}
	return p.parse()
}

type parser struct {
	path    string
	records map[uint64][]byte
	cipher  Cipher
	dec     *encoding.Decoder
	log     *slog.Logger
}

func (p *parser) schemaErr(msg string, err error) error {
	return &types.Error{Kind: types.ErrKindSchema, Msg: msg, Path: p.path, Err: err}
}

// parse locates the Bank attribute and applies its properties.
func (p *parser) parse() (*types.BankSchema, error) {
	id, props, ok := p.findAttr(BankAttr)
	if !ok {
		return nil, &types.Error{Kind: types.ErrKindSchema, Msg: "schema load failed", Path: p.path, Err: types.ErrNoBankAttr}
	}
	s := &types.BankSchema{Extra: make(map[string][]byte)}
	err := Properties(props, func(name string, inline []byte, ref uint64) error {
		payload := inline
		if inline == nil {
			var err error
			if payload, err = p.resolve(ref); err != nil {
				return fmt.Errorf("property %s: %w", name, err)
			}
		}
		if err := p.apply(s, name, payload); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		msg := fmt.Sprintf("bank attribute (record %d)", id)
		var te *types.Error
		if errors.As(err, &te) && te.Kind != types.ErrKindSchema {
			return nil, &types.Error{Kind: te.Kind, Msg: msg, Path: p.path, Err: err}
		}
		return nil, p.schemaErr(msg, err)
	}
	p.log.Debug("schema loaded", "bank_id", s.ID, "name", s.Name, "bases", len(s.Bases), "formulas", len(s.Formulas))
	return s, nil
}

// findAttr returns the property stream of the ATTR record named name with
// the lowest id.
func (p *parser) findAttr(name string) (uint64, []byte, bool) {
	var best uint64
	var props []byte
	for id, rec := range p.records {
		if len(rec) == 0 {
			continue
		}
		switch rec[0] {
		case format.TypeAttr:
		case format.TypeProp:
			continue
		default:
			p.log.Debug("skipping structure record of unknown type", "id", id, "type", rec[0])
			continue
		}
		c := newCursor(rec)
		c.pos = 1
		n, err := c.str("attribute name")
		if err != nil || string(n) != name {
			continue
		}
		if best == 0 || id < best {
			best, props = id, rec[c.pos:]
		}
	}
	return best, props, best != 0
}

// resolve returns the payload of PROP record id.
func (p *parser) resolve(id uint64) ([]byte, error) {
	rec, ok := p.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: referenced record %d missing", ErrMalformed, id)
	}
	if len(rec) == 0 || rec[0] != format.TypeProp {
		var typ byte
		if len(rec) > 0 {
			typ = rec[0]
		}
		return nil, fmt.Errorf("%w: referenced record %d has type 0x%02x, want PROP", ErrMalformed, id, typ)
	}
	return rec[1:], nil
}

func (p *parser) apply(s *types.BankSchema, name string, payload []byte) error {
	var err error
	switch {
	case name == PropFormSaveVer:
		s.FormSaveVersion, err = parseInt(payload)
	case name == PropBankID:
		s.ID, err = parseInt(payload)
	case name == PropVersion:
		s.Version, err = parseInt(payload)
	case name == PropBankName:
		s.Name = trimText(decode(p.dec, payload))
	case name == PropNS1:
		if p.cipher == nil {
			return types.ErrNoCryptTable
		}
		ns, err := ParseNS1(payload, p.cipher, p.dec)
		if err != nil {
			return err
		}
		s.Serial, s.CustomProt, s.SystemPassword = ns.Serial, ns.CustomProt, ns.Password
	case numbered(name, basePrefix):
		b, err := ParseBase(payload, p.dec)
		if err != nil {
			return err
		}
		b.Property = name
		s.Bases = append(s.Bases, b)
	case numbered(name, formulaPrefix):
		s.Formulas = append(s.Formulas, types.Formula{Name: name, Raw: bytes.Clone(payload)})
	default:
		p.log.Debug("unrecognized structure property", "name", name, "size", len(payload))
		s.Extra[name] = bytes.Clone(payload)
	}
	return err
}

// Properties walks a property stream. Each property is a u8-prefixed name
// and a u32 value. With the top bit set, the low 31 bits are the length of
// an inline payload that follows and fn gets it as inline (never nil).
// Otherwise the value is the id of a PROP record, passed as ref with a nil
// inline.
func Properties(stream []byte, fn func(name string, inline []byte, ref uint64) error) error {
	c := newCursor(stream)
	for c.remaining() > 0 {
		name, err := c.str("property name")
		if err != nil {
			return err
		}
		v, err := c.u32("property value")
		if err != nil {
			return err
		}
		if v&format.PropInlineBit == 0 {
			if err := fn(string(name), nil, uint64(v&format.PropValueMask)); err != nil {
				return err
			}
			continue
		}
		n := v & format.PropValueMask
		if int64(n) > int64(c.remaining()) {
			return c.fail("inline payload of "+string(name), errShort(n, c.remaining()))
		}
		payload, err := c.bytes("inline payload", int(n))
		if err != nil {
			return err
		}
		if payload == nil {
			payload = []byte{}
		}
		if err := fn(string(name), payload, 0); err != nil {
			return err
		}
	}
	return nil
}

// numbered reports whether name is prefix followed by exactly four digits.
func numbered(name, prefix string) bool {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || len(rest) != suffixDigits {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimText(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func parseInt(p []byte) (int, error) {
	n, err := strconv.Atoi(trimText(string(p)))
	if err != nil {
		return 0, fmt.Errorf("%w: integer text %q", ErrMalformed, p)
	}
	return n, nil
}
