package format

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
)

// Header captures the .dat header fields the decoder needs. The generic
// layout is read first to learn the version; the family-specific secret
// and crypt-table region are read with the resolved ABI.
//
//	Offset  Size  Description
//	------  ----  ------------------------------------------------
//	 0x00    7    "CroFile"
//	 0x08    2    major version (ASCII digits)
//	 0x0B    2    minor version (ASCII digits)
//	 0x0D    2    flags: bit0 encrypted, bit1 compressed
//	 0x0F    2    default block length
//	 0x13   4|8   secret
//	 ....   512   encrypted crypt table (big model)
type Header struct {
	Version     abi.Version
	Flags       uint16
	BlockLength uint16
	Secret      []byte
	CryptRegion []byte // nil for small-model files or short headers
}

// Encrypted reports whether records are encrypted.
func (h Header) Encrypted() bool { return h.Flags&abi.FlagEncrypted != 0 }

// Compressed reports whether records are deflate-compressed.
func (h Header) Compressed() bool { return h.Flags&abi.FlagCompressed != 0 }

// ParseHeader validates the magic, resolves the ABI from the version digits,
// and extracts the header fields. An unknown version is returned as
// abi.ErrUnknownVersion; no layout is guessed.
func ParseHeader(b *buf.Buffer, reg *abi.Registry) (Header, *abi.ABI, error) {
	g := reg.Generic()

	magic, err := b.Value(g, abi.HeaderMagic, 0)
	if err != nil {
		return Header{}, nil, fmt.Errorf("header magic: %w", truncated(err))
	}
	if !bytes.Equal(magic.Bytes(), Magic) {
		return Header{}, nil, fmt.Errorf("header magic %q: %w", magic.Bytes(), ErrSignatureMismatch)
	}

	major, err := digits(b, g, abi.HeaderMajor)
	if err != nil {
		return Header{}, nil, err
	}
	minor, err := digits(b, g, abi.HeaderMinor)
	if err != nil {
		return Header{}, nil, err
	}
	flags, err := b.Uint(g, abi.HeaderFlags, 0)
	if err != nil {
		return Header{}, nil, fmt.Errorf("header flags: %w", truncated(err))
	}
	blockLen, err := b.Uint(g, abi.HeaderBlockLength, 0)
	if err != nil {
		return Header{}, nil, fmt.Errorf("header block length: %w", truncated(err))
	}

	v := abi.Version{Major: major, Minor: minor}
	if v == abi.GenericVersion {
		// 00.00 selects the header-only layout, which no data file uses.
		return Header{}, nil, fmt.Errorf("version %s: %w", v, abi.ErrUnknownVersion)
	}
	a, err := reg.Resolve(v)
	if err != nil {
		return Header{}, nil, err
	}

	h := Header{
		Version:     v,
		Flags:       uint16(flags),
		BlockLength: uint16(blockLen),
	}
	if secret, err := b.CopyValue(a, abi.HeaderSecret, 0); err == nil {
		h.Secret = secret
	}
	if a.Has(abi.HeaderCryptTable) {
		if region, err := b.CopyValue(a, abi.HeaderCryptTable, 0); err == nil {
			h.CryptRegion = region
		}
	}
	return h, a, nil
}

// ParseDigits decodes a two-digit ASCII number.
func ParseDigits(p []byte) (int, error) {
	if len(p) != abi.VersionDigits {
		return 0, fmt.Errorf("%q: %w", p, ErrVersionDigits)
	}
	n := 0
	for _, c := range p {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q: %w", p, ErrVersionDigits)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func digits(b *buf.Buffer, a *abi.ABI, tag abi.Tag) (int, error) {
	v, err := b.Value(a, tag, 0)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tag, truncated(err))
	}
	return ParseDigits(v.Bytes())
}

func truncated(err error) error {
	if errors.Is(err, buf.ErrOffset) {
		return ErrTruncated
	}
	return err
}
