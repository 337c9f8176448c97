package stru

import (
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/pkg/types"
)

// ParseBase decodes a base definition.
//
//	u16  voc flags
//	u16  unused
//	u16  base version
//	u32  bitcard id
//	u32  linked id (base version 0x109 only)
//	u32  base index
//	str  name
//	str  mnemonic
//	u32  flags
//	u32  field count
//	...  fields
func ParseBase(p []byte, dec *encoding.Decoder) (types.Base, error) {
	c := newCursor(p)
	var b types.Base
	var err error

	if b.VocFlags, err = c.u16("voc flags"); err != nil {
		return types.Base{}, err
	}
	if _, err = c.u16("reserved"); err != nil {
		return types.Base{}, err
	}
	if b.Version, err = c.u16("base version"); err != nil {
		return types.Base{}, err
	}
	if b.BitcardID, err = c.u32("bitcard id"); err != nil {
		return types.Base{}, err
	}
	if b.Version == format.BaseVersionLinked {
		if b.LinkedID, err = c.u32("linked id"); err != nil {
			return types.Base{}, err
		}
	}
	if b.Index, err = c.u32("base index"); err != nil {
		return types.Base{}, err
	}
	name, err := c.str("base name")
	if err != nil {
		return types.Base{}, err
	}
	b.Name = decode(dec, name)
	mnem, err := c.str("mnemonic")
	if err != nil {
		return types.Base{}, err
	}
	b.Mnemonic = decode(dec, mnem)
	if b.Flags, err = c.u32("base flags"); err != nil {
		return types.Base{}, err
	}
	count, err := c.u32("field count")
	if err != nil {
		return types.Base{}, err
	}

	// Each field takes at least its u16 size prefix.
	if _, err := buf.CheckListBounds(int64(c.b.Len()), int64(c.pos), int64(count), 2); err != nil {
		return types.Base{}, c.fail("field count", err)
	}
	b.Fields = make([]types.Field, 0, count)
	for i := range count {
		f, err := parseField(c, dec)
		if err != nil {
			return types.Base{}, fmt.Errorf("field %d of %d: %w", i+1, count, err)
		}
		b.Fields = append(b.Fields, f)
	}
	return b, nil
}

// ParseField decodes one field sub-record, size prefix included.
func ParseField(p []byte, dec *encoding.Decoder) (types.Field, error) {
	return parseField(newCursor(p), dec)
}

// parseField reads a u16 size and decodes the sub-record it bounds. The
// cursor always ends up at the end of the sub-record, whatever the fields
// inside consumed.
//
//	u16  type
//	u32  index
//	str  name
//	u32  flags
//	u8   external
//	u32  data index  (external only)
//	u32  data length (external only)
func parseField(c *cursor, dec *encoding.Decoder) (types.Field, error) {
	size, err := c.u16("field size")
	if err != nil {
		return types.Field{}, err
	}
	body, err := c.bytes("field body", int(size))
	if err != nil {
		return types.Field{}, err
	}

	fc := newCursor(body)
	var f types.Field
	typ, err := fc.u16("field type")
	if err != nil {
		return types.Field{}, err
	}
	f.Type = types.FieldType(typ)
	if f.Index, err = fc.u32("field index"); err != nil {
		return types.Field{}, err
	}
	name, err := fc.str("field name")
	if err != nil {
		return types.Field{}, err
	}
	f.Name = decode(dec, name)
	if f.Flags, err = fc.u32("field flags"); err != nil {
		return types.Field{}, err
	}
	ext, err := fc.u8("external flag")
	if err != nil {
		return types.Field{}, err
	}
	if ext != 0 {
		var x types.External
		if x.DataIndex, err = fc.u32("external index"); err != nil {
			return types.Field{}, err
		}
		if x.DataLength, err = fc.u32("external length"); err != nil {
			return types.Field{}, err
		}
		f.External = &x
	}
	return f, nil
}
