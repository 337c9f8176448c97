package stru

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/cronokit/internal/buf"
)

// ErrMalformed is the cause of every structure decoding failure.
var ErrMalformed = errors.New("stru: malformed structure data")

// cursor reads a structure payload front to back with bounds checks.
type cursor struct {
	b   *buf.Buffer
	pos int
}

func newCursor(p []byte) *cursor {
	return &cursor{b: buf.Borrow(buf.Entity{}, 0, p)}
}

func (c *cursor) remaining() int { return c.b.Len() - c.pos }

func (c *cursor) fail(what string, err error) error {
	return fmt.Errorf("%w: %s at %d: %w", ErrMalformed, what, c.pos, err)
}

func (c *cursor) u8(what string) (uint8, error) {
	v, err := c.b.U8(c.pos)
	if err != nil {
		return 0, c.fail(what, err)
	}
	c.pos++
	return v, nil
}

func (c *cursor) u16(what string) (uint16, error) {
	v, err := c.b.U16(c.pos)
	if err != nil {
		return 0, c.fail(what, err)
	}
	c.pos += 2
	return v, nil
}

func (c *cursor) u32(what string) (uint32, error) {
	v, err := c.b.U32(c.pos)
	if err != nil {
		return 0, c.fail(what, err)
	}
	c.pos += 4
	return v, nil
}

// bytes returns a view of the next n bytes.
func (c *cursor) bytes(what string, n int) ([]byte, error) {
	s, err := c.b.Slice(c.pos, n)
	if err != nil {
		return nil, c.fail(what, err)
	}
	c.pos += n
	return s.Bytes(), nil
}

// str reads a u8 length-prefixed byte string.
func (c *cursor) str(what string) ([]byte, error) {
	n, err := c.u8(what + " length")
	if err != nil {
		return nil, err
	}
	return c.bytes(what, int(n))
}

// decode converts code-page text to UTF-8. Single-byte code pages map every
// byte, so a failure here means a multi-byte code page saw a broken sequence;
// the raw bytes are kept in that case.
func decode(dec *encoding.Decoder, p []byte) string {
	if dec == nil {
		return string(p)
	}
	out, err := dec.Bytes(p)
	if err != nil {
		return string(p)
	}
	return string(out)
}

func errShort(want uint32, have int) error {
	return fmt.Errorf("want %d bytes, have %d", want, have)
}
