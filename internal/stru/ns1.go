package stru

import (
	"golang.org/x/text/encoding"

	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/format"
)

// Cipher decrypts structure bytes in place. *crypt.Table implements it.
type Cipher interface {
	Decrypt(data []byte, prefix byte)
}

// NS1 is the nested bank header stored in the NS1 property.
type NS1 struct {
	Serial     uint32
	CustomProt uint32
	Password   string
}

// ParseNS1 decodes an NS1 payload. The first byte is ignored, the second is
// the crypt prefix for the 12-byte header that follows. A non-zero password
// length makes the password bytes follow, encrypted with prefix + 0x0C.
func ParseNS1(p []byte, c Cipher, dec *encoding.Decoder) (NS1, error) {
	cur := newCursor(p)
	cur.pos = format.NS1PrefixOffset
	prefix, err := cur.u8("ns1 prefix")
	if err != nil {
		return NS1{}, err
	}
	raw, err := cur.bytes("ns1 header", format.NS1HeaderSize)
	if err != nil {
		return NS1{}, err
	}
	hdr := append([]byte(nil), raw...)
	c.Decrypt(hdr, prefix)

	out := NS1{
		Serial:     buf.U32LE(hdr[0:]),
		CustomProt: buf.U32LE(hdr[4:]),
	}
	pwLen := buf.U32LE(hdr[8:])
	if pwLen == 0 {
		return out, nil
	}
	if int64(pwLen) > int64(cur.remaining()) {
		return NS1{}, cur.fail("ns1 password", errShort(pwLen, cur.remaining()))
	}
	raw, err = cur.bytes("ns1 password", int(pwLen))
	if err != nil {
		return NS1{}, err
	}
	pw := append([]byte(nil), raw...)
	c.Decrypt(pw, prefix+format.NS1PasswordPrefix)
	out.Password = decode(dec, pw)
	return out, nil
}
