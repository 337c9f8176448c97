// Package crypt implements the byte-substitution cipher used by Cronos banks,
// the derivation of per-file substitution tables, and record decompression.
//
// A Table holds two 256-byte halves: the decode half maps a cipher byte to a
// shifted plain byte, the encode half is its inverse. Decryption of byte i of
// a record with prefix p is
//
//	plain[i] = decode[cipher[i]] - (i + p)  (mod 256)
//
// The operation is keyed by position, so applying it twice does not restore
// the input; Encrypt is the inverse.
package crypt

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// TableSize is the size of a full table (decode + encode halves).
const TableSize = 512

const half = TableSize / 2

var (
	// ErrTableRegion indicates the on-disk table region is missing or short.
	ErrTableRegion = errors.New("crypt: table region truncated")
	// ErrEmptyTable indicates a table region that holds no key material.
	ErrEmptyTable = errors.New("crypt: empty table region")
	// ErrBadTable indicates a decoded table whose decode half is not a permutation.
	ErrBadTable = errors.New("crypt: decoded table is not a permutation")
)

// Table is a decode/encode substitution pair.
type Table [TableSize]byte

// Builtin returns a copy of the constant table used by small-model files.
func Builtin() *Table {
	t := builtin
	return &t
}

// Decrypt decrypts data in place.
func (t *Table) Decrypt(data []byte, prefix byte) {
	for i, c := range data {
		data[i] = t[c] - (byte(i) + prefix)
	}
}

// Encrypt encrypts data in place; Decrypt with the same prefix inverts it.
func (t *Table) Encrypt(data []byte, prefix byte) {
	for i, p := range data {
		data[i] = t[half+int(p+byte(i)+prefix)]
	}
}

// Valid reports whether the decode half is a permutation of 0..255.
func (t *Table) Valid() bool {
	var seen [half]bool
	for _, v := range t[:half] {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Inverse fills the encode half from the decode half.
func (t *Table) Inverse() {
	for i := 0; i < half; i++ {
		t[half+int(t[i])] = byte(i)
	}
}

func cipherFor(serial uint32, secret []byte) (*blowfish.Cipher, error) {
	key := make([]byte, 4, 4+len(secret))
	binary.LittleEndian.PutUint32(key, serial)
	key = append(key, secret...)
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: key schedule: %w", err)
	}
	return c, nil
}

// FromRegion derives a big-model table from the encrypted on-disk region.
// The Blowfish key is serial (little-endian) followed by the file secret, and
// the region is decrypted block by block.
func FromRegion(region []byte, serial uint32, secret []byte) (*Table, error) {
	if len(region) < TableSize {
		return nil, fmt.Errorf("%w: %d of %d bytes", ErrTableRegion, len(region), TableSize)
	}
	empty := true
	for _, b := range region[:TableSize] {
		if b != 0 {
			empty = false
			break
		}
	}
	if empty {
		return nil, ErrEmptyTable
	}

	c, err := cipherFor(serial, secret)
	if err != nil {
		return nil, err
	}
	var t Table
	for off := 0; off < TableSize; off += blowfish.BlockSize {
		c.Decrypt(t[off:off+blowfish.BlockSize], region[off:off+blowfish.BlockSize])
	}
	if !t.Valid() {
		return nil, ErrBadTable
	}
	return &t, nil
}

// SealRegion is the inverse of FromRegion.
func SealRegion(t *Table, serial uint32, secret []byte) ([]byte, error) {
	c, err := cipherFor(serial, secret)
	if err != nil {
		return nil, err
	}
	out := make([]byte, TableSize)
	for off := 0; off < TableSize; off += blowfish.BlockSize {
		c.Encrypt(out[off:off+blowfish.BlockSize], t[off:off+blowfish.BlockSize])
	}
	return out, nil
}
