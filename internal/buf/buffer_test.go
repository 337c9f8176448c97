package buf

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cronokit/internal/abi"
)

func TestBuffer_OwnershipTransfers(t *testing.T) {
	e := Entity{File: abi.FileData, ID: 3}
	src := Own(e, 100, []byte{1, 2, 3})

	cp := src.Copy()
	require.True(t, cp.Owned())
	cp.Bytes()[0] = 9
	require.Equal(t, byte(1), src.Bytes()[0], "copy must not alias the source")

	moved := src.Move()
	require.True(t, moved.Owned())
	require.False(t, src.Owned())
	require.Equal(t, int64(100), moved.Offset)
	require.Equal(t, e, moved.Entity)

	src.Release() // no longer owns, nothing happens
	require.Equal(t, 3, src.Len())

	moved.Release()
	require.Zero(t, moved.Len())
	require.False(t, moved.Owned())
}

func TestBuffer_BorrowedNeverReleased(t *testing.T) {
	backing := []byte{1, 2, 3, 4}
	b := Borrow(Entity{File: abi.FileIndex}, 0, backing)
	require.False(t, b.Owned())
	b.Release()
	require.Equal(t, 4, b.Len())
}

func TestBuffer_AllocAndWrite(t *testing.T) {
	b := New(Entity{}, 0, 8)
	b.Write([]byte{5, 6})
	require.Equal(t, []byte{5, 6}, b.Bytes())

	b.Alloc(4)
	require.Equal(t, []byte{0, 0, 0, 0}, b.Bytes())

	borrowed := Borrow(Entity{}, 0, []byte{1})
	borrowed.Write([]byte{7, 8, 9})
	require.True(t, borrowed.Owned())
	require.Equal(t, []byte{7, 8, 9}, borrowed.Bytes())

	borrowed.Truncate(1)
	require.Equal(t, []byte{7}, borrowed.Bytes())
	borrowed.Truncate(5)
	require.Equal(t, 1, borrowed.Len())
}

func TestBuffer_ScalarReadsBounded(t *testing.T) {
	b := Own(Entity{File: abi.FileData, ID: 1}, 0, []byte{0x01, 0x02, 0x03, 0x04, 0x05})

	v16, err := b.U16(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0302), v16)

	v32, err := b.U32(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x05040302), v32)

	_, err = b.U32(2)
	require.ErrorIs(t, err, ErrOffset)
	_, err = b.U64(0)
	require.ErrorIs(t, err, ErrOffset)
	_, err = b.U8(-1)
	require.ErrorIs(t, err, ErrOffset)
}

func TestBuffer_At(t *testing.T) {
	b := Own(Entity{File: abi.FileData}, 0x1000, make([]byte, 16))
	b.Bytes()[4] = 0xAB

	v, err := b.At(0x1004, 2)
	require.NoError(t, err)
	require.Equal(t, int64(0x1004), v.Offset)
	require.Equal(t, byte(0xAB), v.Bytes()[0])
	require.False(t, v.Owned())

	var oe *OffsetError
	_, err = b.At(0x0FFF, 2)
	require.True(t, errors.As(err, &oe))
	require.Equal(t, OffsetBehind, oe.Kind)

	_, err = b.At(0x100F, 2)
	require.True(t, errors.As(err, &oe))
	require.Equal(t, OffsetAhead, oe.Kind)
}

func TestBuffer_ABIValues(t *testing.T) {
	a, err := abi.NewRegistry().Resolve(abi.Version{Major: 1, Minor: 12})
	require.NoError(t, err)

	// two v4 slots
	raw := make([]byte, 32)
	binary.LittleEndian.PutUint64(raw[16:], 0x8000_0000_0000_2000)
	binary.LittleEndian.PutUint32(raw[24:], 0x40)
	b := Own(Entity{File: abi.FileIndex}, 16, raw)

	off, err := b.Uint(a, abi.EntryOffset, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2000), off)

	del, err := b.Uint(a, abi.EntryDeleted, 16)
	require.NoError(t, err)
	require.NotZero(t, del)

	length, err := b.Uint(a, abi.EntryLength, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(0x40), length)

	size, err := b.Uint(a, abi.EntrySize, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(16), size)

	_, err = b.Uint(a, abi.EntryLength, 24)
	require.ErrorIs(t, err, ErrOffset)

	_, err = b.Uint(a, abi.EntryNoBlock, 0)
	require.ErrorIs(t, err, abi.ErrInvalidValue)

	v, err := b.CopyValue(a, abi.EntryLength, 16)
	require.NoError(t, err)
	require.Equal(t, []byte{0x40, 0, 0, 0}, v)

	_, err = b.Value(a, abi.EntrySize, 0)
	require.ErrorIs(t, err, abi.ErrInvalidValue)
}
