package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative values, returning ok = false on
// overflow or when either operand is negative. Used for count * elementSize.
func MulOverflowSafe(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// CheckSpan validates that [off, off+n) lies inside [base, limit). It is the
// single range check used for both file-relative and buffer-relative spans.
//
//	if err := buf.CheckSpan(e, off, n, 0, fileSize); err != nil {
//	    return err // *OffsetError
//	}
func CheckSpan(e Entity, off, n, base, limit int64) error {
	if off < 0 || n < 0 {
		return &OffsetError{Entity: e, Kind: OffsetInvalid, Offset: off, Size: n, Base: base, Limit: limit}
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return &OffsetError{Entity: e, Kind: OffsetInvalid, Offset: off, Size: n, Base: base, Limit: limit}
	}
	if off < base {
		return &OffsetError{Entity: e, Kind: OffsetBehind, Offset: off, Size: n, Base: base, Limit: limit}
	}
	if end > limit {
		return &OffsetError{Entity: e, Kind: OffsetAhead, Offset: off, Size: n, Base: base, Limit: limit}
	}
	return nil
}

// CheckListBounds validates that count elements of elementSize bytes fit in a
// buffer of bufLen bytes starting at offset, returning the end offset.
func CheckListBounds(bufLen, offset, count, elementSize int64) (int64, error) {
	if offset < 0 || count < 0 || elementSize < 0 {
		return 0, fmt.Errorf("negative list geometry: off=%d count=%d elem=%d", offset, count, elementSize)
	}
	total, ok := MulOverflowSafe(count, elementSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elementSize)
	}
	end, ok := AddOverflowSafe(offset, total)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", offset, total)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(int64(off), int64(n))
	if !ok || end > int64(len(b)) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
