package format

import "errors"

var (
	// ErrSignatureMismatch indicates a header without the "CroFile" magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrVersionDigits indicates version bytes that are not ASCII digits.
	ErrVersionDigits = errors.New("format: malformed version digits")
	// ErrBadBlock indicates a block header with impossible sizes.
	ErrBadBlock = errors.New("format: malformed block header")
)
