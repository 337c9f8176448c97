package reader

import (
	"errors"
	"fmt"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/crypt"
	"github.com/joshuapare/cronokit/internal/fileio"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/pkg/types"
)

// ErrChain is the cause attached to chain-corruption errors.
var ErrChain = errors.New("reader: block chain broken")

func wrapOpenErr(path string, err error) error {
	return &types.Error{Kind: types.ErrKindOpen, Msg: "cannot open bank file", Path: path, Err: err}
}

func wrapIOErr(path string, id uint64, err error) error {
	msg := "read failed"
	if name := fileio.ErrnoName(err); name != "" {
		msg = "read failed [" + name + "]"
	}
	return &types.Error{Kind: types.ErrKindIO, Msg: msg, Path: path, ID: id, Err: err}
}

func wrapHeaderErr(path string, err error) error {
	switch {
	case errors.Is(err, format.ErrSignatureMismatch):
		return &types.Error{Kind: types.ErrKindVersion, Msg: "not a Cronos file (bad magic)", Path: path, Err: err}
	case errors.Is(err, format.ErrVersionDigits), errors.Is(err, abi.ErrUnknownVersion):
		return &types.Error{Kind: types.ErrKindVersion, Msg: "unsupported format version", Path: path, Err: err}
	case errors.Is(err, format.ErrTruncated):
		return &types.Error{Kind: types.ErrKindVersion, Msg: "header truncated", Path: path, Err: err}
	default:
		return &types.Error{Kind: types.ErrKindVersion, Msg: err.Error(), Path: path, Err: err}
	}
}

// wrapRecordErr maps a decoding failure for one record to a typed error.
func wrapRecordErr(path string, id uint64, err error) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	switch {
	case errors.Is(err, ErrChain), errors.Is(err, format.ErrBadBlock):
		return &types.Error{Kind: types.ErrKindChain, Msg: "block chain corrupt", Path: path, ID: id, Err: err}
	case errors.Is(err, buf.ErrOffset), errors.Is(err, format.ErrTruncated):
		return &types.Error{Kind: types.ErrKindOffset, Msg: "offset out of range", Path: path, ID: id, Err: err}
	default:
		return &types.Error{Kind: types.ErrKindChain, Msg: err.Error(), Path: path, ID: id, Err: err}
	}
}

func wrapCryptErr(path string, err error) error {
	switch {
	case errors.Is(err, crypt.ErrTableRegion), errors.Is(err, crypt.ErrEmptyTable):
		return &types.Error{Kind: types.ErrKindCrypto, Msg: "crypt table missing", Path: path, Err: err}
	default:
		return &types.Error{Kind: types.ErrKindCrypto, Msg: "crypt table unusable", Path: path, Err: err}
	}
}

func chainErr(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrChain}, args...)...)
}
