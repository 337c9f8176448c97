package cronos

import (
	"context"
	"errors"

	"github.com/joshuapare/cronokit/internal/buf"
	"github.com/joshuapare/cronokit/internal/fields"
	"github.com/joshuapare/cronokit/pkg/types"
)

var errStopped = errors.New("cronos: scan stopped by OnError")

// ScanStats summarizes one Scan.
type ScanStats struct {
	Records int // records delivered to the callback
	Failed  int // records skipped after an error
}

// Scan walks every active record of the data file in id order, splits it into
// field values and calls fn. A record that cannot be read or split is logged
// with its id and skipped; the scan carries on with the next id unless
// opts.OnError says otherwise. An error from fn or from ctx stops the scan
// and is returned. Table-level read failures are returned as is.
//
// Record.Data and the value spans alias a buffer that is only valid during
// the call to fn.
func (b *Bank) Scan(ctx context.Context, fn func(Record) error, opts *ScanOptions) (ScanStats, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}
	var st ScanStats
	err := b.data.Records(func(id uint64, rec *buf.Buffer, readErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := b.record(id, rec, readErr, opts.Raw)
		if err != nil {
			st.Failed++
			b.log.Warn("record skipped", "id", id, "err", err)
			if opts.OnError != nil && !opts.OnError(id, err) {
				return errStopped
			}
			return nil
		}
		st.Records++
		return fn(r)
	})
	if errors.Is(err, errStopped) {
		err = nil
	}
	return st, err
}

func (b *Bank) record(id uint64, rec *buf.Buffer, readErr error, raw bool) (Record, error) {
	if readErr != nil {
		return Record{}, readErr
	}
	r := Record{ID: id, Data: rec.Bytes()}
	if raw {
		return r, nil
	}
	base, vals, err := fields.Split(r.Data, b.schema, b.log.With("id", id))
	if err != nil {
		return Record{}, &types.Error{Kind: types.ErrKindRecord, Msg: "record fields unreadable", Path: b.data.Path(), ID: id, Err: err}
	}
	r.Base, r.Values = base, vals
	return r, nil
}
