/*
Package cronos reads Cronos database banks.

A bank is a directory holding a structure file pair (CroStru.dat/.tad) that
describes the schema and a data file pair (CroBank.dat/.tad) that holds the
records. OpenBank decodes the schema; Scan walks every record and splits it
into (field name, field type, raw span) triples.

# Quick Start

	b, err := cronos.OpenBank("/data/bank", nil)
	if err != nil {
	    log.Fatal(err)
	}
	defer b.Close()

	fmt.Println(b.Schema().Name)
	_, err = b.Scan(ctx, func(r cronos.Record) error {
	    for _, v := range r.Values {
	        fmt.Println(v.Name, b.Text(v))
	    }
	    return nil
	}, nil)

# Error Handling

Errors that concern the whole bank (a missing file, an unknown format
version, a broken schema) are returned by OpenBank. A record that cannot be
read is logged with its id and the scan moves on; ScanOptions.OnError can
observe those failures or stop the scan:

	opts := &cronos.ScanOptions{
	    OnError: func(id uint64, err error) bool {
	        failed = append(failed, id)
	        return true // continue
	    },
	}

All errors carry a types.ErrKind; use types.IsKind to branch on it.
*/
package cronos
