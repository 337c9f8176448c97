package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cronokit/pkg/cronos"
)

var (
	dumpLimit int
	dumpBase  string
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpLimit, "limit", 0, "Stop after this many records (0 = all)")
	cmd.Flags().StringVar(&dumpBase, "base", "", "Only dump records of this base (name or mnemonic)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <bank-dir>",
		Short: "Dump the records of a bank",
		Long: `The dump command walks every live record of a bank and prints its
fields. Text fields are decoded through the bank code page. With --json each
record is printed as one JSON object per line.

Example:
  cronoctl dump /data/banks/staff
  cronoctl dump /data/banks/staff --base Persons --limit 10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), args)
		},
	}
	return cmd
}

type dumpField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type dumpRecord struct {
	ID     uint64      `json:"id"`
	Base   string      `json:"base"`
	Fields []dumpField `json:"fields"`
}

var errLimit = errors.New("record limit reached")

func runDump(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := openBank(args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to open bank: %w", err)
	}
	defer b.Close()

	enc := json.NewEncoder(os.Stdout)
	n := 0
	st, err := b.Scan(ctx, func(r cronos.Record) error {
		if dumpBase != "" && r.Base.Name != dumpBase && r.Base.Mnemonic != dumpBase {
			return nil
		}
		rec := dumpRecord{ID: r.ID, Base: r.Base.Name}
		for _, v := range r.Values {
			rec.Fields = append(rec.Fields, dumpField{Name: v.Name, Type: v.Type.String(), Value: b.Text(v)})
		}
		if jsonOut {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		} else {
			printInfo("#%d %s\n", rec.ID, rec.Base)
			for _, f := range rec.Fields {
				printInfo("  %-24s %s\n", f.Name, f.Value)
			}
		}
		n++
		if dumpLimit > 0 && n >= dumpLimit {
			return errLimit
		}
		return nil
	}, nil)
	if err != nil && !errors.Is(err, errLimit) {
		return fmt.Errorf("dump failed after %d records: %w", st.Records, err)
	}
	logger.Debug("dump finished", "dumped", n, "scanned", st.Records, "failed", st.Failed)
	return nil
}
