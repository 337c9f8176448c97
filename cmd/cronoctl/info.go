package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cronokit/pkg/cronos"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <bank-dir>",
		Short: "Show the header and index statistics of a bank",
		Long: `The info command opens a bank, decodes its schema and reports the data
file format version, encryption and compression flags, file sizes and the
number of live records.

Example:
  cronoctl info /data/banks/staff
  cronoctl info /data/banks/staff --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type bankInfo struct {
	Dir   string       `json:"dir"`
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Stats cronos.Stats `json:"stats"`
}

func runInfo(args []string) error {
	dir := args[0]
	printVerbose("Opening bank: %s\n", dir)

	b, err := openBank(dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open bank: %w", err)
	}
	defer b.Close()

	st, err := b.Stats()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	if jsonOut {
		return printJSON(bankInfo{Dir: dir, ID: b.ID(), Name: b.Name(), Stats: st})
	}

	printInfo("\nBank Information:\n")
	printInfo("  Directory:   %s\n", dir)
	printInfo("  Id:          %d\n", b.ID())
	printInfo("  Name:        %s\n", b.Name())
	printInfo("  Format:      %s (%s, model %s, lite %t)\n", st.Version, st.Family, st.Model, st.Lite)
	printInfo("  Encrypted:   %t\n", st.Encrypted)
	printInfo("  Compressed:  %t\n", st.Compressed)
	printInfo("  Block size:  %d\n", st.BlockLength)
	printInfo("  Data file:   %s\n", humanSize(st.DataSize))
	printInfo("  Index file:  %s\n", humanSize(st.IndexSize))
	printInfo("  Entries:     %d (%d active)\n", st.Entries, st.Active)
	printInfo("  Bases:       %d\n", st.Bases)
	printInfo("  Formulas:    %d\n", st.Formulas)
	return nil
}

func humanSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
