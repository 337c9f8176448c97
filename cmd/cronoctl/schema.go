package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cronokit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newSchemaCmd())
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <bank-dir>",
		Short: "Print the bases and fields of a bank",
		Long: `The schema command decodes the structure file of a bank and lists every
base (table) with its fields in declared order.

Example:
  cronoctl schema /data/banks/staff
  cronoctl schema /data/banks/staff --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(args)
		},
	}
	return cmd
}

type schemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Index    uint32 `json:"index"`
	Flags    uint32 `json:"flags"`
	External bool   `json:"external,omitempty"`
}

type schemaBase struct {
	Index    uint32        `json:"index"`
	Name     string        `json:"name"`
	Mnemonic string        `json:"mnemonic"`
	Version  uint16        `json:"version"`
	Fields   []schemaField `json:"fields"`
}

type schemaOut struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Version  int          `json:"version"`
	Bases    []schemaBase `json:"bases"`
	Formulas []string     `json:"formulas,omitempty"`
}

func toSchemaOut(s *types.BankSchema) schemaOut {
	out := schemaOut{ID: s.ID, Name: s.Name, Version: s.Version}
	for _, b := range s.Bases {
		sb := schemaBase{Index: b.Index, Name: b.Name, Mnemonic: b.Mnemonic, Version: b.Version}
		for _, f := range b.Fields {
			sb.Fields = append(sb.Fields, schemaField{
				Name: f.Name, Type: f.Type.String(), Index: f.Index, Flags: f.Flags, External: f.External != nil,
			})
		}
		out.Bases = append(out.Bases, sb)
	}
	for _, f := range s.Formulas {
		out.Formulas = append(out.Formulas, f.Name)
	}
	return out
}

func runSchema(args []string) error {
	b, err := openBank(args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to open bank: %w", err)
	}
	defer b.Close()

	out := toSchemaOut(b.Schema())
	if jsonOut {
		return printJSON(out)
	}

	printInfo("Bank %d: %s\n", out.ID, out.Name)
	for _, base := range out.Bases {
		printInfo("\n[%d] %s (%s)\n", base.Index, base.Name, base.Mnemonic)
		for _, f := range base.Fields {
			ext := ""
			if f.External {
				ext = " external"
			}
			printInfo("  %3d  %-24s %s%s\n", f.Index, f.Name, f.Type, ext)
		}
	}
	if len(out.Formulas) > 0 {
		printInfo("\nFormulas: %d\n", len(out.Formulas))
	}
	return nil
}
