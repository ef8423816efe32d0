package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/symgen/internal/config"
	"github.com/conneroisu/symgen/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the qstrs and modules a generation run would emit",
	Long: `Run extraction over the configured sources without writing any headers,
and print the resulting qstr table and module registry.

Useful for inspecting what a source change adds to the table, or for
diffing two source trees.

Examples:
  symgen list                   # Human-readable table
  symgen list --format json     # Machine-readable, same shape as the table
  symgen list --modules-only    # Only module registrations`,
	RunE: runListCommand,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("format", "text", "output format (text, json)")
	listCmd.Flags().Bool("modules-only", false, "print only module registrations")
	listCmd.Flags().Bool("qstrs-only", false, "print only qstrs")
}

func runListCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	builtins, err := loadData(cfg)
	if err != nil {
		return err
	}

	extracted, err := extractData(cmd.Context(), cfg, builtins, logger)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	modulesOnly, _ := cmd.Flags().GetBool("modules-only")
	qstrsOnly, _ := cmd.Flags().GetBool("qstrs-only")

	if format == "json" {
		return printListJSON(extracted, modulesOnly, qstrsOnly)
	}
	return printListText(extracted, modulesOnly, qstrsOnly)
}

func printListJSON(extracted *types.ExtractedData, modulesOnly, qstrsOnly bool) error {
	out := struct {
		Qstrs             []types.QStr   `json:"qstrs,omitempty"`
		Modules           []types.Module `json:"modules,omitempty"`
		ExtensibleModules []types.Module `json:"extensible_modules,omitempty"`
		ModuleDelegations []types.Module `json:"module_delegations,omitempty"`
	}{}

	if !modulesOnly {
		out.Qstrs = extracted.AllQstrs
	}
	if !qstrsOnly {
		out.Modules = extracted.Modules
		out.ExtensibleModules = extracted.ExtensibleModules
		out.ModuleDelegations = extracted.ModuleDelegations
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printListText(extracted *types.ExtractedData, modulesOnly, qstrsOnly bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	if !modulesOnly {
		fmt.Fprintln(w, "POOL\tIDENT\tHASH\tLEN\tSOURCE")
		for _, q := range extracted.AllQstrs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", q.Pool, q.Ident, q.Hash, q.ValLen, q.Source)
		}
	}

	if !qstrsOnly {
		if !modulesOnly {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "KIND\tNAME\tSYMBOL\tSOURCE")
		for _, groups := range [][]types.Module{
			extracted.Modules,
			extracted.ExtensibleModules,
			extracted.ModuleDelegations,
		} {
			for _, m := range groups {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Kind, m.QstrIdent, m.Symbol, m.Source)
			}
		}
	}

	return w.Flush()
}
