package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/dialect-service/internal/dialect"
)

var flavorsOutput string

var flavorsCmd = &cobra.Command{
	Use:   "flavors",
	Short: "List the predefined dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := make(map[string]dialect.Dialect)
		names := dialect.FlavorNames()
		for _, name := range names {
			d, err := dialect.Lookup(name)
			if err != nil {
				return err
			}
			all[name] = d
		}

		switch strings.ToLower(flavorsOutput) {
		case "json":
			return writeJSON(cmd.OutOrStdout(), all)
		case "table":
		default:
			return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", flavorsOutput)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Name\tDelimiter\tQuote\tStyle\tTerminator\tHeader\n")
		fmt.Fprintf(w, "----\t---------\t-----\t-----\t----------\t------\n")
		for _, name := range names {
			d := all[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%q\t%s\n",
				name, printable(d.Delimiter), printable(d.QuoteChar), d.QuoteStyle,
				d.LineTerminator, headerLabel(d.HasHeader, d.HeaderRowCount))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(flavorsCmd)
	flavorsCmd.Flags().StringVarP(&flavorsOutput, "output", "o", "table", "output format: table or json")
}
