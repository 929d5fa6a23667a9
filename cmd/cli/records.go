package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/records"
	"github.com/kosarica/dialect-service/internal/sample"
)

var (
	recordsFlavor      string
	recordsDialectJSON string
	recordsLimit       int
	recordsOutput      string
)

var recordsCmd = &cobra.Command{
	Use:   "records <file>",
	Short: "Print the records of a delimited file",
	Long: `Split a delimited file into records. The dialect comes from --flavor,
from a JSON document given with --dialect-json, or is sniffed from the file.

Examples:
  dialect-service records prices.csv
  dialect-service records --flavor unix --limit 20 export.csv
  dialect-service records --dialect-json dialect.json -o json data.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().StringVarP(&recordsFlavor, "flavor", "f", "", "predefined dialect (see 'flavors')")
	recordsCmd.Flags().StringVar(&recordsDialectJSON, "dialect-json", "", "path to a dialect JSON document")
	recordsCmd.Flags().IntVarP(&recordsLimit, "limit", "n", 20, "maximum records to print (0 = all)")
	recordsCmd.Flags().StringVarP(&recordsOutput, "output", "o", "table", "output format: table or json")
	recordsCmd.MarkFlagsMutuallyExclusive("flavor", "dialect-json")
}

type recordsResult struct {
	Dialect dialect.Dialect `json:"dialect"`
	Header  []string        `json:"header,omitempty"`
	Records [][]string      `json:"records"`
}

func runRecords(cmd *cobra.Command, args []string) error {
	path := args[0]
	format := strings.ToLower(recordsOutput)
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", recordsOutput)
	}

	d, err := recordsDialect(cmd, path)
	if err != nil {
		return err
	}
	log.Debug().Str("file", path).Str("delimiter", string(d.Delimiter)).Msg("Reading records")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	body, _, err := sample.Decompress(f)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", path, err)
	}
	result, err := readRecords(body, d, recordsLimit)
	if err != nil {
		return err
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	writeRecordsTable(cmd.OutOrStdout(), result)
	return nil
}

func recordsDialect(cmd *cobra.Command, path string) (dialect.Dialect, error) {
	switch {
	case recordsFlavor != "":
		return dialect.Lookup(recordsFlavor)
	case recordsDialectJSON != "":
		raw, err := os.ReadFile(recordsDialectJSON)
		if err != nil {
			return dialect.Dialect{}, err
		}
		var d dialect.Dialect
		if err := json.Unmarshal(raw, &d); err != nil {
			return dialect.Dialect{}, fmt.Errorf("parse %s: %w", recordsDialectJSON, err)
		}
		return d, d.Validate()
	}

	engine, err := sniffEngine()
	if err != nil {
		return dialect.Dialect{}, err
	}
	report, err := engine.InferSample(cmd.Context(), sample.NewFile(path))
	if err != nil {
		return dialect.Dialect{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	return report.Dialect, nil
}

// readRecords reads the header and up to limit data records (limit 0 = all)
func readRecords(r io.Reader, d dialect.Dialect, limit int) (recordsResult, error) {
	reader, err := records.NewReader(r, d)
	if err != nil {
		return recordsResult{}, err
	}
	header, err := reader.Header()
	if err != nil && !errors.Is(err, io.EOF) {
		return recordsResult{}, err
	}

	out := recordsResult{Dialect: d, Header: header, Records: [][]string{}}
	for limit == 0 || len(out.Records) < limit {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("record %d: %w", reader.Record(), err)
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func writeRecordsTable(out io.Writer, result recordsResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(result.Header) > 0 {
		fmt.Fprintln(w, strings.Join(result.Header, "\t"))
		dashes := make([]string, len(result.Header))
		for i, h := range result.Header {
			dashes[i] = strings.Repeat("-", max(len(h), 1))
		}
		fmt.Fprintln(w, strings.Join(dashes, "\t"))
	}
	for _, rec := range result.Records {
		fmt.Fprintln(w, strings.Join(rec, "\t"))
	}
	w.Flush()
}
