package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/dialect-service/internal/charset"
	"github.com/kosarica/dialect-service/internal/sample"
	"github.com/kosarica/dialect-service/internal/sniffer"
)

var (
	sniffSampleSize  int
	sniffRanking     string
	sniffCandidates  string
	sniffEncoding    string
	sniffOutput      string
	sniffConcurrency int
)

var sniffCmd = &cobra.Command{
	Use:   "sniff <file>...",
	Short: "Infer the dialect of one or more files",
	Long: `Infer the dialect of one or more delimited files.

Compressed files are decompressed transparently. Every eligible entry of a
ZIP archive is sniffed separately.

Examples:
  dialect-service sniff prices.csv
  dialect-service sniff --output json export.zip
  dialect-service sniff --ranking second --candidates ",;" data.txt.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSniff,
}

func init() {
	rootCmd.AddCommand(sniffCmd)

	sniffCmd.Flags().IntVar(&sniffSampleSize, "sample-size", 0, "characters to sample (0 = config, -1 = whole file)")
	sniffCmd.Flags().StringVar(&sniffRanking, "ranking", "", "distribution ranking: lowest or second")
	sniffCmd.Flags().StringVar(&sniffCandidates, "candidates", "", "candidate delimiters (e.g. \",;|\")")
	sniffCmd.Flags().StringVarP(&sniffEncoding, "encoding", "e", "", "source encoding (default: detect)")
	sniffCmd.Flags().StringVarP(&sniffOutput, "output", "o", "table", "output format: table or json")
	sniffCmd.Flags().IntVar(&sniffConcurrency, "concurrency", 4, "files sniffed in parallel")
}

// sniffTarget is one sniffable input: a file or a ZIP entry
type sniffTarget struct {
	Name     string
	provider sample.Provider
}

// sniffOutcome is the result for one target
type sniffOutcome struct {
	Name   string          `json:"name"`
	Report *sniffer.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runSniff(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(sniffOutput)
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", sniffOutput)
	}

	engine, err := sniffEngine()
	if err != nil {
		return err
	}
	enc := charset.Encoding("")
	if sniffEncoding != "" {
		enc = charset.Normalize(sniffEncoding)
	}

	var targets []sniffTarget
	for _, path := range args {
		t, err := targetsFor(path, enc)
		if err != nil {
			return err
		}
		targets = append(targets, t...)
	}
	log.Debug().Int("targets", len(targets)).Msg("Sniffing")

	outcomes, err := sniffAll(cmd.Context(), engine, targets, sniffConcurrency)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
		}
	}

	if format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), outcomes); err != nil {
			return err
		}
	} else {
		writeSniffTable(cmd.OutOrStdout(), outcomes)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be sniffed", failed, len(outcomes))
	}
	return nil
}

func sniffEngine() (*sniffer.Engine, error) {
	config, err := engineConfig()
	if err != nil {
		return nil, err
	}
	if sniffSampleSize != 0 {
		config.SampleSize = sniffSampleSize
	}
	if sniffRanking != "" {
		ranking, err := sniffer.ParseRanking(sniffRanking)
		if err != nil {
			return nil, err
		}
		config.Ranking = ranking
	}
	if sniffCandidates != "" {
		config.Candidates = []rune(strings.ReplaceAll(sniffCandidates, `\t`, "\t"))
	}
	return sniffer.NewEngine(config), nil
}

// targetsFor expands a path into sniff targets; archives yield one per entry
func targetsFor(path string, enc charset.Encoding) ([]sniffTarget, error) {
	isZip, err := fileIsZip(path)
	if err != nil {
		return nil, err
	}
	if !isZip {
		f := sample.NewFile(path)
		f.Encoding = enc
		return []sniffTarget{{Name: path, provider: f}}, nil
	}

	entries, err := sample.NewZip(path).Entries()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	targets := make([]sniffTarget, 0, len(entries))
	for _, entry := range entries {
		z := sample.NewZip(path)
		z.Entry = entry
		z.Encoding = enc
		targets = append(targets, sniffTarget{Name: path + ":" + entry, provider: z})
	}
	return targets, nil
}

func fileIsZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return sample.IsZip(head[:n]), nil
}

// sniffAll runs the engine over targets with bounded parallelism. Per-target
// failures are reported in the outcome; only cancellation aborts the run.
func sniffAll(ctx context.Context, engine *sniffer.Engine, targets []sniffTarget, limit int) ([]sniffOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]sniffOutcome, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i].Name = t.Name
			report, err := engine.InferSample(ctx, t.provider)
			if err != nil {
				log.Debug().Err(err).Str("input", t.Name).Msg("Sniff failed")
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Report = &report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func writeSniffTable(out io.Writer, outcomes []sniffOutcome) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Input\tDelimiter\tQuote\tStyle\tTerminator\tHeader\tEncoding\tSource\n")
	fmt.Fprintf(w, "-----\t---------\t-----\t-----\t----------\t------\t--------\t------\n")
	for _, o := range outcomes {
		if o.Report == nil {
			fmt.Fprintf(w, "%s\terror: %s\t\t\t\t\t\t\n", o.Name, o.Error)
			continue
		}
		d := o.Report.Dialect
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Name,
			printable(d.Delimiter),
			printable(d.QuoteChar),
			d.QuoteStyle,
			strings.Trim(fmt.Sprintf("%q", d.LineTerminator), `"`),
			headerLabel(d.HasHeader, d.HeaderRowCount),
			d.Encoding,
			o.Report.DelimiterSource,
		)
	}
	w.Flush()
}

func printable(r rune) string {
	switch r {
	case 0:
		return "-"
	case '\t':
		return `\t`
	case ' ':
		return "space"
	}
	return string(r)
}

func headerLabel(has bool, rows int) string {
	if !has {
		return "no"
	}
	return fmt.Sprintf("yes (%d)", rows)
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
