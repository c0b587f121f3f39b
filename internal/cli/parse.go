package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"tamriel-catalog/internal/filewalker"
	"tamriel-catalog/internal/jsonout"
	"tamriel-catalog/internal/loader"
	"tamriel-catalog/internal/parser"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <variant> <infile> <outfile> [effects_outfile]",
		Short: "Parse a wiki table dump into JSON",
		Long: `Parses a line-oriented wiki table dump with the given variant.
Separate-shape variants write the catalog to <outfile> and the effect
entries to <effects_outfile>; combined variants write one file.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := parseToFiles(parser.NewRegistry(), args[0], args[1], args[2:])
			return err
		},
	}
}

func (a *app) variantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the built-in wiki table variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tLINES\tOUTPUTS\tDESCRIPTION")
			for _, v := range parser.Builtin() {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", v.Name, v.RecordLength, v.Outputs(), v.Description)
			}
			return w.Flush()
		},
	}
}

func (a *app) convertCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert-csv <inDir> [outDir]",
		Short: "Convert the enchant CSV files to JSON",
		Long: fmt.Sprintf(`Converts %s.csv found in <inDir> to JSON
files of the same name in [outDir] (default: <inDir>). Missing files are
skipped with a warning.`, strings.Join(loader.CSVPrefixes, ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := args[0]
			if len(args) == 2 {
				outDir = args[1]
			}
			_, err := convertCSV(args[0], outDir)
			return err
		},
	}
}

// parseToFiles parses inPath with the named variant and writes one JSON
// file per output path. Nothing is written unless the parse succeeds and
// yields at least one record.
func parseToFiles(reg *parser.Registry, variantName, inPath string, outPaths []string) (*parser.ParseResult, error) {
	v, ok := reg.Lookup(variantName)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (known: %s)", variantName, strings.Join(reg.Names(), ", "))
	}

	outPaths = nonEmpty(outPaths)
	if len(outPaths) != v.Outputs() {
		return nil, fmt.Errorf("variant %s writes %d file(s), got %d output path(s)", v.Name, v.Outputs(), len(outPaths))
	}

	p, err := parser.NewWikiTableParser(v)
	if err != nil {
		return nil, err
	}

	result, err := p.ParseFile(inPath)
	if err != nil {
		if errors.Is(err, parser.ErrSourceNotFound) {
			log.Warn().Str("path", inPath).Msg("Source file not found")
		}
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, inPath)
	}

	docs, err := jsonout.Documents(v, result)
	if err != nil {
		return nil, err
	}
	if err := jsonout.WriteAll(docs, outPaths); err != nil {
		return nil, err
	}

	log.Info().
		Str("variant", v.Name).
		Str("input", inPath).
		Int("records", len(result.Records)).
		Int("dropped_lines", result.Dropped).
		Msg("Parse complete")

	return result, nil
}

// convertCSV converts every enchant CSV present in inDir and returns the
// written paths.
func convertCSV(inDir, outDir string) ([]string, error) {
	info, err := os.Stat(outDir)
	if err != nil {
		return nil, fmt.Errorf("stat output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output is not a directory: %s", outDir)
	}

	entries, missing, err := filewalker.Discover(inDir, ".csv", loader.CSVPrefixes)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: none of %s.csv in %s",
			parser.ErrSourceNotFound, strings.Join(missing, ", "), inDir)
	}

	var written []string
	for _, entry := range entries {
		rows, err := parser.ParseCSVFile(entry.Path)
		if err != nil {
			return written, err
		}

		outPath := filepath.Join(outDir, entry.Name+".json")
		if err := jsonout.WriteFile(outPath, rows); err != nil {
			return written, err
		}
		log.Debug().Str("input", entry.Path).Int("rows", len(rows)).Msg("Converted CSV")
		written = append(written, outPath)
	}
	return written, nil
}

func nonEmpty(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
