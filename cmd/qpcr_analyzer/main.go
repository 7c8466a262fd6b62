package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
	"github.com/user/qpcr_analyzer_go/internal/config"
	"github.com/user/qpcr_analyzer_go/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "qpcr_analyzer",
		Short:         "Group, average and normalize qPCR Cq values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default: qpcr.yaml or configs/qpcr.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text|json")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newInspectCmd(opts),
	)
	return rootCmd
}

// load reads the configuration, applies the logging flags and installs the
// logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging, cmd.ErrOrStderr())
	return cfg, nil
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		reference       string
		extraReferences []string
		headerRow       int
		exclude         string
		outDir          string
		outputs         string
		sheet           string
		colorScheme     string
		orientation     string
		showValues      bool
		sortByValue     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a plate export and write reports",
		Long: `Read a qPCR results export (.xlsx, .xls or .csv), group Cq readings by
Target and Sample, average replicates ignoring undetermined wells, normalize
against a reference gene with 2^(-ΔCq) and write the selected exports.

The header row is 1-based, as shown by spreadsheet programs.

Example: qpcr_analyzer analyze run.xlsx --reference 36b4 --exclude water --outputs means,normalized,charts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("reference") {
				cfg.Analysis.ReferenceGene = reference
			}
			if flags.Changed("header-row") {
				cfg.Analysis.HeaderRow = headerRow - 1
			}
			if flags.Changed("exclude") {
				cfg.Analysis.ExcludeSamples = strings.Split(exclude, ",")
			}
			if flags.Changed("out") {
				cfg.Output.Dir = outDir
			}
			if flags.Changed("sheet") {
				cfg.Analysis.Sheet = sheet
			}
			if flags.Changed("color-scheme") {
				cfg.Charts.ColorScheme = colorScheme
			}
			if flags.Changed("orientation") {
				cfg.Charts.Orientation = orientation
			}
			if flags.Changed("show-values") {
				cfg.Charts.ShowValues = showValues
			}
			if flags.Changed("sort-by-value") {
				cfg.Charts.SortByValue = sortByValue
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			kinds, err := ParseOutputs(outputs)
			if err != nil {
				return err
			}

			app := NewApp(cfg, cmd.OutOrStdout())
			res, err := app.Run(args[0], kinds, extraReferences)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done: %d files written to %s\n", len(res.Files), cfg.Output.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", analysis.DefaultReferenceGene, "Reference (housekeeping) gene")
	cmd.Flags().StringSliceVar(&extraReferences, "also-reference", nil, "Additional reference genes to export normalized workbooks for")
	cmd.Flags().IntVar(&headerRow, "header-row", analysis.DefaultHeaderRow+1, "1-based row holding the Target/Sample/Cq headers")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma separated sample substrings to leave out of charts (NTC is always excluded)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&outputs, "outputs", "all", "Exports to write: "+strings.Join(AllOutputs, ",")+" or all")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet to read (default: first sheet)")
	cmd.Flags().StringVar(&colorScheme, "color-scheme", "category10", "Chart colors: category10|set1|set2|set3|tableau10")
	cmd.Flags().StringVar(&orientation, "orientation", "vertical", "Chart orientation: vertical|horizontal")
	cmd.Flags().BoolVar(&showValues, "show-values", false, "Print values above bars")
	cmd.Flags().BoolVar(&sortByValue, "sort-by-value", false, "Sort bars by value, largest first")

	return cmd
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	var headerRow int
	var sheet string

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the detected columns and targets of a plate export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("header-row") {
				cfg.Analysis.HeaderRow = headerRow - 1
			}
			if cmd.Flags().Changed("sheet") {
				cfg.Analysis.Sheet = sheet
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			app := NewApp(cfg, nil)
			table, err := app.LoadTable(args[0])
			if err != nil {
				return err
			}
			processed, err := analysis.ProcessTable(table, cfg.Analysis.HeaderRow)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Rows: %d\n", table.Len())
			fmt.Fprintf(out, "Header row: %d\n", cfg.Analysis.HeaderRow+1)
			fmt.Fprintf(out, "Columns: Target=%d Sample=%d Cq=%d\n",
				processed.Columns.Target+1, processed.Columns.Sample+1, processed.Columns.Cq+1)
			fmt.Fprintf(out, "Skipped rows: %d\n", processed.SkippedRows)
			for _, target := range analysis.SortTargets(processed.Means) {
				fmt.Fprintf(out, "%s\t%d samples\n", target, len(processed.Means[target]))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&headerRow, "header-row", analysis.DefaultHeaderRow+1, "1-based row holding the Target/Sample/Cq headers")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet to read (default: first sheet)")
	return cmd
}
