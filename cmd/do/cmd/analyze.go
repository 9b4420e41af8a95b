package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/templui/sheetlens/internal/export"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/parser"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/stats"
	"github.com/templui/sheetlens/internal/view"
)

type analyzeOptions struct {
	analysisType string
	format       string
	out          string
	clock        view.Clock
}

func AnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{clock: view.SystemClock{}}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a local spreadsheet and print the export",
		Long: `Runs parse, aggregate and build on a local csv, xlsx, xls or json file
without a database and writes the export to stdout, or to --out.
An --out directory receives the default export filename.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.analysisType, "type", "t", string(model.AnalysisOverview), "analysis type: overview, sales or products")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(export.JSON), "export format: csv, xlsx or json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file or directory")
	return cmd
}

func runAnalyze(stdout, stderr io.Writer, path string, opts analyzeOptions) error {
	t, err := model.ParseAnalysisType(opts.analysisType)
	if err != nil {
		return fmt.Errorf("%w: %q", err, opts.analysisType)
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	rows, err := parser.ParseFile(path)
	if err != nil {
		return err
	}
	st := stats.Aggregate(rows)
	res, err := view.Build(t, rows, st, opts.clock)
	if err != nil {
		return err
	}

	a, err := service.NewAnalysis("local", filepath.Base(path), t, res, opts.clock.Now())
	if err != nil {
		return err
	}
	f, err := export.Render(a, format, opts.clock.Now())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stderr, "%s: %d rows, %d numeric columns, has data: %t\n",
		filepath.Base(path), st.TotalRows, len(st.NumericColumns), res.HasData)

	if opts.out == "" {
		_, err = stdout.Write(f.Body)
		return err
	}

	dest := opts.out
	if info, statErr := os.Stat(dest); statErr == nil && info.IsDir() {
		dest = filepath.Join(dest, f.Filename)
	}
	if err := os.WriteFile(dest, f.Body, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	_, _ = fmt.Fprintln(stderr, "wrote", dest)
	return nil
}
