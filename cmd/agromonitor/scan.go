package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AgroMonitor/internal/model"
	"AgroMonitor/internal/notifier"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score the catalogue and print the ranking",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	cmd.Flags().Int("min-score", 0, "Minimum technical score (0-100) for an instrument to be ranked")
	cmd.Flags().String("filter", "", "Only scan symbols containing this text")
	cmd.Flags().String("format", "table", "Output format (table|json)")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, scanErr := a.scanner.Scan(ctx, a.scanOptions())
	if report == nil {
		return scanErr
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		writeReport(out, report)
	}
	return scanErr
}

// writeReport prints one aligned table per category.
func writeReport(out io.Writer, r *model.ScanReport) {
	fmt.Fprintf(out, "Scan %s | min score %d | ranked %d | skipped %d\n",
		r.StartedAt.Format("2006-01-02 15:04"), r.MinScore, r.Total(), r.Skipped)
	if r.Aborted {
		fmt.Fprintln(out, "scan interrupted, results are partial")
	}

	for _, c := range r.Categories {
		if len(c.Results) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", c.Category.Label())
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tVAR%\tTECH\tSTATUS\tFUND\tSTATUS\tDY%\tRSI\tINSIGHT")
		for _, row := range c.Results {
			fund := "-"
			if row.Fundamental.Status != model.StatusNotAvailable {
				fund = fmt.Sprintf("%d", row.Fundamental.Score)
			}
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%+.2f\t%d\t%s\t%s\t%s\t%.1f\t%.0f\t%s\n",
				notifier.DisplaySymbol(row.Instrument.Symbol), row.Instrument.Name, row.Price, row.ChangePct,
				row.Technical.Score, row.Technical.Status, fund, row.Fundamental.Status,
				row.DividendYield, row.RSI, row.Insight)
		}
		tw.Flush()
	}
}
