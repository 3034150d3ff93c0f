package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AgroMonitor/internal/model"
	"AgroMonitor/internal/notifier"
)

var chartColumns = []model.IndicatorKey{
	model.SMA20, model.SMA50, model.SMA200, model.RSI,
	model.MACD, model.MACDSignal, model.BBUpper, model.BBLower,
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart SYMBOL",
		Short: "Print recent bars and indicators of one instrument",
		Args:  cobra.ExactArgs(1),
		RunE:  runChart,
	}
	cmd.Flags().Int("bars", 20, "Number of most recent bars to print")
	return cmd
}

func runChart(cmd *cobra.Command, args []string) error {
	bars, _ := cmd.Flags().GetInt("bars")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data := a.scanner.Chart(ctx, args[0])
	if !data.Available {
		return fmt.Errorf("no price history for %s", data.Instrument.Symbol)
	}
	writeChart(cmd.OutOrStdout(), data, bars)
	return nil
}

func writeChart(out io.Writer, d *model.ChartData, last int) {
	fmt.Fprintf(out, "%s  %s  (%s)\n\n", notifier.DisplaySymbol(d.Instrument.Symbol), d.Instrument.Name, d.Instrument.Category.Label())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
	for _, key := range chartColumns {
		fmt.Fprintf(tw, "\t%s", key)
	}
	fmt.Fprintln(tw, "\t")

	start := max(d.Series.Len()-last, 0)
	for i := start; i < d.Series.Len(); i++ {
		b := d.Series.Bars[i]
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f",
			b.Time.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
		for _, key := range chartColumns {
			fmt.Fprintf(tw, "\t%s", cell(d.Indicators, key, i))
		}
		fmt.Fprintln(tw, "\t")
	}
	tw.Flush()
}

func cell(set model.IndicatorSet, key model.IndicatorKey, i int) string {
	values, ok := set[key]
	if !ok || i >= len(values) || math.IsNaN(values[i]) {
		return "-"
	}
	return fmt.Sprintf("%.2f", values[i])
}
