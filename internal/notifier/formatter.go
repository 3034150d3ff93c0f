package notifier

import (
	"fmt"
	"html"
	"strings"

	"AgroMonitor/internal/model"
)

// DisplaySymbol drops the B3 exchange suffix, e.g. SLCE3.SA -> SLCE3.
func DisplaySymbol(symbol string) string {
	return strings.TrimSuffix(symbol, ".SA")
}

// FormatScanReport formats a scan into a Telegram message, keeping the best
// top rows of each category (all rows when top <= 0).
func FormatScanReport(r *model.ScanReport, top int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🚜 <b>AgroMonitor</b> | %s\n", r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Min score: %d", r.MinScore))
	if r.Filter != "" {
		b.WriteString(fmt.Sprintf(" | Filter: %s", html.EscapeString(r.Filter)))
	}
	b.WriteString(fmt.Sprintf(" | Ranked: %d | Skipped: %d\n", r.Total(), r.Skipped))
	if r.Aborted {
		b.WriteString("⚠️ Scan interrupted, results are partial\n")
	}

	for _, c := range r.Categories {
		if len(c.Results) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n", html.EscapeString(c.Category.Label()), len(c.Results)))
		rows := c.Results
		if top > 0 && len(rows) > top {
			rows = rows[:top]
		}
		for i, row := range rows {
			b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s  %.2f (%+.2f%%)\n",
				i+1, DisplaySymbol(row.Instrument.Symbol), html.EscapeString(row.Instrument.Name),
				row.Price, row.ChangePct))
			b.WriteString(fmt.Sprintf("   Tech %d %s", row.Technical.Score, row.Technical.Status))
			if row.Fundamental.Status != model.StatusNotAvailable {
				b.WriteString(fmt.Sprintf(" | Fund %d %s", row.Fundamental.Score, row.Fundamental.Status))
			}
			if row.DividendYield > 0 {
				b.WriteString(fmt.Sprintf(" | DY %.1f%%", row.DividendYield))
			}
			b.WriteString(fmt.Sprintf(" | RSI %.0f\n", row.RSI))
		}
	}

	if r.Total() == 0 {
		b.WriteString("\nNo instrument cleared the minimum score.\n")
	}
	return b.String()
}

// FormatChart summarises the latest indicator values of one instrument.
func FormatChart(d *model.ChartData) string {
	var b strings.Builder
	name := html.EscapeString(d.Instrument.Name)
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> %s\n", DisplaySymbol(d.Instrument.Symbol), name))
	if !d.Available {
		b.WriteString("Price history unavailable right now, try again later.\n")
		return b.String()
	}

	last := d.Series.Bars[d.Series.Len()-1]
	b.WriteString(fmt.Sprintf("%s close: %.2f (%+.2f%%)\n", last.Time.Format("2006-01-02"), last.Close, d.Series.ChangePercent()))
	b.WriteString(fmt.Sprintf("Range: %.2f - %.2f | Volume: %.0f\n", last.Low, last.High, last.Volume))
	if d.Indicators == nil {
		b.WriteString("Indicators unavailable for this series.\n")
		return b.String()
	}

	value := func(key model.IndicatorKey) string {
		if v, ok := d.Indicators.Latest(key); ok {
			return fmt.Sprintf("%.2f", v)
		}
		return "n/a"
	}
	b.WriteString(fmt.Sprintf("SMA20: %s | SMA50: %s | SMA200: %s\n",
		value(model.SMA20), value(model.SMA50), value(model.SMA200)))
	b.WriteString(fmt.Sprintf("RSI(14): %s\n", value(model.RSI)))
	b.WriteString(fmt.Sprintf("MACD: %s | Signal: %s\n", value(model.MACD), value(model.MACDSignal)))
	b.WriteString(fmt.Sprintf("Bollinger: %s - %s\n", value(model.BBLower), value(model.BBUpper)))
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>AgroMonitor commands</b>\n\n")
	b.WriteString("/scan [min_score] [filter] - rank the catalogue\n")
	b.WriteString("/chart SYMBOL - latest indicators of one instrument\n")
	b.WriteString("/help - this message\n")
	return b.String()
}
