package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgroMonitor/internal/model"
)

func TestNewApp_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  min_score: 10\n  filter: agro\n"), 0o600))
	t.Setenv("MIN_SCORE", "")
	t.Setenv("SCAN_FILTER", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("DATA_SOURCE_BASE_URL", "http://127.0.0.1:1")

	root := newRootCmd()
	cmd, _, err := root.Find([]string{"scan"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--min-score", "45"}))

	a, err := newApp(cmd)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 45, a.scanOptions().MinScore)
	assert.Equal(t, "agro", a.scanOptions().Filter)
	assert.Equal(t, 41, a.scanner.Catalog().Len())
}

func TestNewApp_InvalidFlag(t *testing.T) {
	t.Setenv("MIN_SCORE", "")
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"scan"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--min-score", "120"}))

	_, err = newApp(cmd)
	assert.ErrorContains(t, err, "min_score")
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, &model.ScanReport{
		StartedAt: time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC),
		MinScore:  30,
		Categories: []model.CategoryResults{
			{Category: model.CategoryCommodityFuture, Results: []model.ScanResult{{
				Instrument:  model.Instrument{Symbol: "ZC=F", Name: "Milho (Chicago)"},
				Price:       430.25,
				Technical:   model.ScoreResult{Score: 55, Status: model.StatusNeutral},
				Fundamental: model.NotAvailable,
				Insight:     "Sideways movement: no clear direction yet.",
			}}},
			{Category: model.CategoryIncomeFund},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "min score 30 | ranked 1 | skipped 0")
	assert.Contains(t, out, "Commodities")
	assert.Contains(t, out, "ZC=F")
	assert.Contains(t, out, "430.25")
	assert.Contains(t, out, "not-available")
	assert.NotContains(t, out, "Fiagros")
}

func TestWriteChart(t *testing.T) {
	nan := model.Undefined
	d := &model.ChartData{
		Instrument: model.Instrument{Symbol: "KNCA11.SA", Name: "Kinea Agro", Category: model.CategoryIncomeFund},
		Series: &model.PriceSeries{Bars: []model.OHLCV{
			{Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Close: 97},
			{Time: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: 98.5},
			{Time: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Close: 99},
		}},
		Indicators: model.IndicatorSet{model.SMA20: {nan, nan, 98.1}},
		Available:  true,
	}
	var buf bytes.Buffer
	writeChart(&buf, d, 2)
	out := buf.String()
	assert.Contains(t, out, "KNCA11  Kinea Agro  (Fiagros (Renda))")
	assert.NotContains(t, out, "2026-03-01")
	assert.Contains(t, out, "2026-03-03")
	assert.Contains(t, out, "98.10")

	assert.Equal(t, "-", cell(d.Indicators, model.SMA20, 1))
	assert.Equal(t, "-", cell(d.Indicators, model.RSI, 2))
	assert.Equal(t, "98.10", cell(d.Indicators, model.SMA20, 2))
}
