package collector

import (
	"context"
	"fmt"
	"net/http"

	"AgroMonitor/internal/model"
)

// Source is an upstream market data provider. Implementations may return
// empty or garbled payloads; ResilientFetcher treats every such case as a
// retryable failure.
type Source interface {
	// DownloadOHLCV returns daily bars for the trailing period ("1d", "5d", "1y", "2y").
	DownloadOHLCV(ctx context.Context, symbol, period string) (*model.Frame, error)
	// GetInfo returns numeric key/value attributes such as trailingPE or priceToBook.
	GetInfo(ctx context.Context, symbol string) (map[string]float64, error)
	// GetDividendHistory returns the per-share distributions on record.
	GetDividendHistory(ctx context.Context, symbol string) ([]model.Dividend, error)
	Name() string
}

// StatusError is a non-200 HTTP reply from an upstream.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Source, e.Code, e.Body)
}

// SymbolFault reports whether the upstream rejected the request itself
// (unknown ticker, bad parameters) rather than failing to serve it.
func (e *StatusError) SymbolFault() bool {
	switch e.Code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
