package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// Columns fixes the canonical output order. The flagging stage and every
// downstream consumer rely on it being stable.
var Columns = []string{
	"buyer",
	"issuer",
	"ticker",
	"trade_date",
	"filing_date",
	"price",
	"price_min_from_note",
	"price_max_from_note",
	"shares",
	"transaction_code",
	"accession_url",
	"xml_url",
}

// Row is one canonical transaction record: one reporting owner on one
// reported trade. Nullable numerics are empty strings.
type Row struct {
	Buyer        string
	Issuer       string
	Ticker       string
	TradeDate    string
	FilingDate   string
	Price        string
	PriceMinNote string
	PriceMaxNote string
	Shares       string
	Code         string
	AccessionURL string
	XMLURL       string
}

// Values returns the row in canonical column order.
func (r Row) Values() []string {
	return []string{
		r.Buyer, r.Issuer, r.Ticker, r.TradeDate, r.FilingDate,
		r.Price, r.PriceMinNote, r.PriceMaxNote, r.Shares, r.Code,
		r.AccessionURL, r.XMLURL,
	}
}

// CSVWriter is the single writer the orchestrator flushes day batches
// through. Creating it writes the header once; reopening an existing file
// appends rows under the existing header.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

// OpenCSV opens (or creates) the output file.
func OpenCSV(path string) (*CSVWriter, error) {
	writeHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	w := &CSVWriter{f: f, w: csv.NewWriter(f)}
	if writeHeader {
		if err := w.w.Write(Columns); err != nil {
			f.Close()
			return nil, err
		}
		w.w.Flush()
	}
	return w, nil
}

// WriteRows appends one day's buffered rows and flushes them as a unit. The
// context is unused; local file writes are not cancellable mid-batch.
func (w *CSVWriter) WriteRows(_ context.Context, rows []Row) error {
	for _, r := range rows {
		if err := w.w.Write(r.Values()); err != nil {
			return err
		}
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the underlying file.
func (w *CSVWriter) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
