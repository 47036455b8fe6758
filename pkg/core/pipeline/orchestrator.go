// Package pipeline drives the fetch stage: per day it parses the daily
// index, resolves and extracts every ownership filing under a bounded
// worker pool sharing one rate-limited client, and flushes the kept rows
// through a single writer once the day's tasks have all finished.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coordscan/pkg/core/edgar"
	"coordscan/pkg/core/fetch"
	"coordscan/pkg/core/filter"
)

// RowSink receives a completed day batch. The CSV writer is the primary
// sink; the Postgres mirror implements it too. The context is the run
// context, so cancellation aborts an in-flight flush.
type RowSink interface {
	WriteRows(ctx context.Context, rows []Row) error
}

// Orchestrator coordinates index parsing, resolution, extraction and
// filtering across a date range. One instance per run; it owns no global
// state.
type Orchestrator struct {
	client   *fetch.Client
	resolver *edgar.Resolver
	filter   filter.Config
	base     string
	workers  int
	verbose  bool
	log      *zap.SugaredLogger
}

// Options configures an Orchestrator.
type Options struct {
	Client      *fetch.Client
	Filter      filter.Config
	ArchiveBase string // defaults to the live EDGAR archive
	Workers     int
	Verbose     bool // log one line per kept row
	Logger      *zap.SugaredLogger
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 6
	}
	if opts.ArchiveBase == "" {
		opts.ArchiveBase = edgar.ArchivesBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	resolver := edgar.NewResolver(opts.Client)
	resolver.SetBase(opts.ArchiveBase)
	return &Orchestrator{
		client:   opts.Client,
		resolver: resolver,
		filter:   opts.Filter,
		base:     opts.ArchiveBase,
		workers:  opts.Workers,
		verbose:  opts.Verbose,
		log:      opts.Logger,
	}
}

// Result summarizes one run.
type Result struct {
	Scanned int // transactions parsed out of resolved documents
	Kept    int // rows surviving the eligibility filter
}

// Run processes days sequentially from start to end inclusive. Per-filing
// failures only reduce that day's kept count; a missing daily index (weekend
// or holiday) skips the day. Only cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, start, end time.Time, sinks ...RowSink) (Result, error) {
	var total Result
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		rows, scanned, err := o.processDay(ctx, day)
		if err != nil {
			return total, err
		}
		for _, sink := range sinks {
			if err := sink.WriteRows(ctx, rows); err != nil {
				return total, err
			}
		}
		total.Scanned += scanned
		total.Kept += len(rows)
		o.log.Infow("day complete", "day", day.Format("2006-01-02"),
			"scanned", scanned, "kept", len(rows))
	}
	o.log.Infow("run complete", "scanned", total.Scanned, "kept", total.Kept)
	return total, nil
}

// processDay fans the day's filings out over the worker pool and joins
// before returning, so the caller flushes a complete batch or nothing.
func (o *Orchestrator) processDay(ctx context.Context, day time.Time) ([]Row, int, error) {
	body, err := o.client.Get(ctx, edgar.IndexURL(o.base, day), "")
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) || errors.Is(err, fetch.ErrUnavailable) {
			o.log.Debugw("no daily index", "day", day.Format("2006-01-02"), "err", err)
			return nil, 0, nil
		}
		return nil, 0, err
	}
	text, err := edgar.DecodeIndexBody(body)
	if err != nil {
		o.log.Warnw("unreadable daily index", "day", day.Format("2006-01-02"), "err", err)
		return nil, 0, nil
	}
	refs := edgar.ParseIndex(text)
	if len(refs) == 0 {
		return nil, 0, nil
	}

	var (
		mu      sync.Mutex
		rows    []Row
		scanned int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			batch, raw := o.processFiling(gctx, ref)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			mu.Lock()
			scanned += raw
			rows = append(rows, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	// The pool completes in arrival order; sort so identical inputs give
	// identical output files.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccessionURL != rows[j].AccessionURL {
			return rows[i].AccessionURL < rows[j].AccessionURL
		}
		return rows[i].Buyer < rows[j].Buyer
	})
	return rows, scanned, nil
}

// processFiling resolves and extracts one filing. Every failure path skips
// the filing; nothing here is fatal for the day.
func (o *Orchestrator) processFiling(ctx context.Context, ref edgar.FilingRef) ([]Row, int) {
	doc, err := o.resolver.Resolve(ctx, ref)
	if err != nil {
		o.log.Debugw("filing skipped", "accession", ref.TxtPath, "err", err)
		return nil, 0
	}

	header, txs, err := edgar.ParseOwnershipDocument(doc.Body)
	if err != nil {
		o.log.Debugw("unparsable ownership document", "url", doc.URL, "err", err)
		return nil, 0
	}

	kept := o.filter.Apply(header, txs)
	rows := make([]Row, 0, len(kept))
	for _, t := range kept {
		tradeDate := t.Date
		if tradeDate == "" {
			tradeDate = header.PeriodOfReport
		}
		row := Row{
			Buyer:        t.OwnerName,
			Issuer:       header.IssuerName,
			Ticker:       header.IssuerSymbol,
			TradeDate:    tradeDate,
			FilingDate:   ref.DateFiled,
			Price:        t.Price(),
			Shares:       t.Shares,
			Code:         t.Code,
			AccessionURL: ref.AccessionURL(o.base),
			XMLURL:       doc.URL,
		}
		if t.NotePrice != nil {
			if t.NotePrice.Min != nil {
				row.PriceMinNote = formatPrice(*t.NotePrice.Min)
			}
			if t.NotePrice.Max != nil {
				row.PriceMaxNote = formatPrice(*t.NotePrice.Max)
			}
		}
		rows = append(rows, row)
		if o.verbose {
			o.log.Infow("kept", "ticker", header.IssuerSymbol, "issuer", header.IssuerName,
				"buyer", t.OwnerName, "code", t.Code, "trade_date", tradeDate)
		}
	}
	return rows, len(txs)
}

func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
