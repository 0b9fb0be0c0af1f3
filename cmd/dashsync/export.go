package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/probablyprofit/dashsync/internal/api"
	"github.com/probablyprofit/dashsync/internal/archive"
	"github.com/probablyprofit/dashsync/internal/history"
)

var errArchiveDisabled = errors.New("-archive needs archive.enabled in the config")

type exportOptions struct {
	filter  history.Filter
	out     string
	archive bool
}

func parseExportFlags(args []string) (exportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	side := fs.String("side", history.SideAll, "buy, sell or all")
	rng := fs.String("range", "all", "time range in days (7d, 30d) or all")
	search := fs.String("search", "", "case-insensitive match on market name or market id")
	sortKey := fs.String("sort", string(history.SortTimestamp), "timestamp, market, side, size, price or pnl")
	order := fs.String("order", string(history.Desc), "asc or desc")
	out := fs.String("out", "", "output file, - for stdout (default trades-YYYY-MM-DD.csv)")
	arch := fs.Bool("archive", false, "also copy fetched trades into the archive database")
	if err := fs.Parse(args); err != nil {
		return exportOptions{}, err
	}

	var opts exportOptions
	var err error
	if opts.filter.Side, err = history.ParseSide(*side); err != nil {
		return opts, err
	}
	if opts.filter.Days, err = history.ParseRange(*rng); err != nil {
		return opts, err
	}
	if opts.filter.SortKey, err = history.ParseSortKey(*sortKey); err != nil {
		return opts, err
	}
	if opts.filter.Order, err = history.ParseOrder(*order); err != nil {
		return opts, err
	}
	opts.filter.Search = *search
	opts.out = *out
	opts.archive = *arch
	return opts, nil
}

func runExport(ctx context.Context, e *env, args []string) error {
	opts, err := parseExportFlags(args)
	if err != nil {
		return err
	}
	if opts.archive && !e.cfg.Archive.Enabled {
		return errArchiveDisabled
	}

	trades, err := newClient(e).GetTrades(ctx, e.cfg.Poll.TradesLimit)
	if err != nil {
		return err
	}
	records := api.ToRecords(trades)

	if opts.archive {
		if err := archiveTrades(ctx, e, records); err != nil {
			return err
		}
	}

	now := time.Now()
	view := history.Apply(records, opts.filter, now)

	path := opts.out
	if path == "" {
		path = history.ExportFileName(now)
	}
	if err := writeExport(e.stdout, path, view); err != nil {
		return err
	}

	// Stdout carries the CSV itself when path is "-".
	if path == "-" {
		printStats(e.stderr, view)
		return nil
	}
	printStats(e.stdout, view)
	e.logger.Info("exported trades", "file", path, "rows", len(view), "fetched", len(records))
	return nil
}

func writeExport(stdout io.Writer, path string, records []history.TradeRecord) error {
	if path == "-" {
		return history.Export(stdout, records)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := history.Export(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(w io.Writer, records []history.TradeRecord) {
	s := history.ComputeStats(records)
	fmt.Fprintf(w, "trades=%d wins=%d losses=%d win_rate=%.1f%% pnl=%s volume=%s\n",
		s.Total, s.Wins, s.Losses, s.WinRate, s.TotalPnL.StringFixed(2), s.TotalVolume.StringFixed(2))
}

func archiveTrades(ctx context.Context, e *env, records []history.TradeRecord) error {
	dbCfg := e.cfg.Archive.Database
	e.logger.Info("connecting to archive database",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"database", dbCfg.Name,
	)

	pool, err := archive.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect archive: %w", err)
	}
	defer pool.Close()

	if err := archive.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	w := archive.NewWriter(pool, e.cfg.Archive.BatchSize, e.logger, nil)
	res, err := w.Write(ctx, records)
	if err != nil {
		return err
	}

	stats := w.Stats()
	e.logger.Info("archived trades",
		"inserted", res.Inserted,
		"conflicts", res.Conflicts,
		"skipped", res.Skipped,
		"batches", stats.Batches,
	)
	return nil
}
