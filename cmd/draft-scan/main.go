package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
	"github.com/joseph-ayodele/booking-drafts/internal/export"
	"github.com/joseph-ayodele/booking-drafts/internal/fields"
	"github.com/joseph-ayodele/booking-drafts/internal/ocr"
	"github.com/joseph-ayodele/booking-drafts/internal/pipeline"
	"github.com/joseph-ayodele/booking-drafts/internal/vendormem"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out   = flag.String("out", "", "output XLSX file path (optional)")
		rules = flag.String("rules", "", "vendor-rule JSON file to import before processing")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		printError("Usage: draft-scan [flags] <file>...\n")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open vendor store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if *rules != "" {
		data, err := os.ReadFile(*rules)
		if err != nil {
			logger.Error("read rules file", "path", *rules, "error", err)
			os.Exit(1)
		}
		n, err := vendormem.ImportRules(ctx, store, data)
		if err != nil {
			logger.Error("import rules", "path", *rules, "error", err)
			os.Exit(1)
		}
		logger.Info("rules.imported", "count", n)
	}

	proc := pipeline.NewProcessor(
		pipeline.Config{RecognitionTimeout: cfg.Pipeline.RecognitionTimeout},
		pipeline.Deps{
			Fields: fields.NewEngine(fields.Config{DefaultCurrency: cfg.Pipeline.DefaultCurrency}, logger),
			OCR: ocr.NewTesseract(ocr.Config{
				Tesseract:   cfg.OCR.Tesseract,
				Languages:   cfg.OCR.Languages,
				TessdataDir: cfg.OCR.TessdataDir,
				PSM:         cfg.OCR.PSM,
				OEM:         cfg.OCR.OEM,
			}, logger),
			Store: store,
		},
		logger,
	)

	var drafts []*entity.BookingDraft
	failed := 0
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read input", "path", path, "error", err)
			failed++
			continue
		}
		results, err := proc.Process(ctx, pipeline.Document{Data: data, Filename: path})
		if err != nil {
			logger.Error("process", "path", path, "error", err)
			failed++
			continue
		}
		for _, res := range results {
			logger.Info("draft.ready",
				"path", path,
				"trail", res.Trail,
				"template", res.TemplateApplied,
				"vendor_pattern", res.VendorPattern,
				"draft", res.Draft,
			)
			drafts = append(drafts, res.Draft)
		}
	}

	if *out != "" && len(drafts) > 0 {
		xlsx, err := export.NewService(logger).DraftsXLSX(drafts, nil, nil)
		if err != nil {
			logger.Error("export xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
			logger.Error("write xlsx", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("export.written", "path", *out, "drafts", len(drafts))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// openStore picks the vendor-memory backend: DB-backed when DB_URL is set,
// in-process otherwise.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (vendormem.Store, func(), error) {
	if cfg.Database.DSN == "" {
		return vendormem.NewMemory(), func() {}, nil
	}
	db, err := vendormem.OpenDB(ctx, vendormem.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := vendormem.NewSQLStore(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close db", "error", cerr)
		}
	}
	return store, cleanup, nil
}
