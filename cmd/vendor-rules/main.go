package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
	"github.com/joseph-ayodele/booking-drafts/internal/vendormem"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vendor-rules <list|add|remove|import> [args]\n")
		fmt.Fprintf(os.Stderr, "  list\n")
		fmt.Fprintf(os.Stderr, "  add <pattern> <draft-json>\n")
		fmt.Fprintf(os.Stderr, "  remove <rule-id>\n")
		fmt.Fprintf(os.Stderr, "  import <rules-file>\n")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required: vendor rules are only useful on a persistent store")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := vendormem.OpenDB(ctx, vendormem.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close db", "error", cerr)
		}
	}()

	store, err := vendormem.NewSQLStore(ctx, db, logger)
	if err != nil {
		logger.Error("init store", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, store, flag.Args(), logger); err != nil {
		logger.Error("command failed", "cmd", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store vendormem.Store, args []string, logger *slog.Logger) error {
	switch args[0] {
	case "list":
		rules, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, r := range rules {
			logger.Info("rule",
				"id", r.ID.String(),
				"pattern", r.Pattern,
				"created_at", r.CreatedAt.Format(time.RFC3339),
			)
		}
		logger.Info("rules.listed", "count", len(rules))
		return nil

	case "add":
		if len(args) != 3 {
			return fmt.Errorf("add wants <pattern> <draft-json>")
		}
		var patch entity.DraftPatch
		if err := json.Unmarshal([]byte(args[2]), &patch); err != nil {
			return fmt.Errorf("parse draft json: %w", err)
		}
		rule, err := store.Add(ctx, args[1], patch)
		if err != nil {
			return err
		}
		logger.Info("rules.added", "id", rule.ID.String(), "pattern", rule.Pattern)
		return nil

	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("remove wants <rule-id>")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid rule id: %w", err)
		}
		if err := store.Remove(ctx, id); err != nil {
			return err
		}
		logger.Info("rules.removed", "id", id.String())
		return nil

	case "import":
		if len(args) != 2 {
			return fmt.Errorf("import wants <rules-file>")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		n, err := vendormem.ImportRules(ctx, store, data)
		if err != nil {
			return err
		}
		logger.Info("rules.imported", "count", n, "path", args[1])
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}
