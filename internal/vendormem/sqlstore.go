package vendormem

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booking-drafts/internal/common"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS template_rule (
	id         TEXT PRIMARY KEY,
	pattern    TEXT NOT NULL,
	draft      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// SQLStore persists template rules in sqlite or postgres behind the same
// Store interface as Memory. Matching and eviction happen in Go; at 50 rows
// the table never grows enough for that to matter.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLStore(ctx context.Context, db *sql.DB, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return nil, common.NewAppError("DB_MIGRATE", "create template_rule", err)
	}
	return &SQLStore{db: db, logger: logger}, nil
}

func (s *SQLStore) Find(ctx context.Context, filename string) (*Rule, error) {
	rules, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].Matches(filename) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

func (s *SQLStore) Add(ctx context.Context, pattern string, patch entity.DraftPatch) (*Rule, error) {
	rule := Rule{
		ID:        uuid.New(),
		Pattern:   pattern,
		Draft:     patch,
		CreatedAt: time.Now().UTC(),
	}
	draftJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, common.WrapError(err, "marshal draft patch")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.NewAppError("DB_TX", "begin", common.ErrDatabase)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO template_rule (id, pattern, draft, created_at) VALUES ($1, $2, $3, $4)`,
		rule.ID.String(), rule.Pattern, string(draftJSON), rule.CreatedAt,
	); err != nil {
		return nil, common.NewAppError("DB_INSERT", "insert rule", err)
	}

	// evict the oldest rows beyond the cap
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM template_rule WHERE id NOT IN (
			SELECT id FROM template_rule ORDER BY created_at DESC LIMIT $1
		)`, MaxRules,
	); err != nil {
		return nil, common.NewAppError("DB_EVICT", "evict rules", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.NewAppError("DB_TX", "commit", err)
	}
	s.logger.Debug("vendormem.rule.added", "rule_id", rule.ID, "pattern", pattern)
	return &rule, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, draft, created_at FROM template_rule ORDER BY created_at DESC`)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list rules", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []Rule
	for rows.Next() {
		var (
			idStr     string
			pattern   string
			draftJSON string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &pattern, &draftJSON, &createdAt); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan rule", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			s.logger.Warn("vendormem.rule.bad_id", "id", idStr)
			continue
		}
		var patch entity.DraftPatch
		if err := json.Unmarshal([]byte(draftJSON), &patch); err != nil {
			s.logger.Warn("vendormem.rule.bad_draft", "rule_id", idStr, "error", err)
			continue
		}
		rules = append(rules, Rule{ID: id, Pattern: pattern, Draft: patch, CreatedAt: createdAt})
	}
	return rules, rows.Err()
}

func (s *SQLStore) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM template_rule WHERE id = $1`, id.String()); err != nil {
		return common.NewAppError("DB_DELETE", "remove rule", err)
	}
	return nil
}
