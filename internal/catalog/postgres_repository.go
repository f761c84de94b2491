package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository implements the Source interface plus the small amount
// of write access the admin tooling needs (seeding, status flips). The
// engine itself only ever reads.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL rule repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ruleRow is the sqlx-facing shape of one intent_rules row.
type ruleRow struct {
	RuleID         string              `db:"rule_id"`
	Name           string              `db:"rule_name"`
	Category       sql.NullString      `db:"category"`
	TriggerWords   JSONBStringSlice    `db:"trigger_words"`
	Synonyms       JSONBSynonyms       `db:"synonyms"`
	Parameters     JSONBParameterSpecs `db:"parameters"`
	ActionType     string              `db:"action_type"`
	ActionTemplate string              `db:"action_template"`
	Priority       int                 `db:"priority"`
	SortOrder      int                 `db:"sort_order"`
	Status         string              `db:"status"`
	ExampleQuery   sql.NullString      `db:"example_query"`
	CreatedAt      time.Time           `db:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at"`
}

func (r *ruleRow) toModel() IntentRule {
	return IntentRule{
		ID:             r.RuleID,
		Name:           r.Name,
		Category:       r.Category.String,
		TriggerWords:   []string(r.TriggerWords),
		Synonyms:       map[string][]string(r.Synonyms),
		Parameters:     []ParameterSpec(r.Parameters),
		ActionType:     ActionType(r.ActionType),
		ActionTemplate: r.ActionTemplate,
		Priority:       r.Priority,
		SortOrder:      r.SortOrder,
		Status:         RuleStatus(r.Status),
		ExampleQuery:   r.ExampleQuery.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const selectRuleColumns = `SELECT rule_id::text, rule_name, category, trigger_words, synonyms,
        parameters, action_type, action_template, priority, sort_order, status,
        example_query, created_at, updated_at
   FROM intent_rules`

// LoadRules returns every stored rule ordered by sort_order then rule_id,
// so snapshots and diagnostics stay reproducible across loads.
func (r *PostgresRepository) LoadRules(ctx context.Context) ([]IntentRule, error) {
	var rows []ruleRow
	query := selectRuleColumns + `
  ORDER BY sort_order ASC, rule_id ASC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load intent rules: %w", err)
	}

	rules := make([]IntentRule, 0, len(rows))
	for i := range rows {
		rules = append(rules, rows[i].toModel())
	}
	return rules, nil
}

// GetRuleByName fetches a single rule regardless of status.
func (r *PostgresRepository) GetRuleByName(ctx context.Context, name string) (*IntentRule, error) {
	var row ruleRow
	query := selectRuleColumns + `
  WHERE rule_name = $1`

	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule not found: %s", name)
		}
		return nil, fmt.Errorf("failed to get rule %s: %w", name, err)
	}

	rule := row.toModel()
	return &rule, nil
}

// CreateRule inserts a rule and returns its generated ID.
func (r *PostgresRepository) CreateRule(ctx context.Context, rule *IntentRule) (string, error) {
	query := `INSERT INTO intent_rules
        (rule_name, category, trigger_words, synonyms, parameters,
         action_type, action_template, priority, sort_order, status, example_query)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    RETURNING rule_id::text`

	var id string
	err := r.db.QueryRowxContext(ctx, query,
		rule.Name,
		nullIfEmpty(rule.Category),
		JSONBStringSlice(rule.TriggerWords),
		JSONBSynonyms(rule.Synonyms),
		JSONBParameterSpecs(rule.Parameters),
		string(rule.ActionType),
		rule.ActionTemplate,
		rule.Priority,
		rule.SortOrder,
		string(rule.Status),
		nullIfEmpty(rule.ExampleQuery),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create rule %s: %w", rule.Name, err)
	}
	return id, nil
}

// SetRuleStatus flips a rule between ACTIVE and INACTIVE.
func (r *PostgresRepository) SetRuleStatus(ctx context.Context, ruleID string, status RuleStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE intent_rules SET status = $1, updated_at = NOW() WHERE rule_id = $2`,
		string(status), ruleID)
	if err != nil {
		return fmt.Errorf("failed to update rule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", ruleID)
	}
	return nil
}

// InitSchema creates the intent_rules table if it does not exist yet.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS intent_rules (
        rule_id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        rule_name       TEXT NOT NULL UNIQUE,
        category        TEXT,
        trigger_words   JSONB NOT NULL DEFAULT '[]'::jsonb,
        synonyms        JSONB NOT NULL DEFAULT '{}'::jsonb,
        parameters      JSONB NOT NULL DEFAULT '[]'::jsonb,
        action_type     TEXT NOT NULL,
        action_template TEXT NOT NULL,
        priority        INTEGER NOT NULL DEFAULT 0,
        sort_order      INTEGER NOT NULL DEFAULT 0,
        status          TEXT NOT NULL DEFAULT 'ACTIVE',
        example_query   TEXT,
        created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create intent_rules table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
