// Package store provides the Data Access Layer (Repository) for the Packline
// rule catalogs. It handles all direct interactions with the PostgreSQL
// database using the pgx driver.
//
// The engine never talks to this package: it receives full catalog snapshots
// from the host on every call. The store's job is to hand out those snapshots
// in stable catalog order and to keep mutations (create, update, delete,
// toggle, move, reset) whole-catalog consistent.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packline/packline/internal/ruleengine"
)

// Typed errors so handlers can map persistence failures to HTTP codes without
// string matching.
var (
	// ErrRuleNotFound is returned when the requested rule id does not exist.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrDuplicateRule is returned when a rule id already exists in the catalog.
	ErrDuplicateRule = errors.New("rule already exists")
)

// Compile-time check to verify that PostgresStore implements RuleRepository.
var _ RuleRepository = (*PostgresStore)(nil)

// RuleRepository defines the interface for rule catalog persistence.
// Using an interface allows for dependency injection and easier mocking in tests.
type RuleRepository interface {
	// ListCatalog returns the full catalog snapshot for one rule type, in
	// stable catalog order (insertion order). The resolution engine relies
	// on this order for its priority tie-break.
	ListCatalog(ctx context.Context, ruleType ruleengine.RuleType) ([]ruleengine.Rule, error)

	// ListAllRules returns both catalogs in one pass, for the syncer.
	ListAllRules(ctx context.Context) ([]ruleengine.Rule, error)

	// GetRule fetches a single rule by id.
	GetRule(ctx context.Context, id string) (*ruleengine.Rule, error)

	// CreateRule inserts a new rule, assigning an id when none is set and
	// populating the server-side timestamps in the struct.
	CreateRule(ctx context.Context, r *ruleengine.Rule) error

	// UpdateRule replaces the mutable fields of an existing rule.
	UpdateRule(ctx context.Context, r *ruleengine.Rule) error

	// DeleteRule removes a rule by id.
	DeleteRule(ctx context.Context, id string) error

	// ToggleEnabled flips the enabled flag and returns the updated rule.
	ToggleEnabled(ctx context.Context, id string) (*ruleengine.Rule, error)

	// MoveRule adjusts the rule's priority by delta (negative = evaluated
	// earlier) and returns the updated rule. Resulting priority collisions
	// are legitimate; the engine breaks ties by catalog order.
	MoveRule(ctx context.Context, id string, delta int) (*ruleengine.Rule, error)

	// ResetCatalog transactionally replaces one catalog with the given
	// default rules.
	ResetCatalog(ctx context.Context, ruleType ruleengine.RuleType, defaults []ruleengine.Rule) error
}

// PostgresStore is the implementation of RuleRepository backed by PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new repository instance with the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	if db == nil {
		panic("store: database pool cannot be nil")
	}
	return &PostgresStore{db: db}
}

// ruleColumns is the select list shared by every read path, in scanRule order.
const ruleColumns = `id, rule_type, name, description, conditions, result_value, priority, enabled, color, created_at, updated_at`

// ListCatalog returns one catalog ordered by insertion sequence.
func (s *PostgresStore) ListCatalog(ctx context.Context, ruleType ruleengine.RuleType) ([]ruleengine.Rule, error) {
	query := fmt.Sprintf(`SELECT %s FROM rules WHERE rule_type = $1 ORDER BY seq`, ruleColumns)

	rows, err := s.db.Query(ctx, query, string(ruleType))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s catalog: %w", ruleType, err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// ListAllRules returns every rule across both catalogs in insertion order.
func (s *PostgresStore) ListAllRules(ctx context.Context) ([]ruleengine.Rule, error) {
	query := fmt.Sprintf(`SELECT %s FROM rules ORDER BY seq`, ruleColumns)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// GetRule fetches a single rule by id.
func (s *PostgresStore) GetRule(ctx context.Context, id string) (*ruleengine.Rule, error) {
	query := fmt.Sprintf(`SELECT %s FROM rules WHERE id = $1`, ruleColumns)

	r, err := scanRule(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule %s: %w", id, err)
	}
	return r, nil
}

// CreateRule inserts a new rule into its catalog.
// It uses the RETURNING clause to get the server-generated timestamps.
func (s *PostgresStore) CreateRule(ctx context.Context, r *ruleengine.Rule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	conditions, err := marshalConditions(r.Conditions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rules (id, rule_type, name, description, conditions, result_value, priority, enabled, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		r.ID,
		string(r.RuleType),
		r.Name,
		r.Description,
		conditions,
		r.ResultValue,
		r.Priority,
		r.Enabled,
		r.Color,
	).Scan(&r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// Error Code 23505: unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: id %q", ErrDuplicateRule, r.ID)
		}
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// UpdateRule replaces the mutable fields of an existing rule.
// The id, rule type, and catalog position (seq) are immutable.
func (s *PostgresStore) UpdateRule(ctx context.Context, r *ruleengine.Rule) error {
	conditions, err := marshalConditions(r.Conditions)
	if err != nil {
		return err
	}

	query := `
		UPDATE rules
		SET name = $2, description = $3, conditions = $4, result_value = $5,
		    priority = $6, enabled = $7, color = $8, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		r.ID,
		r.Name,
		r.Description,
		conditions,
		r.ResultValue,
		r.Priority,
		r.Enabled,
		r.Color,
	).Scan(&r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("failed to update rule %s: %w", r.ID, err)
	}

	return nil
}

// DeleteRule removes a rule by id.
func (s *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// ToggleEnabled flips the enabled flag atomically and returns the updated rule.
func (s *PostgresStore) ToggleEnabled(ctx context.Context, id string) (*ruleengine.Rule, error) {
	query := fmt.Sprintf(`
		UPDATE rules
		SET enabled = NOT enabled, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, ruleColumns)

	r, err := scanRule(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to toggle rule %s: %w", id, err)
	}
	return r, nil
}

// MoveRule adjusts the priority by delta, clamping at zero.
// Collisions with another rule's priority are allowed: the engine's stable
// catalog-order tie-break makes the outcome deterministic anyway.
func (s *PostgresStore) MoveRule(ctx context.Context, id string, delta int) (*ruleengine.Rule, error) {
	query := fmt.Sprintf(`
		UPDATE rules
		SET priority = GREATEST(priority + $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, ruleColumns)

	r, err := scanRule(s.db.QueryRow(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to move rule %s: %w", id, err)
	}
	return r, nil
}

// ResetCatalog wipes one catalog and reseeds it from the given defaults in a
// single transaction, so a concurrent reader never observes a half-reset
// catalog.
func (s *PostgresStore) ResetCatalog(ctx context.Context, ruleType ruleengine.RuleType, defaults []ruleengine.Rule) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	// Rollback is a no-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM rules WHERE rule_type = $1`, string(ruleType)); err != nil {
		return fmt.Errorf("failed to clear %s catalog: %w", ruleType, err)
	}

	insert := `
		INSERT INTO rules (id, rule_type, name, description, conditions, result_value, priority, enabled, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, r := range defaults {
		conditions, err := marshalConditions(r.Conditions)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insert,
			r.ID, string(r.RuleType), r.Name, r.Description, conditions,
			r.ResultValue, r.Priority, r.Enabled, r.Color,
		); err != nil {
			return fmt.Errorf("failed to seed default rule %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog reset: %w", err)
	}
	return nil
}

// marshalConditions serializes the condition list for the JSONB column.
// nil becomes an empty array so a catch-all round-trips as [] rather than null.
func marshalConditions(conditions []ruleengine.Condition) ([]byte, error) {
	if conditions == nil {
		conditions = []ruleengine.Condition{}
	}
	data, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	return data, nil
}

// scanRule maps one row onto a Rule, decoding the JSONB conditions column.
func scanRule(row pgx.Row) (*ruleengine.Rule, error) {
	var (
		r          ruleengine.Rule
		ruleType   string
		conditions []byte
	)

	if err := row.Scan(
		&r.ID,
		&ruleType,
		&r.Name,
		&r.Description,
		&conditions,
		&r.ResultValue,
		&r.Priority,
		&r.Enabled,
		&r.Color,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.RuleType = ruleengine.RuleType(ruleType)
	if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions for rule %s: %w", r.ID, err)
	}

	return &r, nil
}

// collectRules drains a multi-row result set via scanRule.
func collectRules(rows pgx.Rows) ([]ruleengine.Rule, error) {
	var rules []ruleengine.Rule

	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rules = append(rules, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}
