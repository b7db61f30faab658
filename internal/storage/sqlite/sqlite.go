// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/subsplit/internal/models"
	"github.com/mmynk/subsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// insertBatchSize bounds the rows per INSERT statement to stay under SQLite's variable limit.
const insertBatchSize = 200

// SQLiteStore implements storage.Store using SQLite.
// Save rewrites every table inside a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every table into a ledger.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Ledger, error) {
	ledger := models.NewLedger()

	if err := s.loadSubscriptions(ctx, ledger); err != nil {
		return nil, err
	}
	if err := s.loadMembers(ctx, ledger); err != nil {
		return nil, err
	}
	if err := s.loadPayments(ctx, ledger); err != nil {
		return nil, err
	}
	if err := s.loadGroups(ctx, ledger); err != nil {
		return nil, err
	}

	return ledger, nil
}

func (s *SQLiteStore) loadSubscriptions(ctx context.Context, ledger *models.Ledger) error {
	query, args, err := sq.Select("key", "name", "group_id", "total_cost", "cost_per_person", "created_at", "next_payment").
		From("subscriptions").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build subscriptions query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get subscriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sub := &models.Subscription{}
		var createdAt, nextPayment string
		if err := rows.Scan(&sub.Key, &sub.Name, &sub.GroupID, &sub.TotalCost, &sub.CostPerPerson, &createdAt, &nextPayment); err != nil {
			return fmt.Errorf("failed to scan subscription: %w", err)
		}
		if sub.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("subscription %s: bad created_at: %w", sub.Key, err)
		}
		if sub.NextPayment, err = parseTime(nextPayment); err != nil {
			return fmt.Errorf("subscription %s: bad next_payment: %w", sub.Key, err)
		}
		ledger.Subscriptions[sub.Key] = sub
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, ledger *models.Ledger) error {
	query, args, err := sq.Select("subscription_key", "member_id").
		From("subscription_members").
		OrderBy("subscription_key", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build members query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, member string
		if err := rows.Scan(&key, &member); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if sub, ok := ledger.Subscriptions[key]; ok {
			sub.Members = append(sub.Members, member)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadPayments(ctx context.Context, ledger *models.Ledger) error {
	query, args, err := sq.Select("key", "paid", "last_payment").From("payments").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payments query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var lastPayment sql.NullString
		record := &models.PaymentRecord{}
		if err := rows.Scan(&key, &record.Paid, &lastPayment); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		if lastPayment.Valid {
			t, err := parseTime(lastPayment.String)
			if err != nil {
				return fmt.Errorf("payment %s: bad last_payment: %w", key, err)
			}
			record.LastPayment = &t
		}
		ledger.Payments[key] = record
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payments: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadGroups(ctx context.Context, ledger *models.Ledger) error {
	query, args, err := sq.Select("id", "data").From("groups").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build groups query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		ledger.Groups[id] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate groups: %w", err)
	}
	return nil
}

// Save replaces the contents of every table with the given ledger.
func (s *SQLiteStore) Save(ctx context.Context, ledger *models.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so the foreign key never points at a missing row.
	for _, table := range []string{"subscription_members", "payments", "subscriptions", "groups"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	subRows := make([][]interface{}, 0, len(ledger.Subscriptions))
	var memberRows [][]interface{}
	for key, sub := range ledger.Subscriptions {
		subRows = append(subRows, []interface{}{
			key, sub.Name, sub.GroupID, sub.TotalCost.String(), sub.CostPerPerson.String(),
			formatTime(sub.CreatedAt), formatTime(sub.NextPayment),
		})
		for i, member := range sub.Members {
			memberRows = append(memberRows, []interface{}{key, i, member})
		}
	}

	paymentRows := make([][]interface{}, 0, len(ledger.Payments))
	for key, p := range ledger.Payments {
		var lastPayment interface{}
		if p.LastPayment != nil {
			lastPayment = formatTime(*p.LastPayment)
		}
		paid := 0
		if p.Paid {
			paid = 1
		}
		paymentRows = append(paymentRows, []interface{}{key, paid, lastPayment})
	}

	groupRows := make([][]interface{}, 0, len(ledger.Groups))
	for id, data := range ledger.Groups {
		groupRows = append(groupRows, []interface{}{id, string(data)})
	}

	inserts := []struct {
		table   string
		columns []string
		rows    [][]interface{}
	}{
		{"subscriptions", []string{"key", "name", "group_id", "total_cost", "cost_per_person", "created_at", "next_payment"}, subRows},
		{"subscription_members", []string{"subscription_key", "position", "member_id"}, memberRows},
		{"payments", []string{"key", "paid", "last_payment"}, paymentRows},
		{"groups", []string{"id", "data"}, groupRows},
	}
	for _, ins := range inserts {
		if err := insertRows(ctx, tx, ins.table, ins.columns, ins.rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertRows inserts rows in batches of insertBatchSize.
func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		builder := sq.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			builder = builder.Values(row...)
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build %s insert: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
