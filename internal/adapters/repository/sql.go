package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jaykayes/lottery-script/internal/domain/types"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_mysql.sql
var mysqlSchema string

// Dialect selects the SQL driver and schema.
type Dialect string

// Supported dialects.
const (
	DialectSQLite Dialect = "sqlite3"
	DialectMySQL  Dialect = "mysql"
)

// SQLStore keeps snapshots in a draws table, one JSON body per run.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL opens the database and applies the schema. The schema is
// idempotent.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var schema string
	switch dialect {
	case DialectSQLite:
		schema = sqliteSchema
	case DialectMySQL:
		schema = mysqlSchema
	default:
		return nil, fmt.Errorf("%w: sql dialect %q", ErrUnknownBackend, dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma: %w", err)
		}
	}

	// The MySQL driver runs one statement per Exec.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Save implements Store.Save. The existence check and the insert share a
// transaction.
func (s *SQLStore) Save(ctx context.Context, snap *types.Snapshot) error {
	if err := checkIDs(snap); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	sum := snap.Summary()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM draws WHERE run_id = ?`, snap.RunID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrExists
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO draws (run_id, lottery_id, created_unix, winners, units, body) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.LotteryID, snap.CreatedAt.UnixNano(), sum.Winners, sum.Units, string(body),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Get implements Store.Get.
func (s *SQLStore) Get(ctx context.Context, runID string) (*types.Snapshot, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM draws WHERE run_id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap types.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("draw %s: %w", runID, err)
	}
	return &snap, nil
}

// List implements Store.List.
func (s *SQLStore) List(ctx context.Context, lotteryID string) ([]types.Summary, error) {
	query := `SELECT run_id, lottery_id, created_unix, winners, units FROM draws`
	var args []any
	if lotteryID != "" {
		query += ` WHERE lottery_id = ?`
		args = append(args, lotteryID)
	}
	query += ` ORDER BY created_unix DESC, run_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := []types.Summary{}
	for rows.Next() {
		var (
			sum     types.Summary
			created int64
		)
		if err := rows.Scan(&sum.RunID, &sum.LotteryID, &created, &sum.Winners, &sum.Units); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		sums = append(sums, sum)
	}
	return sums, rows.Err()
}

// Backend implements Store.Backend and reports the dialect.
func (s *SQLStore) Backend() string {
	if s.dialect == DialectMySQL {
		return BackendMySQL
	}
	return BackendSQLite
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
