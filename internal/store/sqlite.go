package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	amount TEXT NOT NULL,
	merchant TEXT NOT NULL,
	category TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	bank TEXT,
	payment_mode TEXT,
	reference_id TEXT UNIQUE,
	message_date TEXT,
	raw_message TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
`

const selectColumns = `id, amount, merchant, category, transaction_type, bank, payment_mode,
	reference_id, message_date, raw_message, created_at`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// one writer at a time; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) FindByReference(ctx context.Context, ref string) (*models.StoredTransaction, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE reference_id = ?`, ref)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference %q: %w", ref, err)
	}
	return txn, nil
}

func (s *SQLiteStore) Create(ctx context.Context, txn *models.StoredTransaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (amount, merchant, category, transaction_type, bank, payment_mode,
			reference_id, message_date, raw_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.Amount.StringFixed(2),
		txn.Merchant,
		txn.Category,
		string(txn.TransactionType),
		txn.Bank,
		txn.PaymentMode,
		nullString(txn.ReferenceID),
		nullString(txn.Date),
		txn.RawMessage,
		txn.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	txn.ID = id
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.StoredTransaction, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.StoredTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *txn)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (*models.StoredTransaction, error) {
	var (
		txn                                  models.StoredTransaction
		amount                               decimal.Decimal
		txnType                              string
		bank, mode, ref, msgDate, rawMessage sql.NullString
	)
	if err := sc.Scan(&txn.ID, &amount, &txn.Merchant, &txn.Category, &txnType, &bank, &mode,
		&ref, &msgDate, &rawMessage, &txn.CreatedAt); err != nil {
		return nil, err
	}
	txn.Amount = amount
	txn.TransactionType = models.TransactionType(txnType)
	txn.Bank = bank.String
	txn.PaymentMode = mode.String
	txn.ReferenceID = ref.String
	txn.Date = msgDate.String
	txn.RawMessage = rawMessage.String
	return &txn, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
