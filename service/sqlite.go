package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a ClientStore and AccountStore backed by a SQLite file.
// Client records are stored as JSON documents, one row per client, which
// keeps the collection schemaless: ad-hoc certificate categories and future
// fields round-trip without schema changes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS clients (
			id  TEXT PRIMARY KEY,
			doc TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash BLOB NOT NULL,
			created_at    TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) readDoc(ctx context.Context, id string) (*model.Client, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM clients WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var client model.Client
	if err := json.Unmarshal([]byte(doc), &client); err != nil {
		return nil, fmt.Errorf("decoding client document %s: %w", id, err)
	}
	return &client, nil
}

func (s *SQLiteStore) writeDoc(ctx context.Context, client *model.Client) error {
	doc, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("encoding client document: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE clients SET doc = ? WHERE id = ?`, string(doc), client.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, client *model.Client) (*model.Client, error) {
	stored := client.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encoding client document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, doc) VALUES (?, ?)`, stored.ID, string(doc)); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Client, error) {
	return s.readDoc(ctx, id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*model.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM clients`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*model.Client
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		var client model.Client
		if err := json.Unmarshal([]byte(doc), &client); err != nil {
			return nil, fmt.Errorf("decoding client document: %w", err)
		}
		result = append(result, &client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateFields merges the supplied fields into the stored document and
// refreshes updatedAt. Unsupplied fields and certificates stay untouched.
func (s *SQLiteStore) UpdateFields(ctx context.Context, id string, fields model.ClientFields) (*model.Client, error) {
	client, err := s.readDoc(ctx, id)
	if err != nil {
		return nil, err
	}

	fields.Apply(client)
	client.UpdatedAt = time.Now().UTC()

	if err := s.writeDoc(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateCertificates replaces only the certificates map and refreshes
// updatedAt; contact fields keep their stored values.
func (s *SQLiteStore) UpdateCertificates(ctx context.Context, id string, certs model.CertificateMap) (*model.Client, error) {
	client, err := s.readDoc(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Certificates = certs.Clone()
	client.UpdatedAt = time.Now().UTC()

	if err := s.writeDoc(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	stored := *account
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.Email = NormalizeEmail(stored.Email)

	if _, err := s.GetAccountByEmail(ctx, stored.Email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		stored.ID, stored.Email, stored.PasswordHash, stored.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &stored, nil
}

func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var (
		account   model.Account
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`,
		NormalizeEmail(email)).
		Scan(&account.ID, &account.Email, &account.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		account.CreatedAt = ts
	}
	return &account, nil
}
