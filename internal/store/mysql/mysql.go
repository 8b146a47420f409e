// Package mysql implements a recovery store using MySQL.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
)

// Schema contains the MySQL schema for the recovery store.
//
//go:embed schema.sql
var Schema string

// MySQLStorage implements a store.Store using MySQL.
type MySQLStorage struct {
	db *sql.DB
}

type config struct {
	driver string
	dsn    string
	db     *sql.DB
}

// Option allows configuring a MySQLStorage.
type Option func(*config)

// WithDSN sets the storage MySQL data source name.
func WithDSN(dsn string) Option {
	return func(c *config) {
		c.dsn = dsn
	}
}

// WithDriver sets a custom MySQL driver for the storage.
//
// Default driver is "mysql".
// Value is ignored if WithDB is used.
func WithDriver(driver string) Option {
	return func(c *config) {
		c.driver = driver
	}
}

// WithDB sets a custom MySQL *sql.DB to the storage.
//
// If set, driver passed via WithDriver is ignored.
func WithDB(db *sql.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// New creates and returns a new MySQLStorage.
func New(opts ...Option) (*MySQLStorage, error) {
	cfg := &config{driver: "mysql"}
	for _, opt := range opts {
		opt(cfg)
	}
	var err error
	if cfg.db == nil {
		cfg.db, err = sql.Open(cfg.driver, cfg.dsn)
		if err != nil {
			return nil, err
		}
	}
	if err = cfg.db.Ping(); err != nil {
		return nil, err
	}
	return &MySQLStorage{db: cfg.db}, nil
}

// tx runs g in a transaction on db.
// If g returns an err the transaction will be rolled back; otherwise committed.
func tx(ctx context.Context, db *sql.DB, g func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tx begin: %w", err)
	}
	if err = g(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx rollback: %w; while trying to handle error: %v", rbErr, err)
		}
		return fmt.Errorf("tx rolled back: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("tx commit: %w", err)
	}
	return nil
}

func scanDescriptor(row *sql.Row, id string) (*secrets.StorageKeyDescriptor, error) {
	var doc []byte
	var isDefault bool
	err := row.Scan(&doc, &isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrDescriptorNotFound, id)
	} else if err != nil {
		return nil, err
	}
	desc := new(secrets.StorageKeyDescriptor)
	if err = json.Unmarshal(doc, desc); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	desc.Default = isDefault
	return desc, nil
}

func (s *MySQLStorage) DefaultDescriptor(ctx context.Context) (*secrets.StorageKeyDescriptor, error) {
	return scanDescriptor(s.db.QueryRowContext(
		ctx,
		`SELECT document, is_default FROM recovery_descriptors WHERE is_default = TRUE LIMIT 1;`,
	), "default")
}

func (s *MySQLStorage) Descriptor(ctx context.Context, id string) (*secrets.StorageKeyDescriptor, error) {
	return scanDescriptor(s.db.QueryRowContext(
		ctx,
		`SELECT document, is_default FROM recovery_descriptors WHERE id = ?;`,
		id,
	), id)
}

// PutDescriptor upserts desc. Switching the default happens in the same
// transaction so readers never see two defaults or none in between.
func (s *MySQLStorage) PutDescriptor(ctx context.Context, desc *secrets.StorageKeyDescriptor, makeDefault bool) error {
	if desc == nil || desc.ID == "" {
		return errors.New("descriptor has no ID")
	}
	doc, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	return tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if makeDefault {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE recovery_descriptors SET is_default = FALSE WHERE is_default = TRUE AND id != ?;`,
				desc.ID,
			); err != nil {
				return fmt.Errorf("clearing default: %w", err)
			}
		}
		_, err := tx.ExecContext(
			ctx, `
INSERT INTO recovery_descriptors
	(id, document, is_default)
VALUES
	(?, ?, ?) AS new
ON DUPLICATE KEY UPDATE
	document = new.document,
	is_default = recovery_descriptors.is_default OR new.is_default;`,
			desc.ID,
			doc,
			makeDefault,
		)
		return err
	})
}

func (s *MySQLStorage) ClearDefault(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE recovery_descriptors SET is_default = FALSE WHERE is_default = TRUE;`)
	return err
}

func (s *MySQLStorage) PutEncryptedSecret(ctx context.Context, secretID, descriptorID string, enc *secrets.EncryptedSecret) error {
	if enc == nil {
		return errors.New("nil encrypted secret")
	}
	return tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(
			ctx,
			`SELECT 1 FROM recovery_descriptors WHERE id = ? FOR UPDATE;`,
			descriptorID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", kerrors.ErrDescriptorNotFound, descriptorID)
		} else if err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx, `
INSERT INTO recovery_secrets
	(descriptor_id, secret_id, ciphertext, iv, mac)
VALUES
	(?, ?, ?, ?, ?) AS new
ON DUPLICATE KEY UPDATE
	ciphertext = new.ciphertext,
	iv = new.iv,
	mac = new.mac;`,
			descriptorID,
			secretID,
			enc.Ciphertext,
			enc.IV,
			enc.MAC,
		)
		return err
	})
}

func (s *MySQLStorage) EncryptedSecret(ctx context.Context, secretID, descriptorID string) (*secrets.EncryptedSecret, error) {
	enc := &secrets.EncryptedSecret{KeyID: descriptorID}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT ciphertext, iv, mac FROM recovery_secrets WHERE descriptor_id = ? AND secret_id = ?;`,
		descriptorID,
		secretID,
	).Scan(&enc.Ciphertext, &enc.IV, &enc.MAC)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, secretID)
	} else if err != nil {
		return nil, err
	}
	return enc, nil
}

func (s *MySQLStorage) SecretIDs(ctx context.Context, descriptorID string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT secret_id FROM recovery_secrets WHERE descriptor_id = ? ORDER BY secret_id;`,
		descriptorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *MySQLStorage) DeleteEncryptedSecret(ctx context.Context, secretID, descriptorID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM recovery_secrets WHERE descriptor_id = ? AND secret_id = ?;`,
		descriptorID,
		secretID,
	)
	return err
}
