package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transfer-ledger/domain"
)

const customersSchemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
    id            TEXT        PRIMARY KEY,
    full_name     TEXT        NOT NULL,
    email         TEXT        NOT NULL UNIQUE,
    password_hash TEXT        NOT NULL,
    phone         TEXT        NOT NULL,
    document      TEXT        NOT NULL,
    document_type TEXT        NOT NULL,
    role          TEXT        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
`

const customerColumns = `id, full_name, email, password_hash, phone, document, document_type, role, created_at, updated_at`

type PostgresCustomerStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCustomerStore(pool *pgxpool.Pool) *PostgresCustomerStore {
	return &PostgresCustomerStore{pool: pool}
}

func (s *PostgresCustomerStore) ApplySchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, customersSchemaDDL); err != nil {
		return fmt.Errorf("failed to apply customer schema: %w", err)
	}
	return nil
}

func (s *PostgresCustomerStore) Save(ctx context.Context, customer *domain.Customer) error {
	if customer == nil {
		return fmt.Errorf("cannot save nil customer")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		customer.ID, customer.FullName, customer.Email, customer.PasswordHash, customer.Phone,
		customer.Document, string(customer.DocumentType), string(customer.Role), customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrCustomerExists, customer.Email)
		}
		return fmt.Errorf("failed to insert customer %s: %w", customer.ID, err)
	}
	return nil
}

func (s *PostgresCustomerStore) FindOne(ctx context.Context, id string) (*domain.Customer, error) {
	return s.findBy(ctx, "id", id)
}

func (s *PostgresCustomerStore) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return s.findBy(ctx, "email", email)
}

func (s *PostgresCustomerStore) findBy(ctx context.Context, column, value string) (*domain.Customer, error) {
	var c domain.Customer
	var documentType, role string
	err := s.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, value).
		Scan(&c.ID, &c.FullName, &c.Email, &c.PasswordHash, &c.Phone,
			&c.Document, &documentType, &role, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", value, err)
	}
	c.DocumentType = domain.DocumentType(documentType)
	c.Role = domain.Role(role)
	return &c, nil
}
