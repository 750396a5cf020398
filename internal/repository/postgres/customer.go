package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", mapError(err))
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	query := `SELECT * FROM customers WHERE id = $1`
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, mapError(err)
	}
	return &customer, nil
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var customer model.Customer
	query := `SELECT * FROM customers WHERE phone = $1`
	if err := r.db.GetContext(ctx, &customer, query, phone); err != nil {
		return nil, mapError(err)
	}
	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, updated_at = $3
		WHERE id = $4
	`
	customer.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		customer.Name,
		customer.Email,
		customer.UpdatedAt,
		customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
