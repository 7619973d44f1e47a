package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/models"
)

const customerColumns = `
	id, age, gender, dependent_count, education_level, marital_status,
	income_category, card_category, months_on_book, relationship_count,
	months_inactive_12_mon, contacts_count_12_mon, credit_limit,
	total_revolving_bal, avg_open_to_buy, total_amt_chng_q4_q1,
	total_trans_amt, total_trans_ct, total_ct_chng_q4_q1,
	avg_utilization_ratio, churned, created_at, updated_at
`

// PostgresCustomerRepository implements CustomerRepository for PostgreSQL
type PostgresCustomerRepository struct {
	db *database.DB
}

// NewPostgresCustomerRepository creates a new customer repository
func NewPostgresCustomerRepository(db *database.DB) CustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

// Create inserts a new customer
func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (
			id, age, gender, dependent_count, education_level, marital_status,
			income_category, card_category, months_on_book, relationship_count,
			months_inactive_12_mon, contacts_count_12_mon, credit_limit,
			total_revolving_bal, avg_open_to_buy, total_amt_chng_q4_q1,
			total_trans_amt, total_trans_ct, total_ct_chng_q4_q1,
			avg_utilization_ratio, churned
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		customer.ID, customer.Age, customer.Gender, customer.DependentCount,
		customer.EducationLevel, customer.MaritalStatus, customer.IncomeCategory,
		customer.CardCategory, customer.MonthsOnBook, customer.RelationshipCount,
		customer.MonthsInactive12Mon, customer.ContactsCount12Mon, customer.CreditLimit,
		customer.TotalRevolvingBal, customer.AvgOpenToBuy, customer.TotalAmtChngQ4Q1,
		customer.TotalTransAmt, customer.TotalTransCt, customer.TotalCtChngQ4Q1,
		customer.AvgUtilizationRatio, customer.Churned,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// CreateBatch inserts customers in a single batch
func (r *PostgresCustomerRepository) CreateBatch(ctx context.Context, customers []*models.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO customers (
			id, age, gender, dependent_count, education_level, marital_status,
			income_category, card_category, months_on_book, relationship_count,
			months_inactive_12_mon, contacts_count_12_mon, credit_limit,
			total_revolving_bal, avg_open_to_buy, total_amt_chng_q4_q1,
			total_trans_amt, total_trans_ct, total_ct_chng_q4_q1,
			avg_utilization_ratio, churned
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	for _, customer := range customers {
		batch.Queue(query,
			customer.ID, customer.Age, customer.Gender, customer.DependentCount,
			customer.EducationLevel, customer.MaritalStatus, customer.IncomeCategory,
			customer.CardCategory, customer.MonthsOnBook, customer.RelationshipCount,
			customer.MonthsInactive12Mon, customer.ContactsCount12Mon, customer.CreditLimit,
			customer.TotalRevolvingBal, customer.AvgOpenToBuy, customer.TotalAmtChngQ4Q1,
			customer.TotalTransAmt, customer.TotalTransCt, customer.TotalCtChngQ4Q1,
			customer.AvgUtilizationRatio, customer.Churned,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range customers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert customer batch: %w", err)
		}
	}

	return nil
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(
		&customer.ID, &customer.Age, &customer.Gender, &customer.DependentCount,
		&customer.EducationLevel, &customer.MaritalStatus, &customer.IncomeCategory,
		&customer.CardCategory, &customer.MonthsOnBook, &customer.RelationshipCount,
		&customer.MonthsInactive12Mon, &customer.ContactsCount12Mon, &customer.CreditLimit,
		&customer.TotalRevolvingBal, &customer.AvgOpenToBuy, &customer.TotalAmtChngQ4Q1,
		&customer.TotalTransAmt, &customer.TotalTransCt, &customer.TotalCtChngQ4Q1,
		&customer.AvgUtilizationRatio, &customer.Churned, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// GetByID retrieves a customer by ID
func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// GetAll retrieves the full portfolio
func (r *PostgresCustomerRepository) GetAll(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at ASC`
	return r.queryCustomers(ctx, query)
}

// GetChurned retrieves customers that have attrited
func (r *PostgresCustomerRepository) GetChurned(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE churned = true ORDER BY created_at ASC`
	return r.queryCustomers(ctx, query)
}

func (r *PostgresCustomerRepository) queryCustomers(ctx context.Context, query string, args ...interface{}) ([]*models.Customer, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	return customers, rows.Err()
}

// Count returns the portfolio size
func (r *PostgresCustomerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// CountChurned returns the number of attrited customers
func (r *PostgresCustomerRepository) CountChurned(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx, "SELECT COUNT(*) FROM customers WHERE churned = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count churned customers: %w", err)
	}
	return count, nil
}

// Update updates an existing customer
func (r *PostgresCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers SET
			age = $2, gender = $3, dependent_count = $4, education_level = $5,
			marital_status = $6, income_category = $7, card_category = $8,
			months_on_book = $9, relationship_count = $10, months_inactive_12_mon = $11,
			contacts_count_12_mon = $12, credit_limit = $13, total_revolving_bal = $14,
			avg_open_to_buy = $15, total_amt_chng_q4_q1 = $16, total_trans_amt = $17,
			total_trans_ct = $18, total_ct_chng_q4_q1 = $19, avg_utilization_ratio = $20,
			churned = $21, updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		customer.ID, customer.Age, customer.Gender, customer.DependentCount,
		customer.EducationLevel, customer.MaritalStatus, customer.IncomeCategory,
		customer.CardCategory, customer.MonthsOnBook, customer.RelationshipCount,
		customer.MonthsInactive12Mon, customer.ContactsCount12Mon, customer.CreditLimit,
		customer.TotalRevolvingBal, customer.AvgOpenToBuy, customer.TotalAmtChngQ4Q1,
		customer.TotalTransAmt, customer.TotalTransCt, customer.TotalCtChngQ4Q1,
		customer.AvgUtilizationRatio, customer.Churned,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a customer
func (r *PostgresCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	commandTag, err := r.db.GetPool().Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteAll truncates the portfolio ahead of a fresh ingest
func (r *PostgresCustomerRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.GetPool().Exec(ctx, "TRUNCATE customers CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate customers: %w", err)
	}
	return nil
}
