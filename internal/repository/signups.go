package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

// ErrSignupDuplicate is returned when the email is already on the waitlist.
var ErrSignupDuplicate = errors.New("signup email already exists")

// SignupsRepository persists early access signups.
type SignupsRepository interface {
	Create(ctx context.Context, signup *entity.EarlyAccessSignup) (*entity.EarlyAccessSignup, error)
	List(ctx context.Context) ([]entity.EarlyAccessSignup, error)
}

// PGXSignupsRepository implements SignupsRepository using pgx.
type PGXSignupsRepository struct {
	pool pgxPool
}

// NewPGXSignupsRepository wires a pgx backed repository.
func NewPGXSignupsRepository(pool *pgxpool.Pool) *PGXSignupsRepository {
	return &PGXSignupsRepository{pool: pool}
}

// Create inserts a signup; uniqueness on email is enforced by the database.
func (r *PGXSignupsRepository) Create(ctx context.Context, signup *entity.EarlyAccessSignup) (*entity.EarlyAccessSignup, error) {
	if signup == nil {
		return nil, fmt.Errorf("signup payload is nil")
	}

	var (
		created    entity.EarlyAccessSignup
		signupType string
	)
	err := r.pool.QueryRow(ctx, `
        INSERT INTO early_access_signups (email, type, business_name)
        VALUES ($1, $2, $3)
        RETURNING id, email, type, business_name, created_at
    `, signup.Email, string(signup.Type), stringOrNil(signup.BusinessName)).Scan(
		&created.ID, &created.Email, &signupType, &created.BusinessName, &created.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %v", ErrSignupDuplicate, err)
		}
		return nil, fmt.Errorf("insert signup: %w", err)
	}
	created.Type = entity.SignupType(signupType)
	return &created, nil
}

// List returns signups newest first.
func (r *PGXSignupsRepository) List(ctx context.Context) ([]entity.EarlyAccessSignup, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, type, business_name, created_at FROM early_access_signups ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	signups := make([]entity.EarlyAccessSignup, 0)
	for rows.Next() {
		var (
			signup     entity.EarlyAccessSignup
			signupType string
		)
		if err := rows.Scan(&signup.ID, &signup.Email, &signupType, &signup.BusinessName, &signup.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signup row: %w", err)
		}
		signup.Type = entity.SignupType(signupType)
		signups = append(signups, signup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signups: %w", err)
	}
	return signups, nil
}
