package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

var (
	// ErrClaimNotFound is returned when no claim matches the lookup.
	ErrClaimNotFound = errors.New("claim not found")
	// ErrClaimNotPending is returned when a decision targets an already reviewed claim.
	ErrClaimNotPending = errors.New("claim is not pending")
	// ErrClaimDuplicate is returned when the user already holds an active claim on the business.
	ErrClaimDuplicate = errors.New("active claim already exists")
)

const activeClaimIndex = "claims_user_business_active_key"

// ClaimsRepository describes persistence operations for ownership claims.
type ClaimsRepository interface {
	CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error)
	FindActive(ctx context.Context, userID, businessID uuid.UUID) (*entity.Claim, error)
	Create(ctx context.Context, claim *entity.Claim) (*entity.Claim, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
	List(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Claim, error)
	Approve(ctx context.Context, id uuid.UUID) (ApprovalResult, error)
	Reject(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
}

// ApprovalResult reports every claim touched by an approval.
type ApprovalResult struct {
	Approved entity.Claim
	// Rejected are the sibling claims that were still pending.
	Rejected []entity.Claim
	// Superseded are earlier approved claims whose ownership was transferred.
	Superseded []entity.Claim
}

// PGXClaimsRepository implements ClaimsRepository using pgx.
type PGXClaimsRepository struct {
	pool pgxPool
}

// NewPGXClaimsRepository wires a pgx backed repository.
func NewPGXClaimsRepository(pool *pgxpool.Pool) *PGXClaimsRepository {
	return &PGXClaimsRepository{pool: pool}
}

const claimColumns = `c.id, c.business_id, COALESCE(b.name, ''), c.user_id, c.user_email, c.proof, c.status, c.created_at, c.reviewed_at, c.superseded_at`

const claimSelect = `SELECT ` + claimColumns + ` FROM claims c LEFT JOIN businesses b ON b.id = c.business_id`

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var (
		claim  entity.Claim
		status string
	)
	if err := row.Scan(
		&claim.ID,
		&claim.BusinessID,
		&claim.BusinessName,
		&claim.UserID,
		&claim.UserEmail,
		&claim.Proof,
		&status,
		&claim.CreatedAt,
		&claim.ReviewedAt,
		&claim.SupersededAt,
	); err != nil {
		return nil, err
	}
	claim.Status = entity.ClaimStatus(status)
	return &claim, nil
}

func collectClaims(rows pgx.Rows) ([]entity.Claim, error) {
	defer rows.Close()

	claims := make([]entity.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim row: %w", err)
		}
		claims = append(claims, *claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claims, nil
}

// CountPendingByUser counts the user's claims that are awaiting review.
func (r *PGXClaimsRepository) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE user_id = $1 AND status = 'pending'`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending claims: %w", err)
	}
	return count, nil
}

// FindActive returns the user's pending or approved claim on the business.
func (r *PGXClaimsRepository) FindActive(ctx context.Context, userID, businessID uuid.UUID) (*entity.Claim, error) {
	row := r.pool.QueryRow(ctx, claimSelect+`
        WHERE c.user_id = $1 AND c.business_id = $2 AND c.status IN ('pending', 'approved')
        ORDER BY c.created_at DESC
        LIMIT 1`, userID, businessID)
	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("query active claim: %w", err)
	}
	return claim, nil
}

// Create inserts a pending claim.
func (r *PGXClaimsRepository) Create(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
	if claim == nil {
		return nil, fmt.Errorf("claim payload is nil")
	}

	var (
		created entity.Claim
		status  string
	)
	err := r.pool.QueryRow(ctx, `
        INSERT INTO claims (business_id, user_id, user_email, proof)
        VALUES ($1, $2, $3, $4)
        RETURNING id, business_id, user_id, user_email, proof, status, created_at
    `, claim.BusinessID, claim.UserID, claim.UserEmail, claim.Proof).Scan(
		&created.ID,
		&created.BusinessID,
		&created.UserID,
		&created.UserEmail,
		&created.Proof,
		&status,
		&created.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeClaimIndex) {
			return nil, fmt.Errorf("%w: %v", ErrClaimDuplicate, err)
		}
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	created.Status = entity.ClaimStatus(status)
	created.BusinessName = claim.BusinessName
	return &created, nil
}

// GetByID fetches a claim with its business name.
func (r *PGXClaimsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	claim, err := scanClaim(r.pool.QueryRow(ctx, claimSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("query claim by id: %w", err)
	}
	return claim, nil
}

// List returns claims newest first, optionally restricted to one status.
func (r *PGXClaimsRepository) List(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error) {
	query := strings.Builder{}
	query.WriteString(claimSelect)
	args := make([]any, 0, 1)
	if status != nil {
		query.WriteString(" WHERE c.status = $1")
		args = append(args, string(*status))
	}
	query.WriteString(" ORDER BY c.created_at DESC")

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return collectClaims(rows)
}

// ListByUser returns the user's claims newest first.
func (r *PGXClaimsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Claim, error) {
	rows, err := r.pool.Query(ctx, claimSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user claims: %w", err)
	}
	return collectClaims(rows)
}

// Approve approves a pending claim and transfers ownership in a single transaction.
// The business row is locked first so concurrent approvals on the same listing serialise;
// the loser observes its claim already rejected by the winner's cascade.
func (r *PGXClaimsRepository) Approve(ctx context.Context, id uuid.UUID) (ApprovalResult, error) {
	var result ApprovalResult

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start approval tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var businessID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT business_id FROM claims WHERE id = $1`, id).Scan(&businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrClaimNotFound
		}
		return result, fmt.Errorf("lookup claim business: %w", err)
	}

	var businessName string
	if err := tx.QueryRow(ctx, `SELECT name FROM businesses WHERE id = $1 FOR UPDATE`, businessID).Scan(&businessName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrBusinessNotFound
		}
		return result, fmt.Errorf("lock business: %w", err)
	}

	claim, err := scanClaim(tx.QueryRow(ctx, claimSelect+` WHERE c.id = $1 FOR UPDATE OF c`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrClaimNotFound
		}
		return result, fmt.Errorf("lock claim: %w", err)
	}
	if claim.Status != entity.ClaimPending {
		return result, ErrClaimNotPending
	}

	var reviewedAt time.Time
	if err := tx.QueryRow(ctx, `
        UPDATE claims SET status = 'approved', reviewed_at = NOW()
        WHERE id = $1
        RETURNING reviewed_at
    `, id).Scan(&reviewedAt); err != nil {
		return result, fmt.Errorf("approve claim: %w", err)
	}
	claim.Status = entity.ClaimApproved
	claim.ReviewedAt = &reviewedAt
	claim.BusinessName = businessName

	if _, err := tx.Exec(ctx, `
        UPDATE businesses SET claimed = TRUE, claimed_by = $2, updated_at = NOW()
        WHERE id = $1
    `, businessID, claim.UserID); err != nil {
		return result, fmt.Errorf("transfer ownership: %w", err)
	}

	rejected, err := r.updateSiblings(ctx, tx, `
        UPDATE claims SET status = 'rejected', reviewed_at = NOW()
        WHERE business_id = $1 AND id <> $2 AND status = 'pending'
        RETURNING id, business_id, user_id, user_email, proof, status, created_at, reviewed_at, superseded_at
    `, businessID, id, businessName)
	if err != nil {
		return result, fmt.Errorf("reject competing claims: %w", err)
	}

	superseded, err := r.updateSiblings(ctx, tx, `
        UPDATE claims SET superseded_at = NOW()
        WHERE business_id = $1 AND id <> $2 AND status = 'approved' AND superseded_at IS NULL
        RETURNING id, business_id, user_id, user_email, proof, status, created_at, reviewed_at, superseded_at
    `, businessID, id, businessName)
	if err != nil {
		return result, fmt.Errorf("supersede previous owners: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit approval tx: %w", err)
	}

	result.Approved = *claim
	result.Rejected = rejected
	result.Superseded = superseded
	return result, nil
}

func (r *PGXClaimsRepository) updateSiblings(ctx context.Context, tx pgx.Tx, query string, businessID, claimID uuid.UUID, businessName string) ([]entity.Claim, error) {
	rows, err := tx.Query(ctx, query, businessID, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]entity.Claim, 0)
	for rows.Next() {
		var (
			claim  entity.Claim
			status string
		)
		if err := rows.Scan(
			&claim.ID,
			&claim.BusinessID,
			&claim.UserID,
			&claim.UserEmail,
			&claim.Proof,
			&status,
			&claim.CreatedAt,
			&claim.ReviewedAt,
			&claim.SupersededAt,
		); err != nil {
			return nil, err
		}
		claim.Status = entity.ClaimStatus(status)
		claim.BusinessName = businessName
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// Reject rejects a pending claim. It never cascades.
func (r *PGXClaimsRepository) Reject(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	claim, err := scanClaim(r.pool.QueryRow(ctx, `
        WITH updated AS (
            UPDATE claims SET status = 'rejected', reviewed_at = NOW()
            WHERE id = $1 AND status = 'pending'
            RETURNING *
        )
        SELECT `+claimColumns+` FROM updated c LEFT JOIN businesses b ON b.id = c.business_id
    `, id))
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reject claim: %w", err)
	}

	if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrClaimNotPending
}
