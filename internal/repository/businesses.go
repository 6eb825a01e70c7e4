package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
)

var (
	// ErrBusinessNotFound is returned when no listing matches the lookup.
	ErrBusinessNotFound = errors.New("business not found")
	// ErrPhotoLimitReached is returned when a listing already holds the maximum number of photos.
	ErrPhotoLimitReached = errors.New("photo limit reached")
)

// importBatchSize bounds how many inserts are queued per round trip.
const importBatchSize = 40

// BusinessesRepository describes persistence operations for listings.
type BusinessesRepository interface {
	List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error)
	GetBySlug(ctx context.Context, townSlug, slug string) (*entity.Business, error)
	Update(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error)
	AppendPhoto(ctx context.Context, id uuid.UUID, url string, limit int) ([]string, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	ViewCount(ctx context.Context, id uuid.UUID) (int64, error)
	SetViewCount(ctx context.Context, id uuid.UUID, count int64) error
	TownCounts(ctx context.Context) ([]entity.TownCount, error)
	ImportBusinesses(ctx context.Context, records []BusinessImportInput, replaceUnclaimed bool) (BusinessImportResult, error)
}

// BusinessImportInput is a fully resolved listing ready to be inserted.
type BusinessImportInput struct {
	Name          string
	Slug          string
	Description   *string
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Address       *string
	City          string
	State         string
	Zip           *string
	Lat           *float64
	Lng           *float64
	Phone         *string
	Email         *string
	Website       *string
}

// BusinessImportResult summarises a bulk import.
type BusinessImportResult struct {
	Deleted  int
	Inserted int
	Skipped  int
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

const businessColumns = `
            b.id,
            b.name,
            b.slug,
            b.description,
            b.category_id,
            b.subcategory_id,
            b.address,
            b.city,
            b.state,
            b.zip,
            b.lat,
            b.lng,
            b.phone,
            b.email,
            b.website,
            b.hours,
            b.photos,
            b.claimed,
            b.claimed_by,
            b.featured,
            b.active,
            b.view_count,
            b.created_at,
            b.updated_at`

func scanBusiness(row rowScanner) (*entity.Business, error) {
	var (
		b     entity.Business
		hours []byte
	)
	if err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Slug,
		&b.Description,
		&b.CategoryID,
		&b.SubcategoryID,
		&b.Address,
		&b.City,
		&b.State,
		&b.Zip,
		&b.Lat,
		&b.Lng,
		&b.Phone,
		&b.Email,
		&b.Website,
		&hours,
		&b.Photos,
		&b.Claimed,
		&b.ClaimedBy,
		&b.Featured,
		&b.Active,
		&b.ViewCount,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	b.Hours = map[string]string{}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &b.Hours); err != nil {
			return nil, fmt.Errorf("decode hours: %w", err)
		}
	}
	if b.Photos == nil {
		b.Photos = []string{}
	}
	return &b, nil
}

// List retrieves active listings matching the filter, featured first then by name.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	query := strings.Builder{}
	query.WriteString("SELECT")
	query.WriteString(businessColumns)
	query.WriteString(`
        FROM businesses b
        LEFT JOIN categories c ON c.id = b.category_id
        LEFT JOIN subcategories s ON s.id = b.subcategory_id
    `)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if !filter.IncludeInactive {
		clauses = append(clauses, "b.active = TRUE")
	}
	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(b.name ILIKE $%d OR b.description ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("c.slug = $%d", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.Subcategory != "" {
		clauses = append(clauses, fmt.Sprintf("s.slug = $%d", idx))
		args = append(args, filter.Subcategory)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(b.city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.Featured != nil {
		clauses = append(clauses, fmt.Sprintf("b.featured = $%d", idx))
		args = append(args, *filter.Featured)
		idx++
	}
	if filter.OwnerID != nil {
		clauses = append(clauses, fmt.Sprintf("b.claimed_by = $%d", idx))
		args = append(args, *filter.OwnerID)
		idx++
	}

	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY b.featured DESC, b.name ASC")

	limit, offset := pageBounds(filter.Page, filter.PerPage)
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]entity.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business row: %w", err)
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

// GetByID fetches a listing regardless of its active flag.
func (r *PGXBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	row := r.pool.QueryRow(ctx, "SELECT"+businessColumns+" FROM businesses b WHERE b.id = $1", id)
	b, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("query business by id: %w", err)
	}
	return b, nil
}

// GetBySlug fetches an active listing by its town slug ("new-milford") and business slug.
func (r *PGXBusinessesRepository) GetBySlug(ctx context.Context, townSlug, slug string) (*entity.Business, error) {
	row := r.pool.QueryRow(ctx, "SELECT"+businessColumns+`
        FROM businesses b
        WHERE REPLACE(LOWER(b.city), ' ', '-') = LOWER($1) AND b.slug = $2 AND b.active = TRUE`,
		townSlug, slug)
	b, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("query business by slug: %w", err)
	}
	return b, nil
}

// Update patches listing attributes.
func (r *PGXBusinessesRepository) Update(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error) {
	setClauses := make([]string, 0)
	args := make([]any, 0)
	idx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.Name != nil {
		add("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		add("description", stringOrNil(patch.Description))
	}
	if patch.Phone != nil {
		add("phone", stringOrNil(patch.Phone))
	}
	if patch.Email != nil {
		add("email", stringOrNil(patch.Email))
	}
	if patch.Website != nil {
		add("website", stringOrNil(patch.Website))
	}
	if patch.Hours != nil {
		hours := *patch.Hours
		if hours == nil {
			hours = map[string]string{}
		}
		encoded, err := json.Marshal(hours)
		if err != nil {
			return nil, fmt.Errorf("marshal hours: %w", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("hours = $%d::jsonb", idx))
		args = append(args, string(encoded))
		idx++
	}
	if patch.Photos != nil {
		photos := *patch.Photos
		if photos == nil {
			photos = []string{}
		}
		add("photos", photos)
	}
	if patch.Featured != nil {
		add("featured", *patch.Featured)
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE businesses b SET %s WHERE b.id = $%d RETURNING"+businessColumns, strings.Join(setClauses, ", "), idx)

	b, err := scanBusiness(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("update business: %w", err)
	}
	return b, nil
}

// AppendPhoto adds a photo URL unless the listing already holds limit photos.
func (r *PGXBusinessesRepository) AppendPhoto(ctx context.Context, id uuid.UUID, url string, limit int) ([]string, error) {
	var photos []string
	err := r.pool.QueryRow(ctx, `
        UPDATE businesses
        SET photos = array_append(photos, $2), updated_at = NOW()
        WHERE id = $1 AND cardinality(photos) < $3
        RETURNING photos
    `, id, url, limit).Scan(&photos)
	if err == nil {
		return photos, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("append photo: %w", err)
	}

	if _, lookupErr := r.ViewCount(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrPhotoLimitReached
}

// IncrementViewCount bumps the counter atomically through the increment_view_count function.
func (r *PGXBusinessesRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `SELECT increment_view_count($1)`, id); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// ViewCount reads the running view counter.
func (r *PGXBusinessesRepository) ViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT view_count FROM businesses WHERE id = $1`, id).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBusinessNotFound
		}
		return 0, fmt.Errorf("query view count: %w", err)
	}
	return count, nil
}

// SetViewCount overwrites the counter. Only used by the non-atomic fallback path.
func (r *PGXBusinessesRepository) SetViewCount(ctx context.Context, id uuid.UUID, count int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE businesses SET view_count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return fmt.Errorf("set view count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

// TownCounts returns the number of active listings per town, busiest first.
func (r *PGXBusinessesRepository) TownCounts(ctx context.Context) ([]entity.TownCount, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT city, REPLACE(LOWER(city), ' ', '-') AS slug, COUNT(*)
        FROM businesses
        WHERE active = TRUE
        GROUP BY city
        ORDER BY COUNT(*) DESC, city ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("count towns: %w", err)
	}
	defer rows.Close()

	towns := make([]entity.TownCount, 0)
	for rows.Next() {
		var town entity.TownCount
		if err := rows.Scan(&town.City, &town.Slug, &town.Count); err != nil {
			return nil, fmt.Errorf("scan town row: %w", err)
		}
		towns = append(towns, town)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate towns: %w", err)
	}
	return towns, nil
}

const importBusinessSQL = `
        INSERT INTO businesses (name, slug, description, category_id, subcategory_id, address, city, state, zip, lat, lng, phone, email, website)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (city, slug) DO NOTHING
    `

// ImportBusinesses inserts listings in one transaction, optionally replacing every unclaimed listing first.
// Rows colliding with an existing (city, slug) are skipped.
func (r *PGXBusinessesRepository) ImportBusinesses(ctx context.Context, records []BusinessImportInput, replaceUnclaimed bool) (BusinessImportResult, error) {
	var result BusinessImportResult
	if len(records) == 0 && !replaceUnclaimed {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if replaceUnclaimed {
		cmd, err := tx.Exec(ctx, `DELETE FROM businesses WHERE claimed = FALSE`)
		if err != nil {
			return result, fmt.Errorf("delete unclaimed businesses: %w", err)
		}
		result.Deleted = int(cmd.RowsAffected())
	}

	for start := 0; start < len(records); start += importBatchSize {
		end := start + importBatchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		batch := &pgx.Batch{}
		for _, rec := range chunk {
			state := rec.State
			if state == "" {
				state = "CT"
			}
			batch.Queue(importBusinessSQL,
				rec.Name,
				rec.Slug,
				stringOrNil(rec.Description),
				rec.CategoryID,
				rec.SubcategoryID,
				stringOrNil(rec.Address),
				rec.City,
				state,
				stringOrNil(rec.Zip),
				floatOrNil(rec.Lat),
				floatOrNil(rec.Lng),
				stringOrNil(rec.Phone),
				stringOrNil(rec.Email),
				stringOrNil(rec.Website),
			)
		}

		if err := execBatch(ctx, tx, batch, len(chunk), &result); err != nil {
			return result, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit import tx: %w", err)
	}
	return result, nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, size int, result *BusinessImportResult) error {
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < size; i++ {
		cmd, err := br.Exec()
		if err != nil {
			return fmt.Errorf("insert business batch: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			result.Skipped++
			continue
		}
		result.Inserted++
	}
	return nil
}
