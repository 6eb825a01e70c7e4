package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavisolis/nutmeglocal/internal/dto"
)

var testBusinessID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func businessScan(name string, viewCount int64, owner *uuid.UUID) func(dest ...any) error {
	return func(dest ...any) error {
		now := time.Now()
		phone := "(203) 555-0100"
		*dest[0].(*uuid.UUID) = testBusinessID
		*dest[1].(*string) = name
		*dest[2].(*string) = "joes-pizza"
		*dest[7].(*string) = "Danbury"
		*dest[8].(*string) = "CT"
		*dest[12].(**string) = &phone
		*dest[15].(*[]byte) = []byte(`{"mon":"9am-5pm"}`)
		*dest[16].(*[]string) = nil
		*dest[17].(*bool) = owner != nil
		*dest[18].(**uuid.UUID) = owner
		*dest[19].(*bool) = true
		*dest[20].(*bool) = true
		*dest[21].(*int64) = viewCount
		*dest[22].(*time.Time) = now
		*dest[23].(*time.Time) = now
		return nil
	}
}

func TestPGXBusinessesRepository_List(t *testing.T) {
	featured := true
	var (
		capturedQuery string
		capturedArgs  []any
	)
	repo := &PGXBusinessesRepository{pool: &stubPool{
		queryFunc: func(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
			capturedQuery = query
			capturedArgs = args
			return &stubRows{scans: []func(dest ...any) error{businessScan("Joe's Pizza", 3, nil)}}, nil
		},
	}}

	businesses, err := repo.List(context.Background(), dto.BusinessFilter{
		Q:        "pizza",
		Category: "restaurants",
		City:     "Danbury",
		Featured: &featured,
		Page:     2,
		PerPage:  500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(businesses) != 1 || businesses[0].Name != "Joe's Pizza" {
		t.Fatalf("unexpected businesses: %+v", businesses)
	}
	if businesses[0].Hours["mon"] != "9am-5pm" {
		t.Fatalf("expected hours decoded, got %v", businesses[0].Hours)
	}
	if businesses[0].Photos == nil {
		t.Fatalf("expected photos to default to empty slice")
	}

	for _, fragment := range []string{"b.active = TRUE", "ILIKE $1", "c.slug = $3", "LOWER(b.city) = LOWER($4)", "b.featured = $5", "ORDER BY b.featured DESC, b.name ASC", "LIMIT $6 OFFSET $7"} {
		if !strings.Contains(capturedQuery, fragment) {
			t.Fatalf("expected query to contain %q, got %s", fragment, capturedQuery)
		}
	}
	if got := capturedArgs[len(capturedArgs)-2]; got != 100 {
		t.Fatalf("expected per_page capped at 100, got %v", got)
	}
	if got := capturedArgs[len(capturedArgs)-1]; got != 100 {
		t.Fatalf("expected offset 100 for page 2, got %v", got)
	}
}

func TestPGXBusinessesRepository_GetByID(t *testing.T) {
	owner := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	repo := &PGXBusinessesRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: businessScan("Joe's Pizza", 10, &owner)}
		},
	}}

	business, err := repo.GetByID(context.Background(), testBusinessID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !business.IsOwnedBy(owner) || business.ViewCount != 10 {
		t.Fatalf("unexpected business: %+v", business)
	}
	if business.Phone == nil || *business.Phone != "(203) 555-0100" {
		t.Fatalf("expected phone scanned, got %v", business.Phone)
	}

	repo.pool = &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	if _, err := repo.GetByID(context.Background(), testBusinessID); !errors.Is(err, ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestPGXBusinessesRepository_Update(t *testing.T) {
	name := "  Joe's Famous Pizza "
	hours := map[string]string{"tue": "closed"}
	var capturedQuery string
	var capturedArgs []any
	repo := &PGXBusinessesRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			capturedQuery = query
			capturedArgs = args
			return &stubRow{scan: businessScan("Joe's Famous Pizza", 0, nil)}
		},
	}}

	business, err := repo.Update(context.Background(), testBusinessID, dto.BusinessPatch{Name: &name, Hours: &hours})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if business.Name != "Joe's Famous Pizza" {
		t.Fatalf("unexpected business: %+v", business)
	}
	if !strings.Contains(capturedQuery, "name = $1") || !strings.Contains(capturedQuery, "hours = $2::jsonb") || !strings.Contains(capturedQuery, "WHERE b.id = $3") {
		t.Fatalf("unexpected update query: %s", capturedQuery)
	}
	if capturedArgs[0] != "Joe's Famous Pizza" || capturedArgs[1] != `{"tue":"closed"}` {
		t.Fatalf("unexpected args: %v", capturedArgs)
	}
}

func TestPGXBusinessesRepository_ViewCounter(t *testing.T) {
	var executed []string
	repo := &PGXBusinessesRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			executed = append(executed, query)
			if strings.Contains(query, "increment_view_count") {
				return pgconn.CommandTag{}, errors.New("function increment_view_count does not exist")
			}
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*int64) = 41
				return nil
			}}
		},
	}}

	if err := repo.IncrementViewCount(context.Background(), testBusinessID); err == nil {
		t.Fatalf("expected increment error to surface")
	}
	count, err := repo.ViewCount(context.Background(), testBusinessID)
	if err != nil || count != 41 {
		t.Fatalf("unexpected view count %d, err %v", count, err)
	}
	if err := repo.SetViewCount(context.Background(), testBusinessID, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executed) != 2 {
		t.Fatalf("expected two exec calls, got %d", len(executed))
	}

	repo.pool = &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	if err := repo.SetViewCount(context.Background(), testBusinessID, 1); !errors.Is(err, ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestPGXBusinessesRepository_AppendPhoto(t *testing.T) {
	repo := &PGXBusinessesRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			if strings.Contains(query, "array_append") {
				return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
			}
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*int64) = 0
				return nil
			}}
		},
	}}

	if _, err := repo.AppendPhoto(context.Background(), testBusinessID, "/uploads/a.jpg", 10); !errors.Is(err, ErrPhotoLimitReached) {
		t.Fatalf("expected ErrPhotoLimitReached, got %v", err)
	}
}

func TestPGXBusinessesRepository_ImportBusinesses(t *testing.T) {
	records := make([]BusinessImportInput, 0, 45)
	for i := 0; i < 45; i++ {
		records = append(records, BusinessImportInput{Name: "Biz", Slug: "biz", City: "Danbury"})
	}

	var batchSizes []int
	tx := &stubTx{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 7"), nil
		},
	}
	tx.sendBatchFunc = func(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
		batchSizes = append(batchSizes, b.Len())
		tags := make([]pgconn.CommandTag, b.Len())
		for i := range tags {
			tags[i] = pgconn.NewCommandTag("INSERT 0 1")
		}
		if len(batchSizes) == 2 {
			tags[0] = pgconn.NewCommandTag("INSERT 0 0")
		}
		return &stubBatchResults{tags: tags}
	}

	repo := &PGXBusinessesRepository{pool: &stubPool{
		beginTxFunc: func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) { return tx, nil },
	}}

	result, err := repo.ImportBusinesses(context.Background(), records, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 40 || batchSizes[1] != 5 {
		t.Fatalf("expected batches of 40 and 5, got %v", batchSizes)
	}
	if result.Deleted != 7 || result.Inserted != 44 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !tx.committed {
		t.Fatalf("expected transaction commit")
	}

	failing := &stubTx{sendBatchFunc: func(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
		return &stubBatchResults{err: errors.New("boom")}
	}}
	repo.pool = &stubPool{
		beginTxFunc: func(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) { return failing, nil },
	}
	if _, err := repo.ImportBusinesses(context.Background(), records[:1], false); err == nil {
		t.Fatalf("expected batch failure")
	}
	if failing.committed || !failing.rolledBack {
		t.Fatalf("expected rollback on failure")
	}
}
