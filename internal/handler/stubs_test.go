package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

type stubUsersRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash string) (*entity.User, error)
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Create(ctx context.Context, email, passwordHash string) (*entity.User, error) {
	if s.create != nil {
		return s.create(ctx, email, passwordHash)
	}
	return nil, errors.New("not implemented")
}

// stubBusinessesRepo serves a fixed set of listings keyed by id.
type stubBusinessesRepo struct {
	mu         sync.Mutex
	businesses map[uuid.UUID]*entity.Business
	increments int
	listFilter dto.BusinessFilter
	update     func(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error)
}

func (s *stubBusinessesRepo) List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFilter = filter
	out := make([]entity.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubBusinessesRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.businesses[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, repository.ErrBusinessNotFound
}

func (s *stubBusinessesRepo) GetBySlug(ctx context.Context, townSlug, slug string) (*entity.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.businesses {
		if b.Slug == slug {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repository.ErrBusinessNotFound
}

func (s *stubBusinessesRepo) Update(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error) {
	if s.update != nil {
		return s.update(ctx, id, patch)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBusinessesRepo) AppendPhoto(ctx context.Context, id uuid.UUID, url string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	b.Photos = append(b.Photos, url)
	return b.Photos, nil
}

func (s *stubBusinessesRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.businesses[id]
	if !ok {
		return repository.ErrBusinessNotFound
	}
	b.ViewCount++
	s.increments++
	return nil
}

func (s *stubBusinessesRepo) ViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, repository.ErrBusinessNotFound
}

func (s *stubBusinessesRepo) SetViewCount(ctx context.Context, id uuid.UUID, count int64) error {
	return repository.ErrBusinessNotFound
}

func (s *stubBusinessesRepo) TownCounts(ctx context.Context) ([]entity.TownCount, error) {
	return []entity.TownCount{{City: "Bethel", Slug: "bethel", Count: 4}}, nil
}

func (s *stubBusinessesRepo) ImportBusinesses(ctx context.Context, records []repository.BusinessImportInput, replaceUnclaimed bool) (repository.BusinessImportResult, error) {
	return repository.BusinessImportResult{}, errors.New("not implemented")
}

func (s *stubBusinessesRepo) viewCountOf(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.businesses[id].ViewCount
}

func (s *stubBusinessesRepo) viewIncrements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.increments
}

type stubEventsRepo struct {
	mu        sync.Mutex
	inserted  []entity.BusinessEvent
	since     []entity.BusinessEvent
	insertErr error
}

func (s *stubEventsRepo) Insert(ctx context.Context, event *entity.BusinessEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *event)
	return nil
}

func (s *stubEventsRepo) ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]entity.BusinessEvent, error) {
	return s.since, nil
}

func (s *stubEventsRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

type stubClaimsRepo struct {
	pending int
	created []entity.Claim
	claim   *entity.Claim
	approve func(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error)
}

func (s *stubClaimsRepo) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.pending, nil
}

func (s *stubClaimsRepo) FindActive(ctx context.Context, userID, businessID uuid.UUID) (*entity.Claim, error) {
	return nil, repository.ErrClaimNotFound
}

func (s *stubClaimsRepo) Create(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
	created := *claim
	created.ID = uuid.New()
	created.Status = entity.ClaimPending
	created.CreatedAt = time.Now()
	s.created = append(s.created, created)
	return &created, nil
}

func (s *stubClaimsRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	if s.claim != nil && s.claim.ID == id {
		return s.claim, nil
	}
	return nil, repository.ErrClaimNotFound
}

func (s *stubClaimsRepo) List(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error) {
	return s.created, nil
}

func (s *stubClaimsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Claim, error) {
	return s.created, nil
}

func (s *stubClaimsRepo) Approve(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error) {
	if s.approve != nil {
		return s.approve(ctx, id)
	}
	return repository.ApprovalResult{}, repository.ErrClaimNotFound
}

func (s *stubClaimsRepo) Reject(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	return nil, repository.ErrClaimNotFound
}

type stubSignupsRepo struct {
	emails map[string]bool
}

func (s *stubSignupsRepo) Create(ctx context.Context, signup *entity.EarlyAccessSignup) (*entity.EarlyAccessSignup, error) {
	if s.emails == nil {
		s.emails = map[string]bool{}
	}
	if s.emails[signup.Email] {
		return nil, repository.ErrSignupDuplicate
	}
	s.emails[signup.Email] = true
	created := *signup
	created.ID = uuid.New()
	return &created, nil
}

func (s *stubSignupsRepo) List(ctx context.Context) ([]entity.EarlyAccessSignup, error) {
	return nil, nil
}

type stubCategoriesRepo struct{}

func (stubCategoriesRepo) List(ctx context.Context) ([]entity.Category, error) {
	return []entity.Category{}, nil
}

func (stubCategoriesRepo) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	return nil, repository.ErrCategoryNotFound
}

type stubPostsRepo struct{}

func (stubPostsRepo) ListPublished(ctx context.Context) ([]entity.Post, error) {
	return []entity.Post{}, nil
}

func (stubPostsRepo) GetPublishedBySlug(ctx context.Context, slug string) (*entity.Post, error) {
	return nil, repository.ErrPostNotFound
}

// nopNotifier discards every notification.
type nopNotifier struct{}

func (nopNotifier) ClaimReceived(entity.Claim) {}
func (nopNotifier) ClaimApproved(entity.Claim) {}
func (nopNotifier) ClaimRejected(entity.Claim) {}
func (nopNotifier) OwnershipTransferred(entity.Claim) {}
func (nopNotifier) SignupConfirmed(entity.EarlyAccessSignup) {}
