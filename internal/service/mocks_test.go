package service

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/geocode"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

type mockUsersRepository struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash string) (*entity.User, error)
}

func (m *mockUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.findByEmail != nil {
		return m.findByEmail(ctx, email)
	}
	return nil, errors.New("findByEmail not implemented")
}

func (m *mockUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, errors.New("FindByID not implemented")
}

func (m *mockUsersRepository) Create(ctx context.Context, email, passwordHash string) (*entity.User, error) {
	if m.create != nil {
		return m.create(ctx, email, passwordHash)
	}
	return nil, errors.New("create not implemented")
}

type mockBusinessesRepository struct {
	list               func(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error)
	getByID            func(ctx context.Context, id uuid.UUID) (*entity.Business, error)
	getBySlug          func(ctx context.Context, townSlug, slug string) (*entity.Business, error)
	update             func(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error)
	appendPhoto        func(ctx context.Context, id uuid.UUID, url string, limit int) ([]string, error)
	incrementViewCount func(ctx context.Context, id uuid.UUID) error
	viewCount          func(ctx context.Context, id uuid.UUID) (int64, error)
	setViewCount       func(ctx context.Context, id uuid.UUID, count int64) error
	townCounts         func(ctx context.Context) ([]entity.TownCount, error)
	importBusinesses   func(ctx context.Context, records []repository.BusinessImportInput, replaceUnclaimed bool) (repository.BusinessImportResult, error)
}

func (m *mockBusinessesRepository) List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	if m.list != nil {
		return m.list(ctx, filter)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, errors.New("GetByID not implemented")
}

func (m *mockBusinessesRepository) GetBySlug(ctx context.Context, townSlug, slug string) (*entity.Business, error) {
	if m.getBySlug != nil {
		return m.getBySlug(ctx, townSlug, slug)
	}
	return nil, errors.New("GetBySlug not implemented")
}

func (m *mockBusinessesRepository) Update(ctx context.Context, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error) {
	if m.update != nil {
		return m.update(ctx, id, patch)
	}
	return nil, errors.New("Update not implemented")
}

func (m *mockBusinessesRepository) AppendPhoto(ctx context.Context, id uuid.UUID, url string, limit int) ([]string, error) {
	if m.appendPhoto != nil {
		return m.appendPhoto(ctx, id, url, limit)
	}
	return nil, errors.New("AppendPhoto not implemented")
}

func (m *mockBusinessesRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if m.incrementViewCount != nil {
		return m.incrementViewCount(ctx, id)
	}
	return errors.New("IncrementViewCount not implemented")
}

func (m *mockBusinessesRepository) ViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.viewCount != nil {
		return m.viewCount(ctx, id)
	}
	return 0, errors.New("ViewCount not implemented")
}

func (m *mockBusinessesRepository) SetViewCount(ctx context.Context, id uuid.UUID, count int64) error {
	if m.setViewCount != nil {
		return m.setViewCount(ctx, id, count)
	}
	return errors.New("SetViewCount not implemented")
}

func (m *mockBusinessesRepository) TownCounts(ctx context.Context) ([]entity.TownCount, error) {
	if m.townCounts != nil {
		return m.townCounts(ctx)
	}
	return nil, errors.New("TownCounts not implemented")
}

func (m *mockBusinessesRepository) ImportBusinesses(ctx context.Context, records []repository.BusinessImportInput, replaceUnclaimed bool) (repository.BusinessImportResult, error) {
	if m.importBusinesses != nil {
		return m.importBusinesses(ctx, records, replaceUnclaimed)
	}
	return repository.BusinessImportResult{}, errors.New("ImportBusinesses not implemented")
}

type mockClaimsRepository struct {
	countPendingByUser func(ctx context.Context, userID uuid.UUID) (int, error)
	findActive         func(ctx context.Context, userID, businessID uuid.UUID) (*entity.Claim, error)
	create             func(ctx context.Context, claim *entity.Claim) (*entity.Claim, error)
	getByID            func(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
	list               func(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error)
	listByUser         func(ctx context.Context, userID uuid.UUID) ([]entity.Claim, error)
	approve            func(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error)
	reject             func(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
}

func (m *mockClaimsRepository) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.countPendingByUser != nil {
		return m.countPendingByUser(ctx, userID)
	}
	return 0, nil
}

func (m *mockClaimsRepository) FindActive(ctx context.Context, userID, businessID uuid.UUID) (*entity.Claim, error) {
	if m.findActive != nil {
		return m.findActive(ctx, userID, businessID)
	}
	return nil, repository.ErrClaimNotFound
}

func (m *mockClaimsRepository) Create(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
	if m.create != nil {
		return m.create(ctx, claim)
	}
	return nil, errors.New("Create not implemented")
}

func (m *mockClaimsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, errors.New("GetByID not implemented")
}

func (m *mockClaimsRepository) List(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error) {
	if m.list != nil {
		return m.list(ctx, status)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockClaimsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Claim, error) {
	if m.listByUser != nil {
		return m.listByUser(ctx, userID)
	}
	return nil, errors.New("ListByUser not implemented")
}

func (m *mockClaimsRepository) Approve(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error) {
	if m.approve != nil {
		return m.approve(ctx, id)
	}
	return repository.ApprovalResult{}, errors.New("Approve not implemented")
}

func (m *mockClaimsRepository) Reject(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	if m.reject != nil {
		return m.reject(ctx, id)
	}
	return nil, errors.New("Reject not implemented")
}

type mockEventsRepository struct {
	mu        sync.Mutex
	inserted  []entity.BusinessEvent
	insertErr error
	listSince func(ctx context.Context, businessID uuid.UUID, since time.Time) ([]entity.BusinessEvent, error)
}

func (m *mockEventsRepository) Insert(ctx context.Context, event *entity.BusinessEvent) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, *event)
	return nil
}

func (m *mockEventsRepository) ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]entity.BusinessEvent, error) {
	if m.listSince != nil {
		return m.listSince(ctx, businessID, since)
	}
	return nil, errors.New("ListSince not implemented")
}

type mockSignupsRepository struct {
	create func(ctx context.Context, signup *entity.EarlyAccessSignup) (*entity.EarlyAccessSignup, error)
	list   func(ctx context.Context) ([]entity.EarlyAccessSignup, error)
}

func (m *mockSignupsRepository) Create(ctx context.Context, signup *entity.EarlyAccessSignup) (*entity.EarlyAccessSignup, error) {
	if m.create != nil {
		return m.create(ctx, signup)
	}
	return nil, errors.New("Create not implemented")
}

func (m *mockSignupsRepository) List(ctx context.Context) ([]entity.EarlyAccessSignup, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, errors.New("List not implemented")
}

type mockCategoriesRepository struct {
	list      func(ctx context.Context) ([]entity.Category, error)
	getBySlug func(ctx context.Context, slug string) (*entity.Category, error)
}

func (m *mockCategoriesRepository) List(ctx context.Context) ([]entity.Category, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockCategoriesRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	if m.getBySlug != nil {
		return m.getBySlug(ctx, slug)
	}
	return nil, repository.ErrCategoryNotFound
}

type mockPostsRepository struct {
	listPublished      func(ctx context.Context) ([]entity.Post, error)
	getPublishedBySlug func(ctx context.Context, slug string) (*entity.Post, error)
}

func (m *mockPostsRepository) ListPublished(ctx context.Context) ([]entity.Post, error) {
	if m.listPublished != nil {
		return m.listPublished(ctx)
	}
	return []entity.Post{}, nil
}

func (m *mockPostsRepository) GetPublishedBySlug(ctx context.Context, slug string) (*entity.Post, error) {
	if m.getPublishedBySlug != nil {
		return m.getPublishedBySlug(ctx, slug)
	}
	return nil, repository.ErrPostNotFound
}

// recordingNotifier captures notifications by kind.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(kind string, email string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+email)
}

func (n *recordingNotifier) ClaimReceived(claim entity.Claim) { n.record("received", claim.UserEmail) }
func (n *recordingNotifier) ClaimApproved(claim entity.Claim) { n.record("approved", claim.UserEmail) }
func (n *recordingNotifier) ClaimRejected(claim entity.Claim) { n.record("rejected", claim.UserEmail) }
func (n *recordingNotifier) OwnershipTransferred(claim entity.Claim) {
	n.record("transferred", claim.UserEmail)
}
func (n *recordingNotifier) SignupConfirmed(signup entity.EarlyAccessSignup) {
	n.record("signup", signup.Email)
}

type stubDNSResolver struct {
	mx map[string]bool
}

func (s *stubDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if s.mx[domain] {
		return []*net.MX{{Host: "mx." + domain, Pref: 10}}, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: domain, IsNotFound: true}
}

type stubGeocoder struct {
	mu      sync.Mutex
	results map[string]geocode.Point
	queries []string
}

func (s *stubGeocoder) Lookup(ctx context.Context, address, city, zip string) (geocode.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, address)
	p, ok := s.results[address]
	return p, ok
}

type stubPhotoStore struct {
	save func(businessID uuid.UUID, filename string, size int64, r io.Reader) (string, error)
}

func (s *stubPhotoStore) Save(businessID uuid.UUID, filename string, size int64, r io.Reader) (string, error) {
	if s.save != nil {
		return s.save(businessID, filename, size, r)
	}
	return "/uploads/" + businessID.String() + "/" + filename, nil
}

func strPtr(v string) *string { return &v }
