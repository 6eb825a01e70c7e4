package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/dto"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
	"github.com/xavisolis/nutmeglocal/internal/service/scoring"
	"github.com/xavisolis/nutmeglocal/internal/storage"
)

// PhotoStore persists an uploaded photo and returns its public URL.
type PhotoStore interface {
	Save(businessID uuid.UUID, filename string, size int64, r io.Reader) (string, error)
}

// DirectoryService serves listing reads and owner edits.
type DirectoryService struct {
	businesses repository.BusinessesRepository
	categories repository.CategoriesRepository
	posts      repository.PostsRepository
	contact    *ContactNormalizer
	photos     PhotoStore
	admins     auth.AllowList
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(
	businesses repository.BusinessesRepository,
	categories repository.CategoriesRepository,
	posts repository.PostsRepository,
	contact *ContactNormalizer,
	photos PhotoStore,
	admins auth.AllowList,
) *DirectoryService {
	return &DirectoryService{
		businesses: businesses,
		categories: categories,
		posts:      posts,
		contact:    contact,
		photos:     photos,
		admins:     admins,
	}
}

// List returns active listings. A trailing "in <Town>" in q becomes the city filter.
func (s *DirectoryService) List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	filter.Q = strings.TrimSpace(filter.Q)
	filter.City = strings.TrimSpace(filter.City)
	if filter.City == "" && filter.Q != "" {
		parsed := ParseSearch(filter.Q)
		filter.Q = parsed.Terms
		filter.City = parsed.City
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	filter.OwnerID = nil
	filter.IncludeInactive = false
	return s.businesses.List(ctx, filter)
}

// Get returns a listing. Inactive listings are only visible to their owner and admins.
func (s *DirectoryService) Get(ctx context.Context, identity *Identity, id uuid.UUID) (*entity.Business, error) {
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, mapBusinessError(err)
	}
	if !business.Active && !s.canManage(identity, business) {
		return nil, ErrBusinessNotFound
	}
	return business, nil
}

// GetBySlug resolves /towns/:town/:slug.
func (s *DirectoryService) GetBySlug(ctx context.Context, townSlug, slug string) (*entity.Business, error) {
	business, err := s.businesses.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(townSlug)), strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, mapBusinessError(err)
	}
	return business, nil
}

// Towns returns listing counts for every covered town, busiest first.
func (s *DirectoryService) Towns(ctx context.Context) ([]entity.TownCount, error) {
	counts, err := s.businesses.TownCounts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(counts))
	for _, town := range counts {
		seen[town.Slug] = struct{}{}
	}
	for _, town := range Towns {
		if _, ok := seen[TownSlug(town)]; !ok {
			counts = append(counts, entity.TownCount{City: town, Slug: TownSlug(town)})
		}
	}
	return counts, nil
}

// Categories returns the category tree.
func (s *DirectoryService) Categories(ctx context.Context) ([]entity.Category, error) {
	return s.categories.List(ctx)
}

// Category returns a single category by slug.
func (s *DirectoryService) Category(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := s.categories.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Guides returns published guides.
func (s *DirectoryService) Guides(ctx context.Context) ([]entity.Post, error) {
	return s.posts.ListPublished(ctx)
}

// Guide returns one published guide.
func (s *DirectoryService) Guide(ctx context.Context, slug string) (*entity.Post, error) {
	post, err := s.posts.GetPublishedBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// Update applies an owner or admin edit. Only admins may change featured and active.
func (s *DirectoryService) Update(ctx context.Context, identity *Identity, id uuid.UUID, patch dto.BusinessPatch) (*entity.Business, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, mapBusinessError(err)
	}
	if !s.canManage(identity, business) {
		return nil, ErrForbidden
	}
	if !s.admins.Contains(identity.Email) && (patch.Featured != nil || patch.Active != nil) {
		return nil, ErrForbidden
	}
	if patch.Empty() {
		return nil, ValidationError{Message: "no fields to update"}
	}

	normalized, err := s.contact.Patch(ctx, patch)
	if err != nil {
		return nil, err
	}
	updated, err := s.businesses.Update(ctx, id, normalized)
	if err != nil {
		return nil, mapBusinessError(err)
	}
	return updated, nil
}

// AddPhoto stores an upload and appends it to the listing gallery.
func (s *DirectoryService) AddPhoto(ctx context.Context, identity *Identity, id uuid.UUID, filename string, size int64, r io.Reader) (dto.PhotoResponse, error) {
	if identity == nil {
		return dto.PhotoResponse{}, ErrUnauthorized
	}
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return dto.PhotoResponse{}, mapBusinessError(err)
	}
	if !s.canManage(identity, business) {
		return dto.PhotoResponse{}, ErrForbidden
	}
	if len(business.Photos) >= MaxPhotos {
		return dto.PhotoResponse{}, ValidationError{Message: "photo limit reached"}
	}

	url, err := s.photos.Save(id, filename, size, r)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPhoto) {
			return dto.PhotoResponse{}, ValidationError{Message: err.Error()}
		}
		return dto.PhotoResponse{}, err
	}

	photos, err := s.businesses.AppendPhoto(ctx, id, url, MaxPhotos)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoLimitReached) {
			return dto.PhotoResponse{}, ValidationError{Message: "photo limit reached"}
		}
		return dto.PhotoResponse{}, mapBusinessError(err)
	}
	return dto.PhotoResponse{URL: url, Photos: photos}, nil
}

// Mine lists the caller's claimed listings with their completeness score.
func (s *DirectoryService) Mine(ctx context.Context, identity *Identity) ([]dto.ListingResponse, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	owner := identity.UserID
	businesses, err := s.businesses.List(ctx, dto.BusinessFilter{OwnerID: &owner, IncludeInactive: true, Page: 1, PerPage: 100})
	if err != nil {
		return nil, err
	}

	listings := make([]dto.ListingResponse, 0, len(businesses))
	for _, business := range businesses {
		score := scoring.ComputeCompleteness(business)
		listings = append(listings, dto.ListingResponse{
			Business:     business,
			Completeness: score.Total,
			Breakdown:    score.Breakdown,
			Missing:      score.Missing,
		})
	}
	return listings, nil
}

// IsOwner reports whether identity holds the approved claim on the listing.
// Lookup failures count as not owned.
func (s *DirectoryService) IsOwner(ctx context.Context, identity *Identity, id uuid.UUID) bool {
	if identity == nil {
		return false
	}
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return false
	}
	return business.IsOwnedBy(identity.UserID)
}

func (s *DirectoryService) canManage(identity *Identity, business *entity.Business) bool {
	if identity == nil {
		return false
	}
	return business.IsOwnedBy(identity.UserID) || s.admins.Contains(identity.Email)
}

func mapBusinessError(err error) error {
	if errors.Is(err, repository.ErrBusinessNotFound) {
		return ErrBusinessNotFound
	}
	return err
}
