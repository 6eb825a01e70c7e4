package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

const (
	defaultMaxPendingClaims = 3
	maxProofLength          = 2000

	msgPendingClaim     = "You already have a pending claim for this business."
	msgAlreadyOwner     = "You already own this business."
	msgOwnershipChanged = "Ownership of this business was transferred to another claimant. Contact support to dispute."
)

// ClaimNotifier sends claim related emails. Implementations must not block.
type ClaimNotifier interface {
	ClaimReceived(claim entity.Claim)
	ClaimApproved(claim entity.Claim)
	ClaimRejected(claim entity.Claim)
	OwnershipTransferred(claim entity.Claim)
}

// ClaimInput is a claimant's submission.
type ClaimInput struct {
	BusinessID string
	Proof      string
}

// ClaimsService runs the ownership claim workflow.
type ClaimsService struct {
	claims     repository.ClaimsRepository
	businesses repository.BusinessesRepository
	admins     auth.AllowList
	notifier   ClaimNotifier
	maxPending int
}

// NewClaimsService constructs a ClaimsService. A non-positive maxPending uses the default of 3.
func NewClaimsService(claims repository.ClaimsRepository, businesses repository.BusinessesRepository, admins auth.AllowList, notifier ClaimNotifier, maxPending int) *ClaimsService {
	if maxPending <= 0 {
		maxPending = defaultMaxPendingClaims
	}
	return &ClaimsService{
		claims:     claims,
		businesses: businesses,
		admins:     admins,
		notifier:   notifier,
		maxPending: maxPending,
	}
}

func pendingLimitMessage(limit int) string {
	return fmt.Sprintf("You can have at most %d pending claims. Wait for existing claims to be reviewed.", limit)
}

// Submit files a pending claim for the caller.
func (s *ClaimsService) Submit(ctx context.Context, identity *Identity, input ClaimInput) (*entity.Claim, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	rawID := strings.TrimSpace(input.BusinessID)
	if rawID == "" {
		return nil, ValidationError{Message: "business_id is required"}
	}
	businessID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ValidationError{Message: "business_id must be a valid id"}
	}

	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !business.Active {
		return nil, ErrBusinessNotFound
	}

	pending, err := s.claims.CountPendingByUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if pending >= s.maxPending {
		return nil, TooManyPendingClaimsError{Limit: s.maxPending}
	}

	if err := s.checkDuplicate(ctx, identity.UserID, businessID); err != nil {
		return nil, err
	}

	created, err := s.claims.Create(ctx, &entity.Claim{
		BusinessID:   businessID,
		BusinessName: business.Name,
		UserID:       identity.UserID,
		UserEmail:    identity.Email,
		Proof:        truncate(input.Proof, maxProofLength),
	})
	if err != nil {
		if errors.Is(err, repository.ErrClaimDuplicate) {
			if dupErr := s.checkDuplicate(ctx, identity.UserID, businessID); dupErr != nil {
				return nil, dupErr
			}
			return nil, DuplicateClaimError{Message: msgPendingClaim}
		}
		return nil, err
	}

	s.notifier.ClaimReceived(*created)
	return created, nil
}

func (s *ClaimsService) checkDuplicate(ctx context.Context, userID, businessID uuid.UUID) error {
	existing, err := s.claims.FindActive(ctx, userID, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return nil
		}
		return err
	}
	switch {
	case existing.Superseded():
		return DuplicateClaimError{Message: msgOwnershipChanged}
	case existing.Status == entity.ClaimApproved:
		return DuplicateClaimError{Message: msgAlreadyOwner}
	default:
		return DuplicateClaimError{Message: msgPendingClaim}
	}
}

// Decide approves or rejects a pending claim. Emails go out after the
// decision is committed and never affect its outcome.
func (s *ClaimsService) Decide(ctx context.Context, admin *Identity, claimID uuid.UUID, action string) (*entity.Claim, error) {
	if admin == nil {
		return nil, ErrUnauthorized
	}
	if !s.admins.Contains(admin.Email) {
		return nil, ErrForbidden
	}

	switch entity.ClaimStatus(strings.TrimSpace(action)) {
	case entity.ClaimApproved:
		result, err := s.claims.Approve(ctx, claimID)
		if err != nil {
			return nil, mapClaimError(err)
		}
		s.notifier.ClaimApproved(result.Approved)
		for _, rejected := range result.Rejected {
			s.notifier.ClaimRejected(rejected)
		}
		for _, superseded := range result.Superseded {
			s.notifier.OwnershipTransferred(superseded)
		}
		return &result.Approved, nil
	case entity.ClaimRejected:
		claim, err := s.claims.Reject(ctx, claimID)
		if err != nil {
			return nil, mapClaimError(err)
		}
		s.notifier.ClaimRejected(*claim)
		return claim, nil
	default:
		return nil, ErrInvalidDecision
	}
}

// List returns claims for the moderation queue, newest first.
func (s *ClaimsService) List(ctx context.Context, status string) ([]entity.Claim, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return s.claims.List(ctx, nil)
	}
	parsed := entity.ClaimStatus(status)
	if !parsed.Valid() {
		return nil, ValidationError{Message: "status must be pending, approved or rejected"}
	}
	return s.claims.List(ctx, &parsed)
}

// Mine returns the caller's claims.
func (s *ClaimsService) Mine(ctx context.Context, identity *Identity) ([]entity.Claim, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	return s.claims.ListByUser(ctx, identity.UserID)
}

func mapClaimError(err error) error {
	switch {
	case errors.Is(err, repository.ErrClaimNotFound):
		return ErrClaimNotFound
	case errors.Is(err, repository.ErrClaimNotPending):
		return ErrClaimAlreadyReviewed
	case errors.Is(err, repository.ErrBusinessNotFound):
		return ErrBusinessNotFound
	default:
		return err
	}
}
