package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xavisolis/nutmeglocal/internal/auth"
	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

func foundBusiness(name string) *mockBusinessesRepository {
	return &mockBusinessesRepository{getByID: func(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
		return &entity.Business{ID: id, Name: name, Active: true}, nil
	}}
}

func TestClaimsService_Submit(t *testing.T) {
	claimant := &Identity{UserID: uuid.New(), Email: "claimant@example.com"}
	businessID := uuid.New()
	now := time.Now()

	tests := map[string]struct {
		identity   *Identity
		input      ClaimInput
		businesses *mockBusinessesRepository
		claims     *mockClaimsRepository
		wantErr    error
		wantMsg    string
		wantVal    bool
	}{
		"anonymous": {
			input:   ClaimInput{BusinessID: businessID.String()},
			wantErr: ErrUnauthorized,
		},
		"missing business id": {
			identity: claimant,
			wantVal:  true,
		},
		"malformed business id": {
			identity: claimant,
			input:    ClaimInput{BusinessID: "not-a-uuid"},
			wantVal:  true,
		},
		"unknown business": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			businesses: &mockBusinessesRepository{getByID: func(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
				return nil, repository.ErrBusinessNotFound
			}},
			wantErr: ErrBusinessNotFound,
		},
		"inactive business": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			businesses: &mockBusinessesRepository{getByID: func(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
				return &entity.Business{ID: id, Name: "Closed Diner", Active: false}, nil
			}},
			claims: &mockClaimsRepository{create: func(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
				t.Fatalf("no claim may be created for an inactive listing")
				return nil, nil
			}},
			wantErr: ErrBusinessNotFound,
		},
		"too many pending": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			claims: &mockClaimsRepository{countPendingByUser: func(ctx context.Context, userID uuid.UUID) (int, error) {
				return 3, nil
			}},
			wantErr: ErrTooManyPendingClaims,
			wantMsg: "You can have at most 3 pending claims. Wait for existing claims to be reviewed.",
		},
		"pending duplicate": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			claims: &mockClaimsRepository{findActive: func(ctx context.Context, userID, id uuid.UUID) (*entity.Claim, error) {
				return &entity.Claim{Status: entity.ClaimPending}, nil
			}},
			wantErr: ErrDuplicateClaim,
			wantMsg: msgPendingClaim,
		},
		"already owner": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			claims: &mockClaimsRepository{findActive: func(ctx context.Context, userID, id uuid.UUID) (*entity.Claim, error) {
				return &entity.Claim{Status: entity.ClaimApproved}, nil
			}},
			wantErr: ErrDuplicateClaim,
			wantMsg: msgAlreadyOwner,
		},
		"superseded approval": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			claims: &mockClaimsRepository{findActive: func(ctx context.Context, userID, id uuid.UUID) (*entity.Claim, error) {
				return &entity.Claim{Status: entity.ClaimApproved, SupersededAt: &now}, nil
			}},
			wantErr: ErrDuplicateClaim,
			wantMsg: msgOwnershipChanged,
		},
		"insert race maps to duplicate": {
			identity: claimant,
			input:    ClaimInput{BusinessID: businessID.String()},
			claims: &mockClaimsRepository{create: func(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
				return nil, repository.ErrClaimDuplicate
			}},
			wantErr: ErrDuplicateClaim,
			wantMsg: msgPendingClaim,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			businesses := tc.businesses
			if businesses == nil {
				businesses = foundBusiness("Nutmeg Bakery")
			}
			claims := tc.claims
			if claims == nil {
				claims = &mockClaimsRepository{}
			}
			notifier := &recordingNotifier{}
			svc := NewClaimsService(claims, businesses, auth.NewAllowList(nil), notifier, 3)

			_, err := svc.Submit(context.Background(), tc.identity, tc.input)
			if tc.wantVal {
				var vErr ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantMsg != "" && err.Error() != tc.wantMsg {
				t.Fatalf("unexpected message %q", err.Error())
			}
			if len(notifier.events) != 0 {
				t.Fatalf("no notification expected on failure, got %v", notifier.events)
			}
		})
	}
}

func TestClaimsService_SubmitCreatesPendingClaim(t *testing.T) {
	claimant := &Identity{UserID: uuid.New(), Email: "claimant@example.com"}
	businessID := uuid.New()

	var stored *entity.Claim
	claims := &mockClaimsRepository{create: func(ctx context.Context, claim *entity.Claim) (*entity.Claim, error) {
		stored = claim
		out := *claim
		out.ID = uuid.New()
		out.Status = entity.ClaimPending
		out.CreatedAt = time.Now()
		return &out, nil
	}}
	notifier := &recordingNotifier{}
	svc := NewClaimsService(claims, foundBusiness("Nutmeg Bakery"), auth.NewAllowList(nil), notifier, 0)

	claim, err := svc.Submit(context.Background(), claimant, ClaimInput{BusinessID: " " + businessID.String() + " ", Proof: "  I own it  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.Status != entity.ClaimPending {
		t.Fatalf("expected pending status, got %s", claim.Status)
	}
	if stored.BusinessID != businessID || stored.UserID != claimant.UserID || stored.UserEmail != claimant.Email {
		t.Fatalf("unexpected stored claim: %+v", stored)
	}
	if stored.Proof != "I own it" || stored.BusinessName != "Nutmeg Bakery" {
		t.Fatalf("unexpected proof or name: %+v", stored)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "received:claimant@example.com" {
		t.Fatalf("unexpected notifications: %v", notifier.events)
	}
}

func TestClaimsService_Decide(t *testing.T) {
	admin := &Identity{UserID: uuid.New(), Email: "Admin@NutmegLocal.com"}
	admins := auth.NewAllowList([]string{"admin@nutmeglocal.com"})
	claimID := uuid.New()

	t.Run("approve notifies every affected claimant", func(t *testing.T) {
		claims := &mockClaimsRepository{approve: func(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error) {
			return repository.ApprovalResult{
				Approved:   entity.Claim{ID: id, UserEmail: "winner@example.com", Status: entity.ClaimApproved},
				Rejected:   []entity.Claim{{UserEmail: "rival@example.com", Status: entity.ClaimRejected}},
				Superseded: []entity.Claim{{UserEmail: "former@example.com", Status: entity.ClaimApproved}},
			}, nil
		}}
		notifier := &recordingNotifier{}
		svc := NewClaimsService(claims, &mockBusinessesRepository{}, admins, notifier, 3)

		claim, err := svc.Decide(context.Background(), admin, claimID, "approved")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claim.ID != claimID || claim.Status != entity.ClaimApproved {
			t.Fatalf("unexpected claim: %+v", claim)
		}
		want := []string{"approved:winner@example.com", "rejected:rival@example.com", "transferred:former@example.com"}
		if len(notifier.events) != len(want) {
			t.Fatalf("unexpected notifications: %v", notifier.events)
		}
		for i := range want {
			if notifier.events[i] != want[i] {
				t.Fatalf("notification %d = %q, want %q", i, notifier.events[i], want[i])
			}
		}
	})

	t.Run("reject", func(t *testing.T) {
		claims := &mockClaimsRepository{reject: func(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
			return &entity.Claim{ID: id, UserEmail: "claimant@example.com", Status: entity.ClaimRejected}, nil
		}}
		notifier := &recordingNotifier{}
		svc := NewClaimsService(claims, &mockBusinessesRepository{}, admins, notifier, 3)

		claim, err := svc.Decide(context.Background(), admin, claimID, "rejected")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claim.Status != entity.ClaimRejected {
			t.Fatalf("unexpected status %s", claim.Status)
		}
		if len(notifier.events) != 1 || notifier.events[0] != "rejected:claimant@example.com" {
			t.Fatalf("unexpected notifications: %v", notifier.events)
		}
	})

	errorCases := map[string]struct {
		identity *Identity
		action   string
		claims   *mockClaimsRepository
		wantErr  error
	}{
		"anonymous":     {action: "approved", wantErr: ErrUnauthorized},
		"not an admin":  {identity: &Identity{Email: "owner@example.com"}, action: "approved", wantErr: ErrForbidden},
		"bad action":    {identity: admin, action: "pending", wantErr: ErrInvalidDecision},
		"empty action":  {identity: admin, action: "", wantErr: ErrInvalidDecision},
		"missing claim": {identity: admin, action: "approved", wantErr: ErrClaimNotFound},
		"already reviewed": {
			identity: admin,
			action:   "rejected",
			claims: &mockClaimsRepository{reject: func(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
				return nil, repository.ErrClaimNotPending
			}},
			wantErr: ErrClaimAlreadyReviewed,
		},
	}

	for name, tc := range errorCases {
		t.Run(name, func(t *testing.T) {
			claims := tc.claims
			if claims == nil {
				claims = &mockClaimsRepository{approve: func(ctx context.Context, id uuid.UUID) (repository.ApprovalResult, error) {
					return repository.ApprovalResult{}, repository.ErrClaimNotFound
				}}
			}
			notifier := &recordingNotifier{}
			svc := NewClaimsService(claims, &mockBusinessesRepository{}, admins, notifier, 3)

			if _, err := svc.Decide(context.Background(), tc.identity, claimID, tc.action); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(notifier.events) != 0 {
				t.Fatalf("no notification expected, got %v", notifier.events)
			}
		})
	}
}

func TestClaimsService_List(t *testing.T) {
	var gotStatus *entity.ClaimStatus
	claims := &mockClaimsRepository{list: func(ctx context.Context, status *entity.ClaimStatus) ([]entity.Claim, error) {
		gotStatus = status
		return []entity.Claim{}, nil
	}}
	svc := NewClaimsService(claims, &mockBusinessesRepository{}, auth.NewAllowList(nil), &recordingNotifier{}, 3)

	if _, err := svc.List(context.Background(), "pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus == nil || *gotStatus != entity.ClaimPending {
		t.Fatalf("expected pending filter, got %v", gotStatus)
	}

	if _, err := svc.List(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != nil {
		t.Fatalf("expected no filter, got %v", *gotStatus)
	}

	var vErr ValidationError
	if _, err := svc.List(context.Background(), "archived"); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
