package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/xavisolis/nutmeglocal/internal/entity"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

const (
	kindClaimReceived        = "claim_received"
	kindAdminNewClaim        = "admin_new_claim"
	kindClaimApproved        = "claim_approved"
	kindClaimRejected        = "claim_rejected"
	kindOwnershipTransferred = "ownership_transferred"
	kindSignupConfirmed      = "signup_confirmed"

	defaultSendTimeout = 10 * time.Second
)

// Config configures a Mailer.
type Config struct {
	From        string
	AdminEmail  string
	SiteURL     string
	SendTimeout time.Duration
}

// Mailer renders notification emails and sends them in the background.
// Send failures are logged and never reach the caller.
type Mailer struct {
	sender  Sender
	from    string
	admin   string
	siteURL string
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewMailer builds a Mailer around sender.
func NewMailer(sender Sender, cfg Config) *Mailer {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	return &Mailer{
		sender:  sender,
		from:    cfg.From,
		admin:   strings.TrimSpace(cfg.AdminEmail),
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
		timeout: cfg.SendTimeout,
	}
}

// ClaimReceived acknowledges the claimant and alerts the admin inbox.
func (m *Mailer) ClaimReceived(claim entity.Claim) {
	data := m.claimData(claim)
	m.dispatch(kindClaimReceived, claim.UserEmail, fmt.Sprintf("We received your claim for %s", data.BusinessName), data)
	if m.admin != "" {
		m.dispatch(kindAdminNewClaim, m.admin, fmt.Sprintf("New Claim: %s", data.BusinessName), data)
	}
}

// ClaimApproved tells the claimant they now own the listing.
func (m *Mailer) ClaimApproved(claim entity.Claim) {
	data := m.claimData(claim)
	m.dispatch(kindClaimApproved, claim.UserEmail, fmt.Sprintf("Welcome to NutmegLocal: %s is now yours!", data.BusinessName), data)
}

// ClaimRejected tells the claimant the claim was declined.
func (m *Mailer) ClaimRejected(claim entity.Claim) {
	data := m.claimData(claim)
	m.dispatch(kindClaimRejected, claim.UserEmail, fmt.Sprintf("Update on your claim for %s", data.BusinessName), data)
}

// OwnershipTransferred tells a previous owner that another claim was approved.
func (m *Mailer) OwnershipTransferred(claim entity.Claim) {
	data := m.claimData(claim)
	m.dispatch(kindOwnershipTransferred, claim.UserEmail, fmt.Sprintf("Ownership of %s has changed", data.BusinessName), data)
}

// SignupConfirmed confirms a waitlist signup.
func (m *Mailer) SignupConfirmed(signup entity.EarlyAccessSignup) {
	m.dispatch(kindSignupConfirmed, signup.Email, "You're on the NutmegLocal waitlist!", templateData{
		Email:      signup.Email,
		SiteURL:    m.siteURL,
		IsBusiness: signup.Type == entity.SignupBusiness,
	})
}

// Wait blocks until every dispatched email has been sent or has failed.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func (m *Mailer) claimData(claim entity.Claim) templateData {
	name := claim.BusinessName
	if strings.TrimSpace(name) == "" {
		name = "your business"
	}
	return templateData{BusinessName: name, Email: claim.UserEmail, Proof: claim.Proof, SiteURL: m.siteURL}
}

func (m *Mailer) dispatch(kind, to, subject string, data templateData) {
	if strings.TrimSpace(to) == "" {
		log.Printf("component=mailer kind=%s skipped=true reason=no_recipient", kind)
		return
	}
	html, err := render(kind, data)
	if err != nil {
		log.Printf("component=mailer kind=%s to=%s error=%v", kind, to, err)
		return
	}
	msg := Message{From: m.from, To: []string{to}, Subject: subject, HTML: html}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.sender.Send(ctx, msg); err != nil {
			log.Printf("component=mailer kind=%s to=%s error=%v", kind, to, err)
		}
	}()
}

var (
	_ service.ClaimNotifier  = (*Mailer)(nil)
	_ service.SignupNotifier = (*Mailer)(nil)
)
