package service

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/xavisolis/nutmeglocal/internal/dto"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
	mxLookupTimeout    = 3 * time.Second
	// MaxPhotos caps the photo gallery of a listing.
	MaxPhotos = 10
)

var weekdayKeys = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// ContactNormalizer cleans the contact fields owners and imports provide.
type ContactNormalizer struct {
	Region      string
	dnsResolver DNSResolver
}

// ContactOption configures optional dependencies.
type ContactOption func(*ContactNormalizer)

// WithDNSResolver overrides the default DNS resolver.
func WithDNSResolver(resolver DNSResolver) ContactOption {
	return func(n *ContactNormalizer) {
		n.dnsResolver = resolver
	}
}

// NewContactNormalizer builds a normalizer; the region defaults to US.
func NewContactNormalizer(region string, opts ...ContactOption) *ContactNormalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	n := &ContactNormalizer{Region: region, dnsResolver: systemDNSResolver{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Phone validates a number and formats it nationally, e.g. "(203) 555-0100".
func (n *ContactNormalizer) Phone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	number, err := phonenumbers.Parse(raw, n.Region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", ValidationError{Message: fmt.Sprintf("invalid phone number %q", raw)}
	}
	return phonenumbers.Format(number, phonenumbers.NATIONAL), nil
}

// LenientPhone formats what it can; imported data falls back to raw digit grouping.
func (n *ContactNormalizer) LenientPhone(raw string) string {
	if formatted, err := n.Phone(raw); err == nil {
		return formatted
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// EmailSyntax lowercases an address and checks its syntax and IDNA domain.
func (n *ContactNormalizer) EmailSyntax(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return "", ValidationError{Message: "a valid email is required"}
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if !isDomainValid(domain) {
		return "", ValidationError{Message: "a valid email is required"}
	}
	if ascii, err := idnaProfile.ToASCII(domain); err != nil || ascii == "" {
		return "", ValidationError{Message: "a valid email is required"}
	}
	return email, nil
}

// Email checks syntax and requires the domain to accept mail.
func (n *ContactNormalizer) Email(ctx context.Context, raw string) (string, error) {
	email, err := n.EmailSyntax(raw)
	if err != nil {
		return "", err
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	ascii, _ := idnaProfile.ToASCII(domain)
	if !n.hasMXRecord(ctx, ascii) {
		return "", ValidationError{Message: fmt.Sprintf("email domain %s does not accept mail", domain)}
	}
	return email, nil
}

// Website defaults the scheme to https and strips utm_* parameters.
func (n *ContactNormalizer) Website(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	u, err := sanitizeURL(raw)
	if err != nil {
		return "", ValidationError{Message: "website must be a valid URL"}
	}
	stripTracking(u)
	return u.String(), nil
}

// Hours keeps mon..sun keys with non-blank values.
func (n *ContactNormalizer) Hours(raw map[string]string) (map[string]string, error) {
	hours := make(map[string]string, len(raw))
	for key, value := range raw {
		day := strings.ToLower(strings.TrimSpace(key))
		if _, ok := weekdayKeys[day]; !ok {
			return nil, ValidationError{Message: fmt.Sprintf("unknown hours key %q", key)}
		}
		if value = strings.TrimSpace(value); value != "" {
			hours[day] = value
		}
	}
	return hours, nil
}

// Photos enforces the gallery limit and drops blank entries.
func (n *ContactNormalizer) Photos(raw []string) ([]string, error) {
	photos := make([]string, 0, len(raw))
	for _, photo := range raw {
		if photo = strings.TrimSpace(photo); photo != "" {
			photos = append(photos, photo)
		}
	}
	if len(photos) > MaxPhotos {
		return nil, ValidationError{Message: fmt.Sprintf("at most %d photos are allowed", MaxPhotos)}
	}
	return photos, nil
}

// Patch normalizes every contact field present in the patch.
func (n *ContactNormalizer) Patch(ctx context.Context, patch dto.BusinessPatch) (dto.BusinessPatch, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return patch, ValidationError{Message: "name cannot be empty"}
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone, err := n.Phone(*patch.Phone)
		if err != nil {
			return patch, err
		}
		patch.Phone = &phone
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		email, err := n.Email(ctx, *patch.Email)
		if err != nil {
			return patch, err
		}
		patch.Email = &email
	}
	if patch.Website != nil {
		website, err := n.Website(*patch.Website)
		if err != nil {
			return patch, err
		}
		patch.Website = &website
	}
	if patch.Hours != nil {
		hours, err := n.Hours(*patch.Hours)
		if err != nil {
			return patch, err
		}
		patch.Hours = &hours
	}
	if patch.Photos != nil {
		photos, err := n.Photos(*patch.Photos)
		if err != nil {
			return patch, err
		}
		patch.Photos = &photos
	}
	return patch, nil
}

func (n *ContactNormalizer) hasMXRecord(ctx context.Context, domain string) bool {
	if n.dnsResolver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, mxLookupTimeout)
	defer cancel()
	records, err := n.dnsResolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
