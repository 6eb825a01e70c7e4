package scoring

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

const (
	categoryContact = "contact"
	categoryProfile = "profile"
	categoryHours   = "hours"
	categoryPhotos  = "photos"

	minDescriptionLength = 40
	weekDays             = 7
)

var freeHostingDomains = []string{
	"wordpress.com",
	"blogspot.com",
	"wixsite.com",
	"weebly.com",
	"squarespace.com",
	"godaddysites.com",
	"business.site",
	"facebook.com",
	"notion.site",
}

// Completeness reports how complete a listing's profile is, out of 100.
type Completeness struct {
	Total     int
	Breakdown map[string]int
	Missing   []string
}

// ComputeCompleteness scores the owner-editable parts of a listing.
func ComputeCompleteness(b entity.Business) Completeness {
	var missing []string
	miss := func(field string) { missing = append(missing, field) }

	breakdown := map[string]int{
		categoryContact: scoreContact(b, miss),
		categoryProfile: scoreProfile(b, miss),
		categoryHours:   scoreHours(b.Hours, miss),
		categoryPhotos:  scorePhotos(b.Photos, miss),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}
	if missing == nil {
		missing = []string{}
	}
	return Completeness{Total: total, Breakdown: breakdown, Missing: missing}
}

func scoreContact(b entity.Business, miss func(string)) int {
	score := 0
	if present(b.Phone) {
		score += 10
	} else {
		miss("phone")
	}
	if present(b.Email) {
		score += 10
	} else {
		miss("email")
	}
	switch {
	case !present(b.Website):
		miss("website")
	case highQualityDomain(*b.Website):
		score += 10
	default:
		score += 5
	}
	return score
}

func scoreProfile(b entity.Business, miss func(string)) int {
	score := 0
	switch {
	case !present(b.Description):
		miss("description")
	case len([]rune(strings.TrimSpace(*b.Description))) >= minDescriptionLength:
		score += 15
	default:
		score += 8
	}
	if b.CategoryID != nil {
		score += 10
	} else {
		miss("category")
	}
	if b.Address != nil && hasStreetAddress(*b.Address) {
		score += 5
	} else {
		miss("address")
	}
	return score
}

func scoreHours(hours map[string]string, miss func(string)) int {
	days := 0
	for _, value := range hours {
		if strings.TrimSpace(value) != "" {
			days++
		}
	}
	switch {
	case days == 0:
		miss("hours")
		return 0
	case days >= weekDays:
		return 20
	default:
		return min(days*3, 20)
	}
}

func scorePhotos(photos []string, miss func(string)) int {
	count := 0
	for _, photo := range photos {
		if strings.TrimSpace(photo) != "" {
			count++
		}
	}
	if count == 0 {
		miss("photos")
	}
	return min(count*5, 20)
}

func present(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func hasStreetAddress(raw string) bool {
	addr := strings.TrimSpace(raw)
	if len(addr) < 6 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range addr {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func highQualityDomain(raw string) bool {
	domain := extractDomain(raw)
	if domain == "" {
		return false
	}
	for _, bad := range freeHostingDomains {
		if domain == bad || strings.HasSuffix(domain, "."+bad) {
			return false
		}
	}
	return strings.Count(domain, ".") >= 1
}

func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if !strings.Contains(lowered, "://") {
		lowered = "https://" + lowered
	}
	parsed, err := url.Parse(lowered)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
