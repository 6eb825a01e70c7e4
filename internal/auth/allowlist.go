package auth

import "strings"

// AllowList is the set of e-mail addresses granted administrator access.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an allow-list; entries are compared case-insensitively.
func NewAllowList(emails []string) AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if normalized := normalizeEmail(email); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return AllowList{emails: set}
}

// Contains reports whether the address is an administrator.
func (a AllowList) Contains(email string) bool {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return false
	}
	_, ok := a.emails[normalized]
	return ok
}

// Len returns the number of configured administrators.
func (a AllowList) Len() int {
	return len(a.emails)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
