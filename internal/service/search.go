package service

import (
	"regexp"
	"strings"
)

// Towns lists the Greater Danbury towns the directory covers.
var Towns = []string{
	"Danbury",
	"Bethel",
	"Brookfield",
	"Kent",
	"New Fairfield",
	"New Milford",
	"Newtown",
	"Redding",
	"Ridgefield",
	"Sherman",
}

var townPattern = regexp.MustCompile(`(?i)^(?:(.*)\s+)?(?:in|near)\s+([a-z][a-z\s]*?)\s*,?\s*(?:ct|connecticut)?$`)

// SearchQuery is a parsed free-text directory search.
type SearchQuery struct {
	Terms string
	City  string
}

// ParseSearch splits "plumbers in New Milford" into terms and a known town.
// Unknown towns leave the query untouched.
func ParseSearch(q string) SearchQuery {
	q = strings.Join(strings.Fields(q), " ")
	match := townPattern.FindStringSubmatch(q)
	if len(match) < 3 {
		return SearchQuery{Terms: q}
	}
	town, ok := lookupTown(match[2])
	if !ok {
		return SearchQuery{Terms: q}
	}
	return SearchQuery{Terms: strings.TrimSpace(match[1]), City: town}
}

func lookupTown(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, town := range Towns {
		if strings.EqualFold(town, value) {
			return town, true
		}
	}
	return "", false
}

// TownSlug renders a town the way listing URLs do: "New Milford" becomes "new-milford".
func TownSlug(town string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(town)), " ", "-")
}
