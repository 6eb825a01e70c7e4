package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xavisolis/nutmeglocal/internal/geocode"
	"github.com/xavisolis/nutmeglocal/internal/repository"
)

const (
	geocodeBatchSize         = 10
	defaultGeocodeBatchDelay = 100 * time.Millisecond
)

var (
	requiredCSVHeaders = []string{"name", "category", "address", "city"}
	slugInvalidChars   = regexp.MustCompile(`[^a-z0-9]+`)
	streetNumberExpr   = regexp.MustCompile(`^\d`)
	streetSuffixExpr   = regexp.MustCompile(`(?i)\b(st|street|rd|road|ave|avenue|ln|lane|dr|drive|pl|place|way|blvd|ct|court|hwy|highway|route|rte|tpke|turnpike)\b\.?`)
)

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// ImportOptions controls a bulk import.
type ImportOptions struct {
	// ReplaceUnclaimed deletes every unclaimed listing before inserting.
	ReplaceUnclaimed bool
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Deleted  int      `json:"deleted"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Geocoded int      `json:"geocoded"`
	Fallback int      `json:"fallback"`
	Emails   []string `json:"emails"`
}

// ImportService loads listings from CSV, geocoding real street addresses.
type ImportService struct {
	categories repository.CategoriesRepository
	businesses repository.BusinessesRepository
	contact    *ContactNormalizer
	geocoder   geocode.Geocoder
	batchDelay time.Duration
	rnd        func() float64
	sleep      func(time.Duration)
}

// NewImportService constructs an ImportService. A nil geocoder places every listing at its town centre.
func NewImportService(categories repository.CategoriesRepository, businesses repository.BusinessesRepository, contact *ContactNormalizer, geocoder geocode.Geocoder, batchDelay time.Duration) *ImportService {
	if batchDelay < 0 {
		batchDelay = defaultGeocodeBatchDelay
	}
	return &ImportService{
		categories: categories,
		businesses: businesses,
		contact:    contact,
		geocoder:   geocoder,
		batchDelay: batchDelay,
		rnd:        rand.Float64,
		sleep:      time.Sleep,
	}
}

type categoryRef struct {
	id            uuid.UUID
	subcategories map[string]uuid.UUID
}

type pendingGeocode struct {
	index   int
	address string
	city    string
	zip     string
}

// Import parses the CSV, resolves categories, slugs and coordinates, and
// inserts the listings in one transaction.
func (s *ImportService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}
	index, err := buildHeaderIndex(header)
	if err != nil {
		return ImportSummary{}, err
	}

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return ImportSummary{}, err
	}

	var (
		summary    ImportSummary
		records    []repository.BusinessImportInput
		toGeocode  []pendingGeocode
		slugCounts = make(map[string]int)
		rowNum     = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportSummary{}, fmt.Errorf("read csv row: %w", err)
		}
		rowNum++

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := field("name")
		if name == "" {
			summary.Skipped++
			continue
		}
		city := canonicalTown(field("city"))
		if _, ok := geocode.TownCenter(city); !ok {
			log.Printf("component=import row=%d name=%q skipped=true reason=unknown_city city=%q", rowNum, name, field("city"))
			summary.Skipped++
			continue
		}

		category, ok := categories[lookupKey(field("category"))]
		if !ok {
			return ImportSummary{}, CSVValidationError{Message: fmt.Sprintf("unknown category %q on row %d", field("category"), rowNum)}
		}
		record := repository.BusinessImportInput{
			Name:       name,
			CategoryID: &category.id,
			City:       city,
			State:      "CT",
		}
		if sub := field("subcategory"); sub != "" {
			subID, ok := category.subcategories[lookupKey(sub)]
			if !ok {
				return ImportSummary{}, CSVValidationError{Message: fmt.Sprintf("unknown subcategory %q on row %d", sub, rowNum)}
			}
			record.SubcategoryID = &subID
		}
		if state := field("state"); state != "" {
			record.State = strings.ToUpper(state)
		}

		base := makeSlug(name)
		key := city + ":" + base
		slugCounts[key]++
		record.Slug = base
		if n := slugCounts[key]; n > 1 {
			record.Slug = fmt.Sprintf("%s-%d", base, n)
		}

		zip := field("zip")
		record.Zip = optionalString(zip)
		record.Description = optionalString(field("description"))
		record.Phone = optionalString(s.contact.LenientPhone(field("phone")))
		if email, err := s.contact.EmailSyntax(field("email")); err == nil {
			record.Email = &email
		}
		if website, err := s.contact.Website(field("website")); err == nil {
			record.Website = optionalString(website)
		}

		address := field("address")
		if hasRealAddress(address, city) {
			record.Address = &address
			toGeocode = append(toGeocode, pendingGeocode{index: len(records), address: address, city: city, zip: zip})
		} else {
			display := strings.TrimSpace(fmt.Sprintf("%s, CT %s", city, zip))
			record.Address = &display
		}

		records = append(records, record)
	}

	s.geocodeAll(ctx, records, toGeocode, &summary)

	for i := range records {
		if records[i].Lat != nil {
			continue
		}
		center, _ := geocode.TownCenter(records[i].City)
		p := geocode.Jitter(center, s.rnd)
		records[i].Lat, records[i].Lng = &p.Lat, &p.Lng
		summary.Fallback++
	}

	result, err := s.businesses.ImportBusinesses(ctx, records, opts.ReplaceUnclaimed)
	if err != nil {
		return ImportSummary{}, err
	}
	summary.Deleted = result.Deleted
	summary.Inserted = result.Inserted
	summary.Skipped += result.Skipped
	summary.Emails = collectEmails(records)

	log.Printf("component=import inserted=%d skipped=%d geocoded=%d fallback=%d deleted=%d",
		summary.Inserted, summary.Skipped, summary.Geocoded, summary.Fallback, summary.Deleted)
	return summary, nil
}

func (s *ImportService) geocodeAll(ctx context.Context, records []repository.BusinessImportInput, pending []pendingGeocode, summary *ImportSummary) {
	if s.geocoder == nil || len(pending) == 0 {
		return
	}

	points := make([]*geocode.Point, len(pending))
	for start := 0; start < len(pending); start += geocodeBatchSize {
		end := min(start+geocodeBatchSize, len(pending))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			item := pending[i]
			g.Go(func() error {
				if p, ok := s.geocoder.Lookup(gctx, item.address, item.city, item.zip); ok {
					points[i] = &p
				}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(pending) && s.batchDelay > 0 {
			s.sleep(s.batchDelay)
		}
	}

	for i, p := range points {
		if p == nil {
			continue
		}
		lat, lng := p.Lat, p.Lng
		records[pending[i].index].Lat = &lat
		records[pending[i].index].Lng = &lng
		summary.Geocoded++
	}
}

func (s *ImportService) loadCategories(ctx context.Context) (map[string]categoryRef, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]categoryRef, len(list)*2)
	for _, category := range list {
		ref := categoryRef{id: category.ID, subcategories: make(map[string]uuid.UUID, len(category.Subcategories)*2)}
		for _, sub := range category.Subcategories {
			ref.subcategories[lookupKey(sub.Slug)] = sub.ID
			ref.subcategories[lookupKey(sub.Name)] = sub.ID
		}
		refs[lookupKey(category.Slug)] = ref
		refs[lookupKey(category.Name)] = ref
	}
	return refs, nil
}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

// makeSlug turns "Joe's Pizza & Grill" into "joes-pizza-and-grill".
func makeSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.NewReplacer("'", "", "’", "", "&", "and").Replace(slug)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// hasRealAddress rejects placeholders such as the bare town name or "Danbury area".
func hasRealAddress(address, city string) bool {
	clean := strings.ToLower(strings.TrimSpace(address))
	if clean == "" || clean == strings.ToLower(city) {
		return false
	}
	if strings.Contains(clean, "area") && len(clean) < 30 {
		return false
	}
	return streetNumberExpr.MatchString(clean) || streetSuffixExpr.MatchString(clean)
}

func canonicalTown(raw string) string {
	if town, ok := lookupTown(raw); ok {
		return town
	}
	return strings.TrimSpace(raw)
}

func lookupKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func collectEmails(records []repository.BusinessImportInput) []string {
	seen := make(map[string]struct{})
	emails := make([]string, 0)
	for _, record := range records {
		if record.Email == nil {
			continue
		}
		if _, dup := seen[*record.Email]; dup {
			continue
		}
		seen[*record.Email] = struct{}{}
		emails = append(emails, *record.Email)
	}
	return emails
}
