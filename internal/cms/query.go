package cms

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Pagination bounds. Callers may raise the page size up to the cap;
// anything above it is clamped so a single tool call cannot flood the
// conversation context.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

const dateLayout = "2006-01-02"

// EventFilter selects events. All fields are optional; zero values are
// omitted from the emitted parameters.
type EventFilter struct {
	// StartDate and EndDate select events overlapping the window.
	StartDate *time.Time
	EndDate   *time.Time
	// SearchText matches title or description, case-insensitively.
	SearchText string
	// Category matches the related category name by substring.
	Category string
	// Free filters on the free-of-charge flag. Nil means no filter.
	Free  *bool
	Limit int
}

// Params renders the filter as CMS query parameters.
func (f EventFilter) Params() url.Values {
	v := url.Values{}
	addWindow(v, "startDate", "endDate", f.StartDate, f.EndDate)
	addSearch(v, f.SearchText)
	addCategory(v, f.Category)
	if f.Free != nil {
		v.Set("filters[free][$eq]", strconv.FormatBool(*f.Free))
	}
	v.Set("sort", "startDate:asc")
	addDisplay(v, f.Limit)
	return v
}

// ExperienceFilter selects bookable experiences.
type ExperienceFilter struct {
	SearchText string
	Category   string
	// MaxPrice keeps experiences at or under the given price. Nil means
	// no price filter.
	MaxPrice *float64
	Limit    int
}

func (f ExperienceFilter) Params() url.Values {
	v := url.Values{}
	addSearch(v, f.SearchText)
	addCategory(v, f.Category)
	if f.MaxPrice != nil {
		v.Set("filters[price][$lte]", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	addDisplay(v, f.Limit)
	return v
}

// PlaceFilter selects points of interest.
type PlaceFilter struct {
	SearchText string
	Category   string
	Limit      int
}

func (f PlaceFilter) Params() url.Values {
	v := url.Values{}
	addSearch(v, f.SearchText)
	addCategory(v, f.Category)
	addDisplay(v, f.Limit)
	return v
}

// VenueFilter selects venues.
type VenueFilter struct {
	SearchText string
	Limit      int
}

func (f VenueFilter) Params() url.Values {
	v := url.Values{}
	addSearch(v, f.SearchText)
	addDisplay(v, f.Limit)
	return v
}

// OfferFilter selects offers valid in a date window.
type OfferFilter struct {
	ValidOn    *time.Time
	SearchText string
	Category   string
	Limit      int
}

func (f OfferFilter) Params() url.Values {
	v := url.Values{}
	addWindow(v, "validFrom", "validUntil", f.ValidOn, f.ValidOn)
	addSearch(v, f.SearchText)
	addCategory(v, f.Category)
	addDisplay(v, f.Limit)
	return v
}

// CategoryFilter selects categories by name.
type CategoryFilter struct {
	SearchText string
	Limit      int
}

func (f CategoryFilter) Params() url.Values {
	v := url.Values{}
	if f.SearchText != "" {
		v.Set("filters[name][$containsi]", f.SearchText)
	}
	v.Set("pagination[pageSize]", strconv.Itoa(clampLimit(f.Limit)))
	return v
}

// addWindow emits the overlap predicate for a record interval
// [startField, endField] against the requested window [start, end]:
// a record overlaps iff startField <= end AND endField >= start.
// With only one bound supplied the predicate degrades to a single
// comparison on the matching record field.
func addWindow(v url.Values, startField, endField string, start, end *time.Time) {
	if end != nil {
		v.Set(fmt.Sprintf("filters[%s][$lte]", startField), end.Format(dateLayout))
	}
	if start != nil {
		v.Set(fmt.Sprintf("filters[%s][$gte]", endField), start.Format(dateLayout))
	}
}

// addSearch emits a case-insensitive substring disjunction over title
// and description.
func addSearch(v url.Values, q string) {
	if q == "" {
		return
	}
	v.Set("filters[$or][0][title][$containsi]", q)
	v.Set("filters[$or][1][description][$containsi]", q)
}

// addCategory matches the related category by name substring, so the
// model can pass natural-language category names ("musica", "food").
func addCategory(v url.Values, category string) {
	if category == "" {
		return
	}
	v.Set("filters[category][name][$containsi]", category)
}

// addDisplay requests the relations needed for display and sets the
// page size.
func addDisplay(v url.Values, limit int) {
	v.Set("populate[category]", "true")
	v.Set("populate[cover]", "true")
	v.Set("pagination[pageSize]", strconv.Itoa(clampLimit(limit)))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
