package cms

import (
	"encoding/json"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Ellipsis marks a truncated description.
const Ellipsis = "…"

// DefaultDescriptionLimit is the character budget for shaped
// descriptions when none is configured.
const DefaultDescriptionLimit = 280

// Shaper projects raw CMS records into compact summaries safe to feed
// back into the model. Shaped output never carries the full description
// or internal-only fields.
type Shaper struct {
	limit int
}

// NewShaper creates a Shaper with the given description character
// budget. Non-positive budgets fall back to the default.
func NewShaper(limit int) *Shaper {
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}
	return &Shaper{limit: limit}
}

// EventSummary is the shaped projection of an event record.
type EventSummary struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Address     string  `json:"address,omitempty"`
	Free        bool    `json:"free"`
	Price       float64 `json:"price,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// ExperienceSummary is the shaped projection of an experience record.
type ExperienceSummary struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    string  `json:"duration,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
}

// PlaceSummary is the shaped projection of a point-of-interest record.
type PlaceSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address,omitempty"`
	Category    string `json:"category,omitempty"`
}

// VenueSummary is the shaped projection of a venue record.
type VenueSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
}

// OfferSummary is the shaped projection of an offer record.
type OfferSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ValidFrom   string `json:"validFrom"`
	ValidUntil  string `json:"validUntil"`
	Discount    string `json:"discount,omitempty"`
	Category    string `json:"category,omitempty"`
}

// CategorySummary is the shaped projection of a category record.
type CategorySummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Shaper) ShapeEvent(rec Record) (EventSummary, error) {
	var a eventAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return EventSummary{}, fmt.Errorf("decode event %d: %w", rec.ID, err)
	}
	return EventSummary{
		Title:       a.Title,
		Description: s.description(a.Description),
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		Address:     a.Address,
		Free:        a.Free,
		Price:       a.Price,
		Category:    a.Category.title(),
	}, nil
}

func (s *Shaper) ShapeExperience(rec Record) (ExperienceSummary, error) {
	var a experienceAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return ExperienceSummary{}, fmt.Errorf("decode experience %d: %w", rec.ID, err)
	}
	return ExperienceSummary{
		Title:       a.Title,
		Description: s.description(a.Description),
		Duration:    a.Duration,
		Price:       a.Price,
		Category:    a.Category.title(),
	}, nil
}

func (s *Shaper) ShapePlace(rec Record) (PlaceSummary, error) {
	var a placeAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return PlaceSummary{}, fmt.Errorf("decode point of interest %d: %w", rec.ID, err)
	}
	return PlaceSummary{
		Title:       a.Title,
		Description: s.description(a.Description),
		Address:     a.Address,
		Category:    a.Category.title(),
	}, nil
}

func (s *Shaper) ShapeVenue(rec Record) (VenueSummary, error) {
	var a venueAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return VenueSummary{}, fmt.Errorf("decode venue %d: %w", rec.ID, err)
	}
	return VenueSummary{
		Title:       a.Title,
		Description: s.description(a.Description),
		Address:     a.Address,
		Capacity:    a.Capacity,
	}, nil
}

func (s *Shaper) ShapeOffer(rec Record) (OfferSummary, error) {
	var a offerAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return OfferSummary{}, fmt.Errorf("decode offer %d: %w", rec.ID, err)
	}
	return OfferSummary{
		Title:       a.Title,
		Description: s.description(a.Description),
		ValidFrom:   a.ValidFrom,
		ValidUntil:  a.ValidUntil,
		Discount:    a.Discount,
		Category:    a.Category.title(),
	}, nil
}

func (s *Shaper) ShapeCategory(rec Record) (CategorySummary, error) {
	var a categoryAttrs
	if err := json.Unmarshal(rec.Attributes, &a); err != nil {
		return CategorySummary{}, fmt.Errorf("decode category %d: %w", rec.ID, err)
	}
	return CategorySummary{
		Name:        a.Name,
		Description: s.description(a.Description),
	}, nil
}

// description strips markup if present and truncates to the budget.
func (s *Shaper) description(raw string) string {
	return Truncate(stripMarkup(raw), s.limit)
}

// stripMarkup converts rich-text markup to plain markdown text. CMS
// description fields are rich text and arrive as HTML.
func stripMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(md)
}

// Truncate cuts text to the given rune budget, appending the ellipsis
// marker iff the text met or exceeded the budget. Reapplying it to its
// own output yields the same string.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) < limit {
		return text
	}
	return string(runes[:limit]) + Ellipsis
}
