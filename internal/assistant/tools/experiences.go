package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// SearchExperiences queries bookable experiences (boat trips, tastings,
// guided tours).
type SearchExperiences struct {
	client *cms.Client
	shaper *cms.Shaper
}

func NewSearchExperiences(client *cms.Client, shaper *cms.Shaper) *SearchExperiences {
	return &SearchExperiences{client: client, shaper: shaper}
}

func (s *SearchExperiences) Name() string { return "searchExperiences" }

func (s *SearchExperiences) Description() string {
	return "Search bookable experiences and activities (boat trips, tastings, guided tours, lessons). " +
		"Use this when the user asks what they can do or book, rather than what is scheduled. " +
		"Use maxPrice to respect a budget expressed by the user."
}

func (s *SearchExperiences) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"searchText": {"type": "string", "description": "Free-text keywords matched against title and description"},
			"category": {"type": "string", "description": "Category name, partial matches allowed"},
			"maxPrice": {"type": "number", "description": "Maximum price per person in euro"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (s *SearchExperiences) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SearchText string   `json:"searchText"`
		Category   string   `json:"category"`
		MaxPrice   *float64 `json:"maxPrice"`
		Limit      int      `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}
	if params.MaxPrice != nil && *params.MaxPrice < 0 {
		return "", &assistant.ValidationError{Field: "maxPrice", Reason: "must not be negative"}
	}

	filter := cms.ExperienceFilter{
		SearchText: params.SearchText,
		Category:   params.Category,
		MaxPrice:   params.MaxPrice,
		Limit:      params.Limit,
	}

	result, err := s.client.Query(ctx, cms.CollectionExperiences, filter.Params())
	if err != nil {
		return "", queryError("experiences", err)
	}
	if len(result.Records) == 0 {
		return "No experiences found for the given filters.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "experiences"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := s.shaper.ShapeExperience(rec)
		if err != nil {
			return "", fmt.Errorf("shape experience: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, sum.Title)
		if sum.Category != "" {
			fmt.Fprintf(&sb, " [%s]", sum.Category)
		}
		if sum.Price > 0 {
			fmt.Fprintf(&sb, " [€%.2f]", sum.Price)
		}
		if sum.Duration != "" {
			fmt.Fprintf(&sb, " [%s]", sum.Duration)
		}
		sb.WriteString("\n")
		if sum.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", sum.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
