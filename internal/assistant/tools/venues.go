package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// SearchVenues queries venues (restaurants, bars, clubs, theatres).
type SearchVenues struct {
	client *cms.Client
	shaper *cms.Shaper
}

func NewSearchVenues(client *cms.Client, shaper *cms.Shaper) *SearchVenues {
	return &SearchVenues{client: client, shaper: shaper}
}

func (s *SearchVenues) Name() string { return "searchVenues" }

func (s *SearchVenues) Description() string {
	return "Search venues in town: restaurants, bars, clubs, theatres, event spaces. " +
		"Use this when the user asks where to eat, drink or go out, or asks about a specific venue by name."
}

func (s *SearchVenues) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"searchText": {"type": "string", "description": "Free-text keywords matched against title and description"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (s *SearchVenues) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SearchText string `json:"searchText"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}

	filter := cms.VenueFilter{
		SearchText: params.SearchText,
		Limit:      params.Limit,
	}

	result, err := s.client.Query(ctx, cms.CollectionVenues, filter.Params())
	if err != nil {
		return "", queryError("venues", err)
	}
	if len(result.Records) == 0 {
		return "No venues found for the given filters.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "venues"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := s.shaper.ShapeVenue(rec)
		if err != nil {
			return "", fmt.Errorf("shape venue: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, sum.Title)
		if sum.Capacity > 0 {
			fmt.Fprintf(&sb, " [capacity %d]", sum.Capacity)
		}
		sb.WriteString("\n")
		if sum.Address != "" {
			fmt.Fprintf(&sb, "   %s\n", sum.Address)
		}
		if sum.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", sum.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
