package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// SearchPlaces queries points of interest (beaches, monuments,
// viewpoints, museums).
type SearchPlaces struct {
	client *cms.Client
	shaper *cms.Shaper
}

func NewSearchPlaces(client *cms.Client, shaper *cms.Shaper) *SearchPlaces {
	return &SearchPlaces{client: client, shaper: shaper}
}

func (s *SearchPlaces) Name() string { return "searchPointsOfInterest" }

func (s *SearchPlaces) Description() string {
	return "Search points of interest: beaches, monuments, museums, viewpoints, walks. " +
		"Use this when the user asks what to see or visit, or asks about a specific spot."
}

func (s *SearchPlaces) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"searchText": {"type": "string", "description": "Free-text keywords matched against title and description"},
			"category": {"type": "string", "description": "Category name, partial matches allowed (e.g. 'spiagge')"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (s *SearchPlaces) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SearchText string `json:"searchText"`
		Category   string `json:"category"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}

	filter := cms.PlaceFilter{
		SearchText: params.SearchText,
		Category:   params.Category,
		Limit:      params.Limit,
	}

	result, err := s.client.Query(ctx, cms.CollectionPlaces, filter.Params())
	if err != nil {
		return "", queryError("points of interest", err)
	}
	if len(result.Records) == 0 {
		return "No points of interest found for the given filters.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "points of interest"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := s.shaper.ShapePlace(rec)
		if err != nil {
			return "", fmt.Errorf("shape point of interest: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, sum.Title)
		if sum.Category != "" {
			fmt.Fprintf(&sb, " [%s]", sum.Category)
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
