package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// SearchEvents queries the events collection of the tourism CMS.
type SearchEvents struct {
	client *cms.Client
	shaper *cms.Shaper
}

// NewSearchEvents creates the event search tool.
func NewSearchEvents(client *cms.Client, shaper *cms.Shaper) *SearchEvents {
	return &SearchEvents{client: client, shaper: shaper}
}

func (s *SearchEvents) Name() string { return "searchEvents" }

func (s *SearchEvents) Description() string {
	return "Search events in town (concerts, festivals, markets, exhibitions). " +
		"Use this whenever the user asks what is happening, today or on specific dates. " +
		"Pass startDate and endDate as ISO dates (YYYY-MM-DD); for a single day set both to that day. " +
		"Use searchText for keywords, category for a category name, and free=true to keep only free events."
}

func (s *SearchEvents) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"startDate": {"type": "string", "description": "Window start, ISO date (YYYY-MM-DD)"},
			"endDate": {"type": "string", "description": "Window end, ISO date (YYYY-MM-DD)"},
			"searchText": {"type": "string", "description": "Free-text keywords matched against title and description"},
			"category": {"type": "string", "description": "Category name, partial matches allowed (e.g. 'musica')"},
			"free": {"type": "boolean", "description": "Only free events when true, only paid when false; omit for both"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (s *SearchEvents) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
		SearchText string `json:"searchText"`
		Category   string `json:"category"`
		Free       *bool  `json:"free"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}

	start, err := parseDate("startDate", params.StartDate)
	if err != nil {
		return "", err
	}
	end, err := parseDate("endDate", params.EndDate)
	if err != nil {
		return "", err
	}
	if start != nil && end != nil && start.After(*end) {
		return "", &assistant.ValidationError{Field: "startDate", Reason: "must not be after endDate"}
	}

	filter := cms.EventFilter{
		StartDate:  start,
		EndDate:    end,
		SearchText: params.SearchText,
		Category:   params.Category,
		Free:       params.Free,
		Limit:      params.Limit,
	}

	result, err := s.client.Query(ctx, cms.CollectionEvents, filter.Params())
	if err != nil {
		return "", queryError("events", err)
	}
	if len(result.Records) == 0 {
		return "No events found for the given filters.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "events"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := s.shaper.ShapeEvent(rec)
		if err != nil {
			return "", fmt.Errorf("shape event: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s (%s → %s)", i+1, sum.Title, sum.StartDate, sum.EndDate)
		if sum.Category != "" {
			fmt.Fprintf(&sb, " [%s]", sum.Category)
		}
		if sum.Free {
			sb.WriteString(" [free]")
		} else if sum.Price > 0 {
			fmt.Fprintf(&sb, " [€%.2f]", sum.Price)
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
