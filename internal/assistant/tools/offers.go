package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// SearchOffers queries promotional offers and discounts.
type SearchOffers struct {
	client *cms.Client
	shaper *cms.Shaper
}

func NewSearchOffers(client *cms.Client, shaper *cms.Shaper) *SearchOffers {
	return &SearchOffers{client: client, shaper: shaper}
}

func (s *SearchOffers) Name() string { return "searchOffers" }

func (s *SearchOffers) Description() string {
	return "Search current offers and discounts (accommodation deals, restaurant promotions, combined tickets). " +
		"Use this when the user asks about deals, discounts or saving money. " +
		"Pass validOn as an ISO date (YYYY-MM-DD) to keep only offers valid on that day."
}

func (s *SearchOffers) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"validOn": {"type": "string", "description": "Keep offers valid on this ISO date (YYYY-MM-DD)"},
			"searchText": {"type": "string", "description": "Free-text keywords matched against title and description"},
			"category": {"type": "string", "description": "Category name, partial matches allowed"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (s *SearchOffers) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		ValidOn    string `json:"validOn"`
		SearchText string `json:"searchText"`
		Category   string `json:"category"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}

	validOn, err := parseDate("validOn", params.ValidOn)
	if err != nil {
		return "", err
	}

	filter := cms.OfferFilter{
		ValidOn:    validOn,
		SearchText: params.SearchText,
		Category:   params.Category,
		Limit:      params.Limit,
	}

	result, err := s.client.Query(ctx, cms.CollectionOffers, filter.Params())
	if err != nil {
		return "", queryError("offers", err)
	}
	if len(result.Records) == 0 {
		return "No offers found for the given filters.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "offers"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := s.shaper.ShapeOffer(rec)
		if err != nil {
			return "", fmt.Errorf("shape offer: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s (valid %s → %s)", i+1, sum.Title, sum.ValidFrom, sum.ValidUntil)
		if sum.Discount != "" {
			fmt.Fprintf(&sb, " [%s]", sum.Discount)
		}
		sb.WriteString("\n")
		if sum.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", sum.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
