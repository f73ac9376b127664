package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// ListCategories lists the content categories available in the CMS.
type ListCategories struct {
	client *cms.Client
	shaper *cms.Shaper
}

func NewListCategories(client *cms.Client, shaper *cms.Shaper) *ListCategories {
	return &ListCategories{client: client, shaper: shaper}
}

func (l *ListCategories) Name() string { return "listCategories" }

func (l *ListCategories) Description() string {
	return "List the available content categories (e.g. musica, gastronomia, sport, famiglie). " +
		"Use this when you need to know which category names exist before filtering another search by category."
}

func (l *ListCategories) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"searchText": {"type": "string", "description": "Optional name filter, partial matches allowed"},
			"limit": {"type": "integer", "description": "Max results (default 10, max 50)"}
		}
	}`)
}

func (l *ListCategories) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		SearchText string `json:"searchText"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", &assistant.ValidationError{Field: "arguments", Reason: err.Error()}
	}

	filter := cms.CategoryFilter{
		SearchText: params.SearchText,
		Limit:      params.Limit,
	}

	result, err := l.client.Query(ctx, cms.CollectionCategories, filter.Params())
	if err != nil {
		return "", queryError("categories", err)
	}
	if len(result.Records) == 0 {
		return "No categories found.", nil
	}

	var sb strings.Builder
	sb.WriteString(countLine(result.Total, len(result.Records), "categories"))
	sb.WriteString("\n")
	for i, rec := range result.Records {
		sum, err := l.shaper.ShapeCategory(rec)
		if err != nil {
			return "", fmt.Errorf("shape category: %w", err)
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, sum.Name)
		if sum.Description != "" {
			fmt.Fprintf(&sb, ": %s", sum.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
