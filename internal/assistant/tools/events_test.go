package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

// stubCMS serves a canned collection response and records the last
// request for assertions.
func stubCMS(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var lastQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastQuery
}

func eventsEnvelope() string {
	return `{
		"data": [
			{"id": 1, "attributes": {
				"title": "Sagra del pesce",
				"description": "<p>Pesce fresco in piazza</p>",
				"startDate": "2026-08-23",
				"endDate": "2026-08-23",
				"address": "Piazza del Porto",
				"free": true,
				"category": {"data": {"id": 3, "attributes": {"name": "Gastronomia"}}}
			}},
			{"id": 2, "attributes": {
				"title": "Concerto in piazza",
				"description": "Musica dal vivo",
				"startDate": "2026-08-23",
				"endDate": "2026-08-23",
				"price": 15.5
			}}
		],
		"meta": {"pagination": {"total": 2}}
	}`
}

func TestSearchEventsFormatsResults(t *testing.T) {
	srv, query := stubCMS(t, http.StatusOK, eventsEnvelope())
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"startDate":"2026-08-23","endDate":"2026-08-23","free":true}`))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "Found 2 events:") {
		t.Errorf("missing count header: %q", out)
	}
	if !strings.Contains(out, "Sagra del pesce") || !strings.Contains(out, "Concerto in piazza") {
		t.Errorf("missing event titles: %q", out)
	}
	if !strings.Contains(out, "[Gastronomia]") {
		t.Errorf("missing category tag: %q", out)
	}
	if !strings.Contains(out, "[free]") {
		t.Errorf("missing free tag: %q", out)
	}
	if !strings.Contains(out, "[€15.50]") {
		t.Errorf("missing price tag: %q", out)
	}
	if strings.Contains(out, "<p>") {
		t.Errorf("markup leaked into the shaped output: %q", out)
	}

	// The window maps to the overlap predicate and free to a boolean filter.
	q := *query
	if got := q.Get("filters[startDate][$lte]"); got != "2026-08-23" {
		t.Errorf("window end bound: got %q", got)
	}
	if got := q.Get("filters[endDate][$gte]"); got != "2026-08-23" {
		t.Errorf("window start bound: got %q", got)
	}
	if got := q.Get("filters[free][$eq]"); got != "true" {
		t.Errorf("free filter: got %q", got)
	}
}

func TestSearchEventsEmptyIsNotAnError(t *testing.T) {
	srv, _ := stubCMS(t, http.StatusOK, `{"data": [], "meta": {"pagination": {"total": 0}}}`)
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	out, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if out != "No events found for the given filters." {
		t.Errorf("unexpected empty-result text: %q", out)
	}
}

func TestSearchEventsServerErrorIsDistinctFromEmpty(t *testing.T) {
	srv, _ := stubCMS(t, http.StatusInternalServerError, `{"error": "boom"}`)
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	msg := err.Error()
	if !strings.Contains(msg, "unavailable (status 500)") {
		t.Errorf("error should name the failure: %q", msg)
	}
	if !strings.Contains(msg, "results are unknown, not empty") {
		t.Errorf("error must not read like an empty result set: %q", msg)
	}
}

func TestSearchEventsUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected an error when the service is down")
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("expected unreachable message, got %q", err.Error())
	}
}

func TestSearchEventsMalformedDate(t *testing.T) {
	srv, _ := stubCMS(t, http.StatusOK, eventsEnvelope())
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"startDate":"domani"}`))
	var verr *assistant.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Field != "startDate" {
		t.Errorf("expected startDate field, got %q", verr.Field)
	}
}

func TestSearchEventsInvertedWindow(t *testing.T) {
	srv, _ := stubCMS(t, http.StatusOK, eventsEnvelope())
	tool := NewSearchEvents(cms.NewClient(srv.URL, "token"), cms.NewShaper(0))

	_, err := tool.Execute(context.Background(), json.RawMessage(
		`{"startDate":"2026-08-25","endDate":"2026-08-23"}`))
	var verr *assistant.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !strings.Contains(verr.Error(), "must not be after endDate") {
		t.Errorf("unexpected reason: %q", verr.Error())
	}
}
