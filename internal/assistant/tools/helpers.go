package tools

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/cms"
)

const dateLayout = "2006-01-02"

// parseDate validates an optional ISO date argument. An empty value is
// no filter; a malformed value is a validation error the model can fix.
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, &assistant.ValidationError{Field: field, Reason: "must be an ISO date (YYYY-MM-DD)"}
	}
	return &t, nil
}

// queryError rewords CMS failures so the model sees "the service failed,
// results are unknown" rather than something that reads like an empty
// result set.
func queryError(what string, err error) error {
	var remote *cms.RemoteError
	var transport *cms.TransportError
	switch {
	case errors.As(err, &remote):
		return fmt.Errorf("the %s service is unavailable (status %d); results are unknown, not empty", what, remote.Status)
	case errors.As(err, &transport):
		return fmt.Errorf("the %s service is unreachable; results are unknown, not empty", what)
	}
	return err
}

// countLine formats the result header so the model can tell the user
// how many matches exist beyond the ones shown.
func countLine(total, shown int, what string) string {
	if total == shown {
		return fmt.Sprintf("Found %d %s:", total, what)
	}
	return fmt.Sprintf("Found %d %s (showing %d):", total, what, shown)
}
