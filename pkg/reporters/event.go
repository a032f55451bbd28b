package reporters

import (
	"strconv"
	"time"

	"github.com/samvad-hq/portal-fetch/internal/domain"
)

// Event represents the payload reported downstream.
type Event struct {
	TargetID   string             `json:"target_id"`
	TargetName string             `json:"target_name"`
	Result     domain.FetchResult `json:"result"`
	ReportedAt time.Time          `json:"reported_at"`
}

// NewEvent constructs an Event for the given target + result.
func NewEvent(targetID, targetName string, result domain.FetchResult) Event {
	return Event{
		TargetID:   targetID,
		TargetName: targetName,
		Result:     result,
		ReportedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes attached by queue/topic reporters.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"target_id":   e.TargetID,
		"status_code": strconv.Itoa(e.Result.StatusCode),
	}
}
