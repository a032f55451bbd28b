package domain

import "time"

// Domain contains core models shared by the runner, storage and reporters.

// FetchResult is the outcome of fetching one target.
type FetchResult struct {
	TargetID    string    `json:"target_id"`
	URL         string    `json:"url"`
	StatusCode  int       `json:"status_code,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	BodyBytes   int       `json:"body_bytes"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	ElapsedMs   int64     `json:"elapsed_ms"`
}

// Failed reports whether the fetch did not produce a response.
func (r FetchResult) Failed() bool { return r.Error != "" }
