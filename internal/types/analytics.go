package types

import "time"

// AnalyticsEvent is one product analytics event waiting in the local queue
type AnalyticsEvent struct {
	ID         string         `json:"id"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	CapturedAt time.Time      `json:"capturedAt"`
	SentAt     *time.Time     `json:"sentAt,omitempty"`
}

// IsPending reports whether the event has not been uploaded yet
func (e AnalyticsEvent) IsPending() bool {
	return e.SentAt == nil
}
