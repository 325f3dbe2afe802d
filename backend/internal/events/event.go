package events

import "time"

const EventDiffViewed = "DIFF_VIEWED"

type DiffViewedEvent struct {
	EventType   string    `json:"eventType"` // 固定 "DIFF_VIEWED"
	EventID     string    `json:"eventId"`
	RequestID   string    `json:"requestId,omitempty"`
	OldRevision int64     `json:"oldRevision"`
	NewRevision int64     `json:"newRevision"`
	Model       string    `json:"model"`
	Purged      bool      `json:"purged"`
	Unhidden    bool      `json:"unhidden"`
	Cached      bool      `json:"cached"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	ViewedAt    time.Time `json:"viewedAt"`
}
