package models

import "time"

// GradebookSession ties a parsed gradebook to a short-lived session id.
// LastAccessed drives TTL eviction; every read refreshes it.
type GradebookSession struct {
	ID           string    `json:"id"`
	Gradebook    Gradebook `json:"gradebook"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// SessionStats summarises session-store state for health reporting.
type SessionStats struct {
	ActiveSessions int `json:"active_sessions"`
	ExpiredCleaned int `json:"expired_cleaned"`
}
