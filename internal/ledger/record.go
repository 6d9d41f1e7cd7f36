// Package ledger is the append-only metadata record of captured
// conversations: one entry per conversation, idempotent insert,
// derived aggregate statistics.
package ledger

import "time"

// ChannelInfo describes one stored channel of a conversation.
type ChannelInfo struct {
	StoragePath     string  `json:"storage_path"`
	SourceURL       string  `json:"source_url"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Present         bool    `json:"present"`
}

// Aggregate is derived from the channels: size is the sum, duration
// the max (channels are time-aligned recordings of one conversation).
type Aggregate struct {
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ConversationRecord is one ledger entry. Created exactly once, never
// mutated or deleted.
type ConversationRecord struct {
	ConversationID string      `json:"conversation_id"`
	CapturedAt     time.Time   `json:"captured_at"`
	Agent          ChannelInfo `json:"agent"`
	Customer       ChannelInfo `json:"customer"`
	Total          Aggregate   `json:"total"`
}

// Stats are the derived aggregate statistics over all records.
type Stats struct {
	TotalConversations     int     `json:"total_conversations"`
	TotalDurationHours     float64 `json:"total_hours"`
	TotalDurationMinutes   float64 `json:"total_minutes"`
	TotalSizeMB            float64 `json:"total_size_mb"`
	TotalSizeGB            float64 `json:"total_size_gb"`
	AverageDurationMinutes float64 `json:"average_duration_minutes"`
	AverageSizeMB          float64 `json:"average_size_mb"`

	FirstCapturedAt *time.Time `json:"first_captured_at,omitempty"`
	LastCapturedAt  *time.Time `json:"last_captured_at,omitempty"`
}

// Progress tracks collection toward a target number of audio hours.
type Progress struct {
	TargetHours                  float64 `json:"target_hours"`
	CurrentHours                 float64 `json:"current_hours"`
	RemainingHours               float64 `json:"remaining_hours"`
	ProgressPercentage           float64 `json:"progress_percentage"`
	EstimatedConversationsNeeded int     `json:"estimated_conversations_needed"`
	TargetReached                bool    `json:"target_reached"`
}
