package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign statuses, forward-only: draft -> scheduled -> sent.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSent      = "sent"
)

// Campaign audiences
const (
	AudienceAllClients             = "all_clients"
	AudienceNoRecommendations      = "no_recommendations"
	AudiencePartialRecommendations = "partial_recommendations"
	AudienceCompleted              = "completed"
	AudienceReferred               = "referred"
)

// FollowUpCampaign is a one-shot mass message to a selected audience,
// distinct from the per-client follow-up messages configured on an agent.
type FollowUpCampaign struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name           string `gorm:"not null" json:"name"`
	Message        string `gorm:"not null" json:"message"`
	TargetAudience string `gorm:"not null" json:"target_audience"`

	Status      string     `gorm:"default:'draft'" json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`

	RecipientCount int      `gorm:"default:0" json:"recipient_count"`
	OpenRate       *float64 `json:"open_rate,omitempty"`
}
