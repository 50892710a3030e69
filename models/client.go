package models

import (
	"time"

	"gorm.io/gorm"
)

// Client statuses
const (
	ClientStatusNotStarted = "not_started"
	ClientStatusCollecting = "collecting_recommendations"
	ClientStatusCompleted  = "recommendations_completed"
)

// Client is an existing customer of the tenant who may be asked to refer
// others. Status only ever changes through lifecycle transitions, never by
// arbitrary field writes.
type Client struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name  string `gorm:"not null" json:"name"`
	Phone string `gorm:"not null" json:"phone"`
	Email string `json:"email,omitempty"`

	Status              string     `gorm:"default:'not_started'" json:"status"`
	RecommendationCount int        `gorm:"default:0" json:"recommendation_count"`
	LastRecommendationDate *time.Time `json:"last_recommendation_date,omitempty"`

	// Agent driving the recommendation flow, bound on start-recommendations.
	AgentID *uint `gorm:"index" json:"agent_id,omitempty"`

	// Relations
	ReferredClients []ReferredClient `gorm:"foreignKey:SourceClientID" json:"referred_clients,omitempty"`
	Timeline        []TimelineEvent  `gorm:"foreignKey:ClientID" json:"timeline,omitempty"`
}
