package models

import (
	"gorm.io/gorm"
)

// Timeline event types
const (
	EventMessageSent            = "message_sent"
	EventRecommendationReceived = "recommendation_received"
	EventOfferSent              = "offer_sent"
	EventStatusChanged          = "status_changed"
	EventGiftSent               = "gift_sent"
	EventFollowUpSent           = "follow_up_sent"
)

// TimelineEvent is an append-only log entry tied to a client and/or a
// referred client. Rows are never updated after creation.
type TimelineEvent struct {
	gorm.Model
	UserID           uint  `gorm:"not null;index" json:"user_id"`
	ClientID         *uint `gorm:"index" json:"client_id,omitempty"`
	ReferredClientID *uint `gorm:"index" json:"referred_client_id,omitempty"`
	AgentID          uint  `gorm:"not null;index" json:"agent_id"`

	Type        string         `gorm:"not null" json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`
}

// GamificationPayout records that a gamification tier was paid out to a
// client. The unique index keeps tier evaluation idempotent: a rule pays at
// most once per client.
type GamificationPayout struct {
	gorm.Model
	UserID   uint `gorm:"not null;index" json:"user_id"`
	ClientID uint `gorm:"not null;uniqueIndex:idx_payout_client_rule" json:"client_id"`
	RuleID   uint `gorm:"not null;uniqueIndex:idx_payout_client_rule" json:"rule_id"`

	RecommendationCount int `gorm:"not null" json:"recommendation_count"`
}

// FollowUpDelivery records that a follow-up message fired for a client. The
// unique index enforces the never-fire-twice guarantee per (client, message).
type FollowUpDelivery struct {
	gorm.Model
	UserID            uint `gorm:"not null;index" json:"user_id"`
	ClientID          uint `gorm:"not null;uniqueIndex:idx_delivery_client_msg" json:"client_id"`
	FollowUpMessageID uint `gorm:"not null;uniqueIndex:idx_delivery_client_msg" json:"follow_up_message_id"`
}
