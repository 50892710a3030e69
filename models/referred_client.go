package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferredClient statuses. The funnel is strictly forward-moving:
// new -> contact_initiated -> offer_sent -> converted.
const (
	ReferredStatusNew              = "new"
	ReferredStatusContactInitiated = "contact_initiated"
	ReferredStatusOfferSent        = "offer_sent"
	ReferredStatusConverted        = "converted"
)

// Recommendation statuses
const (
	RecommendationStatusPending   = "pending"
	RecommendationStatusAccepted  = "accepted"
	RecommendationStatusConverted = "converted"
	RecommendationStatusDeclined  = "declined"
)

// ReferredClient is a person referred by a Client, tracked through an
// independent contact funnel.
type ReferredClient struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name  string `gorm:"not null" json:"name"`
	Phone string `gorm:"not null" json:"phone"`

	SourceClientID uint `gorm:"not null;index" json:"source_client_id"`
	AgentID        uint `gorm:"not null;index" json:"agent_id"`

	Status       string `gorm:"default:'new'" json:"status"`
	MessagesSent int    `gorm:"default:0" json:"messages_sent"`

	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	OfferSentDate   *time.Time `json:"offer_sent_date,omitempty"`
	ConvertedDate   *time.Time `json:"converted_date,omitempty"`

	// Relations
	SourceClient Client `json:"-"`
}

// Recommendation records a referral handed in by a client, independent of
// the referred person's contact funnel.
type Recommendation struct {
	gorm.Model
	UserID   uint `gorm:"not null;index" json:"user_id"`
	AgentID  uint `gorm:"not null;index" json:"agent_id"`
	ClientID uint `gorm:"not null;index" json:"client_id"`

	ReferredClientName  string `json:"referred_client_name"`
	ReferredClientPhone string `json:"referred_client_phone"`

	Status          string     `gorm:"default:'pending'" json:"status"`
	MessagesSent    int        `gorm:"default:0" json:"messages_sent"`
	LastMessageDate *time.Time `json:"last_message_date,omitempty"`
}
