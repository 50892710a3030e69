package models

import (
	"gorm.io/gorm"
)

// Agent statuses
const (
	AgentStatusActive   = "active"
	AgentStatusInactive = "inactive"
)

// Tone of voice options for generated messages
const (
	ToneProfessional = "professional"
	ToneFriendly     = "friendly"
	ToneCasual       = "casual"
	ToneFormal       = "formal"
)

// Follow-up triggers
const (
	TriggerNoRecommendations      = "no_recommendations_sent"
	TriggerPartialRecommendations = "partial_recommendations"
	TriggerPostRecommendation     = "post_recommendation"
	TriggerCustom                 = "custom"
)

// Agent is a configured AI messaging persona: the four message templates of
// the recommendation flow, the gamification tiers and the follow-up rules.
type Agent struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	CompanyName string `json:"company_name"`
	ToneOfVoice string `gorm:"default:'professional'" json:"tone_of_voice"`

	// Recommendation flow message templates. Placeholders like
	// {nome_cliente} and {oferta} are substituted at send time.
	MessageToClient          string `json:"message_to_client"`
	MessageGiftToRecommender string `json:"message_gift_to_recommender"`
	MessageToReferred        string `json:"message_to_referred"`
	MessageGiftToReferred    string `json:"message_gift_to_referred"`

	RecommendationRule string `json:"recommendation_rule"`
	OfferDescription   string `json:"offer_description"`

	Status string `gorm:"default:'active'" json:"status"` // active, inactive

	// Relations
	GamificationRules []GamificationRule `gorm:"foreignKey:AgentID" json:"gamification_rules,omitempty"`
	FollowUpMessages  []FollowUpMessage  `gorm:"foreignKey:AgentID" json:"follow_up_messages,omitempty"`
}

// GamificationRule is one bonus tier: reaching LeadsRequired referrals
// unlocks the described bonus. Tiers are ordered ascending by LeadsRequired.
type GamificationRule struct {
	gorm.Model
	AgentID uint `gorm:"not null;index" json:"agent_id"`

	LeadsRequired    int    `gorm:"not null" json:"leads_required"`
	BonusMultiplier  int    `gorm:"not null;default:1" json:"bonus_multiplier"`
	BonusDescription string `json:"bonus_description"`
}

// FollowUpMessage is a reminder template fired when its trigger predicate
// holds and DelayHours have elapsed since the relevant reference event.
type FollowUpMessage struct {
	gorm.Model
	AgentID uint `gorm:"not null;index" json:"agent_id"`

	Name       string `json:"name"`
	Trigger    string `gorm:"not null" json:"trigger"`
	DelayHours int    `gorm:"not null" json:"delay_hours"`
	Message    string `json:"message"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}
