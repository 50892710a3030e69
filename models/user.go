package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a tenant account. Every other entity in the system belongs
// to exactly one user; queries never cross that boundary.
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Language    string `gorm:"default:'pt-BR'" json:"language"`

	// Account status
	IsActive     bool `gorm:"default:true" json:"is_active"`
	TokenVersion int  `gorm:"default:0" json:"-"`

	// Relations
	Agents    []Agent            `gorm:"foreignKey:UserID" json:"agents,omitempty"`
	Clients   []Client           `gorm:"foreignKey:UserID" json:"clients,omitempty"`
	Campaigns []FollowUpCampaign `gorm:"foreignKey:UserID" json:"campaigns,omitempty"`
	Instances []WhatsAppInstance `gorm:"foreignKey:UserID" json:"instances,omitempty"`
}

// RefreshToken stores issued refresh tokens so logout can revoke them.
type RefreshToken struct {
	gorm.Model
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (rt *RefreshToken) IsValid() bool {
	return rt.RevokedAt == nil && time.Now().Before(rt.ExpiresAt)
}
