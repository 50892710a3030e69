package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection statuses reported for a WhatsApp instance.
const (
	ConnectionDisconnected = "disconnected"
	ConnectionConnecting   = "connecting"
	ConnectionConnected    = "connected"
)

// WhatsAppInstance mirrors an instance held by the external automation
// provider. The provider owns the transport; we track the token it issued,
// the last QR code and the connection state we observed.
type WhatsAppInstance struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	InstanceName  string `gorm:"not null" json:"instance_name"`
	InstanceToken string `gorm:"uniqueIndex;not null" json:"instance_token"`

	Status      string `gorm:"default:'disconnected'" json:"status"`
	PhoneNumber string `json:"phone_number,omitempty"`

	// Base64 QR image from the provider, cleared once connected.
	QRCode string `json:"qr_code,omitempty"`

	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
}
