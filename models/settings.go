package models

import (
	"gorm.io/gorm"
)

// Settings holds per-tenant configuration surfaced on the settings page.
// The API key is stored encrypted; the JSON value is the decrypted form.
type Settings struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	CompanyName        string `json:"company_name"`
	CompanyDescription string `json:"company_description"`
	CompanyContext     string `json:"company_context"`

	Language   string `gorm:"default:'pt-BR'" json:"language"` // pt-BR, en-US, es-ES
	WebhookURL string `json:"webhook_url"`
	APIKey     string `json:"api_key"`

	NotificationsEnabled bool `gorm:"default:true" json:"notifications_enabled"`
}

// CheckoutOrder records a processed checkout so support can trace charges.
// Card data is never persisted, only the Stripe references.
type CheckoutOrder struct {
	gorm.Model

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CPF           string `json:"cpf"`
	Phone         string `json:"phone"`

	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"default:'brl'" json:"currency"`

	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id"`
	Status                string `gorm:"default:'pending'" json:"status"` // pending, succeeded, failed
}
