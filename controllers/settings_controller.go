package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"recomendaleads/models"
	"recomendaleads/utils"
)

type SettingsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSettingsController(db *gorm.DB, logger *log.Logger) *SettingsController {
	return &SettingsController{DB: db, Logger: logger}
}

// GetSettings returns the user's settings, creating a default row on first
// access so the frontend never sees a 404 here.
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var settings models.Settings
	err := sc.DB.Where("user_id = ?", user.ID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{
			UserID:      user.ID,
			CompanyName: user.CompanyName,
		}
		if err := sc.DB.Create(&settings).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create settings", nil)
		}
	} else if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch settings", nil)
	}

	if settings.APIKey != "" {
		decrypted, err := utils.Decrypt(settings.APIKey)
		if err != nil {
			sc.Logger.Printf("Failed to decrypt API key for user %d: %v", user.ID, err)
			settings.APIKey = ""
		} else {
			settings.APIKey = decrypted
		}
	}

	return c.JSON(utils.SuccessResponse(settings))
}

type settingsInput struct {
	CompanyName          string `json:"companyName" validate:"max=150"`
	CompanyDescription   string `json:"companyDescription" validate:"max=1000"`
	CompanyContext       string `json:"companyContext" validate:"max=5000"`
	Language             string `json:"language" validate:"omitempty,oneof=pt-BR en-US es-ES"`
	WebhookURL           string `json:"webhookUrl" validate:"omitempty,url"`
	APIKey               string `json:"apiKey" validate:"max=500"`
	NotificationsEnabled *bool  `json:"notificationsEnabled"`
}

// UpdateSettings upserts the user's settings row.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input settingsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var settings models.Settings
	err := sc.DB.Where("user_id = ?", user.ID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{UserID: user.ID}
	} else if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch settings", nil)
	}

	settings.CompanyName = input.CompanyName
	settings.CompanyDescription = input.CompanyDescription
	settings.CompanyContext = input.CompanyContext
	if input.Language != "" {
		settings.Language = input.Language
	}
	settings.WebhookURL = input.WebhookURL
	if input.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *input.NotificationsEnabled
	}

	if input.APIKey != "" {
		encrypted, err := utils.Encrypt(input.APIKey)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store API key", nil)
		}
		settings.APIKey = encrypted
	}

	if err := sc.DB.Save(&settings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save settings", nil)
	}

	settings.APIKey = input.APIKey
	return c.JSON(utils.SuccessResponse(settings))
}
