package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"recomendaleads/lifecycle"
	"recomendaleads/models"
	"recomendaleads/utils"
)

type FollowUpCampaignController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	WhatsApp *utils.WhatsAppClient
}

func NewFollowUpCampaignController(db *gorm.DB, whatsapp *utils.WhatsAppClient, logger *log.Logger) *FollowUpCampaignController {
	return &FollowUpCampaignController{
		DB:       db,
		Logger:   logger,
		WhatsApp: whatsapp,
	}
}

func (fc *FollowUpCampaignController) GetCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaigns []models.FollowUpCampaign
	if err := fc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", nil)
	}

	return c.JSON(utils.SuccessResponse(campaigns))
}

type campaignInput struct {
	Name           string     `json:"name" validate:"required,max=150"`
	Message        string     `json:"message" validate:"required,max=4096"`
	TargetAudience string     `json:"targetAudience" validate:"required,oneof=all_clients no_recommendations partial_recommendations completed referred"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
}

func (fc *FollowUpCampaignController) CreateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	campaign := models.FollowUpCampaign{
		UserID:         user.ID,
		Name:           input.Name,
		Message:        input.Message,
		TargetAudience: input.TargetAudience,
		Status:         models.CampaignStatusDraft,
		ScheduledAt:    input.ScheduledAt,
	}
	if input.ScheduledAt != nil {
		campaign.Status = models.CampaignStatusScheduled
	}

	if err := fc.DB.Create(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

// SendCampaign resolves the audience, delivers the message to each recipient
// and moves the campaign to sent. A sent campaign cannot be sent again.
func (fc *FollowUpCampaignController) SendCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaign models.FollowUpCampaign
	if err := fc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	if campaign.Status == models.CampaignStatusSent {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Campaign already sent", nil)
	}

	recipients, err := fc.resolveAudience(user.ID, campaign.TargetAudience)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve audience", nil)
	}

	var instance models.WhatsAppInstance
	if err := fc.DB.Where("user_id = ? AND status = ?", user.ID, models.ConnectionConnected).
		First(&instance).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "No connected WhatsApp instance", nil)
	}

	sent := 0
	for _, r := range recipients {
		message := lifecycle.Render(campaign.Message, map[string]string{
			"nome_cliente": r.Name,
			"empresa":      user.CompanyName,
		})
		if err := fc.WhatsApp.SendMessage(instance.InstanceToken, r.Phone, message); err != nil {
			fc.Logger.Printf("Campaign %d: failed to message %s: %v", campaign.ID, r.Phone, err)
			continue
		}
		sent++
	}

	now := time.Now()
	campaign.Status = models.CampaignStatusSent
	campaign.SentAt = &now
	campaign.RecipientCount = sent
	if err := fc.DB.Save(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save campaign", nil)
	}

	utils.LogEvent("campaign_sent", map[string]interface{}{
		"user_id":     user.ID,
		"campaign_id": campaign.ID,
		"recipients":  sent,
	})

	return c.JSON(utils.SuccessResponse(campaign))
}

// DeleteCampaign removes a campaign that has not been sent yet.
func (fc *FollowUpCampaignController) DeleteCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaign models.FollowUpCampaign
	if err := fc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	if campaign.Status == models.CampaignStatusSent {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Sent campaigns cannot be deleted", nil)
	}

	if err := fc.DB.Delete(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete campaign", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": true}))
}

type campaignRecipient struct {
	Name  string
	Phone string
}

func (fc *FollowUpCampaignController) resolveAudience(userID uint, audience string) ([]campaignRecipient, error) {
	var recipients []campaignRecipient

	if audience == models.AudienceReferred {
		var referreds []models.ReferredClient
		if err := fc.DB.Where("user_id = ?", userID).Find(&referreds).Error; err != nil {
			return nil, err
		}
		for _, r := range referreds {
			recipients = append(recipients, campaignRecipient{Name: r.Name, Phone: r.Phone})
		}
		return recipients, nil
	}

	query := fc.DB.Where("user_id = ?", userID)
	switch audience {
	case models.AudienceNoRecommendations:
		query = query.Where("recommendation_count = 0")
	case models.AudiencePartialRecommendations:
		query = query.Where("recommendation_count > 0 AND status = ?", models.ClientStatusCollecting)
	case models.AudienceCompleted:
		query = query.Where("status = ?", models.ClientStatusCompleted)
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, err
	}
	for _, cl := range clients {
		recipients = append(recipients, campaignRecipient{Name: cl.Name, Phone: cl.Phone})
	}
	return recipients, nil
}
