package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"recomendaleads/lifecycle"
	"recomendaleads/models"
	"recomendaleads/utils"
)

type ReferredController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	WhatsApp *utils.WhatsAppClient
}

func NewReferredController(db *gorm.DB, whatsapp *utils.WhatsAppClient, logger *log.Logger) *ReferredController {
	return &ReferredController{
		DB:       db,
		Logger:   logger,
		WhatsApp: whatsapp,
	}
}

func (rc *ReferredController) GetReferredClients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := rc.DB.Where("user_id = ?", user.ID)
	if source := c.Query("sourceClientId"); source != "" {
		query = query.Where("source_client_id = ?", utils.ParseUint(source))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var referreds []models.ReferredClient
	if err := query.Order("created_at DESC").Find(&referreds).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch referred clients", nil)
	}

	return c.JSON(utils.SuccessResponse(referreds))
}

func (rc *ReferredController) GetReferredClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var referred models.ReferredClient
	if err := rc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&referred).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Referred client not found", nil)
	}

	return c.JSON(utils.SuccessResponse(referred))
}

type advanceInput struct {
	Status string `json:"status" validate:"required,oneof=contact_initiated offer_sent converted"`
}

// UpdateReferredStatus advances a referred client one step in the contact
// funnel. Skips and regressions are rejected with 409.
func (rc *ReferredController) UpdateReferredStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input advanceInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var referred models.ReferredClient
	if err := rc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&referred).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Referred client not found", nil)
	}

	updated, event, err := lifecycle.AdvanceReferred(referred, input.Status, time.Now())
	if err != nil {
		var transitionErr *lifecycle.InvalidTransitionError
		var stateErr *lifecycle.InvalidStateError
		if errors.As(err, &transitionErr) || errors.As(err, &stateErr) {
			return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update status", err)
	}

	if err := rc.persistAdvance(&updated, &event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update status", nil)
	}

	if updated.Status == models.ReferredStatusConverted {
		rc.sendConversionGift(user, updated)
		rc.onConverted(user, updated)
	}

	return c.JSON(utils.SuccessResponse(updated))
}

// SendOffer delivers the agent's offer message to a referred client whose
// contact has been initiated, moving them into offer_sent.
func (rc *ReferredController) SendOffer(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var referred models.ReferredClient
	if err := rc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&referred).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Referred client not found", nil)
	}

	var agent models.Agent
	if err := rc.DB.Preload("GamificationRules").First(&agent, referred.AgentID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	var source models.Client
	if err := rc.DB.First(&source, referred.SourceClientID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Source client not found", nil)
	}

	now := time.Now()

	// A fresh referral gets its contact initiated as part of sending the
	// offer; the funnel itself still moves one step at a time.
	if referred.Status == models.ReferredStatusNew {
		stepped, contactEvent, err := lifecycle.AdvanceReferred(referred, models.ReferredStatusContactInitiated, now)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send offer", err)
		}
		if err := rc.persistAdvance(&stepped, &contactEvent); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send offer", nil)
		}
		referred = stepped
	}

	updated, event, err := lifecycle.AdvanceReferred(referred, models.ReferredStatusOfferSent, now)
	if err != nil {
		var transitionErr *lifecycle.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return utils.ErrorResponse(c, fiber.StatusConflict, transitionErr.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send offer", err)
	}

	message := lifecycle.Render(agent.MessageToReferred, lifecycle.ReferredVars(&updated, &source, &agent))
	event.Description = message
	event.Metadata["template"] = "message_to_referred"

	if err := rc.persistAdvance(&updated, &event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send offer", nil)
	}

	var instance models.WhatsAppInstance
	if err := rc.DB.Where("user_id = ? AND status = ?", user.ID, models.ConnectionConnected).
		First(&instance).Error; err == nil {
		if err := rc.WhatsApp.SendMessage(instance.InstanceToken, updated.Phone, message); err != nil {
			rc.Logger.Printf("Failed to send offer to referred client %d: %v", updated.ID, err)
			utils.CaptureError(err, map[string]interface{}{"referred_client_id": updated.ID})
		}
	} else {
		rc.Logger.Printf("No connected WhatsApp instance for user %d, offer recorded on timeline only", user.ID)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"referredClient": updated,
		"message":        message,
	}))
}

// Convert marks an offer_sent referred client as converted.
func (rc *ReferredController) Convert(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var referred models.ReferredClient
	if err := rc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&referred).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Referred client not found", nil)
	}

	updated, event, err := lifecycle.AdvanceReferred(referred, models.ReferredStatusConverted, time.Now())
	if err != nil {
		var transitionErr *lifecycle.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return utils.ErrorResponse(c, fiber.StatusConflict, transitionErr.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to convert referred client", err)
	}

	if err := rc.persistAdvance(&updated, &event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to convert referred client", nil)
	}

	rc.sendConversionGift(user, updated)
	rc.onConverted(user, updated)

	return c.JSON(utils.SuccessResponse(updated))
}

// sendConversionGift delivers the agent's gift-to-referred message, best
// effort, once the referred person converts.
func (rc *ReferredController) sendConversionGift(user *models.User, referred models.ReferredClient) {
	var agent models.Agent
	if err := rc.DB.Preload("GamificationRules").First(&agent, referred.AgentID).Error; err != nil {
		return
	}
	if agent.MessageGiftToReferred == "" {
		return
	}

	var source models.Client
	if err := rc.DB.First(&source, referred.SourceClientID).Error; err != nil {
		return
	}

	message := lifecycle.Render(agent.MessageGiftToReferred, lifecycle.ReferredVars(&referred, &source, &agent))

	var instance models.WhatsAppInstance
	if err := rc.DB.Where("user_id = ? AND status = ?", user.ID, models.ConnectionConnected).
		First(&instance).Error; err != nil {
		rc.Logger.Printf("No connected WhatsApp instance for user %d, conversion gift skipped", user.ID)
		return
	}
	if err := rc.WhatsApp.SendMessage(instance.InstanceToken, referred.Phone, message); err != nil {
		rc.Logger.Printf("Failed to send conversion gift to referred client %d: %v", referred.ID, err)
		utils.CaptureError(err, map[string]interface{}{"referred_client_id": referred.ID})
	}
}

func (rc *ReferredController) persistAdvance(referred *models.ReferredClient, event *models.TimelineEvent) error {
	return rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(referred).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

// onConverted runs the conversion side effects: the matching recommendation
// row is promoted and the account owner is notified by email.
func (rc *ReferredController) onConverted(user *models.User, referred models.ReferredClient) {
	if err := rc.DB.Model(&models.Recommendation{}).
		Where("client_id = ? AND referred_client_phone = ?", referred.SourceClientID, referred.Phone).
		Update("status", models.RecommendationStatusConverted).Error; err != nil {
		rc.Logger.Printf("Failed to mark recommendation converted for referred client %d: %v", referred.ID, err)
	}

	var source models.Client
	sourceName := ""
	if err := rc.DB.First(&source, referred.SourceClientID).Error; err == nil {
		sourceName = source.Name
	}

	utils.LogEvent("referred_client_converted", map[string]interface{}{
		"user_id":            user.ID,
		"referred_client_id": referred.ID,
		"source_client_id":   referred.SourceClientID,
	})

	go func() {
		if err := utils.SendConversionNotification(user.Email, user.Name, sourceName, referred.Name); err != nil {
			rc.Logger.Printf("Failed to send conversion notification: %v", err)
		}
	}()
}
