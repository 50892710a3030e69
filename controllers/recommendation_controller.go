package controller

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"recomendaleads/lifecycle"
	"recomendaleads/models"
	"recomendaleads/utils"
)

type RecommendationController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	WhatsApp *utils.WhatsAppClient
}

func NewRecommendationController(db *gorm.DB, whatsapp *utils.WhatsAppClient, logger *log.Logger) *RecommendationController {
	return &RecommendationController{
		DB:       db,
		Logger:   logger,
		WhatsApp: whatsapp,
	}
}

type recommendationInput struct {
	ClientID uint   `json:"clientId" validate:"required"`
	Name     string `json:"name" validate:"required,max=150"`
	Phone    string `json:"phone" validate:"required,phone"`
}

// CreateRecommendation records an incoming referral: the referred client
// enters the funnel, the referrer's count is bumped and gamification tiers
// are re-evaluated. A reached tier sends the gift message at once.
func (rc *RecommendationController) CreateRecommendation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input recommendationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var client models.Client
	if err := rc.DB.Where("id = ? AND user_id = ?", input.ClientID, user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}
	if client.AgentID == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Client has no active recommendation flow", nil)
	}

	var agent models.Agent
	if err := rc.DB.Preload("GamificationRules").First(&agent, *client.AgentID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	now := time.Now()
	result, err := lifecycle.ReceiveReferral(client, agent, input.Name, input.Phone, now)
	if err != nil {
		var stateErr *lifecycle.InvalidStateError
		if errors.As(err, &stateErr) {
			return utils.ErrorResponse(c, fiber.StatusConflict, stateErr.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record recommendation", err)
	}

	recommendation := models.Recommendation{
		UserID:              user.ID,
		AgentID:             agent.ID,
		ClientID:            client.ID,
		ReferredClientName:  input.Name,
		ReferredClientPhone: input.Phone,
		Status:              models.RecommendationStatusPending,
		LastMessageDate:     &now,
	}

	tx := rc.DB.Begin()
	if err := tx.Create(&result.Referred).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create referred client", nil)
	}
	if err := tx.Create(&recommendation).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create recommendation", nil)
	}
	if err := tx.Model(&models.Client{}).Where("id = ?", client.ID).Updates(map[string]interface{}{
		"recommendation_count":     result.Client.RecommendationCount,
		"last_recommendation_date": result.Client.LastRecommendationDate,
	}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client", nil)
	}
	if err := tx.Create(&result.Event).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record timeline event", nil)
	}
	tx.Commit()

	rc.evaluateGamification(result.Client, agent)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"recommendation": recommendation,
		"referredClient": result.Referred,
		"client":         result.Client,
	}))
}

// evaluateGamification pays out a newly reached tier, if any. The payout row
// and gift event commit together; the gift message is then sent best effort.
func (rc *RecommendationController) evaluateGamification(client models.Client, agent models.Agent) {
	var payouts []models.GamificationPayout
	if err := rc.DB.Where("client_id = ?", client.ID).Find(&payouts).Error; err != nil {
		rc.Logger.Printf("Failed to fetch payouts for client %d: %v", client.ID, err)
		return
	}
	paid := make(map[uint]bool, len(payouts))
	for _, p := range payouts {
		paid[p.RuleID] = true
	}

	result, err := lifecycle.EvaluateGamification(client, agent, paid)
	if err != nil || result == nil {
		return
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		payout := models.GamificationPayout{
			UserID:              client.UserID,
			ClientID:            client.ID,
			RuleID:              result.Rule.ID,
			RecommendationCount: client.RecommendationCount,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}
		return tx.Create(&result.Event).Error
	})
	if err != nil {
		rc.Logger.Printf("Failed to record gamification payout for client %d: %v", client.ID, err)
		return
	}

	utils.LogEvent("gift_sent", map[string]interface{}{
		"user_id":        client.UserID,
		"client_id":      client.ID,
		"rule_id":        result.Rule.ID,
		"leads_required": result.Rule.LeadsRequired,
	})

	var instance models.WhatsAppInstance
	if err := rc.DB.Where("user_id = ? AND status = ?", client.UserID, models.ConnectionConnected).
		First(&instance).Error; err != nil {
		rc.Logger.Printf("No connected WhatsApp instance for user %d, gift message queued on timeline only", client.UserID)
		return
	}
	if err := rc.WhatsApp.SendMessage(instance.InstanceToken, client.Phone, result.Message); err != nil {
		rc.Logger.Printf("Failed to send gift message to client %d: %v", client.ID, err)
		utils.CaptureError(err, map[string]interface{}{"client_id": client.ID})
	}
}

func (rc *RecommendationController) GetRecommendations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var recommendations []models.Recommendation
	if err := rc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&recommendations).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch recommendations", nil)
	}

	return c.JSON(utils.SuccessResponse(recommendations))
}

func (rc *RecommendationController) GetRecentRecommendations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}

	var recommendations []models.Recommendation
	if err := rc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recommendations).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch recommendations", nil)
	}

	return c.JSON(utils.SuccessResponse(recommendations))
}
