package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"recomendaleads/models"
	"recomendaleads/utils"
)

type AgentController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAgentController(db *gorm.DB, logger *log.Logger) *AgentController {
	return &AgentController{
		DB:     db,
		Logger: logger,
	}
}

type gamificationRuleInput struct {
	LeadsRequired    int    `json:"leadsRequired" validate:"required,gt=0"`
	BonusMultiplier  int    `json:"bonusMultiplier" validate:"required,gt=0"`
	BonusDescription string `json:"bonusDescription"`
}

type followUpMessageInput struct {
	Name       string `json:"name"`
	Trigger    string `json:"trigger" validate:"required,oneof=no_recommendations_sent partial_recommendations post_recommendation custom"`
	DelayHours int    `json:"delayHours" validate:"required,gt=0"`
	Message    string `json:"message"`
	IsActive   bool   `json:"isActive"`
}

type agentInput struct {
	Name                     string                  `json:"name" validate:"required,max=150"`
	CompanyName              string                  `json:"companyName" validate:"max=150"`
	ToneOfVoice              string                  `json:"toneOfVoice" validate:"omitempty,oneof=professional friendly casual formal"`
	MessageToClient          string                  `json:"messageToClient"`
	MessageGiftToRecommender string                  `json:"messageGiftToRecommender"`
	MessageToReferred        string                  `json:"messageToReferred"`
	MessageGiftToReferred    string                  `json:"messageGiftToReferred"`
	RecommendationRule       string                  `json:"recommendationRule"`
	OfferDescription         string                  `json:"offerDescription"`
	GamificationRules        []gamificationRuleInput `json:"gamificationRules" validate:"dive"`
	FollowUpMessages         []followUpMessageInput  `json:"followUpMessages" validate:"dive"`
	Status                   string                  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (ac *AgentController) CreateAgent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input agentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	status := input.Status
	if status == "" {
		status = models.AgentStatusActive
	}
	tone := input.ToneOfVoice
	if tone == "" {
		tone = models.ToneProfessional
	}

	agent := models.Agent{
		UserID:                   user.ID,
		Name:                     input.Name,
		CompanyName:              input.CompanyName,
		ToneOfVoice:              tone,
		MessageToClient:          input.MessageToClient,
		MessageGiftToRecommender: input.MessageGiftToRecommender,
		MessageToReferred:        input.MessageToReferred,
		MessageGiftToReferred:    input.MessageGiftToReferred,
		RecommendationRule:       input.RecommendationRule,
		OfferDescription:         input.OfferDescription,
		Status:                   status,
	}

	for _, r := range input.GamificationRules {
		agent.GamificationRules = append(agent.GamificationRules, models.GamificationRule{
			LeadsRequired:    r.LeadsRequired,
			BonusMultiplier:  r.BonusMultiplier,
			BonusDescription: r.BonusDescription,
		})
	}
	// Every agent created through the UI carries at least one tier.
	if len(agent.GamificationRules) == 0 {
		agent.GamificationRules = []models.GamificationRule{
			{LeadsRequired: 5, BonusMultiplier: 1},
		}
	}

	for _, m := range input.FollowUpMessages {
		agent.FollowUpMessages = append(agent.FollowUpMessages, models.FollowUpMessage{
			Name:       m.Name,
			Trigger:    m.Trigger,
			DelayHours: m.DelayHours,
			Message:    m.Message,
			IsActive:   m.IsActive,
		})
	}

	if err := ac.DB.Create(&agent).Error; err != nil {
		ac.Logger.Printf("Failed to create agent: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create agent", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(agent))
}

func (ac *AgentController) GetAgents(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var agents []models.Agent
	if err := ac.DB.Where("user_id = ?", user.ID).
		Preload("GamificationRules").
		Preload("FollowUpMessages").
		Order("created_at DESC").
		Find(&agents).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch agents", nil)
	}

	return c.JSON(utils.SuccessResponse(agents))
}

func (ac *AgentController) GetAgent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var agent models.Agent
	if err := ac.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).
		Preload("GamificationRules").
		Preload("FollowUpMessages").
		First(&agent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	return c.JSON(utils.SuccessResponse(agent))
}

func (ac *AgentController) UpdateAgent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var agent models.Agent
	if err := ac.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&agent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	var input agentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	tx := ac.DB.Begin()

	updates := map[string]interface{}{
		"name":                        input.Name,
		"company_name":                input.CompanyName,
		"message_to_client":           input.MessageToClient,
		"message_gift_to_recommender": input.MessageGiftToRecommender,
		"message_to_referred":         input.MessageToReferred,
		"message_gift_to_referred":    input.MessageGiftToReferred,
		"recommendation_rule":         input.RecommendationRule,
		"offer_description":           input.OfferDescription,
	}
	if input.ToneOfVoice != "" {
		updates["tone_of_voice"] = input.ToneOfVoice
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}
	if err := tx.Model(&agent).Updates(updates).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update agent", nil)
	}

	// Nested rules and follow-ups are replaced wholesale, mirroring the
	// editor form which always submits the full lists.
	if err := tx.Where("agent_id = ?", agent.ID).Delete(&models.GamificationRule{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update gamification rules", nil)
	}
	for _, r := range input.GamificationRules {
		rule := models.GamificationRule{
			AgentID:          agent.ID,
			LeadsRequired:    r.LeadsRequired,
			BonusMultiplier:  r.BonusMultiplier,
			BonusDescription: r.BonusDescription,
		}
		if err := tx.Create(&rule).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update gamification rules", nil)
		}
	}

	if err := tx.Where("agent_id = ?", agent.ID).Delete(&models.FollowUpMessage{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update follow-up messages", nil)
	}
	for _, m := range input.FollowUpMessages {
		msg := models.FollowUpMessage{
			AgentID:    agent.ID,
			Name:       m.Name,
			Trigger:    m.Trigger,
			DelayHours: m.DelayHours,
			Message:    m.Message,
			IsActive:   m.IsActive,
		}
		if err := tx.Create(&msg).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update follow-up messages", nil)
		}
	}

	tx.Commit()

	if err := ac.DB.Preload("GamificationRules").Preload("FollowUpMessages").
		First(&agent, agent.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reload agent", nil)
	}

	return c.JSON(utils.SuccessResponse(agent))
}

func (ac *AgentController) DeleteAgent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var agent models.Agent
	if err := ac.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&agent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	tx := ac.DB.Begin()
	if err := tx.Where("agent_id = ?", agent.ID).Delete(&models.GamificationRule{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete agent", nil)
	}
	if err := tx.Where("agent_id = ?", agent.ID).Delete(&models.FollowUpMessage{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete agent", nil)
	}
	if err := tx.Delete(&agent).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete agent", nil)
	}
	tx.Commit()

	ac.Logger.Printf("Agent %d deleted by user %d", agent.ID, user.ID)
	return c.JSON(fiber.Map{"success": true, "message": "Agent deleted"})
}
