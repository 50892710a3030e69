package controller

import (
	"errors"
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"recomendaleads/lifecycle"
	"recomendaleads/models"
	"recomendaleads/utils"
)

type ClientController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	WhatsApp *utils.WhatsAppClient
}

func NewClientController(db *gorm.DB, whatsapp *utils.WhatsAppClient, logger *log.Logger) *ClientController {
	return &ClientController{
		DB:       db,
		Logger:   logger,
		WhatsApp: whatsapp,
	}
}

type clientInput struct {
	Name  string `json:"name" validate:"required,max=150"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input clientInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", nil)
		}
	}

	client := models.Client{
		UserID: user.ID,
		Name:   input.Name,
		Phone:  input.Phone,
		Email:  input.Email,
		Status: models.ClientStatusNotStarted,
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		cc.Logger.Printf("Failed to create client: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create client", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(client))
}

func (cc *ClientController) GetClients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var clients []models.Client
	if err := cc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&clients).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch clients", nil)
	}

	return c.JSON(utils.SuccessResponse(clients))
}

// GetClient returns a client with its referred clients and timeline. The
// related slices load concurrently and independently: one failed slice is
// logged and comes back empty instead of failing the whole request.
func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	var (
		referreds []models.ReferredClient
		timeline  []models.TimelineEvent
	)

	var g errgroup.Group
	g.Go(func() error {
		if err := cc.DB.Where("source_client_id = ?", client.ID).
			Order("created_at DESC").Find(&referreds).Error; err != nil {
			cc.Logger.Printf("Failed to fetch referred clients for client %d: %v", client.ID, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := cc.DB.Where("client_id = ?", client.ID).
			Order("created_at DESC").Find(&timeline).Error; err != nil {
			cc.Logger.Printf("Failed to fetch timeline for client %d: %v", client.ID, err)
		}
		return nil
	})
	_ = g.Wait()

	client.ReferredClients = referreds
	client.Timeline = timeline

	return c.JSON(utils.SuccessResponse(client))
}

func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	var input clientInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	// Contact fields only. Status changes go through lifecycle transitions.
	if err := cc.DB.Model(&client).Updates(map[string]interface{}{
		"name":  input.Name,
		"phone": input.Phone,
		"email": input.Email,
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client", nil)
	}

	return c.JSON(utils.SuccessResponse(client))
}

func (cc *ClientController) DeleteClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	if err := cc.DB.Delete(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete client", nil)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Client deleted"})
}

// StartRecommendations moves the client into the collecting state under the
// chosen agent and sends the opening message over WhatsApp.
func (cc *ClientController) StartRecommendations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		AgentID uint `json:"agentId" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	var agent models.Agent
	if err := cc.DB.Where("id = ? AND user_id = ?", input.AgentID, user.ID).
		Preload("GamificationRules").First(&agent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Agent not found", nil)
	}

	result, err := lifecycle.StartRecommendations(client, agent, time.Now())
	if err != nil {
		var stateErr *lifecycle.InvalidStateError
		if errors.As(err, &stateErr) {
			return utils.ErrorResponse(c, fiber.StatusConflict, stateErr.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start recommendations", err)
	}

	tx := cc.DB.Begin()
	if err := tx.Model(&models.Client{}).Where("id = ?", client.ID).Updates(map[string]interface{}{
		"status":   result.Client.Status,
		"agent_id": result.Client.AgentID,
	}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client", nil)
	}
	if err := tx.Create(&result.Event).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record timeline event", nil)
	}
	tx.Commit()

	// Message dispatch is best effort: the transition stands even when the
	// instance is offline, and the follow-up machinery catches up later.
	if token, err := cc.connectedInstanceToken(user.ID); err == nil {
		if err := cc.WhatsApp.SendMessage(token, client.Phone, result.Message); err != nil {
			cc.Logger.Printf("Failed to send opening message to client %d: %v", client.ID, err)
			utils.CaptureError(err, map[string]interface{}{"client_id": client.ID})
		}
	} else {
		cc.Logger.Printf("No connected WhatsApp instance for user %d: %v", user.ID, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"client":   result.Client,
		"timeline": result.Event,
	}))
}

func (cc *ClientController) GetTimeline(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var client models.Client
	if err := cc.DB.Where("id = ? AND user_id = ?", c.Params("id"), user.ID).First(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	var timeline []models.TimelineEvent
	if err := cc.DB.Where("client_id = ?", client.ID).
		Order("created_at DESC").
		Find(&timeline).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch timeline", nil)
	}

	return c.JSON(utils.SuccessResponse(timeline))
}

func (cc *ClientController) connectedInstanceToken(userID uint) (string, error) {
	var instance models.WhatsAppInstance
	err := cc.DB.Where("user_id = ? AND status = ?", userID, models.ConnectionConnected).
		First(&instance).Error
	if err == gorm.ErrRecordNotFound {
		return "", &lifecycle.NotFoundError{Entity: "connected whatsapp instance", ID: userID}
	}
	if err != nil {
		return "", err
	}
	return instance.InstanceToken, nil
}
