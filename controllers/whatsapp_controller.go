package controller

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"recomendaleads/models"
	"recomendaleads/utils"
	"recomendaleads/worker"
)

type WhatsAppController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	WhatsApp *utils.WhatsAppClient
	Poller   *worker.StatusPoller
	Hub      *StatusHub
}

func NewWhatsAppController(db *gorm.DB, whatsapp *utils.WhatsAppClient, poller *worker.StatusPoller, hub *StatusHub, logger *log.Logger) *WhatsAppController {
	return &WhatsAppController{
		DB:       db,
		Logger:   logger,
		WhatsApp: whatsapp,
		Poller:   poller,
		Hub:      hub,
	}
}

// GetConnection lists the user's WhatsApp instances with their states.
func (wc *WhatsAppController) GetConnection(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var instances []models.WhatsAppInstance
	if err := wc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&instances).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch connections", nil)
	}

	return c.JSON(utils.SuccessResponse(instances))
}

type createInstanceInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateInstance registers a new instance with the provider. The instance
// starts disconnected; pairing happens through Connect.
func (wc *WhatsAppController) CreateInstance(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input createInstanceInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	providerName := fmt.Sprintf("%s-%s", input.Name, uuid.NewString()[:8])
	token, err := wc.WhatsApp.CreateInstance(providerName)
	if err != nil {
		utils.CaptureError(err, map[string]interface{}{"user_id": user.ID})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "WhatsApp provider unavailable", nil)
	}

	instance := models.WhatsAppInstance{
		UserID:        user.ID,
		InstanceName:  input.Name,
		InstanceToken: token,
		Status:        models.ConnectionDisconnected,
	}
	if err := wc.DB.Create(&instance).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save instance", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(instance))
}

type connectInput struct {
	Token string `json:"token"`
}

// Connect requests a pairing QR code and puts the instance under the status
// poller. Without a token the user's most recent instance is used. Calling
// it again while already connecting refreshes the QR code without spawning a
// second poll. Calling it while connected is a no-op.
func (wc *WhatsAppController) Connect(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input connectInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	instance, err := wc.findInstance(user.ID, input.Token)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Instance not found", nil)
	}

	if instance.Status == models.ConnectionConnected {
		return c.JSON(utils.SuccessResponse(instance))
	}

	qrCode, err := wc.WhatsApp.Connect(instance.InstanceToken)
	if err != nil {
		utils.CaptureError(err, map[string]interface{}{"instance_id": instance.ID})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "WhatsApp provider unavailable", nil)
	}

	instance.Status = models.ConnectionConnecting
	instance.QRCode = qrCode
	if err := wc.DB.Save(&instance).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save instance", nil)
	}

	wc.Poller.Watch(instance.InstanceToken)
	utils.LogEvent("whatsapp_connect_requested", map[string]interface{}{
		"user_id":     user.ID,
		"instance_id": instance.ID,
	})

	return c.JSON(utils.SuccessResponse(instance))
}

// GetStatus reads the stored status for an instance token; while connecting
// it also passes the provider's live answer through so the frontend can show
// pairing progress.
func (wc *WhatsAppController) GetStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var instance models.WhatsAppInstance
	if err := wc.DB.Where("instance_token = ? AND user_id = ?", c.Params("token"), user.ID).
		First(&instance).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Instance not found", nil)
	}

	response := fiber.Map{
		"status":      instance.Status,
		"phoneNumber": instance.PhoneNumber,
		"qrCode":      instance.QRCode,
	}

	if instance.Status == models.ConnectionConnecting {
		if live, err := wc.WhatsApp.InstanceStatus(instance.InstanceToken); err == nil {
			response["providerStatus"] = live.Status
		}
	}

	return c.JSON(utils.SuccessResponse(response))
}

// Disconnect tears down the user's live session on the provider side and
// stops any poll targeting it. Disconnecting with no live instance succeeds
// without provider traffic.
func (wc *WhatsAppController) Disconnect(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var instance models.WhatsAppInstance
	err := wc.DB.Where("user_id = ? AND status IN ?", user.ID,
		[]string{models.ConnectionConnected, models.ConnectionConnecting}).
		Order("updated_at DESC").
		First(&instance).Error
	if err != nil {
		return c.JSON(utils.SuccessResponse(fiber.Map{"status": models.ConnectionDisconnected}))
	}

	wc.Poller.Stop()
	if err := wc.WhatsApp.Disconnect(instance.InstanceToken); err != nil {
		// The provider session may already be gone; still mark it locally.
		wc.Logger.Printf("Provider disconnect failed for instance %d: %v", instance.ID, err)
	}

	now := time.Now()
	instance.Status = models.ConnectionDisconnected
	instance.PhoneNumber = ""
	instance.QRCode = ""
	instance.LastActivityAt = &now
	if err := wc.DB.Save(&instance).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save instance", nil)
	}

	wc.Hub.Broadcast(user.ID, StatusUpdate{
		InstanceToken: instance.InstanceToken,
		Status:        instance.Status,
	})

	return c.JSON(utils.SuccessResponse(instance))
}

// findInstance resolves the target of a connect request: explicit token when
// given, otherwise the user's most recent instance.
func (wc *WhatsAppController) findInstance(userID uint, token string) (models.WhatsAppInstance, error) {
	var instance models.WhatsAppInstance
	query := wc.DB.Where("user_id = ?", userID)
	if token != "" {
		query = query.Where("instance_token = ?", token)
	}
	err := query.Order("created_at DESC").First(&instance).Error
	return instance, err
}

// OnStatusChange is the poller callback: it persists the terminal status and
// notifies the owner's open dashboards.
func (wc *WhatsAppController) OnStatusChange(token string, status utils.WhatsAppStatus) {
	var instance models.WhatsAppInstance
	if err := wc.DB.Where("instance_token = ?", token).First(&instance).Error; err != nil {
		wc.Logger.Printf("Status change for unknown instance token: %v", err)
		return
	}

	now := time.Now()
	instance.Status = status.Status
	instance.LastActivityAt = &now
	if status.Status == models.ConnectionConnected {
		instance.PhoneNumber = status.PhoneNumber
		instance.QRCode = ""
		instance.ConnectedAt = &now
	}
	if err := wc.DB.Save(&instance).Error; err != nil {
		wc.Logger.Printf("Failed to persist status change for instance %d: %v", instance.ID, err)
		return
	}

	utils.LogEvent("whatsapp_status_changed", map[string]interface{}{
		"user_id":     instance.UserID,
		"instance_id": instance.ID,
		"status":      status.Status,
	})

	wc.Hub.Broadcast(instance.UserID, StatusUpdate{
		InstanceToken: token,
		Status:        status.Status,
		PhoneNumber:   status.PhoneNumber,
	})
}
