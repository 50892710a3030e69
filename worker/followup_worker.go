package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"recomendaleads/lifecycle"
	"recomendaleads/models"
	"recomendaleads/utils"
)

// MessageSender is the slice of the provider client the worker needs.
type MessageSender interface {
	SendMessage(token, phone, message string) error
}

// FollowUpWorker periodically evaluates the configured follow-up messages
// for every collecting client and dispatches the one that qualifies. The
// delivery record and timeline event are written in the same transaction,
// so a (client, message) pair can never fire twice even across restarts.
type FollowUpWorker struct {
	DB     *gorm.DB
	Sender MessageSender
	Logger *log.Logger
}

func NewFollowUpWorker(db *gorm.DB, sender MessageSender, logger *log.Logger) *FollowUpWorker {
	return &FollowUpWorker{
		DB:     db,
		Sender: sender,
		Logger: logger,
	}
}

func (fw *FollowUpWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	fw.Logger.Println("Follow-up worker started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fw.Logger.Println("Follow-up worker shutting down...")
			return
		case <-ticker.C:
			fw.processClients()
		}
	}
}

func (fw *FollowUpWorker) processClients() {
	var clients []models.Client
	if err := fw.DB.Where("status = ? AND agent_id IS NOT NULL", models.ClientStatusCollecting).
		Find(&clients).Error; err != nil {
		fw.Logger.Printf("Error fetching collecting clients: %v", err)
		return
	}

	for _, client := range clients {
		if err := fw.processClient(client); err != nil {
			fw.Logger.Printf("Error processing follow-ups for client %d: %v", client.ID, err)
		}
	}
}

func (fw *FollowUpWorker) processClient(client models.Client) error {
	var agent models.Agent
	if err := fw.DB.Preload("FollowUpMessages").Preload("GamificationRules").
		First(&agent, *client.AgentID).Error; err != nil {
		return err
	}
	if agent.Status != models.AgentStatusActive || len(agent.FollowUpMessages) == 0 {
		return nil
	}

	var referreds []models.ReferredClient
	if err := fw.DB.Where("source_client_id = ?", client.ID).Find(&referreds).Error; err != nil {
		return err
	}

	var deliveries []models.FollowUpDelivery
	if err := fw.DB.Where("client_id = ?", client.ID).Find(&deliveries).Error; err != nil {
		return err
	}
	fired := make(map[uint]bool, len(deliveries))
	for _, d := range deliveries {
		fired[d.FollowUpMessageID] = true
	}

	result := lifecycle.EvaluateFollowUp(client, agent, referreds, fired, time.Now())
	if result == nil {
		return nil
	}

	token, err := fw.connectedInstanceToken(client.UserID)
	if err != nil {
		return err
	}

	if err := fw.Sender.SendMessage(token, client.Phone, result.Message); err != nil {
		return err
	}

	return fw.DB.Transaction(func(tx *gorm.DB) error {
		delivery := models.FollowUpDelivery{
			UserID:            client.UserID,
			ClientID:          client.ID,
			FollowUpMessageID: result.FollowUp.ID,
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return err
		}
		if err := tx.Create(&result.Event).Error; err != nil {
			return err
		}
		utils.LogEvent("follow_up_sent", map[string]interface{}{
			"user_id":      client.UserID,
			"client_id":    client.ID,
			"follow_up_id": result.FollowUp.ID,
			"trigger":      result.FollowUp.Trigger,
		})
		return nil
	})
}

// connectedInstanceToken finds a connected WhatsApp instance for the tenant.
func (fw *FollowUpWorker) connectedInstanceToken(userID uint) (string, error) {
	var instance models.WhatsAppInstance
	err := fw.DB.Where("user_id = ? AND status = ?", userID, models.ConnectionConnected).
		First(&instance).Error
	if err == gorm.ErrRecordNotFound {
		return "", &lifecycle.NotFoundError{Entity: "connected whatsapp instance", ID: userID}
	}
	if err != nil {
		return "", err
	}
	return instance.InstanceToken, nil
}
