package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recomendaleads/models"
)

func followUpAgent(msgs ...models.FollowUpMessage) models.Agent {
	return models.Agent{
		Model:       gorm.Model{ID: 7},
		CompanyName: "Acme",
		Status:      models.AgentStatusActive,
		GamificationRules: []models.GamificationRule{
			{Model: gorm.Model{ID: 1}, LeadsRequired: 5, BonusMultiplier: 1},
		},
		FollowUpMessages: msgs,
	}
}

func collectingClient(created time.Time, count int) models.Client {
	return models.Client{
		Model:               gorm.Model{ID: 3, CreatedAt: created},
		Name:                "Joao",
		Status:              models.ClientStatusCollecting,
		RecommendationCount: count,
	}
}

func TestNoRecommendationsFiresAfterDelay(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{
		Model:      gorm.Model{ID: 21},
		Trigger:    models.TriggerNoRecommendations,
		DelayHours: 24,
		Message:    "Ola {nome_cliente}, ainda sem recomendacoes?",
		IsActive:   true,
	}
	client := collectingClient(now.Add(-25*time.Hour), 0)

	res := EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now)
	require.NotNil(t, res)
	assert.Equal(t, msg.ID, res.FollowUp.ID)
	assert.Equal(t, models.EventFollowUpSent, res.Event.Type)
	assert.Equal(t, "Ola Joao, ainda sem recomendacoes?", res.Message)
}

func TestNoRecommendationsDoesNotFireWithReferrals(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{
		Model:      gorm.Model{ID: 21},
		Trigger:    models.TriggerNoRecommendations,
		DelayHours: 24,
		IsActive:   true,
	}
	client := collectingClient(now.Add(-25*time.Hour), 1)

	assert.Nil(t, EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now))
}

func TestNoRecommendationsDoesNotFireBeforeDelay(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{
		Model:      gorm.Model{ID: 21},
		Trigger:    models.TriggerNoRecommendations,
		DelayHours: 24,
		IsActive:   true,
	}
	client := collectingClient(now.Add(-23*time.Hour), 0)

	assert.Nil(t, EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now))
}

func TestPartialRecommendationsRequiresCountBelowLowestTier(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{
		Model:      gorm.Model{ID: 22},
		Trigger:    models.TriggerPartialRecommendations,
		DelayHours: 12,
		IsActive:   true,
	}

	last := now.Add(-13 * time.Hour)
	client := collectingClient(now.Add(-48*time.Hour), 2)
	client.LastRecommendationDate = &last

	res := EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now)
	require.NotNil(t, res)

	// At the lowest threshold the client is no longer "partial".
	client.RecommendationCount = 5
	assert.Nil(t, EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now))
}

func TestPostRecommendationNeedsConvertedReferred(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{
		Model:      gorm.Model{ID: 23},
		Trigger:    models.TriggerPostRecommendation,
		DelayHours: 1,
		IsActive:   true,
	}
	client := collectingClient(now.Add(-48*time.Hour), 3)

	assert.Nil(t, EvaluateFollowUp(client, followUpAgent(msg), []models.ReferredClient{
		{Status: models.ReferredStatusOfferSent},
	}, map[uint]bool{}, now))

	converted := now.Add(-2 * time.Hour)
	res := EvaluateFollowUp(client, followUpAgent(msg), []models.ReferredClient{
		{Status: models.ReferredStatusConverted, ConvertedDate: &converted},
	}, map[uint]bool{}, now)
	require.NotNil(t, res)
}

func TestSmallestDelayWinsAmongQualifying(t *testing.T) {
	now := time.Now()
	slow := models.FollowUpMessage{Model: gorm.Model{ID: 31}, Trigger: models.TriggerNoRecommendations, DelayHours: 48, IsActive: true}
	fast := models.FollowUpMessage{Model: gorm.Model{ID: 32}, Trigger: models.TriggerNoRecommendations, DelayHours: 24, IsActive: true}
	client := collectingClient(now.Add(-72*time.Hour), 0)

	res := EvaluateFollowUp(client, followUpAgent(slow, fast), nil, map[uint]bool{}, now)
	require.NotNil(t, res)
	assert.Equal(t, fast.ID, res.FollowUp.ID)
}

func TestNeverFiresSamePairTwice(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{Model: gorm.Model{ID: 21}, Trigger: models.TriggerNoRecommendations, DelayHours: 24, IsActive: true}
	client := collectingClient(now.Add(-72*time.Hour), 0)
	agent := followUpAgent(msg)
	fired := map[uint]bool{}

	first := EvaluateFollowUp(client, agent, nil, fired, now)
	require.NotNil(t, first)
	fired[first.FollowUp.ID] = true

	assert.Nil(t, EvaluateFollowUp(client, agent, nil, fired, now))
}

func TestInactiveMessagesAreSkipped(t *testing.T) {
	now := time.Now()
	msg := models.FollowUpMessage{Model: gorm.Model{ID: 21}, Trigger: models.TriggerNoRecommendations, DelayHours: 24, IsActive: false}
	client := collectingClient(now.Add(-72*time.Hour), 0)

	assert.Nil(t, EvaluateFollowUp(client, followUpAgent(msg), nil, map[uint]bool{}, now))
}
