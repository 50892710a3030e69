package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recomendaleads/models"
)

func activeAgent() models.Agent {
	return models.Agent{
		Model:            gorm.Model{ID: 7},
		UserID:           1,
		CompanyName:      "Acme",
		MessageToClient:  "Ola {nome_cliente}, conhece alguem para a {empresa}?",
		OfferDescription: "15% de desconto",
		Status:           models.AgentStatusActive,
	}
}

func TestStartRecommendations(t *testing.T) {
	client := models.Client{Model: gorm.Model{ID: 3}, UserID: 1, Name: "Joao", Status: models.ClientStatusNotStarted}
	agent := activeAgent()

	res, err := StartRecommendations(client, agent, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.ClientStatusCollecting, res.Client.Status)
	require.NotNil(t, res.Client.AgentID)
	assert.Equal(t, agent.ID, *res.Client.AgentID)
	assert.Equal(t, models.EventMessageSent, res.Event.Type)
	assert.Equal(t, "Ola Joao, conhece alguem para a Acme?", res.Message)
}

func TestStartRecommendationsRejectsNonInitialStatus(t *testing.T) {
	agent := activeAgent()
	for _, status := range []string{models.ClientStatusCollecting, models.ClientStatusCompleted} {
		client := models.Client{Status: status}
		_, err := StartRecommendations(client, agent, time.Now())

		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "client", stateErr.Entity)
	}
}

func TestStartRecommendationsRejectsInactiveAgent(t *testing.T) {
	client := models.Client{Status: models.ClientStatusNotStarted}
	agent := activeAgent()
	agent.Status = models.AgentStatusInactive

	_, err := StartRecommendations(client, agent, time.Now())

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "agent", stateErr.Entity)
}

func TestReceiveReferral(t *testing.T) {
	now := time.Now()
	client := models.Client{
		Model:  gorm.Model{ID: 3},
		UserID: 1,
		Name:   "Joao",
		Status: models.ClientStatusCollecting,
	}

	res, err := ReceiveReferral(client, activeAgent(), "Maria", "+5511999990000", now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Client.RecommendationCount)
	require.NotNil(t, res.Client.LastRecommendationDate)
	assert.Equal(t, now, *res.Client.LastRecommendationDate)

	assert.Equal(t, models.ReferredStatusNew, res.Referred.Status)
	assert.Equal(t, client.ID, res.Referred.SourceClientID)
	assert.Equal(t, "Maria", res.Referred.Name)

	assert.Equal(t, models.EventRecommendationReceived, res.Event.Type)
	assert.Equal(t, 1, res.Event.Metadata["recommendation_count"])
}

func TestReceiveReferralRequiresCollectingStatus(t *testing.T) {
	client := models.Client{Status: models.ClientStatusNotStarted}

	_, err := ReceiveReferral(client, activeAgent(), "Maria", "+5511999990000", time.Now())

	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}
