package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recomendaleads/models"
)

func tieredAgent() models.Agent {
	return models.Agent{
		Model:                    gorm.Model{ID: 7},
		CompanyName:              "Acme",
		MessageGiftToRecommender: "Parabens {nome_cliente}! {quantidade} recomendacoes: {bonus}",
		Status:                   models.AgentStatusActive,
		GamificationRules: []models.GamificationRule{
			{Model: gorm.Model{ID: 1}, LeadsRequired: 5, BonusMultiplier: 1, BonusDescription: "E-book"},
			{Model: gorm.Model{ID: 2}, LeadsRequired: 10, BonusMultiplier: 2, BonusDescription: "Consultoria"},
		},
	}
}

func TestEvaluateGamificationPicksHighestReachedTier(t *testing.T) {
	client := models.Client{Model: gorm.Model{ID: 3}, Name: "Joao", RecommendationCount: 12}

	res, err := EvaluateGamification(client, tieredAgent(), map[uint]bool{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 10, res.Rule.LeadsRequired)
	assert.Equal(t, models.EventGiftSent, res.Event.Type)
	assert.Equal(t, "Parabens Joao! 12 recomendacoes: Consultoria", res.Message)
}

func TestEvaluateGamificationIdempotentOncePaid(t *testing.T) {
	client := models.Client{RecommendationCount: 12}
	agent := tieredAgent()
	paid := map[uint]bool{}

	first, err := EvaluateGamification(client, agent, paid)
	require.NoError(t, err)
	require.NotNil(t, first)
	paid[first.Rule.ID] = true

	// The 10-tier is paid; the next evaluation falls back to the 5-tier,
	// and once that is paid too the evaluation goes quiet.
	second, err := EvaluateGamification(client, agent, paid)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 5, second.Rule.LeadsRequired)
	paid[second.Rule.ID] = true

	third, err := EvaluateGamification(client, agent, paid)
	require.NoError(t, err)
	assert.Nil(t, third)
}

func TestEvaluateGamificationBelowAllThresholds(t *testing.T) {
	client := models.Client{RecommendationCount: 4}

	res, err := EvaluateGamification(client, tieredAgent(), map[uint]bool{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestEvaluateGamificationTieBreaksOnMultiplier(t *testing.T) {
	agent := tieredAgent()
	agent.GamificationRules = []models.GamificationRule{
		{Model: gorm.Model{ID: 1}, LeadsRequired: 5, BonusMultiplier: 1, BonusDescription: "E-book"},
		{Model: gorm.Model{ID: 2}, LeadsRequired: 5, BonusMultiplier: 3, BonusDescription: "Consultoria"},
	}
	client := models.Client{RecommendationCount: 5}

	res, err := EvaluateGamification(client, agent, map[uint]bool{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.Rule.BonusMultiplier)
}

func TestLowestThreshold(t *testing.T) {
	lowest, ok := LowestThreshold(tieredAgent().GamificationRules)
	require.True(t, ok)
	assert.Equal(t, 5, lowest)

	_, ok = LowestThreshold(nil)
	assert.False(t, ok)
}
