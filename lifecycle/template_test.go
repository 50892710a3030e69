package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recomendaleads/models"
)

func TestRenderSubstitutesKnownPlaceholders(t *testing.T) {
	out := Render("Ola {nome_cliente}!", map[string]string{"nome_cliente": "Joao"})
	assert.Equal(t, "Ola Joao!", out)
}

func TestRenderUnknownPlaceholderRendersEmpty(t *testing.T) {
	out := Render("Oi {nome_cliente}, veja {desconhecido}.", map[string]string{"nome_cliente": "Ana"})
	assert.Equal(t, "Oi Ana, veja .", out)
}

func TestRenderLeavesPlainTextAlone(t *testing.T) {
	assert.Equal(t, "sem variaveis", Render("sem variaveis", nil))
}

func TestClientVars(t *testing.T) {
	client := &models.Client{Name: "Joao", RecommendationCount: 3}
	agent := &models.Agent{CompanyName: "Acme", OfferDescription: "15% off"}

	vars := ClientVars(client, agent)
	assert.Equal(t, "Joao", vars["nome_cliente"])
	assert.Equal(t, "Acme", vars["empresa"])
	assert.Equal(t, "15% off", vars["oferta"])
	assert.Equal(t, "3", vars["quantidade"])
}

func TestGiftVarsFaltamCountsToNextTier(t *testing.T) {
	client := &models.Client{Name: "Joao", RecommendationCount: 6}
	agent := &models.Agent{
		GamificationRules: []models.GamificationRule{
			{LeadsRequired: 5, BonusMultiplier: 1, BonusDescription: "E-book"},
			{LeadsRequired: 10, BonusMultiplier: 2, BonusDescription: "Consultoria"},
		},
	}

	vars := GiftVars(client, agent, &agent.GamificationRules[0])
	assert.Equal(t, "E-book", vars["bonus"])
	assert.Equal(t, "4", vars["faltam"])
}

func TestGiftVarsFaltamZeroAtTopTier(t *testing.T) {
	client := &models.Client{RecommendationCount: 12}
	agent := &models.Agent{
		GamificationRules: []models.GamificationRule{
			{LeadsRequired: 5},
			{LeadsRequired: 10, BonusDescription: "Top"},
		},
	}

	vars := GiftVars(client, agent, &agent.GamificationRules[1])
	assert.Equal(t, "0", vars["faltam"])
}
