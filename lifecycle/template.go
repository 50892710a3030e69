package lifecycle

import (
	"regexp"
	"strconv"

	"recomendaleads/models"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes {token} placeholders in a message template. Unknown
// placeholders render as the empty string rather than being left literal:
// a half-filled template must never reach a customer's phone.
func Render(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		return vars[name]
	})
}

// ClientVars builds the substitution set for messages addressed to a client.
func ClientVars(client *models.Client, agent *models.Agent) map[string]string {
	return map[string]string{
		"nome_cliente": client.Name,
		"empresa":      agent.CompanyName,
		"oferta":       agent.OfferDescription,
		"quantidade":   strconv.Itoa(client.RecommendationCount),
	}
}

// ReferredVars builds the substitution set for messages addressed to a
// referred person.
func ReferredVars(referred *models.ReferredClient, client *models.Client, agent *models.Agent) map[string]string {
	vars := ClientVars(client, agent)
	vars["nome_recomendado"] = referred.Name
	return vars
}

// GiftVars extends the client set with the bonus fields of a paying tier and
// the distance to the next one.
func GiftVars(client *models.Client, agent *models.Agent, rule *models.GamificationRule) map[string]string {
	vars := ClientVars(client, agent)
	vars["bonus"] = rule.BonusDescription
	vars["bonus_recomendado"] = rule.BonusDescription
	if next, ok := nextTier(agent.GamificationRules, client.RecommendationCount); ok {
		vars["faltam"] = strconv.Itoa(next.LeadsRequired - client.RecommendationCount)
	} else {
		vars["faltam"] = "0"
	}
	return vars
}

func nextTier(rules []models.GamificationRule, count int) (models.GamificationRule, bool) {
	var best models.GamificationRule
	found := false
	for _, r := range rules {
		if r.LeadsRequired > count && (!found || r.LeadsRequired < best.LeadsRequired) {
			best = r
			found = true
		}
	}
	return best, found
}
