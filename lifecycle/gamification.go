package lifecycle

import (
	"sort"

	"recomendaleads/models"
)

// GamificationResult carries a qualifying tier with its gift event and the
// rendered gift message.
type GamificationResult struct {
	Rule    models.GamificationRule
	Event   models.TimelineEvent
	Message string
}

// EvaluateGamification finds the highest tier the client's recommendation
// count has reached that has not been paid out yet. Rules are considered in
// ascending LeadsRequired order; when two rules share a threshold the larger
// BonusMultiplier wins. Re-running with the same paid set and count yields
// nothing, so evaluation is idempotent.
func EvaluateGamification(client models.Client, agent models.Agent, paid map[uint]bool) (*GamificationResult, error) {
	rules := make([]models.GamificationRule, len(agent.GamificationRules))
	copy(rules, agent.GamificationRules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].LeadsRequired != rules[j].LeadsRequired {
			return rules[i].LeadsRequired < rules[j].LeadsRequired
		}
		return rules[i].BonusMultiplier < rules[j].BonusMultiplier
	})

	var winner *models.GamificationRule
	for i := range rules {
		if rules[i].LeadsRequired <= client.RecommendationCount && !paid[rules[i].ID] {
			winner = &rules[i]
		}
	}
	if winner == nil {
		return nil, nil
	}

	agentCopy := agent
	agentCopy.GamificationRules = rules
	message := Render(agent.MessageGiftToRecommender, GiftVars(&client, &agentCopy, winner))

	clientID := client.ID
	event := models.TimelineEvent{
		UserID:      client.UserID,
		ClientID:    &clientID,
		AgentID:     agent.ID,
		Type:        models.EventGiftSent,
		Description: message,
		Metadata: map[string]any{
			"rule_id":              winner.ID,
			"leads_required":       winner.LeadsRequired,
			"bonus_multiplier":     winner.BonusMultiplier,
			"recommendation_count": client.RecommendationCount,
		},
	}

	return &GamificationResult{Rule: *winner, Event: event, Message: message}, nil
}

// LowestThreshold returns the smallest LeadsRequired among an agent's rules,
// used by the partial_recommendations follow-up predicate. Zero rules means
// no threshold (returns 0, false).
func LowestThreshold(rules []models.GamificationRule) (int, bool) {
	if len(rules) == 0 {
		return 0, false
	}
	lowest := rules[0].LeadsRequired
	for _, r := range rules[1:] {
		if r.LeadsRequired < lowest {
			lowest = r.LeadsRequired
		}
	}
	return lowest, true
}
