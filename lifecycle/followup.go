package lifecycle

import (
	"time"

	"recomendaleads/models"
)

// FollowUpResult carries the single follow-up message selected to fire,
// with its rendered text and timeline event.
type FollowUpResult struct {
	FollowUp models.FollowUpMessage
	Event    models.TimelineEvent
	Message  string
}

// EvaluateFollowUp selects at most one active follow-up message to fire for
// a client. A message qualifies when its trigger predicate holds and its
// delay has elapsed since the trigger's reference timestamp; among
// qualifying messages the smallest delay not already fired wins. No message
// ever fires twice for the same client, and "nothing to do" is a nil result,
// not an error.
func EvaluateFollowUp(client models.Client, agent models.Agent, referreds []models.ReferredClient, fired map[uint]bool, now time.Time) *FollowUpResult {
	var winner *models.FollowUpMessage
	for i := range agent.FollowUpMessages {
		msg := &agent.FollowUpMessages[i]
		if !msg.IsActive || fired[msg.ID] {
			continue
		}
		ref, ok := triggerApplies(msg.Trigger, client, agent, referreds)
		if !ok {
			continue
		}
		if now.Sub(ref) < time.Duration(msg.DelayHours)*time.Hour {
			continue
		}
		if winner == nil || msg.DelayHours < winner.DelayHours {
			winner = msg
		}
	}
	if winner == nil {
		return nil
	}

	message := Render(winner.Message, ClientVars(&client, &agent))
	clientID := client.ID
	event := models.TimelineEvent{
		UserID:      client.UserID,
		ClientID:    &clientID,
		AgentID:     agent.ID,
		Type:        models.EventFollowUpSent,
		Description: message,
		Metadata: map[string]any{
			"follow_up_id": winner.ID,
			"trigger":      winner.Trigger,
			"delay_hours":  winner.DelayHours,
		},
	}

	return &FollowUpResult{FollowUp: *winner, Event: event, Message: message}
}

// triggerApplies evaluates the trigger predicate and returns the reference
// timestamp the delay counts from.
func triggerApplies(trigger string, client models.Client, agent models.Agent, referreds []models.ReferredClient) (time.Time, bool) {
	switch trigger {
	case models.TriggerNoRecommendations:
		if client.Status == models.ClientStatusCollecting && client.RecommendationCount == 0 {
			return client.CreatedAt, true
		}
	case models.TriggerPartialRecommendations:
		lowest, ok := LowestThreshold(agent.GamificationRules)
		if ok && client.RecommendationCount > 0 && client.RecommendationCount < lowest {
			if client.LastRecommendationDate != nil {
				return *client.LastRecommendationDate, true
			}
			return client.CreatedAt, true
		}
	case models.TriggerPostRecommendation:
		for _, r := range referreds {
			if r.Status == models.ReferredStatusConverted && r.ConvertedDate != nil {
				return *r.ConvertedDate, true
			}
		}
	case models.TriggerCustom:
		// Applicability is the caller's call; the delay counts from creation.
		return client.CreatedAt, true
	}
	return time.Time{}, false
}
