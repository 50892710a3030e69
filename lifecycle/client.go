package lifecycle

import (
	"time"

	"recomendaleads/models"
)

// StartResult carries the outcome of StartRecommendations.
type StartResult struct {
	Client  models.Client
	Event   models.TimelineEvent
	Message string
}

// StartRecommendations moves a client from not_started into
// collecting_recommendations under the given agent. The rendered
// message_to_client template travels in the emitted event.
func StartRecommendations(client models.Client, agent models.Agent, now time.Time) (StartResult, error) {
	if client.Status != models.ClientStatusNotStarted {
		return StartResult{}, &InvalidStateError{Entity: "client", State: client.Status, Op: "start recommendations"}
	}
	if agent.Status != models.AgentStatusActive {
		return StartResult{}, &InvalidStateError{Entity: "agent", State: agent.Status, Op: "start recommendations"}
	}

	client.Status = models.ClientStatusCollecting
	client.AgentID = &agent.ID

	message := Render(agent.MessageToClient, ClientVars(&client, &agent))
	clientID := client.ID
	event := models.TimelineEvent{
		UserID:      client.UserID,
		ClientID:    &clientID,
		AgentID:     agent.ID,
		Type:        models.EventMessageSent,
		Description: message,
		Metadata: map[string]any{
			"template":   "message_to_client",
			"started_at": now,
		},
	}

	return StartResult{Client: client, Event: event, Message: message}, nil
}

// ReferralResult carries the outcome of ReceiveReferral.
type ReferralResult struct {
	Client   models.Client
	Referred models.ReferredClient
	Event    models.TimelineEvent
}

// ReceiveReferral records an incoming referral for a collecting client: a
// new referred client in the funnel plus an incremented recommendation
// count on the referrer.
func ReceiveReferral(client models.Client, agent models.Agent, name, phone string, now time.Time) (ReferralResult, error) {
	if client.Status != models.ClientStatusCollecting {
		return ReferralResult{}, &InvalidStateError{Entity: "client", State: client.Status, Op: "receive referral"}
	}

	client.RecommendationCount++
	client.LastRecommendationDate = &now

	referred := models.ReferredClient{
		UserID:         client.UserID,
		Name:           name,
		Phone:          phone,
		SourceClientID: client.ID,
		AgentID:        agent.ID,
		Status:         models.ReferredStatusNew,
	}

	clientID := client.ID
	event := models.TimelineEvent{
		UserID:      client.UserID,
		ClientID:    &clientID,
		AgentID:     agent.ID,
		Type:        models.EventRecommendationReceived,
		Description: name + " foi recomendado(a) por " + client.Name,
		Metadata: map[string]any{
			"recommendation_count": client.RecommendationCount,
		},
	}

	return ReferralResult{Client: client, Referred: referred, Event: event}, nil
}
