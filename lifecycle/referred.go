package lifecycle

import (
	"time"

	"recomendaleads/models"
)

// referredOrder indexes the funnel; transitions must advance exactly one
// step at a time.
var referredOrder = map[string]int{
	models.ReferredStatusNew:              0,
	models.ReferredStatusContactInitiated: 1,
	models.ReferredStatusOfferSent:        2,
	models.ReferredStatusConverted:        3,
}

// AdvanceReferred moves a referred client one step forward in the contact
// funnel. Skips and regressions fail with InvalidTransitionError.
func AdvanceReferred(referred models.ReferredClient, next string, now time.Time) (models.ReferredClient, models.TimelineEvent, error) {
	from, ok := referredOrder[referred.Status]
	if !ok {
		return referred, models.TimelineEvent{}, &InvalidStateError{Entity: "referred client", State: referred.Status, Op: "advance"}
	}
	to, ok := referredOrder[next]
	if !ok || to != from+1 {
		return referred, models.TimelineEvent{}, &InvalidTransitionError{From: referred.Status, To: next}
	}

	prev := referred.Status
	referred.Status = next
	referred.MessagesSent++
	referred.LastContactDate = &now

	eventType := models.EventStatusChanged
	switch next {
	case models.ReferredStatusOfferSent:
		referred.OfferSentDate = &now
		eventType = models.EventOfferSent
	case models.ReferredStatusConverted:
		referred.ConvertedDate = &now
	}

	referredID := referred.ID
	event := models.TimelineEvent{
		UserID:           referred.UserID,
		ReferredClientID: &referredID,
		AgentID:          referred.AgentID,
		Type:             eventType,
		Description:      referred.Name + ": " + prev + " -> " + next,
		Metadata: map[string]any{
			"previous_status": prev,
			"next_status":     next,
		},
	}

	return referred, event, nil
}
