package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recomendaleads/models"
)

func newReferred(status string) models.ReferredClient {
	return models.ReferredClient{
		Model:          gorm.Model{ID: 11},
		UserID:         1,
		Name:           "Maria",
		SourceClientID: 3,
		AgentID:        7,
		Status:         status,
	}
}

func TestAdvanceReferredWalksFullFunnel(t *testing.T) {
	now := time.Now()
	referred := newReferred(models.ReferredStatusNew)

	steps := []string{
		models.ReferredStatusContactInitiated,
		models.ReferredStatusOfferSent,
		models.ReferredStatusConverted,
	}
	for i, next := range steps {
		var err error
		var event models.TimelineEvent
		referred, event, err = AdvanceReferred(referred, next, now)
		require.NoError(t, err)
		assert.Equal(t, next, referred.Status)
		assert.Equal(t, i+1, referred.MessagesSent)
		require.NotNil(t, event.ReferredClientID)
	}

	require.NotNil(t, referred.OfferSentDate)
	require.NotNil(t, referred.ConvertedDate)
}

func TestAdvanceReferredEmitsOfferSentEventType(t *testing.T) {
	_, event, err := AdvanceReferred(newReferred(models.ReferredStatusContactInitiated), models.ReferredStatusOfferSent, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.EventOfferSent, event.Type)

	_, event, err = AdvanceReferred(newReferred(models.ReferredStatusNew), models.ReferredStatusContactInitiated, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusChanged, event.Type)
}

func TestAdvanceReferredRejectsSkips(t *testing.T) {
	_, _, err := AdvanceReferred(newReferred(models.ReferredStatusNew), models.ReferredStatusOfferSent, time.Now())

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.ReferredStatusNew, transitionErr.From)
}

func TestAdvanceReferredRejectsRegressions(t *testing.T) {
	cases := [][2]string{
		{models.ReferredStatusContactInitiated, models.ReferredStatusNew},
		{models.ReferredStatusOfferSent, models.ReferredStatusContactInitiated},
		{models.ReferredStatusConverted, models.ReferredStatusOfferSent},
	}
	for _, c := range cases {
		_, _, err := AdvanceReferred(newReferred(c[0]), c[1], time.Now())

		var transitionErr *InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr, "%s -> %s must fail", c[0], c[1])
	}
}

func TestAdvanceReferredRejectsUnknownTarget(t *testing.T) {
	_, _, err := AdvanceReferred(newReferred(models.ReferredStatusNew), "ghosted", time.Now())
	assert.Error(t, err)

	referred := newReferred(models.ReferredStatusConverted)
	unchanged, _, err := AdvanceReferred(referred, models.ReferredStatusConverted, time.Now())
	assert.Error(t, err)
	assert.Equal(t, models.ReferredStatusConverted, unchanged.Status)
	assert.Zero(t, unchanged.MessagesSent)
}
