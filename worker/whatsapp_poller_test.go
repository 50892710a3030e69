package worker

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recomendaleads/models"
	"recomendaleads/utils"
)

// fakeChecker records which tokens get polled and answers from a scripted
// status per token.
type fakeChecker struct {
	mu       sync.Mutex
	statuses map[string]utils.WhatsAppStatus
	err      error
	checks   map[string]int
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		statuses: make(map[string]utils.WhatsAppStatus),
		checks:   make(map[string]int),
	}
}

func (f *fakeChecker) InstanceStatus(token string) (utils.WhatsAppStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[token]++
	if f.err != nil {
		return utils.WhatsAppStatus{}, f.err
	}
	status, ok := f.statuses[token]
	if !ok {
		status = utils.WhatsAppStatus{Status: models.ConnectionConnecting}
	}
	return status, nil
}

func (f *fakeChecker) count(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[token]
}

func (f *fakeChecker) setStatus(token string, status utils.WhatsAppStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[token] = status
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWatchPollsUntilConnected(t *testing.T) {
	checker := newFakeChecker()

	var mu sync.Mutex
	var gotToken string
	var gotStatus utils.WhatsAppStatus
	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(token string, status utils.WhatsAppStatus) {
		mu.Lock()
		defer mu.Unlock()
		gotToken = token
		gotStatus = status
	})
	defer poller.Stop()

	poller.Watch("inst-a")
	waitFor(t, func() bool { return checker.count("inst-a") >= 2 })

	checker.setStatus("inst-a", utils.WhatsAppStatus{Status: models.ConnectionConnected, PhoneNumber: "+5511999990000"})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotToken == "inst-a"
	})

	mu.Lock()
	assert.Equal(t, models.ConnectionConnected, gotStatus.Status)
	assert.Equal(t, "+5511999990000", gotStatus.PhoneNumber)
	mu.Unlock()

	// The loop is done; the count settles.
	settled := checker.count("inst-a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, checker.count("inst-a"))
}

func TestWatchReplacesPollTarget(t *testing.T) {
	checker := newFakeChecker()
	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(string, utils.WhatsAppStatus) {})
	defer poller.Stop()

	poller.Watch("inst-a")
	waitFor(t, func() bool { return checker.count("inst-a") >= 1 })

	poller.Watch("inst-b")
	countA := checker.count("inst-a")

	waitFor(t, func() bool { return checker.count("inst-b") >= 3 })
	assert.Equal(t, countA, checker.count("inst-a"), "instance A must not be polled after the target moved to B")
}

func TestWatchSameTokenIsNoop(t *testing.T) {
	checker := newFakeChecker()
	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(string, utils.WhatsAppStatus) {})

	poller.Watch("inst-a")
	poller.Watch("inst-a")
	waitFor(t, func() bool { return checker.count("inst-a") >= 2 })

	// A duplicate Watch must not leave a second loop behind.
	poller.Stop()
	settled := checker.count("inst-a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, checker.count("inst-a"))
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	checker := newFakeChecker()
	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(string, utils.WhatsAppStatus) {})

	poller.Watch("inst-a")
	waitFor(t, func() bool { return checker.count("inst-a") >= 1 })

	poller.Stop()
	settled := checker.count("inst-a")
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, checker.count("inst-a"), "no status check may run after Stop returns")

	// Stopping again is fine.
	poller.Stop()
}

func TestStopWithoutWatchIsNoop(t *testing.T) {
	poller := NewStatusPoller(newFakeChecker(), 10*time.Millisecond, quietLogger(), func(string, utils.WhatsAppStatus) {})
	poller.Stop()
}

func TestTransientErrorsKeepPolling(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("connection refused")

	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(string, utils.WhatsAppStatus) {})
	defer poller.Stop()

	poller.Watch("inst-a")
	waitFor(t, func() bool { return checker.count("inst-a") >= 3 })
}

func TestProviderFailureReportsDisconnected(t *testing.T) {
	checker := newFakeChecker()
	checker.setStatus("inst-a", utils.WhatsAppStatus{Status: "failed"})

	var mu sync.Mutex
	var gotStatus string
	poller := NewStatusPoller(checker, 10*time.Millisecond, quietLogger(), func(_ string, status utils.WhatsAppStatus) {
		mu.Lock()
		defer mu.Unlock()
		gotStatus = status.Status
	})
	defer poller.Stop()

	poller.Watch("inst-a")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotStatus != ""
	})

	mu.Lock()
	assert.Equal(t, models.ConnectionDisconnected, gotStatus)
	mu.Unlock()
}
