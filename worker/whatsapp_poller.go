package worker

import (
	"log"
	"sync"
	"time"

	"recomendaleads/models"
	"recomendaleads/utils"
)

// StatusChecker is the slice of the provider client the poller needs.
type StatusChecker interface {
	InstanceStatus(token string) (utils.WhatsAppStatus, error)
}

// StatusPoller watches a single connecting WhatsApp instance, checking the
// provider's status endpoint on a fixed interval until the instance reaches
// a terminal state. At most one instance is polled at a time: watching a new
// token replaces the previous target. Transient provider errors are logged
// and absorbed so the loop keeps retrying.
type StatusPoller struct {
	checker  StatusChecker
	interval time.Duration
	logger   *log.Logger

	// onChange observes every terminal status change (connected, or a
	// provider-reported failure back to disconnected).
	onChange func(token string, status utils.WhatsAppStatus)

	mu    sync.Mutex
	token string
	stop  chan struct{}
	done  chan struct{}
}

func NewStatusPoller(checker StatusChecker, interval time.Duration, logger *log.Logger, onChange func(string, utils.WhatsAppStatus)) *StatusPoller {
	return &StatusPoller{
		checker:  checker,
		interval: interval,
		logger:   logger,
		onChange: onChange,
	}
}

// Watch starts polling the given instance token. Watching the token already
// being polled is a no-op; watching a different token stops the previous
// poll before the new one begins.
func (p *StatusPoller) Watch(token string) {
	p.mu.Lock()
	if p.token == token && p.stop != nil {
		select {
		case <-p.done:
			// Previous loop reached a terminal state; start over.
		default:
			p.mu.Unlock()
			return
		}
	}
	p.cancelLocked()
	p.token = token
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop = stop
	p.done = done
	p.mu.Unlock()

	go p.loop(token, stop, done)
}

// Stop cancels the active poll, if any. It is idempotent and does not return
// until the polling goroutine has exited, so no status check can run after
// Stop returns.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
	p.token = ""
}

func (p *StatusPoller) cancelLocked() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
}

func (p *StatusPoller) loop(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			status, err := p.checker.InstanceStatus(token)
			if err != nil {
				// Polling tolerates transient failure; keep retrying.
				p.logger.Printf("status check failed for instance %s: %v", token, err)
				continue
			}

			switch status.Status {
			case models.ConnectionConnected:
				p.logger.Printf("instance %s connected (%s)", token, status.PhoneNumber)
				p.onChange(token, status)
				return
			case "failed", "close":
				// Provider gave up on the pairing; surface as disconnected.
				p.logger.Printf("instance %s failed to connect", token)
				p.onChange(token, utils.WhatsAppStatus{Status: models.ConnectionDisconnected})
				return
			}
		}
	}
}
