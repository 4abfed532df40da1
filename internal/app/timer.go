package app

import "time"

// TimerController drives one session's per-question countdown. It wakes once
// per second and hands the tick to the session, which owns all countdown
// state; the controller only guarantees that at most one goroutine is
// ticking a session at a time. Restart and Stop are not safe for concurrent
// use; call them from the connection's single read loop.
type TimerController struct {
	session  *Session
	notifier Notifier
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewTimerController binds a controller to a session. The notifier receives
// the "time's up" message on expiry.
func NewTimerController(session *Session, notifier Notifier) *TimerController {
	return &TimerController{
		session:  session,
		notifier: notifier,
		interval: time.Second,
	}
}

// Restart cancels any running countdown and starts a new one if the session
// currently has an unsubmitted question with the timer enabled. Call after
// every load, reshuffle and advance.
func (c *TimerController) Restart() {
	c.Stop()

	snap := c.session.Snapshot()
	if !snap.Loaded || snap.Submitted || snap.SummaryVisible || snap.TimeRemaining == nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop = stop
	c.done = done
	go c.run(stop, done)
}

// Stop cancels the running countdown, if any, and waits for its goroutine to
// finish so no tick or notification lands after Stop returns.
func (c *TimerController) Stop() {
	if c.stop != nil {
		close(c.stop)
		<-c.done
		c.stop = nil
		c.done = nil
	}
}

func (c *TimerController) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			outcome := c.session.Tick()
			if outcome.Expired {
				c.notifier.Notify(NotifyInfo, "Time's up", "Your answer was submitted automatically.")
				return
			}
			if !outcome.Active {
				// Submitted or reset underneath us; a later Restart
				// will pick the countdown back up.
				return
			}
		}
	}
}
