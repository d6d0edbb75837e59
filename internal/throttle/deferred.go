package throttle

import "time"

// Deferred is a single one-shot action due at a game-clock deadline. The
// owner polls it from its tick; it never runs on its own goroutine.
// Scheduling while an action is pending replaces it.
type Deferred struct {
	deadline time.Duration
	action   func()
	pending  bool
}

// Schedule arms the action for at, replacing any pending one.
func (d *Deferred) Schedule(at time.Duration, action func()) {
	d.deadline = at
	d.action = action
	d.pending = action != nil
}

// Cancel disarms the pending action, if any.
func (d *Deferred) Cancel() {
	d.action = nil
	d.pending = false
}

// Pending reports whether an action is armed.
func (d *Deferred) Pending() bool {
	return d.pending
}

// Deadline returns the armed deadline.
func (d *Deferred) Deadline() (time.Duration, bool) {
	return d.deadline, d.pending
}

// Poll runs the action if now has reached the deadline. The action is
// disarmed before it runs, so it may reschedule itself.
func (d *Deferred) Poll(now time.Duration) bool {
	if !d.pending || now < d.deadline {
		return false
	}
	action := d.action
	d.Cancel()
	action()
	return true
}
