package syncpt

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NoTimeout makes Wait block until the threshold is reached or the context
// is cancelled. Any negative timeout means the same.
const NoTimeout time.Duration = -1

var (
	// ErrWouldBlock is returned by Wait with a zero timeout when the
	// threshold is not yet satisfied.
	ErrWouldBlock = errors.New("syncpt: wait would block")

	// ErrTimeout is returned by Wait when the timeout elapses first.
	ErrTimeout = errors.New("syncpt: wait timed out")
)

// Wait blocks until counter id reaches thresh under wrapping comparison.
//
// The threshold must have been reserved: waiting on a managed counter for a
// value beyond max is a caller bug and panics before any hardware access.
//
// The protocol is layered to keep register traffic and power churn off the
// common path: a satisfied cached min returns immediately; otherwise the
// device is held active, one forced hardware refresh runs when the counter
// is client managed or has work pending, and only then is a wake action
// registered. A zero timeout never blocks and reports ErrWouldBlock.
//
// Blocking happens in slices of at most the configured check period. Each
// expired slice re-evaluates the cached value, charges the timeout budget
// and logs a stuck-wait warning; dispatcher wakeups re-evaluate without
// charging. Cancelling ctx interrupts the wait and returns ctx.Err(). The
// wake registration and the power claim are released on every exit path.
func (sp *Syncpt) Wait(ctx context.Context, id int, thresh uint32, timeout time.Duration) error {
	sp.idCheck(id)
	if !sp.checkMax(id, thresh) {
		panic(fmt.Sprintf("syncpt: wait on id %d (%s) for threshold %d never reserved (max %d)",
			id, sp.Name(id), thresh, sp.maxVal[id].Load()))
	}

	// first check cache
	if sp.MinCompare(id, thresh) {
		return nil
	}

	// keep the device alive for the rest of the wait
	sp.power.Busy()
	defer sp.power.Idle()

	if sp.clientManaged(id) || !sp.MinEqMax(id) {
		// try to read from the register
		if live := sp.RefreshMin(id); WrappingCompare(live, thresh) {
			return nil
		}
	}

	if timeout == 0 {
		return ErrWouldBlock
	}

	// schedule a wakeup for when the counter value is reached
	wake := make(chan struct{}, 1)
	ref, err := sp.intr.AddAction(id, thresh, wake)
	if err != nil {
		return err
	}
	defer sp.intr.PutRef(ref)

	forever := timeout < 0
	remaining := timeout
	for {
		slice := sp.cfg.checkPeriod
		if !forever && remaining < slice {
			slice = remaining
		}
		t := time.NewTimer(slice)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-wake:
			t.Stop()
			if sp.MinCompare(id, thresh) {
				return nil
			}
			// spurious wakeup, go around without charging the budget
		case <-t.C:
			if sp.MinCompare(id, thresh) {
				return nil
			}
			if !forever {
				remaining -= slice
				if remaining <= 0 {
					return ErrTimeout
				}
			}
			sp.cfg.logger.Info("syncpoint stuck waiting",
				"id", id, "name", sp.Name(id), "threshold", thresh, "remaining", remaining)
		}
	}
}
