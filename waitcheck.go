package syncpt

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// WaitCheck describes one wait instruction pending in a not-yet-submitted
// command buffer: the counter and threshold it gates on, and where its
// operand lives so it can be patched.
type WaitCheck struct {
	ID     int
	Thresh uint32
	Mem    any
	Offset uint32
}

// CheckStaleWaits drops waits that have already been satisfied before
// submission, so fixed-function dispatch never stalls on a condition that
// is already true (or worse, wraps past it).
//
// Counters flagged in mask are refreshed from hardware first; refreshes are
// lock free and independent, so they fan out. The descriptors are then
// scanned in order: any wait whose threshold the cached min has reached is
// retargeted at the reserved host counter with threshold 0, which is always
// satisfied. The first patch failure aborts the scan and is returned;
// already patched entries stay patched, which is safe because the override
// is a no-op wait.
//
// The caller must hold the device active. A nil descriptor list is a caller
// bug and panics; an empty list is fine.
func (sp *Syncpt) CheckStaleWaits(mask uint64, waits []WaitCheck) error {
	if waits == nil {
		panic("syncpt: nil wait check list")
	}
	if sp.cfg.patcher == nil {
		return fmt.Errorf("syncpt: no patcher configured")
	}

	var g errgroup.Group
	for id := 0; id < sp.cfg.nbPts; id++ {
		if mask&(1<<uint(id)) == 0 {
			continue
		}
		g.Go(func() error {
			sp.RefreshMin(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range waits {
		w := &waits[i]
		sp.idCheck(w.ID)
		cur := sp.minVal[w.ID].Load()
		if !WrappingCompare(cur, w.Thresh) {
			continue
		}

		// wait has completed already, so it can be removed
		sp.cfg.logger.V(1).Info("dropping satisfied wait",
			"id", w.ID, "name", sp.Name(w.ID), "threshold", w.Thresh, "syncpt", cur)

		override := HostWaitInstr(HostSyncpt, 0)
		if err := sp.cfg.patcher.Patch(w.Mem, w.Offset, override); err != nil {
			return fmt.Errorf("syncpt: patch wait on id %d at offset %#x: %w", w.ID, w.Offset, err)
		}
	}
	return nil
}
