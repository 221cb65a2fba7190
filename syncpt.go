// Package syncpt manages the synchronization point counters of a command
// processing device: monotonically incrementing hardware counters used to
// order and gate work between the CPU driver and asynchronous engines.
//
// The registry shadows two values per counter. min is the last value read
// back from hardware and stands for work the hardware has completed; max is
// the highest value any caller has reserved and stands for work issued but
// possibly not yet complete. For counters the registry manages (not client
// managed), min never passes max under wrapping comparison; hardware
// reporting otherwise is an unrecoverable consistency failure.
package syncpt

import (
	"fmt"
	"sync/atomic"
)

// Syncpt is the syncpoint registry for one device instance.
//
// min updates are lock free (compare and swap retry against the live
// hardware value), max reservations are fetch-and-add, so any number of
// issuing contexts and the interrupt path may touch the same counter
// concurrently. Only Wait blocks.
type Syncpt struct {
	_   noCopy
	cfg Config

	hw    RegisterIO
	power PowerGate
	intr  Dispatcher

	minVal []atomic.Uint32
	maxVal []atomic.Uint32

	// baseVal shadows the wait base registers. It is touched only by
	// Reload and Save, which run while producers are quiesced, so plain
	// loads and stores suffice.
	baseVal []uint32
}

// New builds a registry bound to the device behind hw. Counter shadows
// start at zero; call Reload after the device powers up to push them to
// hardware, or RefreshMin per counter to adopt the hardware state instead.
func New(hw RegisterIO, opts ...func(*Config)) (*Syncpt, error) {
	if hw == nil {
		return nil, fmt.Errorf("syncpt: nil register transport")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sp := &Syncpt{
		cfg:     cfg,
		hw:      hw,
		power:   cfg.power,
		intr:    cfg.dispatcher,
		minVal:  make([]atomic.Uint32, cfg.nbPts),
		maxVal:  make([]atomic.Uint32, cfg.nbPts),
		baseVal: make([]uint32, cfg.nbBases),
	}
	if sp.power == nil {
		sp.power = NopGate{}
	}
	if sp.intr == nil {
		sp.intr = NewIntr()
	}
	return sp, nil
}

// Counters returns the number of hardware counters.
func (sp *Syncpt) Counters() int {
	return sp.cfg.nbPts
}

func (sp *Syncpt) clientManaged(id int) bool {
	return sp.cfg.clientManaged&(1<<uint(id)) != 0
}

func (sp *Syncpt) idCheck(id int) {
	if id < 0 || id >= sp.cfg.nbPts {
		panic(fmt.Sprintf("syncpt: counter id %d out of range [0, %d)", id, sp.cfg.nbPts))
	}
}

// checkMax reports whether real is a plausible hardware value for id, i.e.
// it does not pass the reserved bound. Client managed counters accept
// anything.
func (sp *Syncpt) checkMax(id int, real uint32) bool {
	if sp.clientManaged(id) {
		return true
	}
	return WrappingCompare(sp.maxVal[id].Load(), real)
}

// ReadMin returns the cached completed value without touching hardware.
func (sp *Syncpt) ReadMin(id int) uint32 {
	sp.idCheck(id)
	return sp.minVal[id].Load()
}

// ReadMax returns the highest reserved value.
func (sp *Syncpt) ReadMax(id int) uint32 {
	sp.idCheck(id)
	return sp.maxVal[id].Load()
}

// MinCompare reports whether the cached completed value has reached thresh.
func (sp *Syncpt) MinCompare(id int, thresh uint32) bool {
	sp.idCheck(id)
	return WrappingCompare(sp.minVal[id].Load(), thresh)
}

// MinEqMax reports whether the counter has drained: every reserved unit is
// confirmed complete in the cache.
func (sp *Syncpt) MinEqMax(id int) bool {
	sp.idCheck(id)
	return sp.minVal[id].Load() == sp.maxVal[id].Load()
}

// RefreshMin reads the live hardware counter and folds it into the cached
// min, retrying the compare and swap until one writer wins for the observed
// value. Concurrent refreshes converge on the same result; losers observe
// the winner's update and stop. Returns the value read from hardware.
//
// The caller must hold the device active; Read wraps this with a power
// claim.
func (sp *Syncpt) RefreshMin(id int) uint32 {
	sp.idCheck(id)
	var live uint32
	for {
		old := sp.minVal[id].Load()
		live = sp.hw.Load(regSyncptValue(id))
		if sp.minVal[id].CompareAndSwap(old, live) {
			break
		}
	}
	if !sp.checkMax(id, live) {
		max := sp.maxVal[id].Load()
		sp.cfg.logger.Error(nil, "hardware counter passed reserved bound",
			"id", id, "name", sp.Name(id), "max", max, "real", live)
		panic(fmt.Sprintf("syncpt: id %d (%s) hardware value %d beyond reserved max %d",
			id, sp.Name(id), live, max))
	}
	return live
}

// Read returns the current hardware counter value, holding a power claim
// around the register access.
func (sp *Syncpt) Read(id int) uint32 {
	sp.power.Busy()
	defer sp.power.Idle()
	return sp.RefreshMin(id)
}

// IncrMax reserves n more units of work on the counter and returns the new
// reserved bound. The reservation happens before any hardware pulse, so max
// always leads min.
func (sp *Syncpt) IncrMax(id int, n uint32) uint32 {
	sp.idCheck(id)
	return sp.maxVal[id].Add(n)
}

// IncrementCPU writes one increment pulse to hardware without touching the
// cache; a later refresh picks the new value up. The caller must hold the
// device active and must have reserved the increment: pulsing a managed
// counter with no outstanding reservation is a driver bug.
func (sp *Syncpt) IncrementCPU(id int) {
	sp.idCheck(id)
	if !sp.clientManaged(id) && sp.MinEqMax(id) {
		panic(fmt.Sprintf("syncpt: cpu increment on id %d (%s) with no reservation outstanding",
			id, sp.Name(id)))
	}
	sp.hw.Store(regCPUIncr(id), 1<<uint(id%32))
	sp.hw.Flush()
}

// Increment reserves one unit and pulses the hardware counter under a power
// claim.
func (sp *Syncpt) Increment(id int) {
	sp.IncrMax(id, 1)
	sp.power.Busy()
	sp.IncrementCPU(id)
	sp.power.Idle()
}

// Reload pushes the software shadows back to hardware: every counter's
// cached min and every wait base. Called once after the device (re)powers
// up, before any producer runs. The trailing flush makes all writes visible
// before return.
func (sp *Syncpt) Reload() {
	for id := 0; id < sp.cfg.nbPts; id++ {
		sp.hw.Store(regSyncptValue(id), sp.minVal[id].Load())
	}
	for i := 0; i < sp.cfg.nbBases; i++ {
		sp.hw.Store(regSyncptBase(i), sp.baseVal[i])
	}
	sp.hw.Flush()
}

// Save pulls hardware-owned state into the shadows before the device loses
// power. Client managed counters take whatever hardware reports; managed
// counters must have drained, since reserved work cannot survive the power
// cycle.
func (sp *Syncpt) Save() {
	for id := 0; id < sp.cfg.nbPts; id++ {
		if sp.clientManaged(id) {
			sp.RefreshMin(id)
			continue
		}
		if !sp.MinEqMax(id) {
			panic(fmt.Sprintf("syncpt: save with id %d (%s) not drained: min %d max %d",
				id, sp.Name(id), sp.minVal[id].Load(), sp.maxVal[id].Load()))
		}
	}
	for i := 0; i < sp.cfg.nbBases; i++ {
		sp.baseVal[i] = sp.hw.Load(regSyncptBase(i))
	}
}

// LogState logs id, name, min and max for every counter with a nonzero
// reserved bound. Advisory only. The caller must hold the device active
// because min is refreshed from hardware.
func (sp *Syncpt) LogState() {
	for id := 0; id < sp.cfg.nbPts; id++ {
		max := sp.maxVal[id].Load()
		if max == 0 {
			continue
		}
		sp.cfg.logger.Info("syncpt state",
			"id", id, "name", sp.Name(id), "min", sp.RefreshMin(id), "max", max)
	}
}

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
