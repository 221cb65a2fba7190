package syncpt

import (
	"sync"
	"testing"
)

// fakeHW is an in-memory register file.
type fakeHW struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	loads   int
	stores  int
	flushes int
}

func newFakeHW() *fakeHW {
	return &fakeHW{regs: make(map[uint32]uint32)}
}

func (h *fakeHW) Load(offset uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads++
	return h.regs[offset]
}

func (h *fakeHW) Store(offset uint32, v uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stores++
	h.regs[offset] = v
}

func (h *fakeHW) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushes++
}

// set writes a register without counting as driver traffic, standing in for
// the device advancing a counter on its own.
func (h *fakeHW) set(offset uint32, v uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regs[offset] = v
}

func (h *fakeHW) get(offset uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.regs[offset]
}

func (h *fakeHW) loadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loads
}

func (h *fakeHW) flushCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushes
}

// countGate counts power claims.
type countGate struct {
	mu   sync.Mutex
	busy int
	idle int
}

func (g *countGate) Busy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy++
}

func (g *countGate) Idle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idle++
}

func (g *countGate) counts() (busy, idle int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy, g.idle
}

// countDispatcher wraps Intr and counts registrations.
type countDispatcher struct {
	inner *Intr
	mu    sync.Mutex
	adds  int
	puts  int
}

func newCountDispatcher() *countDispatcher {
	return &countDispatcher{inner: NewIntr()}
}

func (d *countDispatcher) AddAction(id int, thresh uint32, wake chan<- struct{}) (*WaitRef, error) {
	d.mu.Lock()
	d.adds++
	d.mu.Unlock()
	return d.inner.AddAction(id, thresh, wake)
}

func (d *countDispatcher) PutRef(ref *WaitRef) {
	d.mu.Lock()
	d.puts++
	d.mu.Unlock()
	d.inner.PutRef(ref)
}

func (d *countDispatcher) counts() (adds, puts int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adds, d.puts
}

// recordPatcher records patch calls and can be made to fail after a number
// of successes.
type recordPatch struct {
	Mem      any
	Offset   uint32
	Override uint32
}

type recordPatcher struct {
	mu      sync.Mutex
	patches []recordPatch
	failAt  int // fail the nth call (1-based); 0 never fails
	err     error
}

func (p *recordPatcher) Patch(mem any, offset uint32, override uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.patches)+1 == p.failAt {
		return p.err
	}
	p.patches = append(p.patches, recordPatch{Mem: mem, Offset: offset, Override: override})
	return nil
}

type testEnv struct {
	sp    *Syncpt
	hw    *fakeHW
	gate  *countGate
	disp  *countDispatcher
	patch *recordPatcher
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		hw:    newFakeHW(),
		gate:  &countGate{},
		disp:  newCountDispatcher(),
		patch: &recordPatcher{},
	}
	base := []func(*Config){
		WithPowerGate(env.gate),
		WithDispatcher(env.disp),
		WithPatcher(env.patch),
	}
	sp, err := New(env.hw, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.sp = sp
	return env
}

// complete simulates the hardware finishing work up to val on counter id:
// the register advances, the interrupt path refreshes the shadow and wakes
// satisfied waiters.
func (e *testEnv) complete(id int, val uint32) {
	e.hw.set(regSyncptValue(id), val)
	e.sp.RefreshMin(id)
	e.disp.inner.Signal(id, val)
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
