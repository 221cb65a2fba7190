package syncpt

import (
	"sync"
)

// PowerGate keeps the device powered while register access is in flight.
// Busy and Idle compose as a scoped acquire/release pair; register access
// while the gate is idle is undefined behavior.
type PowerGate interface {
	Busy()
	Idle()
}

// NopGate is a PowerGate for devices that are always powered.
type NopGate struct{}

func (NopGate) Busy() {}
func (NopGate) Idle() {}

// RefGate is a reference-counted PowerGate. The first claim runs up, the
// last release runs down; nested and concurrent claims in between are
// counted only. Either hook may be nil.
type RefGate struct {
	mu   sync.Mutex
	refs int
	up   func()
	down func()
}

func NewRefGate(up, down func()) *RefGate {
	return &RefGate{up: up, down: down}
}

func (g *RefGate) Busy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refs++
	if g.refs == 1 && g.up != nil {
		g.up()
	}
}

func (g *RefGate) Idle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refs == 0 {
		panic("syncpt: power gate released more times than acquired")
	}
	g.refs--
	if g.refs == 0 && g.down != nil {
		g.down()
	}
}
