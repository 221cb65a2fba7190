package syncpt

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Defaults mirror the host1x generation this package was written against.
const (
	DefaultCounters    = 32
	DefaultWaitBases   = 8
	DefaultCheckPeriod = 2 * time.Second
)

// Config defines configurable options for registry construction.
type Config struct {
	// nbPts is the number of hardware counters. At most 64 so the
	// client-managed mask stays a single word.
	nbPts int

	// nbBases is the number of wait base registers.
	nbBases int

	// clientManaged flags counters whose max bound the registry does not
	// track. Any hardware value on those counters is accepted as valid.
	clientManaged uint64

	// names labels counters for diagnostics; ids beyond the slice resolve
	// to the empty string.
	names []string

	// checkPeriod bounds a single blocking slice inside Wait. Long waits
	// re-evaluate every checkPeriod so stuck waiters stay observable.
	checkPeriod time.Duration

	// logger receives advisory diagnostics only; it never affects control
	// flow.
	logger logr.Logger

	dispatcher Dispatcher
	power      PowerGate
	patcher    Patcher
}

// WithCounters configures the number of hardware counters.
func WithCounters(n int) func(*Config) {
	return func(c *Config) {
		c.nbPts = n
	}
}

// WithWaitBases configures the number of wait base registers.
func WithWaitBases(n int) func(*Config) {
	return func(c *Config) {
		c.nbBases = n
	}
}

// WithClientManaged marks the counters set in mask as client managed.
func WithClientManaged(mask uint64) func(*Config) {
	return func(c *Config) {
		c.clientManaged = mask
	}
}

// WithNames configures the diagnostic name table, replacing the default.
func WithNames(names []string) func(*Config) {
	return func(c *Config) {
		c.names = names
	}
}

// WithCheckPeriod configures the maximum blocking slice for Wait.
func WithCheckPeriod(d time.Duration) func(*Config) {
	return func(c *Config) {
		c.checkPeriod = d
	}
}

// WithLogger configures the diagnostics logger.
func WithLogger(l logr.Logger) func(*Config) {
	return func(c *Config) {
		c.logger = l
	}
}

// WithDispatcher configures the wake dispatcher, replacing the bundled
// in-process Intr.
func WithDispatcher(d Dispatcher) func(*Config) {
	return func(c *Config) {
		c.dispatcher = d
	}
}

// WithPowerGate configures the device power gate. The default NopGate
// assumes an always-powered device.
func WithPowerGate(g PowerGate) func(*Config) {
	return func(c *Config) {
		c.power = g
	}
}

// WithPatcher configures the command buffer patcher used by
// CheckStaleWaits.
func WithPatcher(p Patcher) func(*Config) {
	return func(c *Config) {
		c.patcher = p
	}
}

func defaultConfig() Config {
	return Config{
		nbPts:       DefaultCounters,
		nbBases:     DefaultWaitBases,
		names:       defaultNames[:],
		checkPeriod: DefaultCheckPeriod,
		logger:      logr.Discard(),
	}
}

func (c *Config) validate() error {
	if c.nbPts <= 0 || c.nbPts > 64 {
		return fmt.Errorf("syncpt: counter count %d out of range [1, 64]", c.nbPts)
	}
	if c.nbBases < 0 {
		return fmt.Errorf("syncpt: negative wait base count %d", c.nbBases)
	}
	if c.checkPeriod <= 0 {
		return fmt.Errorf("syncpt: check period %v must be positive", c.checkPeriod)
	}
	return nil
}
