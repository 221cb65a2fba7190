package syncpt

// RegisterIO is the hardware register transport for the sync aperture.
// Offsets are byte offsets from the aperture base. The registry is
// responsible for ordering: it calls Flush after register writes that must
// be visible before subsequent operations.
type RegisterIO interface {
	// Load reads a 32-bit register.
	Load(offset uint32) uint32

	// Store writes a 32-bit register. Writes may be posted until Flush.
	Store(offset uint32, v uint32)

	// Flush is a full memory barrier: it completes all outstanding posted
	// writes before returning.
	Flush()
}

// sync aperture register offsets

const (
	regSyncptValue0  = 0x400 // first syncpoint value register, one per counter (R/W)
	regSyncptBase0   = 0x600 // first wait base register, one per base (R/W)
	regSyncptCPUIncr = 0x700 // cpu increment pulse, one bit per counter (W)
)

func regSyncptValue(id int) uint32 {
	return regSyncptValue0 + 4*uint32(id)
}

func regSyncptBase(id int) uint32 {
	return regSyncptBase0 + 4*uint32(id)
}

// regCPUIncr returns the increment pulse register bank holding id's bit.
// Counters beyond 31 spill into the next 32-bit bank.
func regCPUIncr(id int) uint32 {
	return regSyncptCPUIncr + 4*uint32(id/32)
}

// HostSyncpt is the reserved host-internal counter. The host never
// increments it, so its value stays 0 and a wait against threshold 0 on it
// is trivially satisfied. CheckStaleWaits retargets satisfied waits here.
const HostSyncpt = 0

// HostWaitInstr encodes the operand of a host class wait-syncpoint
// instruction: counter index in the top byte, threshold in the low 24 bits.
func HostWaitInstr(id int, thresh uint32) uint32 {
	return uint32(id)<<24 | thresh&0xffffff
}

// Patcher rewrites a wait instruction already recorded in a not-yet-submitted
// command buffer. mem identifies the buffer, offset the instruction's operand
// word within it, and override the replacement operand.
type Patcher interface {
	Patch(mem any, offset uint32, override uint32) error
}
