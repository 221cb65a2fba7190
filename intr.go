package syncpt

import (
	"sync"

	"github.com/llxisdsh/pb"
)

// Dispatcher schedules wakeups for counter thresholds. AddAction guarantees
// the wake channel receives at least one notification after the counter
// reaches or passes thresh, and none earlier. PutRef releases the
// registration; it is safe to call after the wakeup fired.
type Dispatcher interface {
	AddAction(id int, thresh uint32, wake chan<- struct{}) (*WaitRef, error)
	PutRef(ref *WaitRef)
}

// WaitRef identifies one registered wake action.
type WaitRef struct {
	list *waiterList
	a    *action
}

type action struct {
	thresh uint32
	wake   chan<- struct{}
}

type waiterList struct {
	mu      sync.Mutex
	actions []*action
}

// Intr is an in-process Dispatcher. The interrupt bottom half (or a test
// simulating one) calls Signal after refreshing the counter shadow; Signal
// wakes every registered action whose threshold the value has reached.
//
// Registrations are kept in a per-counter list inside a lock-free map, so
// AddAction on different counters never contend.
type Intr struct {
	lists pb.MapOf[int, *waiterList]
}

func NewIntr() *Intr {
	return &Intr{}
}

func (in *Intr) AddAction(id int, thresh uint32, wake chan<- struct{}) (*WaitRef, error) {
	list, _ := in.lists.ProcessEntry(
		id,
		func(e *pb.EntryOf[int, *waiterList]) (*pb.EntryOf[int, *waiterList], *waiterList, bool) {
			if e != nil {
				return e, e.Value, true
			}
			l := &waiterList{}
			return &pb.EntryOf[int, *waiterList]{Value: l}, l, false
		},
	)
	a := &action{thresh: thresh, wake: wake}
	list.mu.Lock()
	list.actions = append(list.actions, a)
	list.mu.Unlock()
	return &WaitRef{list: list, a: a}, nil
}

func (in *Intr) PutRef(ref *WaitRef) {
	if ref == nil {
		return
	}
	l := ref.list
	l.mu.Lock()
	for i, a := range l.actions {
		if a == ref.a {
			l.actions = append(l.actions[:i], l.actions[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
}

// Signal reports that counter id has reached value. Every action whose
// threshold is satisfied under WrappingCompare is notified once and
// deregistered; the send never blocks, so wake channels must be buffered.
func (in *Intr) Signal(id int, value uint32) {
	list, ok := in.lists.Load(id)
	if !ok {
		return
	}
	list.mu.Lock()
	kept := list.actions[:0]
	for _, a := range list.actions {
		if WrappingCompare(value, a.thresh) {
			select {
			case a.wake <- struct{}{}:
			default:
			}
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(list.actions); i++ {
		list.actions[i] = nil
	}
	list.actions = kept
	list.mu.Unlock()
}
