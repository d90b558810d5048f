package scheduler

import "sort"

// DefaultMaxScheduledPerBlock is the default agenda capacity.
const DefaultMaxScheduledPerBlock = 50

// Agenda is the fixed-capacity list of tasks due at one tick. Slots are
// never compacted, so a task's index stays valid while it is placed.
type Agenda struct {
	slots      []*Scheduled
	capacity   uint32
	freePlaces uint32
}

// NewAgenda creates an empty agenda with the given capacity.
func NewAgenda(capacity uint32) *Agenda {
	return &Agenda{capacity: capacity, freePlaces: capacity}
}

// FreePlaces returns the number of unoccupied slots, including capacity
// not yet appended.
func (a *Agenda) FreePlaces() uint32 { return a.freePlaces }

// Len returns the number of slots, occupied or not.
func (a *Agenda) Len() int { return len(a.slots) }

// Count returns the number of occupied slots.
func (a *Agenda) Count() uint32 {
	return a.capacity - a.freePlaces
}

// IsEmpty reports whether no slot is occupied.
func (a *Agenda) IsEmpty() bool { return a.freePlaces == a.capacity }

// TryPush places task in the agenda and returns its slot. When the agenda
// is full, task is handed back with ok false.
func (a *Agenda) TryPush(task *Scheduled) (index uint32, rejected *Scheduled, ok bool) {
	if a.freePlaces == 0 {
		return 0, task, false
	}
	a.freePlaces--
	if uint32(len(a.slots)) < a.capacity {
		a.slots = append(a.slots, task)
		return uint32(len(a.slots) - 1), nil, true
	}
	for i, s := range a.slots {
		if s == nil {
			a.slots[i] = task
			return uint32(i), nil, true
		}
	}
	// freePlaces said there was a hole.
	a.freePlaces++
	return 0, task, false
}

// Get returns the task at index, if any.
func (a *Agenda) Get(index uint32) (*Scheduled, bool) {
	if index >= uint32(len(a.slots)) || a.slots[index] == nil {
		return nil, false
	}
	return a.slots[index], true
}

// Set puts task into an existing empty slot. It reports false when the
// index is out of range or already occupied.
func (a *Agenda) Set(index uint32, task *Scheduled) bool {
	if task == nil || index >= uint32(len(a.slots)) || a.slots[index] != nil {
		return false
	}
	a.slots[index] = task
	a.freePlaces--
	return true
}

// Take removes and returns the task at index, freeing the slot.
func (a *Agenda) Take(index uint32) (*Scheduled, bool) {
	if index >= uint32(len(a.slots)) || a.slots[index] == nil {
		return nil, false
	}
	task := a.slots[index]
	a.slots[index] = nil
	a.freePlaces++
	return task, true
}

// Slot pairs an occupied index with its priority.
type Slot struct {
	Index    uint32
	Priority Priority
}

// Ordered lists occupied slots by ascending priority. Ties keep slot order.
func (a *Agenda) Ordered() []Slot {
	out := make([]Slot, 0, a.Count())
	for i, s := range a.slots {
		if s != nil {
			out = append(out, Slot{Index: uint32(i), Priority: s.Priority})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Each calls fn for every occupied slot in index order.
func (a *Agenda) Each(fn func(index uint32, task *Scheduled)) {
	for i, s := range a.slots {
		if s != nil {
			fn(uint32(i), s)
		}
	}
}

// Clone returns a deep copy.
func (a *Agenda) Clone() *Agenda {
	cp := &Agenda{capacity: a.capacity, freePlaces: a.freePlaces, slots: make([]*Scheduled, len(a.slots))}
	for i, s := range a.slots {
		if s != nil {
			cp.slots[i] = s.clone()
		}
	}
	return cp
}

// agendaFromSlots rebuilds an agenda from persisted slots.
func agendaFromSlots(capacity uint32, slots []*Scheduled) *Agenda {
	if uint32(len(slots)) > capacity {
		capacity = uint32(len(slots))
	}
	a := &Agenda{capacity: capacity, slots: slots, freePlaces: capacity}
	for _, s := range slots {
		if s != nil {
			a.freePlaces--
		}
	}
	return a
}
