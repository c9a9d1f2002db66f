// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package pmc

import "fmt"

// NumSlots is the number of programmable core counters on a Zen 2 part, and
// therefore the number of control words in every descriptor write.
const NumSlots = 6

// CounterSet describes the intended state of all six core counters at once.
//
// The zero value describes a fully-disabled counter unit. Updates are
// functional: each With/Clear call returns a new descriptor and leaves the
// receiver untouched, so a base configuration can be reused across variants
// without defensive copying.
//
// Slot indices out of [0, NumSlots) and a merge event placed at an even
// index are programming errors and panic.
type CounterSet struct {
	slots [NumSlots]slot
}

type slot struct {
	event Event
	ctl   PerfCtl
	used  bool
}

// WithSlot returns a copy of the descriptor with slot idx selecting ev,
// enabled, with the catalog defaults for every other control field.
//
// The merge event may only occupy odd slots: large-increment pairs couple an
// even counting slot with the odd slot directly above it.
func (s CounterSet) WithSlot(idx int, ev Event) CounterSet {
	checkSlot(idx)
	if ev.ID == Merge && idx%2 == 0 {
		panic(fmt.Sprintf("pmc: merge event in even slot %d", idx))
	}
	s.slots[idx] = slot{event: ev, ctl: NewPerfCtl(ev, true), used: true}
	return s
}

// WithCtl returns a copy of the descriptor with slot idx carrying the raw
// control word ctl. The slot's event is reconstructed from the word's select
// and unit mask fields.
func (s CounterSet) WithCtl(idx int, ctl PerfCtl) CounterSet {
	checkSlot(idx)
	s.slots[idx] = slot{
		event: RawEvent(ctl.EventSelect(), ctl.UnitMask()),
		ctl:   ctl,
		used:  true,
	}
	return s
}

// Clear returns a copy of the descriptor with slot idx emptied.
func (s CounterSet) Clear(idx int) CounterSet {
	checkSlot(idx)
	s.slots[idx] = slot{}
	return s
}

// ClearAll returns the empty descriptor.
func (s CounterSet) ClearAll() CounterSet {
	return CounterSet{}
}

// Raw returns the control word for slot idx, zero if the slot is empty.
func (s CounterSet) Raw(idx int) uint64 {
	checkSlot(idx)
	return uint64(s.slots[idx].ctl)
}

// Slot returns the event and control word at idx, and whether the slot is
// occupied.
func (s CounterSet) Slot(idx int) (Event, PerfCtl, bool) {
	checkSlot(idx)
	sl := s.slots[idx]
	return sl.event, sl.ctl, sl.used
}

// Active returns the indices of occupied slots in ascending order.
func (s CounterSet) Active() []int {
	var idx []int
	for i, sl := range s.slots {
		if sl.used {
			idx = append(idx, i)
		}
	}
	return idx
}

// Words serializes the descriptor into the six control words the kernel
// module expects, in slot order. Empty slots serialize as zero, which
// disables the corresponding counter.
func (s CounterSet) Words() [NumSlots]uint64 {
	var w [NumSlots]uint64
	for i, sl := range s.slots {
		w[i] = uint64(sl.ctl)
	}
	return w
}

func checkSlot(idx int) {
	if idx < 0 || idx >= NumSlots {
		panic(fmt.Sprintf("pmc: slot index %d out of range", idx))
	}
}
