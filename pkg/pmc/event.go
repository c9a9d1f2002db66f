// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package pmc

import "fmt"

// EventID is the 12-bit event select code of a countable Zen 2 core event.
//
// The catalog below covers the events the experiments in this repository
// qualify against. It is append-only: codes never change meaning, and codes
// outside the catalog are still representable (see RawEvent) but describe
// themselves as undefined.
type EventID uint16

const (
	// LsRetCpuid counts retired CPUID instructions.
	LsRetCpuid EventID = 0x027
	// LsDispatch counts memory operations dispatched to the load-store
	// unit. The unit mask selects loads, stores, or load-op-stores.
	LsDispatch EventID = 0x029
	// LsSmiRx counts SMIs received.
	LsSmiRx EventID = 0x02b
	// LsIntTaken counts interrupts taken.
	LsIntTaken EventID = 0x02c
	// LsRdTsc counts timestamp-counter reads.
	LsRdTsc EventID = 0x02d
	// LsPrefInstrDisp counts software prefetch instructions dispatched.
	LsPrefInstrDisp EventID = 0x04b
	// LsNotHaltedCyc counts core cycles not in halt.
	LsNotHaltedCyc EventID = 0x076
	// DeSrcOpDisp counts ops dispatched from the decoder by source. The
	// unit mask selects decoder, op cache, or both.
	DeSrcOpDisp EventID = 0x0aa
	// DeDisOpsFromDecoder counts ops dispatched from the decoder by type.
	DeDisOpsFromDecoder EventID = 0x0ab
	// ExRetInstr counts retired instructions.
	ExRetInstr EventID = 0x0c0
	// ExRetCops counts retired complex ops (macro-ops).
	ExRetCops EventID = 0x0c1
	// ExRetBrnMisp counts retired mispredicted branch instructions.
	ExRetBrnMisp EventID = 0x0c3
	// Merge is the reserved select code written to the odd slot of a
	// large-increment counter pair. It does not count anything itself.
	Merge EventID = 0xfff
)

// catalog lists the documented events in select-code order.
var catalog = []EventID{
	LsRetCpuid,
	LsDispatch,
	LsSmiRx,
	LsIntTaken,
	LsRdTsc,
	LsPrefInstrDisp,
	LsNotHaltedCyc,
	DeSrcOpDisp,
	DeDisOpsFromDecoder,
	ExRetInstr,
	ExRetCops,
	ExRetBrnMisp,
	Merge,
}

// Catalog returns the documented event IDs in select-code order.
func Catalog() []EventID {
	out := make([]EventID, len(catalog))
	copy(out, catalog)
	return out
}

// String returns the mnemonic for documented IDs and a hex rendering for
// everything else.
func (id EventID) String() string {
	switch id {
	case LsRetCpuid:
		return "LsRetCpuid"
	case LsDispatch:
		return "LsDispatch"
	case LsSmiRx:
		return "LsSmiRx"
	case LsIntTaken:
		return "LsIntTaken"
	case LsRdTsc:
		return "LsRdTsc"
	case LsPrefInstrDisp:
		return "LsPrefInstrDisp"
	case LsNotHaltedCyc:
		return "LsNotHaltedCyc"
	case DeSrcOpDisp:
		return "DeSrcOpDisp"
	case DeDisOpsFromDecoder:
		return "DeDisOpsFromDecoder"
	case ExRetInstr:
		return "ExRetInstr"
	case ExRetCops:
		return "ExRetCops"
	case ExRetBrnMisp:
		return "ExRetBrnMisp"
	case Merge:
		return "Merge"
	}
	return fmt.Sprintf("EventID(0x%03x)", uint16(id))
}

// Describe returns a one-line description of the event, or "undefined" for
// codes outside the catalog.
func (id EventID) Describe() string {
	switch id {
	case LsRetCpuid:
		return "retired CPUID instructions"
	case LsDispatch:
		return "dispatched load-store operations"
	case LsSmiRx:
		return "SMIs received"
	case LsIntTaken:
		return "interrupts taken"
	case LsRdTsc:
		return "timestamp-counter reads"
	case LsPrefInstrDisp:
		return "software prefetch instructions dispatched"
	case LsNotHaltedCyc:
		return "core cycles not in halt"
	case DeSrcOpDisp:
		return "ops dispatched from decoder, by source"
	case DeDisOpsFromDecoder:
		return "ops dispatched from decoder, by type"
	case ExRetInstr:
		return "retired instructions"
	case ExRetCops:
		return "retired complex ops"
	case ExRetBrnMisp:
		return "retired mispredicted branches"
	case Merge:
		return "large-increment merge slot"
	}
	return "undefined"
}

// Event pairs an event select code with the unit mask qualifying it. The
// zero unit mask is correct for most events in the catalog.
type Event struct {
	ID   EventID
	Unit uint8
}

// RawEvent builds an Event from an arbitrary select code, masked to the
// 12 bits the hardware implements. It exists for poking at codes the catalog
// does not document.
func RawEvent(sel uint16, unit uint8) Event {
	return Event{ID: EventID(sel & 0xfff), Unit: unit}
}

// Convert returns the (event select, unit mask) pair encoded into a
// control word. The select code is masked to 12 bits.
func (e Event) Convert() (uint16, uint8) {
	return uint16(e.ID) & 0xfff, e.Unit
}
