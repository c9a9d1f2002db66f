// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package pmc

// PerfCtl is the 64-bit contents of a PERF_CTL MSR on an AMD Zen 2 core.
//
// The zero value is a fully-disabled control word. Field mutators perform a
// read-modify-write against the relevant mask only, so fields may be changed
// in any order without disturbing the rest of the word.
type PerfCtl uint64

// Field masks for the PERF_CTL layout. Bits not covered by a mask are
// reserved and always written as zero.
const (
	MaskHostGuest PerfCtl = 0b11 << 40   // [41:40] host/guest qualifier
	MaskEvtSelHi  PerfCtl = 0b1111 << 32 // [35:32] event select, high 4 bits
	MaskCntMask   PerfCtl = 0xff << 24   // [31:24] counter threshold
	MaskInv       PerfCtl = 1 << 23      // invert counter mask comparison
	MaskEn        PerfCtl = 1 << 22      // counter enable
	MaskInt       PerfCtl = 1 << 20      // APIC interrupt on overflow
	MaskEdge      PerfCtl = 1 << 18      // edge detect
	MaskOSUser    PerfCtl = 0b11 << 16   // [17:16] privilege qualifier
	MaskUnitMask  PerfCtl = 0xff << 8    // [15:8] event unit mask
	MaskEvtSelLo  PerfCtl = 0xff         // [7:0] event select, low 8 bits
)

// HostGuest selects which of host and guest contexts a counter observes.
type HostGuest uint8

const (
	// HostGuestAll counts in all contexts. This is the reset default and
	// the only sensible setting on a machine that never enters SVM.
	HostGuestAll HostGuest = 0b00
	// HostGuestGuest counts only while in SVM guest mode.
	HostGuestGuest HostGuest = 0b01
	// HostGuestHost counts only while in SVM host mode.
	HostGuestHost HostGuest = 0b10
	// HostGuestBoth counts in both SVM host and guest modes.
	HostGuestBoth HostGuest = 0b11
)

// OSUser selects which privilege levels a counter observes.
type OSUser uint8

const (
	// OSUserNone counts in no ring. A counter qualified this way never
	// increments even when enabled.
	OSUserNone OSUser = 0b00
	// OSUserUser counts only in CPL > 0.
	OSUserUser OSUser = 0b01
	// OSUserOS counts only in CPL 0.
	OSUserOS OSUser = 0b10
	// OSUserAll counts in every ring.
	OSUserAll OSUser = 0b11
)

// NewPerfCtl builds the control word selecting ev, enabled or disabled per
// enable. Non-merge events count user-mode activity in all host/guest
// contexts; callers needing a different qualification adjust the result with
// the field mutators.
//
// The merge event is special-cased: the merge slot of a large-increment pair
// carries only the enable bit and the reserved select code, every other
// field zero.
func NewPerfCtl(ev Event, enable bool) PerfCtl {
	var ctl PerfCtl
	if ev.ID == Merge {
		ctl.SetEventSelect(uint16(Merge))
		ctl.SetEnabled(enable)
		return ctl
	}

	sel, unit := ev.Convert()
	ctl.SetHostGuest(HostGuestAll)
	ctl.SetOSUser(OSUserUser)
	ctl.SetEventSelect(sel)
	ctl.SetUnitMask(unit)
	ctl.SetEnabled(enable)
	return ctl
}

// HostGuest returns the host/guest qualifier field.
func (c PerfCtl) HostGuest() HostGuest {
	return HostGuest((c & MaskHostGuest) >> 40)
}

// SetHostGuest replaces the host/guest qualifier field.
func (c *PerfCtl) SetHostGuest(x HostGuest) {
	*c = (*c &^ MaskHostGuest) | (PerfCtl(x&0b11) << 40)
}

// EventSelect returns the 12-bit event select code, reassembled from its
// split high and low fields.
func (c PerfCtl) EventSelect() uint16 {
	hi := uint16((c & MaskEvtSelHi) >> 32)
	lo := uint16(c & MaskEvtSelLo)
	return hi<<8 | lo
}

// SetEventSelect replaces both halves of the split 12-bit event select code.
// Bits above the low 12 are discarded.
func (c *PerfCtl) SetEventSelect(sel uint16) {
	*c &^= MaskEvtSelHi | MaskEvtSelLo
	*c |= PerfCtl(sel&0xff) | (PerfCtl(sel>>8&0xf) << 32)
}

// CountMask returns the counter threshold field.
func (c PerfCtl) CountMask() uint8 {
	return uint8((c & MaskCntMask) >> 24)
}

// SetCountMask replaces the counter threshold field.
func (c *PerfCtl) SetCountMask(x uint8) {
	*c = (*c &^ MaskCntMask) | (PerfCtl(x) << 24)
}

// Invert reports whether the counter mask comparison is inverted.
func (c PerfCtl) Invert() bool { return c&MaskInv != 0 }

// SetInvert sets or clears the invert bit.
func (c *PerfCtl) SetInvert(x bool) { c.setBit(MaskInv, x) }

// Enabled reports whether the counter is enabled.
func (c PerfCtl) Enabled() bool { return c&MaskEn != 0 }

// SetEnabled sets or clears the enable bit.
func (c *PerfCtl) SetEnabled(x bool) { c.setBit(MaskEn, x) }

// Interrupt reports whether the counter raises an APIC interrupt on
// overflow.
func (c PerfCtl) Interrupt() bool { return c&MaskInt != 0 }

// SetInterrupt sets or clears the overflow interrupt bit.
func (c *PerfCtl) SetInterrupt(x bool) { c.setBit(MaskInt, x) }

// Edge reports whether edge detection is enabled.
func (c PerfCtl) Edge() bool { return c&MaskEdge != 0 }

// SetEdge sets or clears the edge detect bit.
func (c *PerfCtl) SetEdge(x bool) { c.setBit(MaskEdge, x) }

// OSUser returns the privilege qualifier field.
func (c PerfCtl) OSUser() OSUser {
	return OSUser((c & MaskOSUser) >> 16)
}

// SetOSUser replaces the privilege qualifier field.
func (c *PerfCtl) SetOSUser(x OSUser) {
	*c = (*c &^ MaskOSUser) | (PerfCtl(x&0b11) << 16)
}

// UnitMask returns the event unit mask field.
func (c PerfCtl) UnitMask() uint8 {
	return uint8((c & MaskUnitMask) >> 8)
}

// SetUnitMask replaces the event unit mask field.
func (c *PerfCtl) SetUnitMask(x uint8) {
	*c = (*c &^ MaskUnitMask) | (PerfCtl(x) << 8)
}

func (c *PerfCtl) setBit(mask PerfCtl, x bool) {
	if x {
		*c |= mask
	} else {
		*c &^= mask
	}
}
