package cpu

import "github.com/hejops/six502/mask"

// https://www.nesdev.org/wiki/Status_flags
//
// The processor-status register is packed N V _ B D I Z C when pushed to
// the stack -- most significant bit first, which lines up exactly with
// mask's 1-indexed I1..I8 positions. Bit 5 (the "unused" bit) is never
// actually stored; it reads back as 1 in every pushed copy. Bit 4 (B) is
// not a physical register bit either -- it only exists in the byte that
// gets pushed, and its value depends on who's doing the pushing (BRK/PHP
// set it, a hardware interrupt clears it).
const (
	posN = mask.I1
	posV = mask.I2
	posU = mask.I3
	posB = mask.I4
	posD = mask.I5
	posI = mask.I6
	posZ = mask.I7
	posC = mask.I8
)

// Flags holds the six502 condition-code bits as named booleans. B and the
// reserved bit 5 are deliberately absent from the struct: they are not
// real state, only an artifact of the byte representation used by
// PHP/PLP/BRK/interrupt pushes. See Byte and SetByte.
type Flags struct {
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool // settable/clearable; NES ignores it in ADC/SBC
	Overflow         bool
	Negative         bool
}

// Byte packs the flags into the conventional N V _ B D I Z C layout. b
// selects the pushed value of the B bit: true for BRK/PHP, false for a
// hardware NMI/IRQ push. The reserved bit 5 is always 1.
func (f Flags) Byte(b bool) byte {
	var v byte
	if f.Carry {
		v = mask.Set(v, posC, 1)
	}
	if f.Zero {
		v = mask.Set(v, posZ, 1)
	}
	if f.InterruptDisable {
		v = mask.Set(v, posI, 1)
	}
	if f.Decimal {
		v = mask.Set(v, posD, 1)
	}
	if b {
		v = mask.Set(v, posB, 1)
	}
	v = mask.Set(v, posU, 1)
	if f.Overflow {
		v = mask.Set(v, posV, 1)
	}
	if f.Negative {
		v = mask.Set(v, posN, 1)
	}
	return v
}

// SetByte unpacks v into the flags, per PLP/RTI semantics: the pulled B
// bit and reserved bit are discarded, since they are not real state.
func (f *Flags) SetByte(v byte) {
	f.Carry = mask.IsSet(v, posC)
	f.Zero = mask.IsSet(v, posZ)
	f.InterruptDisable = mask.IsSet(v, posI)
	f.Decimal = mask.IsSet(v, posD)
	f.Overflow = mask.IsSet(v, posV)
	f.Negative = mask.IsSet(v, posN)
}

// UpdateZN sets Zero and Negative from the final 8-bit result of an
// operation. Every load, transfer, logical, arithmetic, shift/rotate,
// increment/decrement, and compare instruction that names Z or N in its
// contract must call this with the final value; partial updates are a bug.
func (f *Flags) UpdateZN(v byte) {
	f.Zero = v == 0
	f.Negative = v&0x80 != 0
}
