// Package cpu implements the Ricoh 2A03's 6502-derived core: its
// register file, addressing-mode resolver, instruction set, and
// interrupt sequencer. It knows nothing about what is wired to its bus;
// mem.Bus owns every decode decision below the CPU.
package cpu

import (
	"fmt"

	"github.com/hejops/six502/mask"
	"github.com/hejops/six502/mem"
)

// Interrupt and reset vectors, little-endian words stored at the top of
// the address space.
const (
	vectorNMI   uint16 = 0xFFFA
	vectorReset uint16 = 0xFFFC
	vectorIRQ   uint16 = 0xFFFE
)

// AddressingMode names one of the 13 ways an instruction can locate its
// operand.
type AddressingMode byte

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX // (zp,X)
	IndirectY // (zp),Y
)

// Cpu is the 6502 register file plus the scratch state that decode()
// hands off to an instruction's Exec function.
type Cpu struct {
	Bus *mem.Bus

	A byte // accumulator
	X byte
	Y byte
	S byte // stack pointer, offset from $0100

	PC uint16

	Status Flags

	Cycles uint64 // running total, matches real hardware's power-on count of 7

	nmiPending bool
	irqLine    bool

	// Scratch set by decode() and consumed by the current instruction's
	// Exec function and by Step()'s cycle accounting. None of it survives
	// past the instruction currently executing.
	mode        AddressingMode
	M           byte   // operand value, for every mode that resolves one
	AbsAddress  uint16 // the effective address, for every mode that has one
	PageCrossed bool
	branchExtra uint64 // extra cycles a branch adds, computed by branch()
}

// New wires a Cpu to bus and brings it up through a RESET, the same
// sequence a real 2A03 runs when power is first applied.
func New(bus *mem.Bus) *Cpu {
	c := &Cpu{Bus: bus}
	c.Reset()
	return c
}

// Read and Write are thin pass-throughs to the bus; the CPU never
// touches a device directly.
func (c *Cpu) Read(addr uint16) byte       { return c.Bus.Read(addr) }
func (c *Cpu) Write(addr uint16, v byte)   { c.Bus.Write(addr, v) }

// LoadProgram copies program into the bus's RAM starting at origin and
// points PC at it, a convenience for tests and the CLI harness that
// don't want to round-trip through a full iNES cartridge.
func (c *Cpu) LoadProgram(origin uint16, program []byte) {
	for i, b := range program {
		c.Write(origin+uint16(i), b)
	}
	c.PC = origin
}

// Reset brings the CPU to the state it would be in after the RESET line
// is asserted: S, P, and PC change, but A/X/Y do not (that distinction
// only matters to a caller who reuses a Cpu across multiple resets; New
// gets a zero-valued A/X/Y for free since RESET and power-on coincide).
func (c *Cpu) Reset() {
	c.S = 0xFD
	c.Status = Flags{InterruptDisable: true}
	lo := c.Read(vectorReset)
	hi := c.Read(vectorReset + 1)
	c.PC = mask.Word(hi, lo)
	c.Cycles = 7
}

// Nmi latches a non-maskable interrupt request; it takes effect at the
// start of the next Step, ahead of any pending IRQ.
func (c *Cpu) Nmi() { c.nmiPending = true }

// Irq asserts or releases the level-triggered IRQ line. Unlike Nmi this
// is not edge-latched: holding the line high re-requests service every
// Step for as long as the interrupt-disable flag is clear.
func (c *Cpu) Irq(asserted bool) { c.irqLine = asserted }

// Step runs exactly one instruction (or, if an interrupt is pending,
// exactly one interrupt sequence) and returns the number of cycles it
// took.
func (c *Cpu) Step() (uint64, error) {
	if used := c.serviceInterrupts(); used > 0 {
		c.Bus.AdvanceClock(used)
		return used, nil
	}

	opByte := c.Read(c.PC)
	c.PC++

	op, ok := opcodes[opByte]
	if !ok {
		return 0, fmt.Errorf("six502: illegal opcode $%02X at $%04X", opByte, c.PC-1)
	}

	c.mode = op.Mode
	c.PageCrossed = false
	c.branchExtra = 0
	c.decode(op.Mode)
	if !op.Store {
		c.loadOperand()
	}

	op.Exec(c)

	cycles := uint64(op.Cycles)
	if op.PenalizesPageCross && c.PageCrossed {
		cycles++
	}
	cycles += c.branchExtra

	cycles += c.Bus.TakeStall()

	c.Cycles += cycles
	c.Bus.AdvanceClock(cycles)
	return cycles, nil
}

// serviceInterrupts runs at most one interrupt sequence per call. NMI
// always wins over IRQ, matching the real 2A03's edge detector being
// sampled one cycle earlier than the level detector.
func (c *Cpu) serviceInterrupts() uint64 {
	switch {
	case c.nmiPending:
		c.nmiPending = false
		c.enterInterrupt(vectorNMI, false)
		c.Cycles += 7
		return 7
	case c.irqLine && !c.Status.InterruptDisable:
		c.enterInterrupt(vectorIRQ, false)
		c.Cycles += 7
		return 7
	default:
		return 0
	}
}

// enterInterrupt runs the push/vector-load sequence shared by NMI, IRQ,
// and BRK: push PC high, PC low, status (with B set per brk), set I,
// then load PC from vector.
func (c *Cpu) enterInterrupt(vector uint16, brk bool) {
	c.push(byte(c.PC >> 8))
	c.push(byte(c.PC))
	c.push(c.Status.Byte(brk))
	c.Status.InterruptDisable = true
	lo := c.Read(vector)
	hi := c.Read(vector + 1)
	c.PC = mask.Word(hi, lo)
}

func (c *Cpu) push(v byte) {
	c.Write(0x0100|uint16(c.S), v)
	c.S--
}

func (c *Cpu) pull() byte {
	c.S++
	return c.Read(0x0100 | uint16(c.S))
}

// decode resolves the effective address for mode into c.AbsAddress (or,
// for the modes that have no address, the operand directly into c.M),
// and sets c.PageCrossed when the effective address crossed a page
// boundary relative to where indexing started. Its bus reads are limited
// to the instruction's own operand bytes and, for the indirect modes, the
// pointer bytes; it never reads the operand at the effective address:
// that is loadOperand's job, and only for opcodes that actually need a
// read. Step() alone decides whether a page cross
// actually costs a cycle, since that depends on the instruction (reads
// are penalized, stores and RMW are not).
func (c *Cpu) decode(mode AddressingMode) {
	switch mode {

	case Implied:
		return

	case Accumulator:
		c.M = c.A
		return

	case Relative:
		// The operand is a signed displacement from the address of the
		// *next* instruction. branch() uses AbsAddress as the candidate
		// target and compares it against PC to detect a page cross.
		offset := int8(c.Read(c.PC))
		c.PC++
		c.AbsAddress = uint16(int32(c.PC) + int32(offset))
		return

	case Immediate:
		c.M = c.Read(c.PC)
		c.PC++
		return

	case ZeroPage:
		c.AbsAddress = uint16(c.Read(c.PC))
		c.PC++

	case ZeroPageX:
		c.AbsAddress = uint16(byte(c.Read(c.PC) + c.X))
		c.PC++

	case ZeroPageY:
		c.AbsAddress = uint16(byte(c.Read(c.PC) + c.Y))
		c.PC++

	case Absolute:
		lo := c.Read(c.PC)
		hi := c.Read(c.PC + 1)
		c.PC += 2
		c.AbsAddress = mask.Word(hi, lo)

	case AbsoluteX:
		lo := c.Read(c.PC)
		hi := c.Read(c.PC + 1)
		c.PC += 2
		base := mask.Word(hi, lo)
		c.AbsAddress = base + uint16(c.X)
		c.PageCrossed = (base & 0xFF00) != (c.AbsAddress & 0xFF00)

	case AbsoluteY:
		lo := c.Read(c.PC)
		hi := c.Read(c.PC + 1)
		c.PC += 2
		base := mask.Word(hi, lo)
		c.AbsAddress = base + uint16(c.Y)
		c.PageCrossed = (base & 0xFF00) != (c.AbsAddress & 0xFF00)

	case Indirect:
		lo := c.Read(c.PC)
		hi := c.Read(c.PC + 1)
		c.PC += 2
		ptr := mask.Word(hi, lo)
		// The indirect-JMP page-wrap bug: if the low byte of ptr is
		// $FF, the high byte of the target is fetched from ptr with its
		// low byte wrapped to $00 on the same page, not ptr+1.
		hiAddr := (ptr & 0xFF00) | uint16(byte(ptr)+1)
		tLo := c.Read(ptr)
		tHi := c.Read(hiAddr)
		c.AbsAddress = mask.Word(tHi, tLo)
		return

	case IndirectX:
		zp := c.Read(c.PC)
		c.PC++
		ptr := zp + c.X // zero-page wrap, byte arithmetic
		lo := c.Read(uint16(ptr))
		hi := c.Read(uint16(byte(ptr + 1)))
		c.AbsAddress = mask.Word(hi, lo)

	case IndirectY:
		zp := c.Read(c.PC)
		c.PC++
		lo := c.Read(uint16(zp))
		hi := c.Read(uint16(byte(zp + 1)))
		base := mask.Word(hi, lo)
		c.AbsAddress = base + uint16(c.Y)
		c.PageCrossed = (base & 0xFF00) != (c.AbsAddress & 0xFF00)

	default:
		panic(fmt.Sprintf("six502: unhandled addressing mode %v", mode))
	}
}

// loadOperand reads the operand located by decode()'s AbsAddress into
// c.M, for every mode that resolves a memory address rather than a
// value of its own. Step skips this entirely for Opcode.Store
// instructions: a plain STA/STX/STY never issues a bus read on real
// hardware, only the write that follows, and skipping the read here is
// what keeps a store from tripping a read-sensitive device such as the
// controller port's shift register.
func (c *Cpu) loadOperand() {
	switch c.mode {
	case Implied, Accumulator, Relative, Immediate, Indirect:
		// already resolved directly by decode(); nothing to load
	default:
		c.M = c.Read(c.AbsAddress)
	}
}
