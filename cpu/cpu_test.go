package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hejops/six502/mem"
)

// ramCart is a throwaway mem.Cartridge backed by a flat, writable 64 KiB
// array. The bus only forwards $4020-$FFFF to it; lower addresses still
// decode to RAM, PPU, APU and controller registers. Real cartridge space
// is normally execute-from-ROM, but tests need to poke arbitrary bytes
// (including the reset/IRQ/NMI vectors) without going through a full
// iNES image.
type ramCart struct {
	data [0x10000]byte
}

func (r *ramCart) CPURead(addr uint16) byte     { return r.data[addr] }
func (r *ramCart) CPUWrite(addr uint16, v byte) { r.data[addr] = v }

func newTestCpu() (*Cpu, *ramCart) {
	cart := &ramCart{}
	bus := mem.NewBus()
	bus.InsertCartridge(cart)
	return &Cpu{Bus: bus}, cart
}

func parseHex(s string) []byte {
	var b []byte
	var hi byte
	have := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		default:
			continue
		}
		if !have {
			hi = v
			have = true
		} else {
			b = append(b, hi<<4|v)
			have = false
		}
	}
	return b
}

func TestLoadProgram(t *testing.T) {
	program := parseHex("A2 0A 8E 00 00 A2 03 8E 01 00 AC 00 00 A9 00 18 6D 01 00 88 D0 FA 8D 02 00 EA EA EA")

	c, _ := newTestCpu()
	c.LoadProgram(0x8000, program)

	assert.Equal(t, byte(0xA2), c.Read(0x8000))
	assert.Equal(t, byte(0x0A), c.Read(0x8001))
	assert.Equal(t, byte(0x8E), c.Read(0x8002))
	assert.Equal(t, byte(0xEA), c.Read(0x801B))
	assert.Equal(t, byte(0), c.Read(0x801C)) // one past the program: reads as 0 -> BRK

	assert.Equal(t, "LDX", opcodes[c.Read(0x8000)].Name)
	assert.Equal(t, "ASL", opcodes[c.Read(0x8001)].Name)
	assert.Equal(t, "STX", opcodes[c.Read(0x8002)].Name)
	assert.Equal(t, "NOP", opcodes[c.Read(0x801B)].Name)
	assert.Equal(t, "BRK", opcodes[c.Read(0x801C)].Name)
}

// TestMultiplyByThree traces a short routine that computes 10*3 via
// repeated addition, and checks the CPU's visible state after every
// instruction; InstName is the instruction that PC points at once the
// step is done. The expected trace reflects the correct ADC/DEY/BNE/STA
// semantics; a CPU with, say, a broken STA or a missing overflow flag
// computation could still stumble onto the right final answer by luck,
// so the intermediate states are what actually exercise the fix.
func TestMultiplyByThree(t *testing.T) {
	program := parseHex("A2 0A 8E 00 00 A2 03 8E 01 00 AC 00 00 A9 00 18 6D 01 00 88 D0 FA 8D 02 00 EA EA EA")

	c, _ := newTestCpu()
	offset := uint16(0x8000)
	c.LoadProgram(offset, program)
	c.Write(0xFFFC, byte(offset))
	c.Write(0xFFFD, byte(offset>>8))
	c.PC = offset

	assert.Equal(t, "LDX", opcodes[c.Read(c.PC)].Name)

	for _, want := range []struct {
		M        byte
		A        byte
		X        byte
		Y        byte
		InstName string
	}{
		{M: 0xa, A: 0, X: 0xa, Y: 0, InstName: "STX"},
		{M: 0xa, A: 0, X: 0xa, Y: 0, InstName: "LDX"},
		{M: 3, A: 0, X: 3, Y: 0, InstName: "STX"},
		{M: 3, A: 0, X: 3, Y: 0, InstName: "LDY"},
		{M: 0xa, A: 0, X: 3, Y: 0xa, InstName: "LDA"},
		{M: 0, A: 0, X: 3, Y: 0xa, InstName: "CLC"},

		{M: 0, A: 0, X: 3, Y: 0xa, InstName: "ADC"},
		{M: 3, A: 3, X: 3, Y: 0xa, InstName: "DEY"},
		{M: 3, A: 3, X: 3, Y: 9, InstName: "BNE"},

		{M: 0x03, A: 3, X: 3, Y: 9, InstName: "ADC"},
		{M: 0x03, A: 6, X: 3, Y: 9, InstName: "DEY"},
		{M: 0x03, A: 6, X: 3, Y: 8, InstName: "BNE"},

		{M: 0x03, A: 6, X: 3, Y: 8, InstName: "ADC"},
		{M: 0x03, A: 9, X: 3, Y: 8, InstName: "DEY"},
		{M: 0x03, A: 9, X: 3, Y: 7, InstName: "BNE"},

		{M: 0x03, A: 9, X: 3, Y: 7, InstName: "ADC"},
		{M: 0x03, A: 12, X: 3, Y: 7, InstName: "DEY"},
		{M: 0x03, A: 12, X: 3, Y: 6, InstName: "BNE"},

		{M: 0x03, A: 12, X: 3, Y: 6, InstName: "ADC"},
		{M: 0x03, A: 15, X: 3, Y: 6, InstName: "DEY"},
		{M: 0x03, A: 15, X: 3, Y: 5, InstName: "BNE"},

		{M: 0x03, A: 15, X: 3, Y: 5, InstName: "ADC"},
		{M: 0x03, A: 18, X: 3, Y: 5, InstName: "DEY"},
		{M: 0x03, A: 18, X: 3, Y: 4, InstName: "BNE"},

		{M: 0x03, A: 18, X: 3, Y: 4, InstName: "ADC"},
		{M: 0x03, A: 21, X: 3, Y: 4, InstName: "DEY"},
		{M: 0x03, A: 21, X: 3, Y: 3, InstName: "BNE"},

		{M: 0x03, A: 21, X: 3, Y: 3, InstName: "ADC"},
		{M: 0x03, A: 24, X: 3, Y: 3, InstName: "DEY"},
		{M: 0x03, A: 24, X: 3, Y: 2, InstName: "BNE"},

		{M: 0x03, A: 24, X: 3, Y: 2, InstName: "ADC"},
		{M: 0x03, A: 27, X: 3, Y: 2, InstName: "DEY"},
		{M: 0x03, A: 27, X: 3, Y: 1, InstName: "BNE"},

		{M: 0x03, A: 27, X: 3, Y: 1, InstName: "ADC"},
		{M: 0x03, A: 30, X: 3, Y: 1, InstName: "DEY"},
		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "BNE"},

		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "STA"},
		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "NOP"},
		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "NOP"},
		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "NOP"},
		{M: 0x03, A: 30, X: 3, Y: 0, InstName: "BRK"},
	} {
		_, err := c.Step()
		assert.NoError(t, err)
		nextInst := opcodes[c.Read(c.PC)].Name
		assert.Equal(t, want.InstName, nextInst)
		assert.Equal(t, want.M, c.M, "incorrect M before %s", nextInst)
		assert.Equal(t, want.A, c.A, "incorrect A before %s", nextInst)
		assert.Equal(t, want.X, c.X, "incorrect X before %s", nextInst)
		assert.Equal(t, want.Y, c.Y, "incorrect Y before %s", nextInst)
	}

	assert.Equal(t, byte(10), c.Read(0))
	assert.Equal(t, byte(3), c.Read(1))
	assert.Equal(t, byte(30), c.Read(2))
}

func TestAdcSetsOverflowWithoutCarry(t *testing.T) {
	c, _ := newTestCpu()
	c.LoadProgram(0x8000, parseHex("A9 7F 69 01"))
	c.PC = 0x8000

	_, err := c.Step() // LDA #$7F
	assert.NoError(t, err)
	_, err = c.Step() // ADC #$01 -> signed overflow (127+1 = -128)
	assert.NoError(t, err)

	assert.Equal(t, byte(0x80), c.A)
	assert.True(t, c.Status.Overflow)
	assert.True(t, c.Status.Negative)
	assert.False(t, c.Status.Carry)
}

func TestSbcBorrowsCorrectly(t *testing.T) {
	c, _ := newTestCpu()
	c.LoadProgram(0x8000, parseHex("38 A9 00 E9 01")) // SEC; LDA #0; SBC #1
	c.PC = 0x8000

	for i := 0; i < 3; i++ {
		_, err := c.Step()
		assert.NoError(t, err)
	}

	assert.Equal(t, byte(0xFF), c.A)
	assert.False(t, c.Status.Carry) // borrow occurred
	assert.True(t, c.Status.Negative)
}

// TestIndirectJmpPageBug reproduces the classic 6502 bug: JMP ($xxFF)
// fetches its high byte from $xx00 of the same page, not from the next
// page, because the indirect pointer fetch never carries into the high
// byte. The pointer sits in cartridge space ($50xx) so that the bus
// routes it to the test cartridge rather than to the PPU registers.
func TestIndirectJmpPageBug(t *testing.T) {
	c, cart := newTestCpu()
	cart.data[0x50FF] = 0x80
	cart.data[0x5000] = 0x90 // should be (wrongly) used instead of cart.data[0x5100]
	cart.data[0x5100] = 0x12 // never read

	c.LoadProgram(0x8000, parseHex("6C FF 50")) // JMP ($50FF)
	c.PC = 0x8000

	_, err := c.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x9080), c.PC)
}

// TestBranchPageCrossCosts2ExtraCycles checks the three-tier branch
// timing rule: 2 base cycles, +1 if taken, +1 more if the branch target
// lands on a different page than the instruction after the branch.
func TestBranchPageCrossCosts2ExtraCycles(t *testing.T) {
	c, _ := newTestCpu()
	// BNE +0x7F lands far enough away to cross a page from $80F0.
	c.LoadProgram(0x80F0, parseHex("D0 7F"))
	c.PC = 0x80F0
	c.Status.Zero = false // branch taken

	cycles, err := c.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint64(4), cycles) // 2 base + 1 taken + 1 page cross
}

func TestJsrRtsRoundTrip(t *testing.T) {
	c, _ := newTestCpu()
	c.LoadProgram(0x8000, parseHex("20 00 90 EA"))
	c.LoadProgram(0x9000, parseHex("60")) // RTS
	c.PC = 0x8000
	startS := c.S

	_, err := c.Step() // JSR $9000
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x9000), c.PC)
	assert.Equal(t, startS-2, c.S)

	_, err = c.Step() // RTS
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x8003), c.PC)
	assert.Equal(t, startS, c.S)
}

func TestBrkPushesBAndVectorsThroughIrq(t *testing.T) {
	c, _ := newTestCpu()
	c.Write(0xFFFE, 0x00)
	c.Write(0xFFFF, 0x90)
	c.LoadProgram(0x8000, parseHex("00")) // BRK
	c.PC = 0x8000
	startS := c.S

	_, err := c.Step()
	assert.NoError(t, err)

	assert.Equal(t, uint16(0x9000), c.PC)
	assert.Equal(t, startS-3, c.S)
	pushedStatus := c.Read(0x0100 | uint16(c.S+1))
	assert.NotZero(t, pushedStatus&0x10) // B set
	assert.True(t, c.Status.InterruptDisable)
}

// TestStaDoesNotDisturbControllerShiftRegister guards against a decode
// bug where every non-indexed addressing mode ended with an unconditional
// operand read, even for pure stores. STA $4016 must only write: a
// spurious read there would silently advance the controller's shift
// index before the game ever strobes or reads it.
func TestStaDoesNotDisturbControllerShiftRegister(t *testing.T) {
	c, _ := newTestCpu()
	pad := c.Bus.Pads[0]
	pad.Press(mem.ButtonA, true)
	pad.Write(1)
	pad.Write(0) // strobe low: begin shifting out the buttons

	c.LoadProgram(0x8000, parseHex("8D 16 40")) // STA $4016
	c.PC = 0x8000

	_, err := c.Step()
	assert.NoError(t, err)

	assert.Equal(t, byte(1), pad.Read()) // still the A bit: the store never consumed it
}

func TestNmiTakesPriorityOverIrq(t *testing.T) {
	c, _ := newTestCpu()
	c.Write(0xFFFA, 0x00)
	c.Write(0xFFFB, 0x70) // NMI vector -> $7000
	c.Write(0xFFFE, 0x00)
	c.Write(0xFFFF, 0x90) // IRQ vector -> $9000
	c.LoadProgram(0x8000, parseHex("EA"))
	c.PC = 0x8000
	c.Status.InterruptDisable = false

	c.Nmi()
	c.Irq(true)

	_, err := c.Step()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x7000), c.PC)
}
