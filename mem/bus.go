// Package mem implements the NES CPU-side memory bus: the component that
// decodes a 16-bit address into exactly one device and forwards the read
// or write to it. RAM mirroring, PPU register mirroring, and the
// APU/controller/cartridge windows all live here, not in the CPU.
package mem

// Cartridge is the interface the bus expects from whatever mapper is
// plugged in; iNES parsing and mapper logic live outside this package
// and are reached only through this contract (see package rom).
type Cartridge interface {
	CPURead(addr uint16) byte
	CPUWrite(addr uint16, v byte)
}

// Bus is the central object that routes every CPU load/store to RAM, the
// PPU/APU register windows, the controller ports, or cartridge space. It
// owns the devices as exclusive fields, per the design described in
// spec.md's ownership model: the CPU only ever sees Bus.Read/Bus.Write.
type Bus struct {
	Ram  [0x800]byte // 2 KiB internal RAM, mirrored through $1FFF
	Ppu  *PpuRegisters
	Apu  *ApuRegisters
	Pads [2]*Controller
	Cart Cartridge

	openBus byte // last byte driven onto the data lines
	stall   uint64
	clock   uint64
}

// NewBus wires up a bus with its register-surface stubs and controller
// ports, ready for a cartridge to be attached with InsertCartridge.
func NewBus() *Bus {
	return &Bus{
		Ppu:  NewPpuRegisters(),
		Apu:  NewApuRegisters(),
		Pads: [2]*Controller{{}, {}},
	}
}

// InsertCartridge attaches the mapper that owns $4020-$FFFF (and the
// $6000-$7FFF PRG-RAM window, if any).
func (b *Bus) InsertCartridge(c Cartridge) {
	b.Cart = c
}

// Read dispatches a CPU-side load by the address table in spec.md §3.2.
// Reads of write-only or disabled regions return the open-bus latch or 0
// respectively; neither is ever a failure.
func (b *Bus) Read(addr uint16) byte {
	var v byte
	switch {
	case addr <= 0x1FFF:
		v = b.Ram[addr&0x07FF]
	case addr <= 0x3FFF:
		v = b.Ppu.Read(0x2000 | (addr & 0x0007))
	case addr == 0x4015:
		v = b.Apu.ReadStatus()
	case addr == 0x4016:
		v = b.Pads[0].Read()
	case addr == 0x4017:
		v = b.Pads[1].Read()
	case addr >= 0x4000 && addr <= 0x4014:
		// APU registers and OAM-DMA are write-only from the CPU side.
		v = b.openBus
	case addr >= 0x4018 && addr <= 0x401F:
		// disabled test registers: open bus, read as 0
		v = 0
	case addr >= 0x4020:
		if b.Cart != nil {
			v = b.Cart.CPURead(addr)
		}
	}
	b.openBus = v
	return v
}

// Write dispatches a CPU-side store. Writes to read-only or disabled
// regions are silently dropped, except $4014 (OAM-DMA), which is the one
// documented write side effect in this range.
func (b *Bus) Write(addr uint16, v byte) {
	b.openBus = v
	switch {
	case addr <= 0x1FFF:
		b.Ram[addr&0x07FF] = v
	case addr <= 0x3FFF:
		b.Ppu.Write(0x2000|(addr&0x0007), v)
	case addr == 0x4014:
		b.oamDMA(v)
	case addr == 0x4015:
		b.Apu.WriteStatus(v)
	case addr == 0x4016:
		// the strobe line is shared by both controller ports
		b.Pads[0].Write(v)
		b.Pads[1].Write(v)
	case addr == 0x4017:
		b.Apu.WriteFrameCounter(v)
	case addr >= 0x4000 && addr <= 0x4013:
		b.Apu.WriteRegister(addr, v)
	case addr >= 0x4018 && addr <= 0x401F:
		// disabled test registers: no-op
	case addr >= 0x4020:
		if b.Cart != nil {
			b.Cart.CPUWrite(addr, v)
		}
	}
}

// oamDMA copies 256 bytes from page*$100 in CPU space into PPU OAM and
// queues the CPU stall the real hardware incurs: 513 cycles, or 514 if
// the DMA starts on an odd CPU cycle.
func (b *Bus) oamDMA(page byte) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.Ppu.WriteOAM(byte(i), b.Read(base+uint16(i)))
	}
	stall := uint64(513)
	if b.clock%2 == 1 {
		stall = 514
	}
	b.stall += stall
}

// AdvanceClock lets the CPU keep the bus's notion of elapsed cycles in
// sync, which is all the OAM-DMA stall-parity calculation needs; full
// PPU/APU catch-up scheduling belongs to the enclosing NES system.
func (b *Bus) AdvanceClock(cycles uint64) {
	b.clock += cycles
}

// TakeStall returns and clears any CPU stall queued by a side effect
// (currently just OAM-DMA) since the last call.
func (b *Bus) TakeStall() uint64 {
	s := b.stall
	b.stall = 0
	return s
}
