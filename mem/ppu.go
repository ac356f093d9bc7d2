package mem

// PpuRegisters models just the CPU-visible register surface of the
// picture processing unit ($2000-$2007, mirrored every 8 bytes through
// $3FFF): PPUCTRL, PPUMASK, PPUSTATUS, OAMADDR, OAMDATA, PPUSCROLL,
// PPUADDR, PPUDATA. Actual rendering is out of scope; what matters here
// is the register-latch behavior the CPU can observe.
type PpuRegisters struct {
	regs    [8]byte
	latch   byte // open-bus value returned by write-only registers
	oam     [256]byte
	oamAddr byte
}

// NewPpuRegisters returns a register bank in its power-on state.
func NewPpuRegisters() *PpuRegisters {
	return &PpuRegisters{}
}

// Read returns the value for one of the eight mirrored registers.
// PPUSTATUS, OAMDATA, and PPUDATA are readable; everything else is
// write-only and reads back as the open-bus latch.
func (p *PpuRegisters) Read(addr uint16) byte {
	switch addr & 0x0007 {
	case 2: // PPUSTATUS
		v := p.regs[2]
		p.latch = v
		return v
	case 4: // OAMDATA
		v := p.oam[p.oamAddr]
		p.latch = v
		return v
	case 7: // PPUDATA
		v := p.regs[7]
		p.latch = v
		return v
	default:
		return p.latch
	}
}

// Write latches v into the addressed register. OAMADDR and OAMDATA also
// drive the OAM-access cursor used by $2004 reads/writes and by OAM-DMA.
func (p *PpuRegisters) Write(addr uint16, v byte) {
	i := addr & 0x0007
	p.latch = v
	p.regs[i] = v
	switch i {
	case 3: // OAMADDR
		p.oamAddr = v
	case 4: // OAMDATA
		p.oam[p.oamAddr] = v
		p.oamAddr++
	}
}

// WriteOAM is used by Bus.oamDMA to deposit a byte at a fixed OAM offset
// without disturbing OAMADDR.
func (p *PpuRegisters) WriteOAM(offset, v byte) {
	p.oam[offset] = v
}
