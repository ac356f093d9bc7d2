package rom

import "github.com/pkg/errors"

// NROM implements the mem.Cartridge contract for iNES mapper 0: PRG-RAM
// at $6000-$7FFF, PRG-ROM at $8000-$FFFF with the 16 KiB bank mirrored
// into both halves when the image carries only one bank, CHR is
// PPU-side only and not wired here since this core has no PPU.
type NROM struct {
	prg    []byte
	prgRAM [0x2000]byte
}

// NewNROM wraps a loaded Image as a mem.Cartridge. It returns an error
// if the image's mapper number isn't 0, since no other mapper is
// implemented.
func NewNROM(img *Image) (*NROM, error) {
	if m := img.Header.Mapper(); m != 0 {
		return nil, errors.Errorf("rom: unsupported mapper %d", m)
	}
	return &NROM{prg: img.PRG}, nil
}

// CPURead implements mem.Cartridge.
func (n *NROM) CPURead(addr uint16) byte {
	switch {
	case addr < 0x6000:
		return 0
	case addr < 0x8000:
		return n.prgRAM[addr-0x6000]
	default:
		return n.prg[n.mapPRG(addr)]
	}
}

// CPUWrite implements mem.Cartridge. PRG-ROM is not writable; NROM has
// no bank-select registers to intercept a write to $8000-$FFFF.
func (n *NROM) CPUWrite(addr uint16, v byte) {
	if addr >= 0x6000 && addr < 0x8000 {
		n.prgRAM[addr-0x6000] = v
	}
}

// mapPRG mirrors a single 16 KiB bank across the full $8000-$FFFF window
// when the cartridge carries only one; a 32 KiB image is addressed
// directly.
func (n *NROM) mapPRG(addr uint16) uint16 {
	if len(n.prg) <= 16*1024 {
		return (addr - 0x8000) & 0x3FFF
	}
	return (addr - 0x8000) & 0x7FFF
}
