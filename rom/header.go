// Package rom parses iNES cartridge images and exposes the one mapper
// the spec actually requires (NROM) behind the mem.Cartridge contract,
// so the cpu package never has to know the file format exists.
package rom

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const headerSize = 16

var magic = [4]byte{'N', 'E', 'S', 0x1A}

// Header holds the fields this core keeps from the 16-byte iNES header:
// PRG/CHR sizes, the mapper and mirroring flags, and the PRG-RAM size.
// The magic bytes and the reserved padding are checked by ParseHeader
// but not stored.
type Header struct {
	PRGBanks uint8 // 16 KiB units
	CHRBanks uint8 // 8 KiB units
	Flags6   uint8
	Flags7   uint8
	PRGRAM   uint8
}

// HasTrainer reports whether a 512-byte trainer follows the header.
func (h Header) HasTrainer() bool { return h.Flags6&0x04 != 0 }

// VerticalMirroring reports the nametable mirroring the cartridge wires,
// ignored by this core but reported for the benefit of a PPU.
func (h Header) VerticalMirroring() bool { return h.Flags6&0x01 != 0 }

// Mapper returns the iNES mapper number assembled from the high nibble
// of both flag bytes.
func (h Header) Mapper() byte {
	return (h.Flags7 & 0xF0) | (h.Flags6 >> 4)
}

// ParseHeader reads and validates the 16-byte iNES header from r.
func ParseHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errors.Wrap(err, "rom: short read on header")
	}
	if !bytes.Equal(buf[:4], magic[:]) {
		return Header{}, errors.Errorf("rom: bad magic % X, not an iNES image", buf[:4])
	}
	if buf[7]&0x0C == 0x08 {
		return Header{}, errors.Errorf("rom: flags7 %#08b identifies NES 2.0 or later, not iNES 1.0", buf[7])
	}
	if !bytes.Equal(buf[10:16], make([]byte, 6)) {
		return Header{}, errors.Errorf("rom: non-zero padding % X in header bytes 10-15", buf[10:16])
	}
	return Header{
		PRGBanks: buf[4],
		CHRBanks: buf[5],
		Flags6:   buf[6],
		Flags7:   buf[7],
		PRGRAM:   buf[8],
	}, nil
}

// Image is a fully loaded cartridge: header, any trainer, and the PRG/CHR
// ROM banks that follow it.
type Image struct {
	Header  Header
	Trainer []byte // 512 bytes if Header.HasTrainer, nil otherwise
	PRG     []byte
	CHR     []byte
}

// Load parses a complete iNES file from r.
func Load(r io.Reader) (*Image, error) {
	h, err := ParseHeader(r)
	if err != nil {
		return nil, err
	}

	var trainer []byte
	if h.HasTrainer() {
		trainer = make([]byte, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, errors.Wrap(err, "rom: short read on trainer")
		}
	}

	prg := make([]byte, int(h.PRGBanks)*16*1024)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, errors.Wrap(err, "rom: short read on PRG ROM")
	}

	chr := make([]byte, int(h.CHRBanks)*8*1024)
	if h.CHRBanks > 0 {
		if _, err := io.ReadFull(r, chr); err != nil {
			return nil, errors.Wrap(err, "rom: short read on CHR ROM")
		}
	}

	return &Image{Header: h, Trainer: trainer, PRG: prg, CHR: chr}, nil
}
