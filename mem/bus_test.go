package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCart struct {
	reads  map[uint16]byte
	writes map[uint16]byte
}

func newFakeCart() *fakeCart {
	return &fakeCart{reads: map[uint16]byte{}, writes: map[uint16]byte{}}
}

func (f *fakeCart) CPURead(addr uint16) byte     { return f.reads[addr] }
func (f *fakeCart) CPUWrite(addr uint16, v byte) { f.writes[addr] = v }

func TestRamMirrorsEvery2KiB(t *testing.T) {
	b := NewBus()
	b.Write(0x0001, 0x42)
	assert.Equal(t, byte(0x42), b.Read(0x0801))
	assert.Equal(t, byte(0x42), b.Read(0x1801))
}

func TestPpuRegistersMirrorEvery8Bytes(t *testing.T) {
	b := NewBus()
	b.Write(0x2000, 0x11)
	assert.Equal(t, byte(0x11), b.Ppu.regs[0])
	b.Write(0x2008, 0x22) // mirrors $2000
	assert.Equal(t, byte(0x22), b.Ppu.regs[0])
}

func TestCartridgeOwnsExtendedSpace(t *testing.T) {
	b := NewBus()
	cart := newFakeCart()
	cart.reads[0x8000] = 0x99
	b.InsertCartridge(cart)

	b.Write(0x8000, 0x55)
	assert.Equal(t, byte(0x55), cart.writes[0x8000])
	assert.Equal(t, byte(0x99), b.Read(0x8000))
}

func TestDisabledTestRangeReadsZero(t *testing.T) {
	b := NewBus()
	assert.Equal(t, byte(0), b.Read(0x4018))
	assert.Equal(t, byte(0), b.Read(0x401F))
}

func TestOamDmaCopies256BytesAndQueuesStall(t *testing.T) {
	b := NewBus()
	for i := 0; i < 256; i++ {
		b.Ram[i] = byte(i)
	}
	b.Write(0x4014, 0x00) // page 0, i.e. internal RAM $0000-$00FF

	for i := 0; i < 256; i++ {
		assert.Equal(t, byte(i), b.Ppu.oam[i])
	}
	assert.True(t, b.TakeStall() >= 513)
	assert.Equal(t, uint64(0), b.TakeStall()) // cleared after first take
}

func TestControllerPortsShareTheStrobeLine(t *testing.T) {
	b := NewBus()
	b.Pads[0].Press(ButtonA, true)
	b.Write(0x4016, 1) // strobe high on both ports
	assert.True(t, b.Pads[1].strobe)
	b.Write(0x4016, 0)
	assert.Equal(t, byte(1), b.Read(0x4016))
	assert.Equal(t, byte(0), b.Read(0x4016))
}
