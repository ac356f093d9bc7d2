package cpu

// Opcode associates one of the 256 possible byte values with an
// addressing mode, a base cycle count, and the instruction that
// executes once the operand has been resolved. Many opcodes share an
// Exec function and differ only in Mode/Cycles.
//
// Exec never returns a cycle count: extra cycles are computed once, in
// Step, from PenalizesPageCross and from whatever a branch instruction
// leaves in c.branchExtra. Threading cycle counts back through 151
// function values bought nothing that a single place in Step doesn't
// already do more simply.
type Opcode struct {
	Mode   AddressingMode
	Cycles byte

	// PenalizesPageCross is set on the handful of mnemonics (the "group
	// one" read instructions) where an extra cycle is charged when
	// indexed addressing crosses a page boundary. Stores and read-modify-
	// write instructions never get this bonus, regardless of mode.
	PenalizesPageCross bool

	// Store marks STA/STX/STY: instructions whose only bus access is the
	// write their Exec function performs itself. Step skips the operand
	// read that every other opcode gets, since real hardware never reads
	// the target address of a plain store.
	Store bool

	Exec func(*Cpu)

	Name string
}

// opcodes maps the 151 documented byte values to their instructions.
var opcodes = map[byte]Opcode{
	0x69: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 2, Mode: Immediate},
	0x65: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 3, Mode: ZeroPage},
	0x75: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 4, Mode: ZeroPageX},
	0x6D: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 4, Mode: Absolute},
	0x7D: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0x79: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0x61: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 6, Mode: IndirectX},
	0x71: {Exec: (*Cpu).ADC, Name: "ADC", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0x29: {Exec: (*Cpu).AND, Name: "AND", Cycles: 2, Mode: Immediate},
	0x25: {Exec: (*Cpu).AND, Name: "AND", Cycles: 3, Mode: ZeroPage},
	0x35: {Exec: (*Cpu).AND, Name: "AND", Cycles: 4, Mode: ZeroPageX},
	0x2D: {Exec: (*Cpu).AND, Name: "AND", Cycles: 4, Mode: Absolute},
	0x3D: {Exec: (*Cpu).AND, Name: "AND", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0x39: {Exec: (*Cpu).AND, Name: "AND", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0x21: {Exec: (*Cpu).AND, Name: "AND", Cycles: 6, Mode: IndirectX},
	0x31: {Exec: (*Cpu).AND, Name: "AND", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0x0A: {Exec: (*Cpu).ASL, Name: "ASL", Cycles: 2, Mode: Accumulator},
	0x06: {Exec: (*Cpu).ASL, Name: "ASL", Cycles: 5, Mode: ZeroPage},
	0x16: {Exec: (*Cpu).ASL, Name: "ASL", Cycles: 6, Mode: ZeroPageX},
	0x0E: {Exec: (*Cpu).ASL, Name: "ASL", Cycles: 6, Mode: Absolute},
	0x1E: {Exec: (*Cpu).ASL, Name: "ASL", Cycles: 7, Mode: AbsoluteX},

	0x24: {Exec: (*Cpu).BIT, Name: "BIT", Cycles: 3, Mode: ZeroPage},
	0x2C: {Exec: (*Cpu).BIT, Name: "BIT", Cycles: 4, Mode: Absolute},

	0x00: {Exec: (*Cpu).BRK, Name: "BRK", Cycles: 7, Mode: Implied},

	0xC9: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 2, Mode: Immediate},
	0xC5: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 3, Mode: ZeroPage},
	0xD5: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 4, Mode: ZeroPageX},
	0xCD: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 4, Mode: Absolute},
	0xDD: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0xD9: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0xC1: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 6, Mode: IndirectX},
	0xD1: {Exec: (*Cpu).CMP, Name: "CMP", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0xE0: {Exec: (*Cpu).CPX, Name: "CPX", Cycles: 2, Mode: Immediate},
	0xE4: {Exec: (*Cpu).CPX, Name: "CPX", Cycles: 3, Mode: ZeroPage},
	0xEC: {Exec: (*Cpu).CPX, Name: "CPX", Cycles: 4, Mode: Absolute},

	0xC0: {Exec: (*Cpu).CPY, Name: "CPY", Cycles: 2, Mode: Immediate},
	0xC4: {Exec: (*Cpu).CPY, Name: "CPY", Cycles: 3, Mode: ZeroPage},
	0xCC: {Exec: (*Cpu).CPY, Name: "CPY", Cycles: 4, Mode: Absolute},

	0xC6: {Exec: (*Cpu).DEC, Name: "DEC", Cycles: 5, Mode: ZeroPage},
	0xD6: {Exec: (*Cpu).DEC, Name: "DEC", Cycles: 6, Mode: ZeroPageX},
	0xCE: {Exec: (*Cpu).DEC, Name: "DEC", Cycles: 6, Mode: Absolute},
	0xDE: {Exec: (*Cpu).DEC, Name: "DEC", Cycles: 7, Mode: AbsoluteX},

	0x49: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 2, Mode: Immediate},
	0x45: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 3, Mode: ZeroPage},
	0x55: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 4, Mode: ZeroPageX},
	0x4D: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 4, Mode: Absolute},
	0x5D: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0x59: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0x41: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 6, Mode: IndirectX},
	0x51: {Exec: (*Cpu).EOR, Name: "EOR", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0xE6: {Exec: (*Cpu).INC, Name: "INC", Cycles: 5, Mode: ZeroPage},
	0xF6: {Exec: (*Cpu).INC, Name: "INC", Cycles: 6, Mode: ZeroPageX},
	0xEE: {Exec: (*Cpu).INC, Name: "INC", Cycles: 6, Mode: Absolute},
	0xFE: {Exec: (*Cpu).INC, Name: "INC", Cycles: 7, Mode: AbsoluteX},

	0x4C: {Exec: (*Cpu).JMP, Name: "JMP", Cycles: 3, Mode: Absolute},
	0x6C: {Exec: (*Cpu).JMP, Name: "JMP", Cycles: 5, Mode: Indirect},
	0x20: {Exec: (*Cpu).JSR, Name: "JSR", Cycles: 6, Mode: Absolute},

	0xA9: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 2, Mode: Immediate},
	0xA5: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 3, Mode: ZeroPage},
	0xB5: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 4, Mode: ZeroPageX},
	0xAD: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 4, Mode: Absolute},
	0xBD: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0xB9: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0xA1: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 6, Mode: IndirectX},
	0xB1: {Exec: (*Cpu).LDA, Name: "LDA", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0xA2: {Exec: (*Cpu).LDX, Name: "LDX", Cycles: 2, Mode: Immediate},
	0xA6: {Exec: (*Cpu).LDX, Name: "LDX", Cycles: 3, Mode: ZeroPage},
	0xB6: {Exec: (*Cpu).LDX, Name: "LDX", Cycles: 4, Mode: ZeroPageY},
	0xAE: {Exec: (*Cpu).LDX, Name: "LDX", Cycles: 4, Mode: Absolute},
	0xBE: {Exec: (*Cpu).LDX, Name: "LDX", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},

	0xA0: {Exec: (*Cpu).LDY, Name: "LDY", Cycles: 2, Mode: Immediate},
	0xA4: {Exec: (*Cpu).LDY, Name: "LDY", Cycles: 3, Mode: ZeroPage},
	0xB4: {Exec: (*Cpu).LDY, Name: "LDY", Cycles: 4, Mode: ZeroPageX},
	0xAC: {Exec: (*Cpu).LDY, Name: "LDY", Cycles: 4, Mode: Absolute},
	0xBC: {Exec: (*Cpu).LDY, Name: "LDY", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},

	0x4A: {Exec: (*Cpu).LSR, Name: "LSR", Cycles: 2, Mode: Accumulator},
	0x46: {Exec: (*Cpu).LSR, Name: "LSR", Cycles: 5, Mode: ZeroPage},
	0x56: {Exec: (*Cpu).LSR, Name: "LSR", Cycles: 6, Mode: ZeroPageX},
	0x4E: {Exec: (*Cpu).LSR, Name: "LSR", Cycles: 6, Mode: Absolute},
	0x5E: {Exec: (*Cpu).LSR, Name: "LSR", Cycles: 7, Mode: AbsoluteX},

	0xEA: {Exec: (*Cpu).NOP, Name: "NOP", Cycles: 2, Mode: Implied},

	0x09: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 2, Mode: Immediate},
	0x05: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 3, Mode: ZeroPage},
	0x15: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 4, Mode: ZeroPageX},
	0x0D: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 4, Mode: Absolute},
	0x1D: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0x19: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0x01: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 6, Mode: IndirectX},
	0x11: {Exec: (*Cpu).ORA, Name: "ORA", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0x2A: {Exec: (*Cpu).ROL, Name: "ROL", Cycles: 2, Mode: Accumulator},
	0x26: {Exec: (*Cpu).ROL, Name: "ROL", Cycles: 5, Mode: ZeroPage},
	0x36: {Exec: (*Cpu).ROL, Name: "ROL", Cycles: 6, Mode: ZeroPageX},
	0x2E: {Exec: (*Cpu).ROL, Name: "ROL", Cycles: 6, Mode: Absolute},
	0x3E: {Exec: (*Cpu).ROL, Name: "ROL", Cycles: 7, Mode: AbsoluteX},

	0x6A: {Exec: (*Cpu).ROR, Name: "ROR", Cycles: 2, Mode: Accumulator},
	0x66: {Exec: (*Cpu).ROR, Name: "ROR", Cycles: 5, Mode: ZeroPage},
	0x76: {Exec: (*Cpu).ROR, Name: "ROR", Cycles: 6, Mode: ZeroPageX},
	0x6E: {Exec: (*Cpu).ROR, Name: "ROR", Cycles: 6, Mode: Absolute},
	0x7E: {Exec: (*Cpu).ROR, Name: "ROR", Cycles: 7, Mode: AbsoluteX},

	0x40: {Exec: (*Cpu).RTI, Name: "RTI", Cycles: 6, Mode: Implied},
	0x60: {Exec: (*Cpu).RTS, Name: "RTS", Cycles: 6, Mode: Implied},

	0xE9: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 2, Mode: Immediate},
	0xE5: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 3, Mode: ZeroPage},
	0xF5: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 4, Mode: ZeroPageX},
	0xED: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 4, Mode: Absolute},
	0xFD: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 4, Mode: AbsoluteX, PenalizesPageCross: true},
	0xF9: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 4, Mode: AbsoluteY, PenalizesPageCross: true},
	0xE1: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 6, Mode: IndirectX},
	0xF1: {Exec: (*Cpu).SBC, Name: "SBC", Cycles: 5, Mode: IndirectY, PenalizesPageCross: true},

	0x85: {Exec: (*Cpu).STA, Name: "STA", Cycles: 3, Mode: ZeroPage, Store: true},
	0x95: {Exec: (*Cpu).STA, Name: "STA", Cycles: 4, Mode: ZeroPageX, Store: true},
	0x8D: {Exec: (*Cpu).STA, Name: "STA", Cycles: 4, Mode: Absolute, Store: true},
	0x9D: {Exec: (*Cpu).STA, Name: "STA", Cycles: 5, Mode: AbsoluteX, Store: true},
	0x99: {Exec: (*Cpu).STA, Name: "STA", Cycles: 5, Mode: AbsoluteY, Store: true},
	0x81: {Exec: (*Cpu).STA, Name: "STA", Cycles: 6, Mode: IndirectX, Store: true},
	0x91: {Exec: (*Cpu).STA, Name: "STA", Cycles: 6, Mode: IndirectY, Store: true},

	0x86: {Exec: (*Cpu).STX, Name: "STX", Cycles: 3, Mode: ZeroPage, Store: true},
	0x96: {Exec: (*Cpu).STX, Name: "STX", Cycles: 4, Mode: ZeroPageY, Store: true},
	0x8E: {Exec: (*Cpu).STX, Name: "STX", Cycles: 4, Mode: Absolute, Store: true},

	0x84: {Exec: (*Cpu).STY, Name: "STY", Cycles: 3, Mode: ZeroPage, Store: true},
	0x94: {Exec: (*Cpu).STY, Name: "STY", Cycles: 4, Mode: ZeroPageX, Store: true},
	0x8C: {Exec: (*Cpu).STY, Name: "STY", Cycles: 4, Mode: Absolute, Store: true},

	// clear, set
	0x18: {Exec: (*Cpu).CLC, Name: "CLC", Cycles: 2, Mode: Implied},
	0x38: {Exec: (*Cpu).SEC, Name: "SEC", Cycles: 2, Mode: Implied},
	0x58: {Exec: (*Cpu).CLI, Name: "CLI", Cycles: 2, Mode: Implied},
	0x78: {Exec: (*Cpu).SEI, Name: "SEI", Cycles: 2, Mode: Implied},
	0xB8: {Exec: (*Cpu).CLV, Name: "CLV", Cycles: 2, Mode: Implied},
	0xD8: {Exec: (*Cpu).CLD, Name: "CLD", Cycles: 2, Mode: Implied},
	0xF8: {Exec: (*Cpu).SED, Name: "SED", Cycles: 2, Mode: Implied},

	// register transfers, increment, decrement
	0xAA: {Exec: (*Cpu).TAX, Name: "TAX", Cycles: 2, Mode: Implied},
	0x8A: {Exec: (*Cpu).TXA, Name: "TXA", Cycles: 2, Mode: Implied},
	0xCA: {Exec: (*Cpu).DEX, Name: "DEX", Cycles: 2, Mode: Implied},
	0xE8: {Exec: (*Cpu).INX, Name: "INX", Cycles: 2, Mode: Implied},
	0xA8: {Exec: (*Cpu).TAY, Name: "TAY", Cycles: 2, Mode: Implied},
	0x98: {Exec: (*Cpu).TYA, Name: "TYA", Cycles: 2, Mode: Implied},
	0x88: {Exec: (*Cpu).DEY, Name: "DEY", Cycles: 2, Mode: Implied},
	0xC8: {Exec: (*Cpu).INY, Name: "INY", Cycles: 2, Mode: Implied},

	// branch
	0x10: {Exec: (*Cpu).BPL, Name: "BPL", Cycles: 2, Mode: Relative},
	0x30: {Exec: (*Cpu).BMI, Name: "BMI", Cycles: 2, Mode: Relative},
	0x50: {Exec: (*Cpu).BVC, Name: "BVC", Cycles: 2, Mode: Relative},
	0x70: {Exec: (*Cpu).BVS, Name: "BVS", Cycles: 2, Mode: Relative},
	0x90: {Exec: (*Cpu).BCC, Name: "BCC", Cycles: 2, Mode: Relative},
	0xB0: {Exec: (*Cpu).BCS, Name: "BCS", Cycles: 2, Mode: Relative},
	0xD0: {Exec: (*Cpu).BNE, Name: "BNE", Cycles: 2, Mode: Relative},
	0xF0: {Exec: (*Cpu).BEQ, Name: "BEQ", Cycles: 2, Mode: Relative},

	// stack
	0x9A: {Exec: (*Cpu).TXS, Name: "TXS", Cycles: 2, Mode: Implied},
	0xBA: {Exec: (*Cpu).TSX, Name: "TSX", Cycles: 2, Mode: Implied},
	0x48: {Exec: (*Cpu).PHA, Name: "PHA", Cycles: 3, Mode: Implied},
	0x68: {Exec: (*Cpu).PLA, Name: "PLA", Cycles: 4, Mode: Implied},
	0x08: {Exec: (*Cpu).PHP, Name: "PHP", Cycles: 3, Mode: Implied},
	0x28: {Exec: (*Cpu).PLP, Name: "PLP", Cycles: 4, Mode: Implied},
}
