package cpu

import (
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Dest lists the three independent destination flags of a C-instruction, in
// their fixed ordering (A, D, M).
type Dest struct {
	A, D, M bool
}

func (d Dest) String() string {
	var b strings.Builder
	if d.A {
		b.WriteByte('A')
	}
	if d.D {
		b.WriteByte('D')
	}
	if d.M {
		b.WriteByte('M')
	}
	return b.String()
}

func (d Dest) any() bool { return d.A || d.D || d.M }

// Jump lists the three jump condition flags of a C-instruction: LT ("<0"),
// EQ ("==0") and GT (">0"). The taken condition is their disjunction
// evaluated against the signed ALU output.
type Jump struct {
	LT, EQ, GT bool
}

func (j Jump) any() bool { return j.LT || j.EQ || j.GT }

// mnemonic returns the canonical jump mnemonic, or "" for the null jump.
func (j Jump) mnemonic() string {
	switch {
	case !j.LT && !j.EQ && !j.GT:
		return ""
	case j.GT && !j.EQ && !j.LT:
		return "JGT"
	case j.EQ && !j.GT && !j.LT:
		return "JEQ"
	case j.EQ && j.GT && !j.LT:
		return "JGE"
	case j.LT && !j.EQ && !j.GT:
		return "JLT"
	case j.LT && j.GT && !j.EQ:
		return "JNE"
	case j.LT && j.EQ && !j.GT:
		return "JLE"
	default:
		return "JMP"
	}
}

// Instruction is a decoded 16-bit word, either an A- or a C-instruction.
type Instruction struct {
	Raw hack.Word

	IsA   bool
	Value hack.Word // A-instruction immediate (low 15 bits of Raw)

	ReadsMemory bool // the a-bit
	Comp        uint8
	Dest        Dest
	Jump        Jump
}

// decode extracts the structural fields of word without validating comp.
func decode(word hack.Word) Instruction {
	if word&0x8000 == 0 {
		return Instruction{Raw: word, IsA: true, Value: word & 0x7FFF}
	}
	return Instruction{
		Raw:         word,
		IsA:         false,
		ReadsMemory: word&(1<<12) != 0,
		Comp:        uint8((word >> 6) & 0x7F),
		Dest: Dest{
			A: word&(1<<5) != 0,
			D: word&(1<<4) != 0,
			M: word&(1<<3) != 0,
		},
		Jump: Jump{
			LT: word&(1<<2) != 0,
			EQ: word&(1<<1) != 0,
			GT: word&(1<<0) != 0,
		},
	}
}

// Decode decodes word into an Instruction without checking that a C-form
// comp pattern is one of the 28 valid codes.
func Decode(word hack.Word) Instruction {
	return decode(word)
}

// DecodeChecked decodes word and additionally validates that a C-form comp
// pattern is one of the 28 valid ALU codes. source and addr are used only to
// annotate the error.
func DecodeChecked(word hack.Word, source string, addr int) (Instruction, error) {
	ins := decode(word)
	if !ins.IsA && !IsValidComp(ins.Comp) {
		return ins, hack.ParseErr(source, 0, "invalid comp bit pattern %07b at ROM address %d", ins.Comp, addr)
	}
	return ins, nil
}

// IsValidComp reports whether the 7-bit pattern (a-bit followed by c1..c6)
// is one of the 28 defined ALU computations.
func IsValidComp(bits uint8) bool {
	_, ok := compTable[bits]
	return ok
}

// ToString renders ins in the canonical textual form used by the Hack
// assembler: "@<decimal>" for A-instructions, "[dest=]comp[;jump]" for
// C-instructions.
func ToString(ins Instruction) string {
	if ins.IsA {
		return "@" + strconv.Itoa(int(ins.Value))
	}
	comp, ok := compTable[ins.Comp]
	if !ok {
		comp = compSpec{mnemonic: "???"}
	}
	var b strings.Builder
	if ins.Dest.any() {
		b.WriteString(ins.Dest.String())
		b.WriteByte('=')
	}
	b.WriteString(comp.mnemonic)
	if j := ins.Jump.mnemonic(); j != "" {
		b.WriteByte(';')
		b.WriteString(j)
	}
	return b.String()
}

// Disassemble renders an entire ROM image, one line per loaded instruction.
// Invalid comp patterns are rendered with a "???" placeholder rather than
// failing the whole listing.
func Disassemble(rom []hack.Word) []string {
	out := make([]string, len(rom))
	for i, w := range rom {
		out[i] = ToString(decode(w))
	}
	return out
}

type compSpec struct {
	mnemonic string
	fn       func(d, m int16) int16
}

// compTable enumerates the 28 valid 7-bit (a + c1..c6) comp patterns, their
// canonical mnemonic and their ALU function in terms of (D, A-or-M).
var compTable = map[uint8]compSpec{
	0b0101010: {"0", func(d, m int16) int16 { return 0 }},
	0b0111111: {"1", func(d, m int16) int16 { return 1 }},
	0b0111010: {"-1", func(d, m int16) int16 { return -1 }},
	0b0001100: {"D", func(d, m int16) int16 { return d }},
	0b0110000: {"A", func(d, m int16) int16 { return m }},
	0b0001101: {"!D", func(d, m int16) int16 { return ^d }},
	0b0110001: {"!A", func(d, m int16) int16 { return ^m }},
	0b0001111: {"-D", func(d, m int16) int16 { return -d }},
	0b0110011: {"-A", func(d, m int16) int16 { return -m }},
	0b0011111: {"D+1", func(d, m int16) int16 { return d + 1 }},
	0b0110111: {"A+1", func(d, m int16) int16 { return m + 1 }},
	0b0001110: {"D-1", func(d, m int16) int16 { return d - 1 }},
	0b0110010: {"A-1", func(d, m int16) int16 { return m - 1 }},
	0b0000010: {"D+A", func(d, m int16) int16 { return d + m }},
	0b0010011: {"D-A", func(d, m int16) int16 { return d - m }},
	0b0000111: {"A-D", func(d, m int16) int16 { return m - d }},
	0b0000000: {"D&A", func(d, m int16) int16 { return d & m }},
	0b0010101: {"D|A", func(d, m int16) int16 { return d | m }},
	0b1110000: {"M", func(d, m int16) int16 { return m }},
	0b1110001: {"!M", func(d, m int16) int16 { return ^m }},
	0b1110011: {"-M", func(d, m int16) int16 { return -m }},
	0b1110111: {"M+1", func(d, m int16) int16 { return m + 1 }},
	0b1110010: {"M-1", func(d, m int16) int16 { return m - 1 }},
	0b1000010: {"D+M", func(d, m int16) int16 { return d + m }},
	0b1010011: {"D-M", func(d, m int16) int16 { return d - m }},
	0b1000111: {"M-D", func(d, m int16) int16 { return m - d }},
	0b1000000: {"D&M", func(d, m int16) int16 { return d & m }},
	0b1010101: {"D|M", func(d, m int16) int16 { return d | m }},
}
