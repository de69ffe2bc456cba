package cpu

import (
	"bufio"
	"io"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Memory is the CPU's view of ROM and RAM, including the memory-mapped
// screen bitmap and keyboard code register described in §3.
type Memory struct {
	rom         [hack.ROMSize]hack.Word
	programSize int
	ram         [hack.RAMSize]hack.Word
	dirty       bool
}

// NewMemory returns a zeroed Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// ProgramSize returns the number of instructions loaded into ROM.
func (m *Memory) ProgramSize() int { return m.programSize }

// ROM returns the instruction word at addr.
func (m *Memory) ROM(addr int) (hack.Word, error) {
	if addr < 0 || addr >= hack.ROMSize {
		return 0, hack.RuntimeErr(addr, "ROM address out of range")
	}
	return m.rom[addr], nil
}

// LoadWords loads pre-decoded instruction words directly into ROM.
func (m *Memory) LoadWords(words []hack.Word) error {
	if len(words) > hack.ROMSize {
		return hack.ParseErr("", len(words), "program exceeds ROM capacity (%d instructions)", hack.ROMSize)
	}
	for i, w := range words {
		m.rom[i] = w
	}
	m.programSize = len(words)
	m.dirty = false
	return nil
}

// LoadHack loads a .hack ROM image: newline-delimited 16-character binary
// strings, one instruction per line. Leading/trailing whitespace (including
// a trailing \r) is trimmed; blank lines are skipped. Anything else is a
// Parse-class error citing the line and the offending character.
func (m *Memory) LoadHack(r io.Reader) error {
	sc := bufio.NewScanner(r)
	var words []hack.Word
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if len(words) >= hack.ROMSize {
			return hack.ParseErr("", line, "program exceeds ROM capacity (%d instructions)", hack.ROMSize)
		}
		if len(text) != 16 {
			return hack.ParseErr("", line, "expected 16 bits, got %d characters", len(text))
		}
		var w hack.Word
		for i, ch := range text {
			w <<= 1
			switch ch {
			case '0':
			case '1':
				w |= 1
			default:
				return hack.ParseErr("", line, "invalid character %q at column %d, expected '0' or '1'", ch, i+1)
			}
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return hack.FileErr("", err)
	}
	return m.LoadWords(words)
}

// RAM reads the word at addr, which must be a valid 15-bit effective address.
func (m *Memory) RAM(addr hack.Word) (hack.Word, error) {
	a := int(addr)
	if a < 0 || a >= hack.RAMSize {
		return 0, hack.RuntimeErr(a, "RAM address out of range")
	}
	return m.ram[a], nil
}

// SetRAM writes value at addr. Writes inside the screen range atomically
// raise the dirty flag (I5).
func (m *Memory) SetRAM(addr, value hack.Word) error {
	a := int(addr)
	if a < 0 || a >= hack.RAMSize {
		return hack.RuntimeErr(a, "RAM address out of range")
	}
	m.ram[a] = value
	if a >= int(hack.ScreenBase) && a < int(hack.ScreenBase)+hack.ScreenSize {
		m.dirty = true
	}
	return nil
}

// Dirty reports whether the screen has been written to since the last
// ClearDirty or Load call.
func (m *Memory) Dirty() bool { return m.dirty }

// ClearDirty resets the screen dirty flag.
func (m *Memory) ClearDirty() { m.dirty = false }

// Pixel returns the state of pixel (x,y). Coordinates outside [0,512)x[0,256)
// return false without error, per §4.2.
func (m *Memory) Pixel(x, y int) bool {
	if x < 0 || x >= 512 || y < 0 || y >= 256 {
		return false
	}
	word := m.ram[int(hack.ScreenBase)+hack.ScreenCols*y+x/16]
	return word&(1<<(uint(x)%16)) != 0
}

// SetPixel sets pixel (x,y) to on. Coordinates outside [0,512)x[0,256) are
// silently ignored.
func (m *Memory) SetPixel(x, y int, on bool) {
	if x < 0 || x >= 512 || y < 0 || y >= 256 {
		return
	}
	addr := int(hack.ScreenBase) + hack.ScreenCols*y + x/16
	bit := hack.Word(1) << (uint(x) % 16)
	if on {
		m.ram[addr] |= bit
	} else {
		m.ram[addr] &^= bit
	}
	m.dirty = true
}

// Keyboard returns the current keyboard code register value.
func (m *Memory) Keyboard() hack.Word { return m.ram[hack.KeyboardAddr] }

// SetKeyboard sets the keyboard code register (driven by the host).
func (m *Memory) SetKeyboard(code hack.Word) { m.ram[hack.KeyboardAddr] = code }

