package cpu

import (
	"io"

	"golang.org/x/exp/slices"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// RunState is the coarse execution state of the CPU engine.
type RunState int

const (
	Ready RunState = iota
	Running
	Paused
	Halted
	Errored
)

func (s RunState) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Halted:
		return "HALTED"
	case Errored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PauseReason explains why a Paused engine stopped.
type PauseReason int

const (
	NotPaused PauseReason = iota
	Breakpoint
	StepComplete
	UserRequest
)

// Stats tallies instruction counters accumulated since the last load (§4.3,
// extended per SPEC_FULL.md with InstructionsExecuted/Cycles for parity with
// the pack's other CPU cores); Run and RunFor do not reset them.
type Stats struct {
	AInstructions        int
	CInstructions        int
	Jumps                int
	MemReads             int
	MemWrites            int
	InstructionsExecuted int
	Cycles               int
}

// CPU is the fetch-decode-execute engine for the Hack ISA.
type CPU struct {
	mem *Memory

	a, d Word
	pc   int

	state       RunState
	pauseReason PauseReason
	pauseFlag   bool // one-shot, set by Pause() from any goroutine

	breakpoints map[int]struct{}
	stats       Stats

	errMsg  string
	errAddr int

	ranInstructions int // instructions executed during the current run(), for the breakpoint skip-first rule
}

// Word is the CPU's 16-bit register/word type.
type Word = hack.Word

// NewCPU returns a CPU with a fresh Memory, in state Ready.
func NewCPU() *CPU {
	return &CPU{
		mem:         NewMemory(),
		state:       Ready,
		breakpoints: make(map[int]struct{}),
		errAddr:     -1,
	}
}

// Memory exposes the underlying Memory for direct inspection (RAM/ROM dumps,
// screen/keyboard access).
func (c *CPU) Memory() *Memory { return c.mem }

func (c *CPU) reload() {
	c.a, c.d = 0, 0
	c.pc = 0
	c.stats = Stats{}
	c.state = Ready
	c.pauseReason = NotPaused
	c.pauseFlag = false
	c.errMsg = ""
	c.errAddr = -1
}

// LoadHack loads a .hack ROM image and resets registers and statistics.
func (c *CPU) LoadHack(r io.Reader) error {
	if err := c.mem.LoadHack(r); err != nil {
		return err
	}
	c.reload()
	return nil
}

// LoadWords loads pre-decoded instruction words and resets registers and
// statistics.
func (c *CPU) LoadWords(words []Word) error {
	if err := c.mem.LoadWords(words); err != nil {
		return err
	}
	c.reload()
	return nil
}

// A returns the A register.
func (c *CPU) A() Word { return c.a }

// D returns the D register.
func (c *CPU) D() Word { return c.d }

// PC returns the program counter.
func (c *CPU) PC() int { return c.pc }

// State returns the current run state.
func (c *CPU) State() RunState { return c.state }

// PauseReason returns why the engine last paused.
func (c *CPU) PauseReason() PauseReason { return c.pauseReason }

// Stats returns a copy of the current run statistics.
func (c *CPU) Stats() Stats { return c.stats }

// ErrorMessage returns the last error's text, if the engine is Errored.
func (c *CPU) ErrorMessage() string { return c.errMsg }

// ErrorLocation returns the ROM address of the last error, or -1.
func (c *CPU) ErrorLocation() int { return c.errAddr }

// CurrentInstruction returns the decoded instruction at PC, or ok=false if
// PC is out of range.
func (c *CPU) CurrentInstruction() (Instruction, bool) {
	if c.pc < 0 || c.pc >= c.mem.ProgramSize() {
		return Instruction{}, false
	}
	return decode(c.mem.rom[c.pc]), true
}

// Disassembly returns the textual disassembly of the loaded program.
func (c *CPU) Disassembly() []string {
	return Disassemble(c.mem.rom[:c.mem.ProgramSize()])
}

// AddBreakpoint registers a ROM-address breakpoint.
func (c *CPU) AddBreakpoint(addr int) { c.breakpoints[addr] = struct{}{} }

// RemoveBreakpoint removes a ROM-address breakpoint.
func (c *CPU) RemoveBreakpoint(addr int) { delete(c.breakpoints, addr) }

// ClearBreakpoints removes all breakpoints.
func (c *CPU) ClearBreakpoints() { c.breakpoints = make(map[int]struct{}) }

// Breakpoints returns the sorted list of ROM-address breakpoints.
func (c *CPU) Breakpoints() []int {
	out := make([]int, 0, len(c.breakpoints))
	for a := range c.breakpoints {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func (c *CPU) hasBreakpoint(addr int) bool {
	_, ok := c.breakpoints[addr]
	return ok
}

// Pause requests a cooperative pause, honored at the next instruction
// boundary. It is the only operation meant to be called from outside the
// engine's own execution context (§5); it is a one-shot flag consumed on
// observation.
func (c *CPU) Pause() { c.pauseFlag = true }

// fail transitions the engine to Errored atomically: the instruction that
// triggered it may have already mutated registers/RAM (the spec allows
// this), but the run-state flip itself is a single assignment.
func (c *CPU) fail(err error) error {
	c.state = Errored
	if e, ok := hack.AsError(err); ok {
		c.errMsg = e.Msg
	} else {
		c.errMsg = err.Error()
	}
	c.errAddr = c.pc
	return err
}

// Step executes exactly one instruction, then transitions to Paused with
// reason StepComplete, unless it halts or errors.
func (c *CPU) Step() error {
	if c.state == Errored {
		return nil
	}
	if c.state == Ready {
		c.state = Running
	}
	if err := c.execOne(); err != nil {
		return err
	}
	if c.state != Halted && c.state != Errored {
		c.state = Paused
		c.pauseReason = StepComplete
	}
	return nil
}

// Run executes until Halted, Errored, or Paused (external pause request or
// breakpoint hit). Breakpoints are only checked from the second executed
// instruction of this run, so resuming from a breakpoint does not
// immediately re-trip it.
func (c *CPU) Run() error {
	return c.runLoop(-1)
}

// RunFor executes at most n instructions. On exhaustion without halting or
// erroring, the engine is left Paused with reason UserRequest.
func (c *CPU) RunFor(n int) error {
	return c.runLoop(n)
}

func (c *CPU) runLoop(limit int) error {
	if c.state == Errored || c.state == Halted {
		return nil
	}
	c.state = Running
	c.ranInstructions = 0
	for {
		if c.pauseFlag {
			c.pauseFlag = false
			c.state = Paused
			c.pauseReason = UserRequest
			return nil
		}
		if c.ranInstructions > 0 && c.hasBreakpoint(c.pc) {
			c.state = Paused
			c.pauseReason = Breakpoint
			return nil
		}
		if err := c.execOne(); err != nil {
			return err
		}
		c.ranInstructions++
		if c.state == Halted || c.state == Errored {
			return nil
		}
		if limit >= 0 && c.ranInstructions >= limit {
			c.state = Paused
			c.pauseReason = UserRequest
			return nil
		}
	}
}

// execOne fetches, decodes and executes the instruction at PC, per §4.3.
func (c *CPU) execOne() error {
	word, err := c.mem.ROM(c.pc)
	if err != nil {
		return c.fail(err)
	}
	ins := decode(word)
	c.stats.InstructionsExecuted++
	c.stats.Cycles++

	if ins.IsA {
		c.a = ins.Value
		c.pc++
		c.stats.AInstructions++
	} else {
		var am Word
		if ins.ReadsMemory {
			v, err := c.mem.RAM(c.a)
			if err != nil {
				return c.fail(err)
			}
			am = v
			c.stats.MemReads++
		} else {
			am = c.a
		}
		res, ok := alu(ins.Comp, c.d, am)
		if !ok {
			return c.fail(hack.RuntimeErr(c.pc, "invalid comp bit pattern %07b", ins.Comp))
		}
		aBefore := c.a
		if ins.Dest.A {
			c.a = res.out
		}
		if ins.Dest.D {
			c.d = res.out
		}
		if ins.Dest.M {
			if err := c.mem.SetRAM(aBefore, res.out); err != nil {
				return c.fail(err)
			}
			c.stats.MemWrites++
		}
		c.stats.CInstructions++
		if jumpTaken(ins.Jump, res) {
			c.pc = int(c.a)
			c.stats.Jumps++
		} else {
			c.pc++
		}
	}

	if c.pc >= c.mem.ProgramSize() {
		c.state = Halted
	}
	return nil
}
