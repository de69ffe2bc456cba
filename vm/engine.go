package vm

import (
	"sort"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// RunState mirrors the CPU engine's state machine (§4.9): the VM is
// always in exactly one of these states.
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
		return "ERRORED"
	}
	return "?"
}

// PauseReason explains why a VM run stopped in the PAUSED state.
type PauseReason int

const (
	NotPaused PauseReason = iota
	Breakpoint
	StepComplete
	UserRequest
)

// Stats accumulates execution counters for inspection.
type Stats struct {
	InstructionsExecuted int
	Calls                int
	Returns              int
}

// Engine drives a Program against a Memory, dispatching commands one at a
// time and supporting breakpoints, stepping, and pause requests.
type Engine struct {
	prog *Program
	mem  *Memory

	pc          int
	state       RunState
	pauseReason PauseReason
	pauseFlag   bool

	entryPoint string

	breakpoints map[int]struct{}

	stats Stats

	errMsg string
	errPC  int

	ranInstructions int
}

// NewEngine returns a fresh, unloaded Engine.
func NewEngine() *Engine {
	return &Engine{mem: NewMemory(), breakpoints: make(map[int]struct{})}
}

// Memory returns the engine's memory view.
func (e *Engine) Memory() *Memory { return e.mem }

// Program returns the loaded program, or nil.
func (e *Engine) Program() *Program { return e.prog }

// LoadFile loads a single .vm file as the program.
func (e *Engine) LoadFile(path string) error {
	prog, err := ParseFile(path)
	if err != nil {
		return err
	}
	return e.load(prog)
}

// LoadDir loads every .vm file in dir as the program.
func (e *Engine) LoadDir(dir string) error {
	prog, err := ParseDir(dir)
	if err != nil {
		return err
	}
	return e.load(prog)
}

// LoadSource loads in-memory .vm text under a single synthetic file name,
// without touching the filesystem.
func (e *Engine) LoadSource(file, text string) error {
	prog, err := ParseSource(file, text)
	if err != nil {
		return err
	}
	return e.load(prog)
}

func (e *Engine) load(prog *Program) error {
	e.prog = prog
	e.reset()
	return nil
}

// SetEntryPoint overrides the function chosen at the first run/step.
func (e *Engine) SetEntryPoint(name string) { e.entryPoint = name }

func (e *Engine) reset() {
	e.mem.Reset()
	e.pc = 0
	e.state = Ready
	e.pauseReason = NotPaused
	e.pauseFlag = false
	e.stats = Stats{}
	e.errMsg = ""
	e.errPC = 0
	e.ranInstructions = 0
}

// Reset restores READY state and rewinds memory, without forgetting the
// loaded program or breakpoints.
func (e *Engine) Reset() { e.reset() }

func (e *Engine) State() RunState          { return e.state }
func (e *Engine) PauseReason() PauseReason { return e.pauseReason }
func (e *Engine) Stats() Stats             { return e.stats }
func (e *Engine) PC() int                  { return e.pc }
func (e *Engine) ErrorMessage() string     { return e.errMsg }
func (e *Engine) ErrorLocation() int       { return e.errPC }

// CallDepth returns the number of active call frames, used by
// step_over/step_out here and by the Jack debugger's line-level
// step_over/step_out.
func (e *Engine) CallDepth() int { return e.mem.CallDepth() }

// CallStack exposes the shadow call stack for debugger inspection.
func (e *Engine) CallStack() []Frame { return e.mem.CallStack() }

// CurrentFunction returns the name of the function containing the current
// PC, or "" if no function command lies at or before the PC (possible only
// when no entry function was chosen and execution started at command 0).
func (e *Engine) CurrentFunction() string { return e.currentFunction() }

// EnsureStarted performs first-run entry-point selection without
// executing an instruction, so a caller (the Jack debugger) can observe
// the PC immediately after entry is chosen but before anything runs.
func (e *Engine) EnsureStarted() error { return e.ensureEntry() }

// AddBreakpoint registers a breakpoint at the given command index.
func (e *Engine) AddBreakpoint(pc int) { e.breakpoints[pc] = struct{}{} }

// RemoveBreakpoint removes a breakpoint at the given command index.
func (e *Engine) RemoveBreakpoint(pc int) { delete(e.breakpoints, pc) }

// ClearBreakpoints removes every breakpoint.
func (e *Engine) ClearBreakpoints() { e.breakpoints = make(map[int]struct{}) }

// Breakpoints returns the active breakpoint set, sorted ascending.
func (e *Engine) Breakpoints() []int {
	out := make([]int, 0, len(e.breakpoints))
	for pc := range e.breakpoints {
		out = append(out, pc)
	}
	sort.Ints(out)
	return out
}

func (e *Engine) hasBreakpoint(pc int) bool {
	_, ok := e.breakpoints[pc]
	return ok
}

// Pause requests that a Run in progress stop at the next instruction
// boundary. The request is one-shot: it is consumed the first time it is
// observed (§5).
func (e *Engine) Pause() { e.pauseFlag = true }

func (e *Engine) fail(err error) error {
	e.state = Errored
	if he, ok := hack.AsError(err); ok {
		e.errMsg = he.Error()
	} else {
		e.errMsg = err.Error()
	}
	e.errPC = e.pc
	return err
}

// ensureEntry performs first-run entry point selection: caller-provided
// name, else Sys.init, else Main.main, else PC=0 with no synthetic frame.
// Static bases for every loaded file are pre-allocated regardless.
func (e *Engine) ensureEntry() error {
	if e.state != Ready {
		return nil
	}
	if err := e.mem.ReserveStatics(e.prog.Files); err != nil {
		return e.fail(err)
	}

	name := e.entryPoint
	if name == "" {
		if _, ok := e.prog.Functions["Sys.init"]; ok {
			name = "Sys.init"
		} else if _, ok := e.prog.Functions["Main.main"]; ok {
			name = "Main.main"
		}
	}

	if name == "" {
		e.pc = 0
		e.state = Running
		return nil
	}

	idx, ok := e.prog.Functions[name]
	if !ok {
		return e.fail(hack.RuntimeErr(e.pc, "undefined entry function %q", name))
	}
	nLocals := e.prog.Commands[idx].NLocals
	if err := e.mem.PushFrame(0, name, 0, nLocals); err != nil {
		return e.fail(err)
	}
	e.pc = idx
	e.state = Running
	return nil
}

// Step executes exactly one VM command, then leaves the engine PAUSED
// (StepComplete) unless it halts or errors.
func (e *Engine) Step() error {
	if e.state == Errored {
		return hack.Wrap(hack.RuntimeErr(e.errPC, e.errMsg), "engine is in ERROR state; call Reset")
	}
	if err := e.ensureEntry(); err != nil {
		return err
	}
	if e.state == Halted {
		return nil
	}
	if err := e.execOne(); err != nil {
		return err
	}
	e.ranInstructions++
	if e.state != Halted && e.state != Errored {
		e.state = Paused
		e.pauseReason = StepComplete
	}
	return nil
}

// Run executes until halt, error, breakpoint, or pause request.
func (e *Engine) Run() error { return e.runLoop(-1) }

// RunFor executes at most n commands.
func (e *Engine) RunFor(n int) error { return e.runLoop(n) }

func (e *Engine) runLoop(limit int) error {
	if e.state == Errored {
		return hack.Wrap(hack.RuntimeErr(e.errPC, e.errMsg), "engine is in ERROR state; call Reset")
	}
	if err := e.ensureEntry(); err != nil {
		return err
	}
	if e.state == Halted {
		return nil
	}
	e.state = Running
	e.ranInstructions = 0
	ran := 0
	for {
		if e.pauseFlag {
			e.pauseFlag = false
			e.state = Paused
			e.pauseReason = UserRequest
			return nil
		}
		if e.ranInstructions > 0 && e.hasBreakpoint(e.pc) {
			e.state = Paused
			e.pauseReason = Breakpoint
			return nil
		}
		if err := e.execOne(); err != nil {
			return err
		}
		e.ranInstructions++
		ran++
		if e.state == Halted || e.state == Errored {
			return nil
		}
		if limit >= 0 && ran >= limit {
			e.state = Paused
			e.pauseReason = UserRequest
			return nil
		}
	}
}

// StepOver runs until the call depth returns to its initial value and the
// PC has left the initial command.
func (e *Engine) StepOver() error {
	if err := e.ensureEntry(); err != nil {
		return err
	}
	if e.state == Halted || e.state == Errored {
		return nil
	}
	startDepth := e.CallDepth()
	startPC := e.pc
	for {
		if err := e.execOne(); err != nil {
			return err
		}
		e.ranInstructions++
		if e.state == Halted || e.state == Errored {
			return nil
		}
		if e.CallDepth() <= startDepth && e.pc != startPC {
			e.state = Paused
			e.pauseReason = StepComplete
			return nil
		}
	}
}

// StepOut runs until the call depth decreases below its initial value.
func (e *Engine) StepOut() error {
	if err := e.ensureEntry(); err != nil {
		return err
	}
	if e.state == Halted || e.state == Errored {
		return nil
	}
	startDepth := e.CallDepth()
	for {
		if err := e.execOne(); err != nil {
			return err
		}
		e.ranInstructions++
		if e.state == Halted || e.state == Errored {
			return nil
		}
		if e.CallDepth() < startDepth {
			e.state = Paused
			e.pauseReason = StepComplete
			return nil
		}
	}
}

func (e *Engine) execOne() error {
	if e.pc < 0 || e.pc >= len(e.prog.Commands) {
		return e.fail(hack.RuntimeErr(e.pc, "program counter %d out of range", e.pc))
	}
	cmd := e.prog.Commands[e.pc]
	e.stats.InstructionsExecuted++

	switch cmd.Kind {
	case KindArith:
		if err := e.execArith(cmd); err != nil {
			return e.fail(err)
		}
		e.pc++

	case KindPush:
		v, err := e.mem.ReadSegment(cmd.Segment, cmd.Index, cmd.File)
		if err != nil {
			return e.fail(err)
		}
		if err := e.mem.Push(v); err != nil {
			return e.fail(err)
		}
		e.pc++

	case KindPop:
		v, err := e.mem.Pop()
		if err != nil {
			return e.fail(err)
		}
		if err := e.mem.WriteSegment(cmd.Segment, cmd.Index, cmd.File, v); err != nil {
			return e.fail(err)
		}
		e.pc++

	case KindLabel:
		e.pc++

	case KindGoto:
		idx, err := e.resolveLabel(cmd)
		if err != nil {
			return e.fail(err)
		}
		e.pc = idx

	case KindIfGoto:
		v, err := e.mem.Pop()
		if err != nil {
			return e.fail(err)
		}
		if v != 0 {
			idx, err := e.resolveLabel(cmd)
			if err != nil {
				return e.fail(err)
			}
			e.pc = idx
		} else {
			e.pc++
		}

	case KindFunction:
		e.pc++

	case KindCall:
		idx, ok := e.prog.Functions[cmd.Name]
		if !ok {
			return e.fail(hack.RuntimeErr(e.pc, "undefined function %q; declare it with `function %s <n>`", cmd.Name, cmd.Name))
		}
		nLocals := e.prog.Commands[idx].NLocals
		if err := e.mem.PushFrame(e.pc+1, cmd.Name, cmd.NArgs, nLocals); err != nil {
			return e.fail(err)
		}
		e.stats.Calls++
		e.pc = idx

	case KindReturn:
		v, err := e.mem.Pop()
		if err != nil {
			return e.fail(err)
		}
		ret, err := e.mem.PopFrame(v)
		if err != nil {
			return e.fail(err)
		}
		e.stats.Returns++
		if ret == 0 {
			e.state = Halted
			return nil
		}
		e.pc = ret
	}

	return nil
}

func (e *Engine) resolveLabel(cmd Command) (int, error) {
	fn := e.currentFunction()
	if fn != "" {
		if idx, ok := e.prog.Labels[fn+"$"+cmd.Name]; ok {
			return idx, nil
		}
	}
	if idx, ok := e.prog.Labels[cmd.Name]; ok {
		return idx, nil
	}
	return 0, hack.RuntimeErr(e.pc, "undefined label %q; declare it with `label %s`", cmd.Name, cmd.Name)
}

// currentFunction returns the name of the function the current PC lies
// within, scanning backward for the nearest `function` command.
func (e *Engine) currentFunction() string {
	for i := e.pc; i >= 0; i-- {
		if e.prog.Commands[i].Kind == KindFunction {
			return e.prog.Commands[i].Name
		}
	}
	return ""
}

func (e *Engine) execArith(cmd Command) error {
	if cmd.Arith.unary() {
		y, err := e.mem.Pop()
		if err != nil {
			return err
		}
		var out hack.Word
		switch cmd.Arith {
		case OpNeg:
			out = hack.Word(-int16(y))
		case OpNot:
			out = ^y
		}
		return e.mem.Push(out)
	}

	y, err := e.mem.Pop()
	if err != nil {
		return err
	}
	x, err := e.mem.Pop()
	if err != nil {
		return err
	}
	var out hack.Word
	switch cmd.Arith {
	case OpAdd:
		out = x + y
	case OpSub:
		out = x - y
	case OpAnd:
		out = x & y
	case OpOr:
		out = x | y
	case OpEq:
		out = boolWord(int16(x) == int16(y))
	case OpGt:
		out = boolWord(int16(x) > int16(y))
	case OpLt:
		out = boolWord(int16(x) < int16(y))
	}
	return e.mem.Push(out)
}

func boolWord(b bool) hack.Word {
	if b {
		return 0xFFFF
	}
	return 0
}
