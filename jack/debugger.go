package jack

import (
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
	"github.com/aviyewolf/nand2tetris-suite/vm"
)

// PauseReason mirrors the VM engine's pause taxonomy at Jack granularity.
type PauseReason int

const (
	NotPaused PauseReason = iota
	Breakpoint
	StepComplete
	UserRequest
)

// Stats accumulates Jack-level step counters, distinct from the VM
// engine's per-command statistics (reachable via VMStats).
type Stats struct {
	LinesStepped int
}

// Debugger wraps a VM engine with a source map, translating line-granular
// stepping and breakpoints into the VM's command-granular primitives
// (§4.11; §9's "cross-engine coupling" note: the debugger owns the VM
// engine exclusively and is the only caller of its breakpoint/step API).
type Debugger struct {
	vm   *vm.Engine
	smap *SourceMap

	breakpoints map[fileLine]bool
	pauseReason PauseReason
	stats       Stats

	lastFile string
	lastLine int
	hasLast  bool
}

// NewDebugger returns a Debugger over a fresh VM engine and source map.
func NewDebugger() *Debugger {
	return &Debugger{
		vm:          vm.NewEngine(),
		smap:        NewSourceMap(),
		breakpoints: make(map[fileLine]bool),
	}
}

// VM returns the wrapped VM engine, for callers that need lower-level
// access (e.g. a .tst-style harness driving raw VM commands).
func (d *Debugger) VM() *vm.Engine { return d.vm }

// LoadVMFile loads a single .vm file.
func (d *Debugger) LoadVMFile(path string) error { return d.vm.LoadFile(path) }

// LoadVMDir loads every .vm file in a directory.
func (d *Debugger) LoadVMDir(dir string) error { return d.vm.LoadDir(dir) }

// LoadVMSource loads in-memory .vm text under a single synthetic file name.
func (d *Debugger) LoadVMSource(file, text string) error { return d.vm.LoadSource(file, text) }

// LoadSourceMap parses and merges a .smap file's contents.
func (d *Debugger) LoadSourceMap(source, text string) error { return d.smap.Load(source, text) }

// Reset delegates to the VM engine and resynchronizes Jack breakpoints.
func (d *Debugger) Reset() {
	d.vm.Reset()
	d.hasLast = false
	d.pauseReason = NotPaused
	d.stats = Stats{}
	d.syncBreakpoints()
}

func (d *Debugger) State() vm.RunState       { return d.vm.State() }
func (d *Debugger) PauseReason() PauseReason { return d.pauseReason }
func (d *Debugger) Stats() Stats             { return d.stats }
func (d *Debugger) VMStats() vm.Stats        { return d.vm.Stats() }
func (d *Debugger) ErrorMessage() string     { return d.vm.ErrorMessage() }
func (d *Debugger) ErrorLocation() int       { return d.vm.ErrorLocation() }

// CurrentLine returns the (file, line) of the last mapped command reached,
// if any.
func (d *Debugger) CurrentLine() (string, int, bool) {
	return d.lastFile, d.lastLine, d.hasLast
}

// AddBreakpoint translates a Jack breakpoint into every VM index mapped
// from (file, line) and installs them; it fails without recording
// anything if the line has no mapping (§4.11).
func (d *Debugger) AddBreakpoint(file string, line int) bool {
	if _, ok := d.smap.FirstAtLine(file, line); !ok {
		return false
	}
	d.breakpoints[fileLine{file, line}] = true
	d.syncBreakpoints()
	return true
}

// RemoveBreakpoint removes a Jack breakpoint.
func (d *Debugger) RemoveBreakpoint(file string, line int) {
	delete(d.breakpoints, fileLine{file, line})
	d.syncBreakpoints()
}

// SourceLine identifies a line in a Jack source file.
type SourceLine struct {
	File string
	Line int
}

// Breakpoints returns the set of installed Jack breakpoints.
func (d *Debugger) Breakpoints() []SourceLine {
	out := make([]SourceLine, 0, len(d.breakpoints))
	for fl := range d.breakpoints {
		out = append(out, SourceLine{fl.file, fl.line})
	}
	return out
}

// syncBreakpoints reinstalls every Jack breakpoint's VM-index translation;
// called on reset and before run/run_for.
func (d *Debugger) syncBreakpoints() {
	d.vm.ClearBreakpoints()
	for fl := range d.breakpoints {
		for _, idx := range d.smap.IndicesAtLine(fl.file, fl.line) {
			d.vm.AddBreakpoint(idx)
		}
	}
}

func (d *Debugger) translateReason() PauseReason {
	switch d.vm.PauseReason() {
	case vm.Breakpoint:
		return Breakpoint
	case vm.StepComplete:
		return StepComplete
	case vm.UserRequest:
		return UserRequest
	}
	return NotPaused
}

func (d *Debugger) recordLine(entry Entry, mapped bool) {
	if mapped {
		d.lastFile, d.lastLine, d.hasLast = entry.File, entry.Line, true
	}
}

// Run mirrors the VM's Run, translating its pause reason to Jack's.
func (d *Debugger) Run() (PauseReason, error) {
	d.syncBreakpoints()
	if err := d.vm.Run(); err != nil {
		return NotPaused, err
	}
	d.pauseReason = d.translateReason()
	if e, ok := d.smap.EntryAt(d.vm.PC()); ok {
		d.recordLine(e, true)
	}
	return d.pauseReason, nil
}

// RunFor mirrors the VM's RunFor.
func (d *Debugger) RunFor(n int) (PauseReason, error) {
	d.syncBreakpoints()
	if err := d.vm.RunFor(n); err != nil {
		return NotPaused, err
	}
	d.pauseReason = d.translateReason()
	if e, ok := d.smap.EntryAt(d.vm.PC()); ok {
		d.recordLine(e, true)
	}
	return d.pauseReason, nil
}

// Pause requests that a Run in progress stop at the next instruction
// boundary, delegating to the VM engine.
func (d *Debugger) Pause() { d.vm.Pause() }

// Step executes VM commands until the current command maps to a
// different (file,line) than the one the debugger started on, or exactly
// one VM step if both the start and next PC are unmapped (allowing
// stepping through unmapped prologue/epilogue).
func (d *Debugger) Step() error {
	if err := d.vm.EnsureStarted(); err != nil {
		return err
	}
	if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
		return nil
	}
	startEntry, startMapped := d.smap.EntryAt(d.vm.PC())

	for {
		if err := d.vm.Step(); err != nil {
			return err
		}
		d.stats.LinesStepped++
		if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
			break
		}
		curEntry, curMapped := d.smap.EntryAt(d.vm.PC())
		if !startMapped && !curMapped {
			break
		}
		if curMapped && (!startMapped || !sameLine(curEntry, startEntry)) {
			break
		}
	}

	if e, ok := d.smap.EntryAt(d.vm.PC()); ok {
		d.recordLine(e, true)
	}
	d.pauseReason = StepComplete
	return nil
}

func sameLine(a, b Entry) bool { return a.File == b.File && a.Line == b.Line }

// StepOver behaves like Step, but tolerates increased call depth: while
// the VM's call depth exceeds its value at the start of the step, the
// line-change check is skipped so the callee runs to completion.
func (d *Debugger) StepOver() error {
	if err := d.vm.EnsureStarted(); err != nil {
		return err
	}
	if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
		return nil
	}
	startEntry, startMapped := d.smap.EntryAt(d.vm.PC())
	startDepth := d.vm.CallDepth()

	for {
		if err := d.vm.Step(); err != nil {
			return err
		}
		d.stats.LinesStepped++
		if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
			break
		}
		if d.vm.CallDepth() > startDepth {
			continue
		}
		curEntry, curMapped := d.smap.EntryAt(d.vm.PC())
		if !startMapped && !curMapped {
			break
		}
		if curMapped && (!startMapped || !sameLine(curEntry, startEntry)) {
			break
		}
	}

	if e, ok := d.smap.EntryAt(d.vm.PC()); ok {
		d.recordLine(e, true)
	}
	d.pauseReason = StepComplete
	return nil
}

// StepOut runs single VM steps until the call depth decreases below its
// initial value, stopping at the first VM command reached (typically the
// next mapped line in the caller).
func (d *Debugger) StepOut() error {
	if err := d.vm.EnsureStarted(); err != nil {
		return err
	}
	if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
		return nil
	}
	startDepth := d.vm.CallDepth()

	for {
		if err := d.vm.Step(); err != nil {
			return err
		}
		d.stats.LinesStepped++
		if d.vm.State() == vm.Halted || d.vm.State() == vm.Errored {
			break
		}
		if d.vm.CallDepth() < startDepth {
			break
		}
	}

	if e, ok := d.smap.EntryAt(d.vm.PC()); ok {
		d.recordLine(e, true)
	}
	d.pauseReason = StepComplete
	return nil
}

func classOf(function string) string {
	if i := strings.IndexByte(function, '.'); i >= 0 {
		return function[:i]
	}
	return function
}

// ResolveVariable looks up name in the current function's scope, in the
// order locals, arguments, fields, statics (§4.11).
func (d *Debugger) ResolveVariable(name string) (hack.Word, VarKind, bool) {
	fn := d.vm.CurrentFunction()
	if fn == "" {
		return 0, 0, false
	}
	vars := d.smap.Vars(fn)

	for _, v := range vars {
		if v.Kind == VarLocal && v.Name == name {
			val, err := d.vm.Memory().ReadSegment(vm.SegLocal, v.Index, "")
			return val, v.Kind, err == nil
		}
	}
	for _, v := range vars {
		if v.Kind == VarArgument && v.Name == name {
			val, err := d.vm.Memory().ReadSegment(vm.SegArgument, v.Index, "")
			return val, v.Kind, err == nil
		}
	}
	class := classOf(fn)
	for _, f := range d.smap.Fields(class) {
		if f.Name == name {
			val := d.readField(f.Index)
			return val, VarField, true
		}
	}
	for _, v := range vars {
		if v.Kind == VarStatic && v.Name == name {
			file := class + ".vm"
			val, err := d.vm.Memory().ReadSegment(vm.SegStatic, v.Index, file)
			return val, v.Kind, err == nil
		}
	}
	return 0, 0, false
}

// ListLocals returns the current function's local-variable symbols.
func (d *Debugger) ListLocals() []Var { return d.listKind(VarLocal) }

// ListArguments returns the current function's argument symbols.
func (d *Debugger) ListArguments() []Var { return d.listKind(VarArgument) }

func (d *Debugger) listKind(kind VarKind) []Var {
	fn := d.vm.CurrentFunction()
	if fn == "" {
		return nil
	}
	var out []Var
	for _, v := range d.smap.Vars(fn) {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func (d *Debugger) readField(index int) hack.Word {
	this := int(d.vm.Memory().RAM(hack.THISAddr))
	return d.vm.Memory().RAM(hack.Address(this + index))
}

// EvalExpression evaluates a restricted expression: an optionally-negative
// integer literal, or a single variable name. It returns absence on any
// other shape.
func (d *Debugger) EvalExpression(expr string) (hack.Word, bool) {
	expr = strings.TrimSpace(expr)
	if n, err := strconv.Atoi(expr); err == nil {
		return hack.Word(n), true
	}
	v, _, ok := d.ResolveVariable(expr)
	return v, ok
}

// FieldValue is one field of an inspected object, in both raw and
// signed-16 form, classified as primitive or reference.
type FieldValue struct {
	Name        string
	Type        string
	Raw         hack.Word
	Signed      int16
	IsReference bool
}

func isPrimitiveType(t string) bool {
	switch t {
	case "int", "char", "boolean":
		return true
	}
	return false
}

// InspectObject reads class's field layout starting at a heap address,
// one RAM word per field in declared order.
func (d *Debugger) InspectObject(addr int, class string) []FieldValue {
	fields := d.smap.Fields(class)
	out := make([]FieldValue, len(fields))
	for i, f := range fields {
		raw := d.vm.Memory().RAM(hack.Address(addr + i))
		out[i] = FieldValue{
			Name:        f.Name,
			Type:        f.Type,
			Raw:         raw,
			Signed:      raw.Signed(),
			IsReference: !isPrimitiveType(f.Type),
		}
	}
	return out
}

// InspectThis derives the class from the current function's name (the
// text before its first '.') and inspects the object at THIS.
func (d *Debugger) InspectThis() ([]FieldValue, bool) {
	fn := d.vm.CurrentFunction()
	if fn == "" {
		return nil, false
	}
	class := classOf(fn)
	addr := int(d.vm.Memory().RAM(hack.THISAddr))
	return d.InspectObject(addr, class), true
}

// InspectArray returns length consecutive RAM words starting at addr.
func (d *Debugger) InspectArray(addr, length int) []hack.Word {
	out := make([]hack.Word, length)
	for i := 0; i < length; i++ {
		out[i] = d.vm.Memory().RAM(hack.Address(addr + i))
	}
	return out
}

// StackFrame is one projected entry of the VM's shadow call stack: the
// function and, for its return address, the mapped (file,line) if any.
type StackFrame struct {
	Function      string
	ReturnAddress int
	File          string
	Line          int
	Mapped        bool
}

// CallStack projects the VM's shadow call stack into Jack terms.
func (d *Debugger) CallStack() []StackFrame {
	frames := d.vm.CallStack()
	out := make([]StackFrame, len(frames))
	for i, f := range frames {
		sf := StackFrame{Function: f.Function, ReturnAddress: f.ReturnAddress}
		if e, ok := d.smap.EntryAt(f.ReturnAddress); ok {
			sf.File, sf.Line, sf.Mapped = e.File, e.Line, true
		}
		out[i] = sf
	}
	return out
}
