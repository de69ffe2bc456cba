package vm

import (
	"fmt"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Frame is one entry of the shadow call stack: the logical state a
// `call` captures and `return` restores, kept in lockstep with the
// physical frame pushed onto the RAM stack (§9: both must stay
// consistent).
type Frame struct {
	Function      string
	ReturnAddress int
	FramePtr      int // callee's LCL (frame_ptr); the five saved words sit just below it
	ArgBase       int
}

// Memory is the VM's RAM view: segment-relative push/pop/read/write, the
// call-frame protocol, and debug inspectors.
type Memory struct {
	ram [hack.RAMSize]hack.Word

	staticCursor hack.Address
	staticBase   map[string]hack.Address

	calls []Frame
}

// NewMemory returns a freshly reset Memory with SP at the bottom of the
// stack region.
func NewMemory() *Memory {
	m := &Memory{staticBase: make(map[string]hack.Address)}
	m.Reset()
	return m
}

// Reset zeroes RAM and the segment pointers, sets SP to StackBase, and
// resets the static allocator and the shadow call stack.
func (m *Memory) Reset() {
	for i := range m.ram {
		m.ram[i] = 0
	}
	m.ram[hack.SPAddr] = hack.Word(hack.StackBase)
	m.staticCursor = hack.StaticBase
	m.staticBase = make(map[string]hack.Address)
	m.calls = nil
}

// RAM reads a RAM cell directly.
func (m *Memory) RAM(addr hack.Address) hack.Word { return m.ram[addr] }

// SetRAM writes a RAM cell directly.
func (m *Memory) SetRAM(addr hack.Address, v hack.Word) { m.ram[addr] = v }

func (m *Memory) sp() int { return int(m.ram[hack.SPAddr]) }

func (m *Memory) setSP(v int) { m.ram[hack.SPAddr] = hack.Word(v) }

// Push pushes v onto the RAM stack, returning a runtime error on overflow.
func (m *Memory) Push(v hack.Word) error {
	sp := m.sp()
	if sp > int(hack.StackMax) {
		return hack.RuntimeErr(sp, "stack overflow: SP %d exceeds STACK_MAX %d", sp, hack.StackMax)
	}
	m.ram[sp] = v
	m.setSP(sp + 1)
	return nil
}

// Pop pops and returns the top of the RAM stack, or a runtime error on
// underflow.
func (m *Memory) Pop() (hack.Word, error) {
	sp := m.sp()
	if sp <= int(hack.StackBase) {
		return 0, hack.RuntimeErr(sp, "stack underflow: SP %d at or below STACK_BASE %d", sp, hack.StackBase)
	}
	sp--
	m.setSP(sp)
	return m.ram[sp], nil
}

// Peek returns the top of the RAM stack without popping it.
func (m *Memory) Peek() (hack.Word, error) {
	sp := m.sp()
	if sp <= int(hack.StackBase) {
		return 0, hack.RuntimeErr(sp, "stack underflow: SP %d at or below STACK_BASE %d", sp, hack.StackBase)
	}
	return m.ram[sp-1], nil
}

func (m *Memory) segmentBase(seg Segment) hack.Address {
	switch seg {
	case SegLocal:
		return hack.Address(m.ram[hack.LCLAddr])
	case SegArgument:
		return hack.Address(m.ram[hack.ARGAddr])
	case SegThis:
		return hack.Address(m.ram[hack.THISAddr])
	case SegThat:
		return hack.Address(m.ram[hack.THATAddr])
	}
	return 0
}

// ReadSegment translates (segment, index, file) to an effective address and
// returns its value, per §4.8's resolution rules.
func (m *Memory) ReadSegment(seg Segment, index int, file string) (hack.Word, error) {
	switch seg {
	case SegConstant:
		return hack.Word(index), nil
	case SegTemp:
		return m.ram[hack.TempBase+hack.Address(index)], nil
	case SegPointer:
		if index == 0 {
			return m.ram[hack.THISAddr], nil
		}
		return m.ram[hack.THATAddr], nil
	case SegStatic:
		addr, err := m.staticAddr(file, index)
		if err != nil {
			return 0, err
		}
		return m.ram[addr], nil
	case SegLocal, SegArgument, SegThis, SegThat:
		return m.ram[m.segmentBase(seg)+hack.Address(index)], nil
	}
	return 0, hack.RuntimeErr(0, "unknown segment %v", seg)
}

// WriteSegment is the write-side counterpart of ReadSegment; writing to
// constant is a runtime error.
func (m *Memory) WriteSegment(seg Segment, index int, file string, v hack.Word) error {
	switch seg {
	case SegConstant:
		return hack.RuntimeErr(0, "cannot write to constant segment")
	case SegTemp:
		m.ram[hack.TempBase+hack.Address(index)] = v
	case SegPointer:
		if index == 0 {
			m.ram[hack.THISAddr] = v
		} else {
			m.ram[hack.THATAddr] = v
		}
	case SegStatic:
		addr, err := m.staticAddr(file, index)
		if err != nil {
			return err
		}
		m.ram[addr] = v
	case SegLocal, SegArgument, SegThis, SegThat:
		m.ram[m.segmentBase(seg)+hack.Address(index)] = v
	default:
		return hack.RuntimeErr(0, "unknown segment %v", seg)
	}
	return nil
}

// staticAddr allocates, on first use, a hack.StaticSride-wide range for file
// and returns the address of its index'th slot, failing with a runtime
// error if the cursor would collide with the stack region.
func (m *Memory) staticAddr(file string, index int) (hack.Address, error) {
	base, ok := m.staticBase[file]
	if !ok {
		if m.staticCursor+hack.StaticSride > hack.StackBase {
			return 0, hack.RuntimeErr(0, "static cursor exhausted allocating range for %q", file)
		}
		base = m.staticCursor
		m.staticBase[file] = base
		m.staticCursor += hack.StaticSride
	}
	return base + hack.Address(index), nil
}

// ReserveStatics pre-allocates a static base for every file name in order,
// matching entry-point setup's "pre-allocate static bases for every source
// file in load order."
func (m *Memory) ReserveStatics(files []string) error {
	for _, f := range files {
		if _, ok := m.staticBase[f]; ok {
			continue
		}
		if m.staticCursor+hack.StaticSride > hack.StackBase {
			return hack.RuntimeErr(0, "static allocation for %q would collide with the stack region", f)
		}
		m.staticBase[f] = m.staticCursor
		m.staticCursor += hack.StaticSride
	}
	return nil
}

// PushFrame implements the call-frame protocol of §4.8: saves the caller's
// segment pointers on the RAM stack, rebinds ARG/LCL for the callee, zeroes
// its locals, and appends a matching shadow frame.
func (m *Memory) PushFrame(returnAddress int, function string, nArgs, nLocals int) error {
	sp := m.sp()
	savedLCL := m.ram[hack.LCLAddr]
	savedARG := m.ram[hack.ARGAddr]
	savedTHIS := m.ram[hack.THISAddr]
	savedTHAT := m.ram[hack.THATAddr]

	vals := []hack.Word{hack.Word(returnAddress), savedLCL, savedARG, savedTHIS, savedTHAT}
	for _, v := range vals {
		if err := m.Push(v); err != nil {
			return err
		}
	}

	argBase := sp - nArgs
	m.ram[hack.ARGAddr] = hack.Word(argBase)
	m.ram[hack.LCLAddr] = m.ram[hack.SPAddr]

	for i := 0; i < nLocals; i++ {
		if err := m.Push(0); err != nil {
			return err
		}
	}

	m.calls = append(m.calls, Frame{
		Function:      function,
		ReturnAddress: returnAddress,
		FramePtr:      int(m.ram[hack.LCLAddr]),
		ArgBase:       argBase,
	})
	return nil
}

// PopFrame implements the return protocol of §4.8: recovers the return
// address before any writes (so `n_args == 0` correctly aliases
// frame_ptr-5 with ARG[0]), restores the caller's segment pointers, and
// deposits returnValue at the caller's new top of stack.
func (m *Memory) PopFrame(returnValue hack.Word) (int, error) {
	if len(m.calls) == 0 {
		return 0, hack.RuntimeErr(0, "return with empty call stack")
	}
	framePtr := int(m.ram[hack.LCLAddr])
	ret := m.ram[framePtr-5]
	argAddr := int(m.ram[hack.ARGAddr])

	m.ram[hack.THATAddr] = m.ram[framePtr-1]
	m.ram[hack.THISAddr] = m.ram[framePtr-2]
	m.ram[hack.ARGAddr] = m.ram[framePtr-3]
	m.ram[hack.LCLAddr] = m.ram[framePtr-4]

	m.ram[argAddr] = returnValue
	m.setSP(argAddr + 1)

	m.calls = m.calls[:len(m.calls)-1]
	return int(ret), nil
}

// CallStack returns a copy of the shadow call stack, outermost first.
func (m *Memory) CallStack() []Frame {
	out := make([]Frame, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallDepth returns the number of active call frames.
func (m *Memory) CallDepth() int { return len(m.calls) }

// StackContents returns the RAM stack from StackBase up to (excluding) SP.
func (m *Memory) StackContents() []hack.Word {
	sp := m.sp()
	out := make([]hack.Word, 0, sp-int(hack.StackBase))
	for a := int(hack.StackBase); a < sp; a++ {
		out = append(out, m.ram[a])
	}
	return out
}

// SegmentContents returns the n words of seg starting at its base (or, for
// static, at file's allocated base).
func (m *Memory) SegmentContents(seg Segment, n int, file string) []hack.Word {
	out := make([]hack.Word, n)
	for i := 0; i < n; i++ {
		v, err := m.ReadSegment(seg, i, file)
		if err != nil {
			break
		}
		out[i] = v
	}
	return out
}

// Dump renders a human-readable snapshot of SP/LCL/ARG/THIS/THAT and the
// current stack contents, for debug tooling.
func (m *Memory) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SP=%d LCL=%d ARG=%d THIS=%d THAT=%d\n",
		m.ram[hack.SPAddr], m.ram[hack.LCLAddr], m.ram[hack.ARGAddr], m.ram[hack.THISAddr], m.ram[hack.THATAddr])
	fmt.Fprintf(&b, "stack: %v\n", m.StackContents())
	return b.String()
}
