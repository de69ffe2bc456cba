package hdl

// EvalFunc is the combinational update for a builtin chip: it reads the
// instance's input pins and writes its output pins. eval must be pure: two
// consecutive calls with unchanged inputs must produce identical outputs
// (§8).
type EvalFunc func(inst *Instance)

// TickFunc samples current input pin values into an instance's pending
// state (the rising edge of the clock).
type TickFunc func(inst *Instance)

// TockFunc commits pending state into current state and updates outputs
// (the falling edge of the clock).
type TockFunc func(inst *Instance)

// ChipDef is an immutable chip blueprint, built once and then used to
// produce any number of Instances. It is either a builtin (backed by Go
// functions) or a user-defined chip (backed by a parsed PARTS list), per
// §4.5's two construction paths.
type ChipDef struct {
	Name    string
	Inputs  []Port
	Outputs []Port

	builtinEval  EvalFunc
	builtinTick  TickFunc
	builtinTock  TockFunc
	newState     func() interface{}

	ast *ChipAST // nil for builtins
}

// Instance is a runtime instantiation of a ChipDef: a pin map, its declared
// widths, and — for sequential builtins — an opaque per-instance state
// object that only this chip's Eval/Tick/Tock read or write (§9).
type Instance struct {
	def    *ChipDef
	pins   map[string]int
	widths map[string]int
	state  interface{}

	parts []*partInst // nil for a leaf (builtin) instance
}

type partInst struct {
	inst     *Instance
	chipName string
	line     int
	inputs   []Connection // Internal pin is an input of inst
	outputs  []Connection // Internal pin is an output of inst
}

// Def returns the blueprint this instance was built from.
func (inst *Instance) Def() *ChipDef { return inst.def }

// State returns the instance's opaque sequential state, or nil for
// combinational chips.
func (inst *Instance) State() interface{} { return inst.state }

// SetState replaces the instance's opaque sequential state. Builtin
// eval/tick/tock implementations use this to store their private state
// (flip-flop value, RAM array, PC internals).
func (inst *Instance) SetState(s interface{}) { inst.state = s }

// Pin returns the current value of pin name, or its slice [lo,hi] if
// lo>=0. A missing subscript (lo=-1) denotes the full-width pin.
func (inst *Instance) Pin(name string, lo, hi int) int {
	return getBits(inst.pins, name, lo, hi)
}

// SetPin writes value into pin name, or into its slice [lo,hi] if lo>=0,
// preserving the untouched bits on a partial write.
func (inst *Instance) SetPin(name string, lo, hi, value int) {
	setBits(inst.pins, name, lo, hi, value)
}

// Width returns the declared width of pin name.
func (inst *Instance) Width(name string) int { return inst.widths[name] }

// PinNames returns the declared input and output pin names, in order.
func (inst *Instance) PinNames() (inputs, outputs []string) {
	for _, p := range inst.def.Inputs {
		inputs = append(inputs, p.Name)
	}
	for _, p := range inst.def.Outputs {
		outputs = append(outputs, p.Name)
	}
	return
}

// Eval performs one combinational update. For a builtin, it calls the
// chip's EvalFunc. For a composite chip, it walks sub-parts in topological
// order, propagating inputs, evaluating, and propagating outputs back.
func (inst *Instance) Eval() {
	if inst.parts == nil {
		if inst.def.builtinEval != nil {
			inst.def.builtinEval(inst)
		}
		return
	}
	for _, p := range inst.parts {
		propagateIn(inst, p)
		p.inst.Eval()
		propagateOut(inst, p)
	}
}

// Tick samples current input pin values into pending state (rising edge).
func (inst *Instance) Tick() {
	if inst.parts == nil {
		if inst.def.builtinTick != nil {
			inst.def.builtinTick(inst)
		}
		return
	}
	for _, p := range inst.parts {
		propagateIn(inst, p)
		p.inst.Tick()
	}
}

// Tock commits pending state into current state and updates outputs
// (falling edge).
func (inst *Instance) Tock() {
	if inst.parts == nil {
		if inst.def.builtinTock != nil {
			inst.def.builtinTock(inst)
		}
		return
	}
	for _, p := range inst.parts {
		p.inst.Tock()
		propagateOut(inst, p)
	}
}

func propagateIn(parent *Instance, p *partInst) {
	for _, conn := range p.inputs {
		var v int
		if conn.External.Const {
			if conn.External.ConstVal {
				v = bitsMask(widthOf(conn.Internal, p.inst))
			} else {
				v = 0
			}
		} else {
			v = getBits(parent.pins, conn.External.Name, conn.External.Lo, conn.External.Hi)
		}
		setBits(p.inst.pins, conn.Internal.Name, conn.Internal.Lo, conn.Internal.Hi, v)
	}
}

func propagateOut(parent *Instance, p *partInst) {
	for _, conn := range p.outputs {
		v := getBits(p.inst.pins, conn.Internal.Name, conn.Internal.Lo, conn.Internal.Hi)
		setBits(parent.pins, conn.External.Name, conn.External.Lo, conn.External.Hi, v)
	}
}

func widthOf(ref PinRef, inst *Instance) int {
	if !ref.FullWidth() {
		return ref.Hi - ref.Lo + 1
	}
	return inst.widths[ref.Name]
}

func bitsMask(n int) int {
	if n <= 0 {
		return 0
	}
	return (1 << uint(n)) - 1
}

func getBits(pins map[string]int, name string, lo, hi int) int {
	v := pins[name]
	if lo < 0 {
		return v
	}
	return (v >> uint(lo)) & bitsMask(hi-lo+1)
}

func setBits(pins map[string]int, name string, lo, hi, value int) {
	if lo < 0 {
		pins[name] = value
		return
	}
	mask := bitsMask(hi - lo + 1)
	v := pins[name]
	v &^= mask << uint(lo)
	v |= (value & mask) << uint(lo)
	pins[name] = v
}
