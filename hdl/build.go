package hdl

import (
	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Resolver produces a chip's blueprint by name, the capability user-defined
// chips need to recursively resolve their PARTS list (§9: "chip resolver as
// a capability"). A Resolver implementation may combine an immutable
// built-in catalog with chips parsed from sibling .hdl files.
type Resolver interface {
	Resolve(name string) (*ChipDef, error)
}

// NewBuiltin returns a ChipDef backed by Go functions rather than a PARTS
// list. newState, if non-nil, is called once per Instance to create its
// opaque sequential state (§9); tick/tock may be nil for purely
// combinational chips.
func NewBuiltin(name string, inputs, outputs []Port, newState func() interface{}, eval EvalFunc, tick TickFunc, tock TockFunc) *ChipDef {
	return &ChipDef{
		Name:        name,
		Inputs:      inputs,
		Outputs:     outputs,
		newState:    newState,
		builtinEval: eval,
		builtinTick: tick,
		builtinTock: tock,
	}
}

// NewUserDef wraps a parsed ChipAST into a ChipDef. Sub-chips are resolved
// lazily, once per Instance, via NewInstance's resolver argument — not at
// definition time — so that mutually-referencing sibling files can be
// loaded in any order.
func NewUserDef(ast *ChipAST) *ChipDef {
	return &ChipDef{
		Name:    ast.Name,
		Inputs:  ast.Inputs,
		Outputs: ast.Outputs,
		ast:     ast,
	}
}

// NewInstance builds a runtime Instance of d. For a builtin chip, resolver
// is unused. For a user-defined chip it resolves every sub-chip (builtin or
// user-defined, transitively), wires connections, discovers internal
// wires, and computes a topological evaluation order over the parts list.
func (d *ChipDef) NewInstance(resolver Resolver) (*Instance, error) {
	inst := &Instance{def: d, pins: make(map[string]int), widths: make(map[string]int)}
	for _, p := range d.Inputs {
		inst.widths[p.Name] = p.Width
	}
	for _, p := range d.Outputs {
		inst.widths[p.Name] = p.Width
	}
	if d.ast == nil {
		if d.newState != nil {
			inst.state = d.newState()
		}
		return inst, nil
	}

	boundary := make(map[string]bool, len(d.Inputs)+len(d.Outputs))
	for _, p := range d.Inputs {
		boundary[p.Name] = true
	}
	for _, p := range d.Outputs {
		boundary[p.Name] = true
	}

	parts := make([]*partInst, 0, len(d.ast.Parts))
	writers := map[string][]int{}
	readers := map[string][]int{}

	for _, pd := range d.ast.Parts {
		subDef, err := resolver.Resolve(pd.ChipName)
		if err != nil {
			return nil, hack.Wrap(err, "%s:%d: resolving part %q", d.ast.Source, pd.Line, pd.ChipName)
		}
		subInst, err := subDef.NewInstance(resolver)
		if err != nil {
			return nil, err
		}
		pi := &partInst{inst: subInst, chipName: pd.ChipName, line: pd.Line}
		idx := len(parts)

		for _, conn := range pd.Conns {
			isIn := portsContain(subDef.Inputs, conn.Internal.Name)
			isOut := portsContain(subDef.Outputs, conn.Internal.Name)
			if !isIn && !isOut {
				return nil, hack.RuntimeErr(-1, "%s:%d: unknown pin %q for part %q", d.ast.Source, pd.Line, conn.Internal.Name, pd.ChipName)
			}
			if isOut && conn.External.Const {
				return nil, hack.RuntimeErr(-1, "%s:%d: output pin %s.%s connected to a constant", d.ast.Source, pd.Line, pd.ChipName, conn.Internal.Name)
			}
			if !conn.External.Const && !boundary[conn.External.Name] {
				if _, ok := inst.widths[conn.External.Name]; !ok {
					inst.widths[conn.External.Name] = widthOf(conn.Internal, subInst)
					inst.pins[conn.External.Name] = 0
				}
			}
			if isIn {
				if conn.External.Const {
					var v int
					if conn.External.ConstVal {
						v = bitsMask(widthOf(conn.Internal, subInst))
					}
					setBits(subInst.pins, conn.Internal.Name, conn.Internal.Lo, conn.Internal.Hi, v)
				}
				pi.inputs = append(pi.inputs, conn)
				if !conn.External.Const {
					readers[conn.External.Name] = append(readers[conn.External.Name], idx)
				}
			} else {
				pi.outputs = append(pi.outputs, conn)
				writers[conn.External.Name] = append(writers[conn.External.Name], idx)
			}
		}
		parts = append(parts, pi)
	}

	inst.parts = topoOrder(parts, writers, readers)
	return inst, nil
}

func portsContain(ports []Port, name string) bool {
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}

// topoOrder computes a Kahn's-algorithm evaluation order: part a must run
// before part b whenever some wire is written by a and read by b (§4.5
// item 5). If the edge set doesn't cover every part (a cycle), it falls
// back to source order; combinational HDL is acyclic and this path exists
// only for robustness against pathological input.
func topoOrder(parts []*partInst, writers, readers map[string][]int) []*partInst {
	n := len(parts)
	adj := make([][]int, n)
	indeg := make([]int, n)
	seen := make(map[[2]int]bool)
	for wire, ws := range writers {
		rs := readers[wire]
		for _, w := range ws {
			for _, r := range rs {
				if w == r {
					continue
				}
				key := [2]int{w, r}
				if seen[key] {
					continue
				}
				seen[key] = true
				adj[w] = append(adj[w], r)
				indeg[r]++
			}
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, j := range adj[i] {
			indeg[j]--
			if indeg[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	if len(order) != n {
		out := make([]*partInst, n)
		copy(out, parts)
		return out
	}
	out := make([]*partInst, n)
	for pos, i := range order {
		out[pos] = parts[i]
	}
	return out
}
