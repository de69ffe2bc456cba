// Package hdllib provides the builtin chip library §4.5 requires: gates,
// arithmetic, the ALU, and the sequential primitives (DFF, Bit, Register,
// RAM banks, PC). Each entry is grounded on the corresponding chip in the
// teacher's hwlib package, adapted from per-bit boolean pins to the
// word-valued, width-aware pin model this simulator uses.
package hdllib

import (
	"github.com/aviyewolf/nand2tetris-suite/hdl"
)

func w1(name string) hdl.Port        { return hdl.Port{Name: name, Width: 1} }
func wn(name string, n int) hdl.Port { return hdl.Port{Name: name, Width: n} }

// Not returns a 1-bit NOT gate: out = !in.
var Not = hdl.NewBuiltin("Not", []hdl.Port{w1("in")}, []hdl.Port{w1("out")}, nil,
	func(inst *hdl.Instance) {
		inst.SetPin("out", -1, -1, 1^inst.Pin("in", -1, -1))
	}, nil, nil)

func gate(name string, fn func(a, b int) int) *hdl.ChipDef {
	return hdl.NewBuiltin(name, []hdl.Port{w1("a"), w1("b")}, []hdl.Port{w1("out")}, nil,
		func(inst *hdl.Instance) {
			a, b := inst.Pin("a", -1, -1), inst.Pin("b", -1, -1)
			inst.SetPin("out", -1, -1, fn(a, b)&1)
		}, nil, nil)
}

var (
	// And returns a 1-bit AND gate.
	And = gate("And", func(a, b int) int { return a & b })
	// Or returns a 1-bit OR gate.
	Or = gate("Or", func(a, b int) int { return a | b })
	// Nand returns a 1-bit NAND gate.
	Nand = gate("Nand", func(a, b int) int { return 1 ^ (a & b) })
	// Nor returns a 1-bit NOR gate.
	Nor = gate("Nor", func(a, b int) int { return 1 ^ (a | b) })
	// Xor returns a 1-bit XOR gate.
	Xor = gate("Xor", func(a, b int) int { return a ^ b })
	// Xnor returns a 1-bit XNOR gate.
	Xnor = gate("Xnor", func(a, b int) int { return 1 ^ (a ^ b) })
)

// Not16 returns a 16-bit bitwise NOT: out = !in.
var Not16 = hdl.NewBuiltin("Not16", []hdl.Port{wn("in", 16)}, []hdl.Port{wn("out", 16)}, nil,
	func(inst *hdl.Instance) {
		inst.SetPin("out", -1, -1, 0xFFFF^inst.Pin("in", -1, -1))
	}, nil, nil)

func gate16(name string, fn func(a, b int) int) *hdl.ChipDef {
	return hdl.NewBuiltin(name, []hdl.Port{wn("a", 16), wn("b", 16)}, []hdl.Port{wn("out", 16)}, nil,
		func(inst *hdl.Instance) {
			a, b := inst.Pin("a", -1, -1), inst.Pin("b", -1, -1)
			inst.SetPin("out", -1, -1, fn(a, b)&0xFFFF)
		}, nil, nil)
}

var (
	// And16 returns a 16-bit bitwise AND.
	And16 = gate16("And16", func(a, b int) int { return a & b })
	// Or16 returns a 16-bit bitwise OR.
	Or16 = gate16("Or16", func(a, b int) int { return a | b })
)

// Mux returns a 1-bit 2-way multiplexer: out = sel ? b : a.
var Mux = hdl.NewBuiltin("Mux", []hdl.Port{w1("a"), w1("b"), w1("sel")}, []hdl.Port{w1("out")}, nil,
	func(inst *hdl.Instance) {
		if inst.Pin("sel", -1, -1) != 0 {
			inst.SetPin("out", -1, -1, inst.Pin("b", -1, -1))
		} else {
			inst.SetPin("out", -1, -1, inst.Pin("a", -1, -1))
		}
	}, nil, nil)

// Mux16 returns a 16-bit 2-way multiplexer: out = sel ? b : a.
var Mux16 = hdl.NewBuiltin("Mux16", []hdl.Port{wn("a", 16), wn("b", 16), w1("sel")}, []hdl.Port{wn("out", 16)}, nil,
	func(inst *hdl.Instance) {
		if inst.Pin("sel", -1, -1) != 0 {
			inst.SetPin("out", -1, -1, inst.Pin("b", -1, -1))
		} else {
			inst.SetPin("out", -1, -1, inst.Pin("a", -1, -1))
		}
	}, nil, nil)

// DMux returns a 1-bit demultiplexer: a = sel ? 0 : in, b = sel ? in : 0.
var DMux = hdl.NewBuiltin("DMux", []hdl.Port{w1("in"), w1("sel")}, []hdl.Port{w1("a"), w1("b")}, nil,
	func(inst *hdl.Instance) {
		in := inst.Pin("in", -1, -1)
		if inst.Pin("sel", -1, -1) != 0 {
			inst.SetPin("a", -1, -1, 0)
			inst.SetPin("b", -1, -1, in)
		} else {
			inst.SetPin("a", -1, -1, in)
			inst.SetPin("b", -1, -1, 0)
		}
	}, nil, nil)

// DMux4Way returns a 1-bit 4-way demultiplexer: in is routed to a/b/c/d
// according to the 2-bit sel, and the other three outputs are held at 0
// (the boundary case in §8: sel=2 asserts only c).
var DMux4Way = hdl.NewBuiltin("DMux4Way",
	[]hdl.Port{w1("in"), wn("sel", 2)},
	[]hdl.Port{w1("a"), w1("b"), w1("c"), w1("d")}, nil,
	func(inst *hdl.Instance) {
		in := inst.Pin("in", -1, -1)
		sel := inst.Pin("sel", -1, -1)
		outs := []string{"a", "b", "c", "d"}
		for i, name := range outs {
			if i == sel {
				inst.SetPin(name, -1, -1, in)
			} else {
				inst.SetPin(name, -1, -1, 0)
			}
		}
	}, nil, nil)
