package hdllib

import "github.com/aviyewolf/nand2tetris-suite/hdl"

// Add16 returns a 16-bit adder: out = a + b, wrapping modulo 2^16
// (§8: Add16(0xFFFF, 1) == 0).
var Add16 = hdl.NewBuiltin("Add16", []hdl.Port{wn("a", 16), wn("b", 16)}, []hdl.Port{wn("out", 16)}, nil,
	func(inst *hdl.Instance) {
		a, b := inst.Pin("a", -1, -1), inst.Pin("b", -1, -1)
		inst.SetPin("out", -1, -1, (a+b)&0xFFFF)
	}, nil, nil)

// Inc16 returns a 16-bit incrementer: out = in + 1, wrapping modulo 2^16
// (§8: Inc16(0xFFFF) == 0).
var Inc16 = hdl.NewBuiltin("Inc16", []hdl.Port{wn("in", 16)}, []hdl.Port{wn("out", 16)}, nil,
	func(inst *hdl.Instance) {
		inst.SetPin("out", -1, -1, (inst.Pin("in", -1, -1)+1)&0xFFFF)
	}, nil, nil)

// ALU is the 16-bit arithmetic-logic unit: six control bits select a
// zero/negate transform on each operand, a chosen combining function
// (sum or bitwise-and), and an optional output negation, per the standard
// 18+10 Hack ALU computations (§4.3, §8's boundary case).
var ALU = hdl.NewBuiltin("ALU",
	[]hdl.Port{
		wn("x", 16), wn("y", 16),
		w1("zx"), w1("nx"), w1("zy"), w1("ny"), w1("f"), w1("no"),
	},
	[]hdl.Port{wn("out", 16), w1("zr"), w1("ng")},
	nil,
	func(inst *hdl.Instance) {
		x, y := inst.Pin("x", -1, -1), inst.Pin("y", -1, -1)
		if inst.Pin("zx", -1, -1) != 0 {
			x = 0
		}
		if inst.Pin("nx", -1, -1) != 0 {
			x ^= 0xFFFF
		}
		if inst.Pin("zy", -1, -1) != 0 {
			y = 0
		}
		if inst.Pin("ny", -1, -1) != 0 {
			y ^= 0xFFFF
		}
		var out int
		if inst.Pin("f", -1, -1) != 0 {
			out = (x + y) & 0xFFFF
		} else {
			out = x & y
		}
		if inst.Pin("no", -1, -1) != 0 {
			out ^= 0xFFFF
		}
		out &= 0xFFFF
		inst.SetPin("out", -1, -1, out)
		if out == 0 {
			inst.SetPin("zr", -1, -1, 1)
		} else {
			inst.SetPin("zr", -1, -1, 0)
		}
		if int16(out) < 0 {
			inst.SetPin("ng", -1, -1, 1)
		} else {
			inst.SetPin("ng", -1, -1, 0)
		}
	}, nil, nil)
