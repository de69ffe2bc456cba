package hdllib

import "github.com/aviyewolf/nand2tetris-suite/hdl"

type dffState struct{ cur, pending int }

// DFF is the clocked data flip-flop: out(t+1) = in(t).
var DFF = hdl.NewBuiltin("DFF", []hdl.Port{w1("in")}, []hdl.Port{w1("out")},
	func() interface{} { return &dffState{} },
	func(inst *hdl.Instance) {
		s := inst.State().(*dffState)
		inst.SetPin("out", -1, -1, s.cur)
	},
	func(inst *hdl.Instance) {
		s := inst.State().(*dffState)
		s.pending = inst.Pin("in", -1, -1)
	},
	func(inst *hdl.Instance) {
		s := inst.State().(*dffState)
		s.cur = s.pending
		inst.SetPin("out", -1, -1, s.cur)
	},
)

type bitState struct {
	cur         int
	pendingLoad bool
	pendingIn   int
}

func bitLike(name string, width int) *hdl.ChipDef {
	return hdl.NewBuiltin(name, []hdl.Port{wn("in", width), w1("load")}, []hdl.Port{wn("out", width)},
		func() interface{} { return &bitState{} },
		func(inst *hdl.Instance) {
			s := inst.State().(*bitState)
			inst.SetPin("out", -1, -1, s.cur)
		},
		func(inst *hdl.Instance) {
			s := inst.State().(*bitState)
			s.pendingLoad = inst.Pin("load", -1, -1) != 0
			s.pendingIn = inst.Pin("in", -1, -1)
		},
		func(inst *hdl.Instance) {
			s := inst.State().(*bitState)
			if s.pendingLoad {
				s.cur = s.pendingIn
			}
			inst.SetPin("out", -1, -1, s.cur)
		},
	)
}

// Bit is a 1-bit clocked register: out(t+1) = load ? in(t) : out(t).
var Bit = bitLike("Bit", 1)

// Register is a 16-bit clocked register (a 16-bit Bit).
var Register = bitLike("Register", 16)

type ramState struct {
	mem          []int
	pendingWrite bool
	pendingAddr  int
	pendingIn    int
}

// newRAM returns a RAM2^addrBits chip: a combinational read (out always
// reflects mem[address]) and a clocked write (mem[address] := in, sampled
// at tick and committed at tock, when load is asserted).
func newRAM(name string, addrBits int) *hdl.ChipDef {
	size := 1 << uint(addrBits)
	return hdl.NewBuiltin(name,
		[]hdl.Port{wn("in", 16), w1("load"), wn("address", addrBits)},
		[]hdl.Port{wn("out", 16)},
		func() interface{} { return &ramState{mem: make([]int, size)} },
		func(inst *hdl.Instance) {
			s := inst.State().(*ramState)
			addr := inst.Pin("address", -1, -1)
			inst.SetPin("out", -1, -1, s.mem[addr])
		},
		func(inst *hdl.Instance) {
			s := inst.State().(*ramState)
			s.pendingWrite = inst.Pin("load", -1, -1) != 0
			s.pendingAddr = inst.Pin("address", -1, -1)
			s.pendingIn = inst.Pin("in", -1, -1)
		},
		func(inst *hdl.Instance) {
			s := inst.State().(*ramState)
			if s.pendingWrite {
				s.mem[s.pendingAddr] = s.pendingIn
			}
			addr := inst.Pin("address", -1, -1)
			inst.SetPin("out", -1, -1, s.mem[addr])
		},
	)
}

var (
	// RAM8 is a 8-word (3-bit address) RAM bank.
	RAM8 = newRAM("RAM8", 3)
	// RAM64 is a 64-word (6-bit address) RAM bank.
	RAM64 = newRAM("RAM64", 6)
	// RAM512 is a 512-word (9-bit address) RAM bank.
	RAM512 = newRAM("RAM512", 9)
	// RAM4K is a 4096-word (12-bit address) RAM bank.
	RAM4K = newRAM("RAM4K", 12)
	// RAM16K is a 16384-word (14-bit address) RAM bank.
	RAM16K = newRAM("RAM16K", 14)
)

type pcState struct {
	cur, pending int
}

// PC is the program counter register: reset takes priority over load, load
// over inc, inc over hold.
var PC = hdl.NewBuiltin("PC",
	[]hdl.Port{wn("in", 16), w1("load"), w1("inc"), w1("reset")},
	[]hdl.Port{wn("out", 16)},
	func() interface{} { return &pcState{} },
	func(inst *hdl.Instance) {
		s := inst.State().(*pcState)
		inst.SetPin("out", -1, -1, s.cur)
	},
	func(inst *hdl.Instance) {
		s := inst.State().(*pcState)
		switch {
		case inst.Pin("reset", -1, -1) != 0:
			s.pending = 0
		case inst.Pin("load", -1, -1) != 0:
			s.pending = inst.Pin("in", -1, -1)
		case inst.Pin("inc", -1, -1) != 0:
			s.pending = (s.cur + 1) & 0xFFFF
		default:
			s.pending = s.cur
		}
	},
	func(inst *hdl.Instance) {
		s := inst.State().(*pcState)
		s.cur = s.pending
		inst.SetPin("out", -1, -1, s.cur)
	},
)
