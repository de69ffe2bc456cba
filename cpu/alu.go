package cpu

import "github.com/aviyewolf/nand2tetris-suite/hack"

// aluResult is the output of the ALU together with the zr/ng flags used for
// jump evaluation, computed directly from the 16-bit output per the
// boundary case in §8 ({zx=1,nx=1,zy=1,ny=0,f=1,no=0} => 0xFFFF, ng=1, zr=0).
type aluResult struct {
	out hack.Word
	zr  bool
	ng  bool
}

// alu evaluates comp against D and the a-or-m operand, both treated as
// signed 16-bit values for sign-dependent computations (D-A, A-D, negation).
func alu(comp uint8, d, am hack.Word) (aluResult, bool) {
	spec, ok := compTable[comp]
	if !ok {
		return aluResult{}, false
	}
	out := hack.Word(spec.fn(int16(d), int16(am)))
	return aluResult{
		out: out,
		zr:  out == 0,
		ng:  int16(out) < 0,
	}, true
}

// jumpTaken evaluates j against the ALU flags: LT means "<0", EQ "==0", GT
// ">0", and the taken condition is their disjunction. The null jump (000)
// never fires and the unconditional jump (111) always does, both falling
// out of the disjunction naturally.
func jumpTaken(j Jump, r aluResult) bool {
	if !j.any() {
		return false
	}
	taken := false
	if j.LT && r.ng {
		taken = true
	}
	if j.EQ && r.zr {
		taken = true
	}
	if j.GT && !r.ng && !r.zr {
		taken = true
	}
	return taken
}
