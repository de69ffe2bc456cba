package hdllib

import "github.com/aviyewolf/nand2tetris-suite/hdl"

// Builtins returns every chip this package defines, keyed by chip name,
// ready to hand to hdl.NewCatalog as its builtin set.
func Builtins() map[string]*hdl.ChipDef {
	all := []*hdl.ChipDef{
		Not, And, Or, Nand, Nor, Xor, Xnor,
		Not16, And16, Or16, Mux, Mux16, DMux, DMux4Way,
		Add16, Inc16, ALU,
		DFF, Bit, Register,
		RAM8, RAM64, RAM512, RAM4K, RAM16K,
		PC,
	}
	m := make(map[string]*hdl.ChipDef, len(all))
	for _, d := range all {
		m[d.Name] = d
	}
	return m
}
