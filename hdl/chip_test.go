package hdl_test

import (
	"testing"

	. "github.com/aviyewolf/nand2tetris-suite/hdl"
	"github.com/aviyewolf/nand2tetris-suite/hdl/hdllib"
)

func nandOnlyCatalog() *Catalog {
	return NewCatalog(map[string]*ChipDef{"Nand": hdllib.Nand})
}

// S5: a composite Xor built entirely out of Nand gates evaluates correctly
// over all four input combinations.
func TestCompositeXorFromNandGates(t *testing.T) {
	src := `
CHIP Xor {
    IN a, b;
    OUT out;

    PARTS:
    Nand(a=a, b=b, out=nab);
    Nand(a=a, b=nab, out=w1);
    Nand(a=b, b=nab, out=w2);
    Nand(a=w1, b=w2, out=out);
}
`
	ast, err := Parse("xor.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	def := NewUserDef(ast)
	cat := nandOnlyCatalog()

	cases := []struct{ a, b, want int }{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	for _, c := range cases {
		inst, err := def.NewInstance(cat)
		if err != nil {
			t.Fatal(err)
		}
		inst.SetPin("a", -1, -1, c.a)
		inst.SetPin("b", -1, -1, c.b)
		inst.Eval()
		if got := inst.Pin("out", -1, -1); got != c.want {
			t.Errorf("Xor(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestUnknownChipNameFails(t *testing.T) {
	src := `
CHIP Broken {
    IN a;
    OUT out;

    PARTS:
    Frobnicate(a=a, out=out);
}
`
	ast, err := Parse("broken.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	def := NewUserDef(ast)
	if _, err := def.NewInstance(nandOnlyCatalog()); err == nil {
		t.Fatal("expected an error resolving an unknown part chip")
	}
}

// Internal wires should evaluate in dependency order regardless of their
// declaration order in the PARTS list.
func TestTopologicalOrderIndependentOfDeclarationOrder(t *testing.T) {
	src := `
CHIP Reordered {
    IN in;
    OUT out;

    PARTS:
    Not(in=mid, out=out);
    Not(in=in, out=mid);
}
`
	ast, err := Parse("reordered.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	def := NewUserDef(ast)
	cat := NewCatalog(map[string]*ChipDef{"Not": hdllib.Not})
	inst, err := def.NewInstance(cat)
	if err != nil {
		t.Fatal(err)
	}
	// in=0 distinguishes topological order from declaration order: the
	// correct evaluation order computes mid=Not(0)=1 before out=Not(mid),
	// giving out=0. Evaluating in declaration order instead would read a
	// stale default mid=0 and wrongly produce out=1.
	inst.SetPin("in", -1, -1, 0)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("out = %d, want 0 (Not(Not(0)) computed in dependency order)", got)
	}
}

func TestBusSubscriptSlicing(t *testing.T) {
	src := `
CHIP LowByte {
    IN in[16];
    OUT out[8];

    PARTS:
    Not(in=in[0], out=out[0]);
}
`
	ast, err := Parse("lowbyte.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	def := NewUserDef(ast)
	cat := NewCatalog(map[string]*ChipDef{"Not": hdllib.Not})
	inst, err := def.NewInstance(cat)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 0x0001)
	inst.Eval()
	if got := inst.Pin("out", 0, 0); got != 0 {
		t.Errorf("out[0] = %d, want 0 (Not of in[0]=1)", got)
	}
}

func TestConstantPropagationTrueFalse(t *testing.T) {
	src := `
CHIP AlwaysOne {
    IN in;
    OUT out;

    PARTS:
    Or(a=in, b=true, out=out);
}
`
	ast, err := Parse("alwaysone.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	def := NewUserDef(ast)
	cat := NewCatalog(map[string]*ChipDef{"Or": hdllib.Or})
	inst, err := def.NewInstance(cat)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 0)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 1 {
		t.Errorf("out = %d, want 1 regardless of in (b=true)", got)
	}
}
