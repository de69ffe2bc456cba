package hdl

import "testing"

func TestParseSimpleChip(t *testing.T) {
	src := `
CHIP And {
    IN a, b;
    OUT out;

    BUILTIN Nand;
}
`
	ast, err := Parse("and.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	if ast.Name != "And" {
		t.Errorf("Name = %q, want %q", ast.Name, "And")
	}
	if len(ast.Inputs) != 2 || ast.Inputs[0].Name != "a" || ast.Inputs[1].Name != "b" {
		t.Errorf("Inputs = %+v", ast.Inputs)
	}
	if !ast.Builtin || ast.BuiltinName != "Nand" {
		t.Errorf("Builtin = %v %q, want true %q", ast.Builtin, ast.BuiltinName, "Nand")
	}
}

func TestParseBusWidthAndSubscript(t *testing.T) {
	src := `
CHIP Xor16 {
    IN a[16], b[16];
    OUT out[16];

    PARTS:
    Xor(a=a[0..7], b=b[0..7], out=out[0..7]);
    Xor(a=a[8..15], b=b[8..15], out=out[8..15]);
}
`
	ast, err := Parse("xor16.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	if ast.Inputs[0].Width != 16 {
		t.Errorf("Width = %d, want 16", ast.Inputs[0].Width)
	}
	if len(ast.Parts) != 2 {
		t.Fatalf("Parts = %d, want 2", len(ast.Parts))
	}
	conn := ast.Parts[0].Conns[0]
	if conn.External.Lo != 0 || conn.External.Hi != 7 {
		t.Errorf("first connection External = %+v, want [0..7]", conn.External)
	}
}

func TestParseConstants(t *testing.T) {
	src := `
CHIP Always1 {
    IN in;
    OUT out;

    PARTS:
    Or(a=in, b=true, out=out);
}
`
	ast, err := Parse("always1.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	ref := ast.Parts[0].Conns[1].External
	if !ref.Const || !ref.ConstVal {
		t.Errorf("External = %+v, want a true constant", ref)
	}
}

func TestParseRejectsMissingBrace(t *testing.T) {
	src := `CHIP Broken { IN a; OUT out; BUILTIN Nand;`
	if _, err := Parse("broken.hdl", src); err == nil {
		t.Fatal("expected a parse error for the missing closing brace")
	}
}

func TestParseClockedList(t *testing.T) {
	src := `
CHIP Register {
    IN in[16], load;
    OUT out[16];

    BUILTIN Register;
    CLOCKED in, load;
}
`
	ast, err := Parse("register.hdl", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(ast.Clocked) != 2 || ast.Clocked[0] != "in" || ast.Clocked[1] != "load" {
		t.Errorf("Clocked = %v", ast.Clocked)
	}
}
