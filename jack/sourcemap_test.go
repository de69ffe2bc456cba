package jack

import (
	"strings"
	"testing"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

const sampleSmap = `
CLASS Point
FIELD int x
FIELD int y

FUNC Point.getX
VAR argument Point this 0
VAR local int tmp 0

MAP Point.jack:10 -> 0 Point.getX
MAP Point.jack:11 -> 1 Point.getX
MAP Point.jack:11 -> 2 Point.getX
MAP Point.jack:12 -> 3 Point.getX
`

func TestLoadParsesClassFieldFuncVarMap(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("test.smap", sampleSmap); err != nil {
		t.Fatal(err)
	}
	fields := m.Fields("Point")
	if len(fields) != 2 || fields[0].Name != "x" || fields[0].Index != 0 ||
		fields[1].Name != "y" || fields[1].Index != 1 {
		t.Fatalf("got fields %+v", fields)
	}
	vars := m.Vars("Point.getX")
	if len(vars) != 2 {
		t.Fatalf("got %d vars, want 2", len(vars))
	}
	if vars[0].Kind != VarArgument || vars[0].Name != "this" {
		t.Errorf("vars[0] = %+v", vars[0])
	}
	if vars[1].Kind != VarLocal || vars[1].Name != "tmp" {
		t.Errorf("vars[1] = %+v", vars[1])
	}
}

func TestEntryAtReturnsMappedCommand(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("test.smap", sampleSmap); err != nil {
		t.Fatal(err)
	}
	e, ok := m.EntryAt(3)
	if !ok {
		t.Fatal("expected an entry at VM index 3")
	}
	if e.File != "Point.jack" || e.Line != 12 || e.Function != "Point.getX" {
		t.Errorf("got %+v", e)
	}
	if _, ok := m.EntryAt(99); ok {
		t.Error("expected no entry at an unmapped VM index")
	}
}

func TestFirstAtLineReturnsEarliestVMIndex(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("test.smap", sampleSmap); err != nil {
		t.Fatal(err)
	}
	e, ok := m.FirstAtLine("Point.jack", 11)
	if !ok {
		t.Fatal("expected an entry at line 11")
	}
	if e.VMIndex != 1 {
		t.Errorf("FirstAtLine VMIndex = %d, want 1 (the earliest of indices 1 and 2)", e.VMIndex)
	}
}

func TestIndicesAtLineReturnsAllMatches(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("test.smap", sampleSmap); err != nil {
		t.Fatal(err)
	}
	idxs := m.IndicesAtLine("Point.jack", 11)
	if len(idxs) != 2 || idxs[0] != 1 || idxs[1] != 2 {
		t.Errorf("got %v, want [1 2]", idxs)
	}
	if idxs := m.IndicesAtLine("Point.jack", 999); idxs != nil {
		t.Errorf("got %v, want nil for an unmapped line", idxs)
	}
}

func TestVarRequiresPrecedingFunc(t *testing.T) {
	m := NewSourceMap()
	err := m.Load("bad.smap", "VAR local int x 0\n")
	if err == nil {
		t.Fatal("expected an error for VAR without a preceding FUNC")
	}
	he, ok := hack.AsError(err)
	if !ok || he.Category != hack.Parse {
		t.Fatalf("err = %v, want a Parse-category error", err)
	}
}

func TestFieldRequiresPrecedingClass(t *testing.T) {
	m := NewSourceMap()
	err := m.Load("bad.smap", "FIELD int x\n")
	if err == nil {
		t.Fatal("expected an error for FIELD without a preceding CLASS")
	}
}

func TestMapRequiresArrow(t *testing.T) {
	m := NewSourceMap()
	err := m.Load("bad.smap", "MAP Foo.jack:1 5\n")
	if err == nil {
		t.Fatal("expected an error for MAP missing '->'")
	}
	if !strings.Contains(err.Error(), "->") {
		t.Errorf("err = %v, want it to mention the missing '->'", err)
	}
}

func TestUnknownDirectiveRejected(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("bad.smap", "BOGUS foo\n"); err == nil {
		t.Fatal("expected an error for an unknown directive")
	}
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	m := NewSourceMap()
	src := "# a comment\n\n  \nMAP a.jack:1 -> 0\n"
	if err := m.Load("f.smap", src); err != nil {
		t.Fatal(err)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(m.Entries))
	}
}

func TestMapWithoutFunctionNameLeavesItEmpty(t *testing.T) {
	m := NewSourceMap()
	if err := m.Load("f.smap", "MAP a.jack:1 -> 0\n"); err != nil {
		t.Fatal(err)
	}
	if m.Entries[0].Function != "" {
		t.Errorf("Function = %q, want empty", m.Entries[0].Function)
	}
}
