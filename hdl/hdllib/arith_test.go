package hdllib

import "testing"

func TestAdd16WrapsModulo16Bits(t *testing.T) {
	inst, err := Add16.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("a", -1, -1, 0xFFFF)
	inst.SetPin("b", -1, -1, 1)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("Add16(0xFFFF, 1) = %#x, want 0", got)
	}
}

func TestInc16WrapsModulo16Bits(t *testing.T) {
	inst, err := Inc16.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 0xFFFF)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("Inc16(0xFFFF) = %#x, want 0", got)
	}
}

// zx=1 zeroes x, zy=1 zeroes y, f=1 sums the two zeros: out=0.
func TestALUZeroResultSetsZR(t *testing.T) {
	inst, err := ALU.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("x", -1, -1, 5)
	inst.SetPin("y", -1, -1, 0)
	inst.SetPin("zx", -1, -1, 1)
	inst.SetPin("zy", -1, -1, 1)
	inst.SetPin("f", -1, -1, 1)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("out = %d, want 0", got)
	}
	if got := inst.Pin("zr", -1, -1); got != 1 {
		t.Errorf("zr = %d, want 1", got)
	}
	if got := inst.Pin("ng", -1, -1); got != 0 {
		t.Errorf("ng = %d, want 0", got)
	}
}

// zy=1 zeroes y, f=0 ands x with the zeroed y giving 0, no=1 negates it to
// 0xFFFF (-1 signed): negative.
func TestALUNegativeResultSetsNG(t *testing.T) {
	inst, err := ALU.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("x", -1, -1, 1)
	inst.SetPin("y", -1, -1, 0)
	inst.SetPin("zy", -1, -1, 1)
	inst.SetPin("no", -1, -1, 1)
	inst.Eval()
	if got := int16(inst.Pin("out", -1, -1)); got >= 0 {
		t.Fatalf("out = %d, want negative", got)
	}
	if got := inst.Pin("ng", -1, -1); got != 1 {
		t.Errorf("ng = %d, want 1", got)
	}
}

// The standard ALU computation "D+1" (x=D, y=1, zx=0,nx=1,zy=1,ny=1,f=1,no=1)
// exercises every control bit simultaneously.
func TestALUComputesDPlus1(t *testing.T) {
	inst, err := ALU.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("x", -1, -1, 41)
	inst.SetPin("nx", -1, -1, 1)
	inst.SetPin("zy", -1, -1, 1)
	inst.SetPin("ny", -1, -1, 1)
	inst.SetPin("f", -1, -1, 1)
	inst.SetPin("no", -1, -1, 1)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 42 {
		t.Errorf("out = %d, want 42", got)
	}
}
