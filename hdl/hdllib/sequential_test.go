package hdllib

import "testing"

func TestDFFTickTockLatchesOnNextCycle(t *testing.T) {
	inst, err := DFF.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("out before any clock edge = %d, want 0", got)
	}
	inst.SetPin("in", -1, -1, 1)
	inst.Tick()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("out after Tick (before Tock) = %d, want 0 (not yet committed)", got)
	}
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 1 {
		t.Errorf("out after Tock = %d, want 1", got)
	}
}

func TestRegisterHoldsValueWhenLoadIsLow(t *testing.T) {
	inst, err := Register.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 0x1234)
	inst.SetPin("load", -1, -1, 1)
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 0x1234 {
		t.Fatalf("out = %#x, want 0x1234", got)
	}

	inst.SetPin("in", -1, -1, 0x5678)
	inst.SetPin("load", -1, -1, 0)
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 0x1234 {
		t.Errorf("out after load=0 = %#x, want unchanged 0x1234", got)
	}
}

func TestRAM8ReadAfterWrite(t *testing.T) {
	inst, err := RAM8.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 99)
	inst.SetPin("address", -1, -1, 3)
	inst.SetPin("load", -1, -1, 1)
	inst.Tick()
	inst.Tock()

	inst.SetPin("load", -1, -1, 0)
	inst.SetPin("address", -1, -1, 3)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 99 {
		t.Errorf("RAM8[3] = %d, want 99", got)
	}

	inst.SetPin("address", -1, -1, 5)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("RAM8[5] = %d, want 0 (never written)", got)
	}
}

func TestPCResetTakesPriorityOverLoadAndInc(t *testing.T) {
	inst, err := PC.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 42)
	inst.SetPin("load", -1, -1, 1)
	inst.SetPin("inc", -1, -1, 1)
	inst.SetPin("reset", -1, -1, 1)
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 0 {
		t.Errorf("out = %d, want 0 (reset wins over load and inc)", got)
	}
}

func TestPCLoadTakesPriorityOverInc(t *testing.T) {
	inst, err := PC.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 42)
	inst.SetPin("load", -1, -1, 1)
	inst.SetPin("inc", -1, -1, 1)
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 42 {
		t.Errorf("out = %d, want 42 (load wins over inc)", got)
	}
}

func TestPCIncrementsWhenNeitherResetNorLoad(t *testing.T) {
	inst, err := PC.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("inc", -1, -1, 1)
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 1 {
		t.Fatalf("out = %d, want 1", got)
	}
	inst.Tick()
	inst.Tock()
	if got := inst.Pin("out", -1, -1); got != 2 {
		t.Errorf("out = %d, want 2", got)
	}
}
