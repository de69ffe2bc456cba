package hdllib

import "testing"

func TestDMux4WaySelBoundaryCaseTwo(t *testing.T) {
	inst, err := DMux4Way.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("in", -1, -1, 1)
	inst.SetPin("sel", -1, -1, 2)
	inst.Eval()
	a, b, c, d := inst.Pin("a", -1, -1), inst.Pin("b", -1, -1), inst.Pin("c", -1, -1), inst.Pin("d", -1, -1)
	if a != 0 || b != 0 || c != 1 || d != 0 {
		t.Errorf("a=%d b=%d c=%d d=%d, want only c asserted", a, b, c, d)
	}
}

func TestDMux4WayAllSelectors(t *testing.T) {
	outs := []string{"a", "b", "c", "d"}
	for sel := 0; sel < 4; sel++ {
		inst, err := DMux4Way.NewInstance(nil)
		if err != nil {
			t.Fatal(err)
		}
		inst.SetPin("in", -1, -1, 1)
		inst.SetPin("sel", -1, -1, sel)
		inst.Eval()
		for i, name := range outs {
			want := 0
			if i == sel {
				want = 1
			}
			if got := inst.Pin(name, -1, -1); got != want {
				t.Errorf("sel=%d: %s = %d, want %d", sel, name, got, want)
			}
		}
	}
}

func TestMuxSelectsB(t *testing.T) {
	inst, err := Mux.NewInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	inst.SetPin("a", -1, -1, 0)
	inst.SetPin("b", -1, -1, 1)
	inst.SetPin("sel", -1, -1, 1)
	inst.Eval()
	if got := inst.Pin("out", -1, -1); got != 1 {
		t.Errorf("out = %d, want 1", got)
	}
}

func TestXorTruthTable(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0},
	}
	for _, c := range cases {
		inst, err := Xor.NewInstance(nil)
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
