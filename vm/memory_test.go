package vm

import (
	"testing"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

func TestPushPopRoundTrip(t *testing.T) {
	m := NewMemory()
	if err := m.Push(42); err != nil {
		t.Fatal(err)
	}
	v, err := m.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestPopUnderflow(t *testing.T) {
	m := NewMemory()
	if _, err := m.Pop(); err == nil {
		t.Fatal("expected a stack underflow error")
	}
}

func TestPointerSegmentAliasesThisThat(t *testing.T) {
	m := NewMemory()
	if err := m.WriteSegment(SegPointer, 0, "", 3000); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteSegment(SegPointer, 1, "", 4000); err != nil {
		t.Fatal(err)
	}
	if m.RAM(hack.THISAddr) != 3000 {
		t.Errorf("THIS = %d, want 3000", m.RAM(hack.THISAddr))
	}
	if m.RAM(hack.THATAddr) != 4000 {
		t.Errorf("THAT = %d, want 4000", m.RAM(hack.THATAddr))
	}
	v, err := m.ReadSegment(SegPointer, 0, "")
	if err != nil || v != 3000 {
		t.Errorf("ReadSegment(pointer,0) = %d, %v, want 3000", v, err)
	}
}

func TestWriteToConstantSegmentRejected(t *testing.T) {
	m := NewMemory()
	if err := m.WriteSegment(SegConstant, 5, "", 1); err == nil {
		t.Fatal("expected an error writing to the constant segment")
	}
}

func TestStaticSegmentPerFileAllocation(t *testing.T) {
	m := NewMemory()
	if err := m.WriteSegment(SegStatic, 0, "a.vm", 11); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteSegment(SegStatic, 0, "b.vm", 22); err != nil {
		t.Fatal(err)
	}
	va, err := m.ReadSegment(SegStatic, 0, "a.vm")
	if err != nil || va != 11 {
		t.Errorf("a.vm static 0 = %d, %v, want 11", va, err)
	}
	vb, err := m.ReadSegment(SegStatic, 0, "b.vm")
	if err != nil || vb != 22 {
		t.Errorf("b.vm static 0 = %d, %v, want 22", vb, err)
	}
}

func TestStaticCursorExhaustion(t *testing.T) {
	m := NewMemory()
	var lastErr error
	for i := 0; i < 200; i++ {
		file := string(rune('a' + i%26))
		_, lastErr = m.staticAddr(file+string(rune('0'+i/26)), 0)
		if lastErr != nil {
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected static cursor exhaustion after enough distinct files")
	}
	he, ok := hack.AsError(lastErr)
	if !ok || he.Category != hack.Runtime {
		t.Fatalf("err = %v, want a Runtime-category error", lastErr)
	}
}

func TestCallFrameProtocolRoundTrip(t *testing.T) {
	m := NewMemory()
	// seed caller state so PopFrame has something non-zero to restore
	m.SetRAM(hack.LCLAddr, 100)
	m.SetRAM(hack.ARGAddr, 50)
	m.SetRAM(hack.THISAddr, 3000)
	m.SetRAM(hack.THATAddr, 4000)
	m.setSP(300)

	if err := m.PushFrame(77, "Foo.bar", 2, 3); err != nil {
		t.Fatal(err)
	}
	if m.CallDepth() != 1 {
		t.Fatalf("CallDepth = %d, want 1", m.CallDepth())
	}
	if got := m.ram[hack.ARGAddr]; got != 298 {
		t.Errorf("ARG = %d, want 298 (SP(300) - nArgs(2))", got)
	}
	if got := m.ram[hack.LCLAddr]; got != 305 {
		t.Errorf("LCL = %d, want 305 (ARG(298) + nArgs(2) + 5 bookkeeping)", got)
	}
	if got := m.sp(); got != 308 {
		t.Errorf("SP after pushing 3 zeroed locals = %d, want 308", got)
	}

	ret, err := m.PopFrame(999)
	if err != nil {
		t.Fatal(err)
	}
	if ret != 77 {
		t.Errorf("PopFrame returned %d, want 77", ret)
	}
	if m.ram[hack.LCLAddr] != 100 || m.ram[hack.ARGAddr] != 50 ||
		m.ram[hack.THISAddr] != 3000 || m.ram[hack.THATAddr] != 4000 {
		t.Errorf("caller state not fully restored: LCL=%d ARG=%d THIS=%d THAT=%d",
			m.ram[hack.LCLAddr], m.ram[hack.ARGAddr], m.ram[hack.THISAddr], m.ram[hack.THATAddr])
	}
	if m.ram[298] != 999 {
		t.Errorf("return value not deposited at the caller's new top of stack: got %d", m.ram[298])
	}
	if m.sp() != 299 {
		t.Errorf("SP = %d, want 299 (argAddr+1)", m.sp())
	}
	if m.CallDepth() != 0 {
		t.Errorf("CallDepth = %d, want 0 after return", m.CallDepth())
	}
}

// The n_args==0 boundary case: frame_ptr-5 aliases ARG[0], since there are
// no argument slots below the 5 saved bookkeeping words.
func TestCallFrameZeroArgsBoundaryCase(t *testing.T) {
	m := NewMemory()
	if err := m.PushFrame(12, "Sys.init", 0, 0); err != nil {
		t.Fatal(err)
	}
	argAddr := int(m.ram[hack.ARGAddr])
	framePtr := int(m.ram[hack.LCLAddr])
	if framePtr-5 != argAddr {
		t.Fatalf("frame_ptr-5 (%d) should alias ARG[0] (%d) when n_args==0", framePtr-5, argAddr)
	}
	ret, err := m.PopFrame(5)
	if err != nil {
		t.Fatal(err)
	}
	if ret != 12 {
		t.Errorf("ret = %d, want 12", ret)
	}
}

func TestReturnWithEmptyCallStackIsError(t *testing.T) {
	m := NewMemory()
	if _, err := m.PopFrame(0); err == nil {
		t.Fatal("expected an error returning with no active call frame")
	}
}
