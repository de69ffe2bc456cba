package cpu

import (
	"testing"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// S1: load constant into D.
func TestScenarioLoadConstantIntoD(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{
		0b0000000000000101, // @5
		0b111_0_110000_010_000, // D=A
	}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if c.A() != 5 || c.D() != 5 {
		t.Errorf("A=%d D=%d, want A=5 D=5", c.A(), c.D())
	}
	if c.State() != Halted {
		t.Errorf("state = %v, want HALTED", c.State())
	}
	got := c.Stats()
	if got.AInstructions != 1 || got.CInstructions != 1 || got.MemReads != 0 || got.MemWrites != 0 {
		t.Errorf("stats = %+v, want a=1 c=1 mem_reads=0 mem_writes=0", got)
	}
}

// S2: write to RAM. @10, D=A, @100, M=D.
func TestScenarioWriteToRAM(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{
		0b0000000000001010, // @10
		0b111_0_110000_010_000, // D=A
		0b0000000001100100, // @100
		0b111_0_001100_001_000, // M=D
	}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	v, err := c.Memory().RAM(100)
	if err != nil {
		t.Fatal(err)
	}
	if v != 10 {
		t.Errorf("RAM[100] = %d, want 10", v)
	}
	if got := c.Stats().MemWrites; got != 1 {
		t.Errorf("MemWrites = %d, want 1", got)
	}
}

// S3: signed JLT. @1, D=A, D=-D, @10, D;JLT.
func TestScenarioSignedJLT(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{
		0b0000000000000001, // @1
		0b111_0_110000_010_000, // D=A
		0b111_0_001111_010_000, // D=-D
		0b0000000000001010, // @10
		0b111_0_001100_000_100, // D;JLT
	}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if c.PC() != 10 {
		t.Errorf("PC = %d, want 10 (jump taken because D=-1)", c.PC())
	}
	if got := c.Stats().Jumps; got != 1 {
		t.Errorf("Jumps = %d, want 1", got)
	}
}

func TestStepNeverChecksBreakpoints(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{0b0000000000000001, 0b0000000000000010, 0b0000000000000011}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	c.AddBreakpoint(0)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PauseReason() != StepComplete {
		t.Errorf("PauseReason = %v, want StepComplete (Step never checks breakpoints)", c.PauseReason())
	}
}

func TestRunSkipsBreakpointOnFirstInstruction(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{0b0000000000000001, 0b0000000000000010, 0b0000000000000011}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	c.AddBreakpoint(0)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Halted {
		t.Errorf("state = %v, want HALTED (breakpoint on first instruction of the run must not trip)", c.State())
	}
}

func TestRunStopsAtBreakpointAfterFirstInstruction(t *testing.T) {
	c := NewCPU()
	rom := []hack.Word{0b0000000000000001, 0b0000000000000010, 0b0000000000000011}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	c.AddBreakpoint(1)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Paused {
		t.Errorf("state = %v, want PAUSED", c.State())
	}
	if c.PauseReason() != Breakpoint {
		t.Errorf("PauseReason = %v, want Breakpoint", c.PauseReason())
	}
	if c.PC() != 1 {
		t.Errorf("PC = %d, want 1", c.PC())
	}
}

func TestStateTransitionsReadyToHalted(t *testing.T) {
	c := NewCPU()
	if c.State() != Ready {
		t.Errorf("initial state = %v, want READY", c.State())
	}
	rom := []hack.Word{0b0000000000000001}
	if err := c.LoadWords(rom); err != nil {
		t.Fatal(err)
	}
	if c.State() != Ready {
		t.Errorf("state after load = %v, want READY", c.State())
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Halted {
		t.Errorf("state after run off the end of ROM = %v, want HALTED", c.State())
	}
}
