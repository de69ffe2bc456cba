// Package hdltest implements the .tst script runner (§4.6): it drives a
// hdl.Instance through set/eval/tick/tock/output commands and optionally
// compares emitted rows against expected .cmp data, mirroring the role the
// teacher's hwtest package plays for its own circuits (there, comparing two
// implementations against each other; here, comparing one implementation's
// emitted rows against a truth table).
package hdltest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
	"github.com/aviyewolf/nand2tetris-suite/hdl"
)

// Format is a column's print format: binary, signed decimal, hex, or a
// literal string (the pseudo-pin "time").
type Format byte

const (
	FormatBinary  Format = 'B'
	FormatDecimal Format = 'D'
	FormatHex     Format = 'X'
	FormatLiteral Format = 'S'
)

// Column is one entry of an output-list: a pin (or the pseudo-pin "time")
// with a print format and left/width/right padding.
type Column struct {
	Pin                string
	Lo, Hi             int // -1,-1 if the pin reference had no subscript
	Format             Format
	Left, Width, Right int
}

// Result is the outcome of running a script.
type Result struct {
	Output []string // emitted rows, including any header row
}

// Runner executes a parsed .tst script against chips produced by resolver.
type Runner struct {
	resolver hdl.Resolver
	inst     *hdl.Instance

	outputFile string
	compareTo  string
	columns    []Column

	atTick bool // true between tick and the matching tock
	cycle  int

	headerEmitted bool
	result        Result
}

// NewRunner returns a Runner that resolves chips via resolver.
func NewRunner(resolver hdl.Resolver) *Runner {
	return &Runner{resolver: resolver}
}

// Instance returns the currently loaded chip instance, or nil.
func (r *Runner) Instance() *hdl.Instance { return r.inst }

// Run executes script. cmpData, if non-empty, is the literal comparison
// data named by a compare-to directive (first line header, subsequent
// lines pipe-delimited rows); a compare-to directive with no cmpData is
// silently a no-op per §7.
func (r *Runner) Run(source, script, cmpData string) (*Result, error) {
	var cmpLines []string
	if cmpData != "" {
		cmpLines = splitLines(cmpData)
	}
	cmpRow := 0

	cmds, err := parseCommands(source, script)
	if err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		lines, err := r.exec(source, cmd)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			r.result.Output = append(r.result.Output, line)
			if cmpLines != nil {
				if cmpRow >= len(cmpLines) {
					return nil, hack.LogicErr(cmpRow, "unexpected extra output row %q", line)
				}
				expected := strings.TrimRight(cmpLines[cmpRow], " \t")
				got := strings.TrimRight(line, " \t")
				if expected != got {
					return nil, hack.LogicErr(cmpRow, "expected %q, got %q", expected, got)
				}
				cmpRow++
			}
		}
	}
	return &r.result, nil
}

func (r *Runner) exec(source string, cmd command) ([]string, error) {
	switch cmd.kind {
	case cmdLoad:
		def, err := r.resolver.Resolve(cmd.args[0])
		if err != nil {
			return nil, err
		}
		inst, err := def.NewInstance(r.resolver)
		if err != nil {
			return nil, err
		}
		r.inst = inst
		return nil, nil
	case cmdOutputFile:
		r.outputFile = cmd.args[0]
		return nil, nil
	case cmdCompareTo:
		r.compareTo = cmd.args[0]
		return nil, nil
	case cmdOutputList:
		cols, err := parseColumns(source, cmd.line, cmd.args)
		if err != nil {
			return nil, err
		}
		r.columns = cols
		r.headerEmitted = false
		return nil, nil
	case cmdSet:
		return nil, r.doSet(source, cmd)
	case cmdEval:
		if r.inst == nil {
			return nil, hack.ParseErr(source, cmd.line, "eval before load")
		}
		r.inst.Eval()
		return nil, nil
	case cmdTick:
		if r.inst == nil {
			return nil, hack.ParseErr(source, cmd.line, "tick before load")
		}
		r.inst.Tick()
		r.atTick = true
		return nil, nil
	case cmdTock:
		if r.inst == nil {
			return nil, hack.ParseErr(source, cmd.line, "tock before load")
		}
		r.inst.Tock()
		r.atTick = false
		r.cycle++
		return nil, nil
	case cmdOutput:
		return r.doOutput(source, cmd)
	}
	return nil, nil
}

func (r *Runner) doSet(source string, cmd command) error {
	if r.inst == nil {
		return hack.ParseErr(source, cmd.line, "set before load")
	}
	pinSpec, valSpec := cmd.args[0], cmd.args[1]
	name, lo, hi, err := parsePinSpec(source, cmd.line, pinSpec)
	if err != nil {
		return err
	}
	value, err := parseValue(source, cmd.line, valSpec)
	if err != nil {
		return err
	}
	r.inst.SetPin(name, lo, hi, value)
	return nil
}

func (r *Runner) doOutput(source string, cmd command) ([]string, error) {
	var lines []string
	if !r.headerEmitted {
		lines = append(lines, r.headerRow())
		r.headerEmitted = true
	}
	lines = append(lines, r.dataRow())
	return lines, nil
}

func (r *Runner) headerRow() string {
	parts := make([]string, len(r.columns))
	for i, c := range r.columns {
		width := c.Left + c.Width + c.Right
		parts[i] = center(c.Pin, width)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

func (r *Runner) dataRow() string {
	parts := make([]string, len(r.columns))
	for i, c := range r.columns {
		parts[i] = r.formatColumn(c)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// formatColumn renders c's value and right-justifies it within c.Width
// characters before applying the L/R padding (§4.6's boundary case:
// "a%D1.6.1 right-justifies decimal value within width 6...").
func (r *Runner) formatColumn(c Column) string {
	var text string
	if c.Pin == "time" {
		if r.atTick {
			text = strconv.Itoa(r.cycle) + "+"
		} else {
			text = strconv.Itoa(r.cycle)
		}
	} else {
		v := r.inst.Pin(c.Pin, c.Lo, c.Hi)
		bits := c.Hi - c.Lo + 1
		if c.Lo < 0 {
			bits = r.inst.Width(c.Pin)
		}
		switch c.Format {
		case FormatBinary:
			text = toBinary(v, bits)
		case FormatHex:
			text = fmt.Sprintf("%X", v)
		case FormatLiteral:
			text = strconv.Itoa(v)
		default: // FormatDecimal, signed
			text = strconv.Itoa(int(signExtend(v, bits)))
		}
	}
	if len(text) < c.Width {
		text = strings.Repeat(" ", c.Width-len(text)) + text
	}
	return strings.Repeat(" ", c.Left) + text + strings.Repeat(" ", c.Right)
}

func toBinary(v, width int) string {
	var b strings.Builder
	for i := width - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func signExtend(v, width int) int32 {
	if width <= 0 || width >= 32 {
		return int32(v)
	}
	sign := 1 << uint(width-1)
	if v&sign != 0 {
		return int32(v - (1 << uint(width)))
	}
	return int32(v)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
