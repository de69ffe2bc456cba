// Package jack implements the Jack source-level debugger (§4.10-§4.11): a
// bidirectional source-to-VM-command map and a debugger that wraps a VM
// engine, translating line-granular stepping and breakpoints into the VM's
// command-granular primitives.
package jack

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// VarKind is the storage class of a Jack local symbol.
type VarKind int

const (
	VarLocal VarKind = iota
	VarArgument
	VarField
	VarStatic
)

var varKindNames = map[string]VarKind{
	"local": VarLocal, "argument": VarArgument, "field": VarField, "static": VarStatic,
}

// Entry is one MAP directive: a source line mapped to a VM command index,
// optionally tagged with the function it belongs to.
type Entry struct {
	File     string
	Line     int
	VMIndex  int
	Function string
}

// Var describes one symbol in a function's or class's layout.
type Var struct {
	Kind  VarKind
	Type  string
	Name  string
	Index int
}

// SourceMap is the parsed contents of a .smap file: an ordered entry list
// plus the forward/reverse indices and per-function/per-class symbol
// tables the debugger needs.
type SourceMap struct {
	Entries []Entry

	byVMIndex   map[int]*Entry
	firstByLine map[fileLine]*Entry

	funcVars  map[string][]Var
	classVars map[string][]Var
}

type fileLine struct {
	file string
	line int
}

// NewSourceMap returns an empty SourceMap.
func NewSourceMap() *SourceMap {
	return &SourceMap{
		byVMIndex:   make(map[int]*Entry),
		firstByLine: make(map[fileLine]*Entry),
		funcVars:    make(map[string][]Var),
		classVars:   make(map[string][]Var),
	}
}

// Load parses the .smap text named source and merges it into m.
func (m *SourceMap) Load(source, text string) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	var currentFunc, currentClass string
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "MAP":
			if len(fields) < 2 {
				return hack.ParseErr(source, lineNo, "MAP requires <file>:<line> -> <vm_index> [<function>]")
			}
			fl, err := parseFileLine(source, lineNo, fields[1])
			if err != nil {
				return err
			}
			rest := fields[2:]
			if len(rest) == 0 || rest[0] != "->" {
				return hack.ParseErr(source, lineNo, "MAP requires '->' before the VM index")
			}
			rest = rest[1:]
			if len(rest) == 0 {
				return hack.ParseErr(source, lineNo, "MAP requires a VM index")
			}
			idx, err := strconv.Atoi(rest[0])
			if err != nil {
				return hack.ParseErr(source, lineNo, "malformed VM index %q", rest[0])
			}
			fn := ""
			if len(rest) > 1 {
				fn = rest[1]
			}
			e := Entry{File: fl.file, Line: fl.line, VMIndex: idx, Function: fn}
			m.Entries = append(m.Entries, e)
			ptr := &m.Entries[len(m.Entries)-1]
			m.byVMIndex[idx] = ptr
			if _, ok := m.firstByLine[fl]; !ok {
				m.firstByLine[fl] = ptr
			}

		case "FUNC":
			if len(fields) != 2 {
				return hack.ParseErr(source, lineNo, "FUNC requires <Class.method>")
			}
			currentFunc = fields[1]
			if _, ok := m.funcVars[currentFunc]; !ok {
				m.funcVars[currentFunc] = nil
			}

		case "VAR":
			if currentFunc == "" {
				return hack.ParseErr(source, lineNo, "VAR must follow a FUNC directive")
			}
			if len(fields) != 5 {
				return hack.ParseErr(source, lineNo, "VAR requires <kind> <type> <name> <index>")
			}
			kind, ok := varKindNames[fields[1]]
			if !ok {
				return hack.ParseErr(source, lineNo, "unknown variable kind %q", fields[1])
			}
			idx, err := strconv.Atoi(fields[4])
			if err != nil {
				return hack.ParseErr(source, lineNo, "malformed index %q", fields[4])
			}
			m.funcVars[currentFunc] = append(m.funcVars[currentFunc], Var{Kind: kind, Type: fields[2], Name: fields[3], Index: idx})

		case "CLASS":
			if len(fields) != 2 {
				return hack.ParseErr(source, lineNo, "CLASS requires <Name>")
			}
			currentClass = fields[1]
			if _, ok := m.classVars[currentClass]; !ok {
				m.classVars[currentClass] = nil
			}

		case "FIELD":
			if currentClass == "" {
				return hack.ParseErr(source, lineNo, "FIELD must follow a CLASS directive")
			}
			if len(fields) != 3 {
				return hack.ParseErr(source, lineNo, "FIELD requires <type> <name>")
			}
			idx := len(m.classVars[currentClass])
			m.classVars[currentClass] = append(m.classVars[currentClass], Var{Kind: VarField, Type: fields[1], Name: fields[2], Index: idx})

		default:
			return hack.ParseErr(source, lineNo, "unknown directive %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return hack.FileErr(source, err)
	}
	return nil
}

func parseFileLine(source string, lineNo int, spec string) (fileLine, error) {
	i := strings.LastIndexByte(spec, ':')
	if i < 0 {
		return fileLine{}, hack.ParseErr(source, lineNo, "malformed <file>:<line> in %q", spec)
	}
	n, err := strconv.Atoi(spec[i+1:])
	if err != nil {
		return fileLine{}, hack.ParseErr(source, lineNo, "malformed line number in %q", spec)
	}
	return fileLine{file: spec[:i], line: n}, nil
}

// EntryAt returns the entry for a VM command index, if any.
func (m *SourceMap) EntryAt(vmIndex int) (Entry, bool) {
	e, ok := m.byVMIndex[vmIndex]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// FirstAtLine returns the first entry mapped from (file, line), if any —
// used to verify a breakpoint's line exists.
func (m *SourceMap) FirstAtLine(file string, line int) (Entry, bool) {
	e, ok := m.firstByLine[fileLine{file, line}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// IndicesAtLine scans the entry list linearly for every VM index mapped
// from (file, line); acceptable cost at breakpoint-set time (§4.10).
func (m *SourceMap) IndicesAtLine(file string, line int) []int {
	var out []int
	for _, e := range m.Entries {
		if e.File == file && e.Line == line {
			out = append(out, e.VMIndex)
		}
	}
	return out
}

// Vars returns the local symbol table for a function.
func (m *SourceMap) Vars(function string) []Var { return m.funcVars[function] }

// Fields returns the field layout for a class, in declared order.
func (m *SourceMap) Fields(class string) []Var { return m.classVars[class] }
