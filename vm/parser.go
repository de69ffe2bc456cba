package vm

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Program is the parsed output of one or more .vm sources: a flat command
// list plus the label/function indices needed to resolve jumps and calls.
type Program struct {
	Commands []Command

	// Functions maps a function name to the index of its `function`
	// command.
	Functions map[string]int

	// Labels maps a scoped "Function$Label" name to a command index; a
	// label that precedes every function command is stored under its bare
	// name.
	Labels map[string]int

	// Files is the set of source basenames encountered, in load order;
	// the VM memory model allocates static ranges in this order.
	Files []string
}

var commonTypos = map[string]string{
	"psh":    "push",
	"ifgoto": "if-goto",
	"func":   "function",
	"ret":    "return",
	"const":  "constant",
	"arg":    "argument",
	"tmp":    "temp",
}

// ParseFile parses a single .vm file.
func ParseFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, hack.FileErr(path, err)
	}
	p := newProgramParser()
	if err := p.parseSource(filepath.Base(path), string(data)); err != nil {
		return nil, err
	}
	return p.finish()
}

// ParseSource parses in-memory .vm text under a single synthetic file
// name, without touching the filesystem — used by tooling (and tests)
// that construct a program from a string rather than a directory tree.
func ParseSource(file, text string) (*Program, error) {
	p := newProgramParser()
	if err := p.parseSource(file, text); err != nil {
		return nil, err
	}
	return p.finish()
}

// ParseDir parses every .vm file in dir, in sorted-by-name order, for
// deterministic static allocation.
func ParseDir(dir string) (*Program, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, hack.FileErr(dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".vm") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	p := newProgramParser()
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, hack.FileErr(path, err)
		}
		if err := p.parseSource(name, string(data)); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

type programParser struct {
	prog        *Program
	currentFunc string
	funcLabels  map[string]map[string]bool // function -> label -> seen
}

func newProgramParser() *programParser {
	return &programParser{
		prog: &Program{
			Functions: make(map[string]int),
			Labels:    make(map[string]int),
		},
		funcLabels: make(map[string]map[string]bool),
	}
}

func (p *programParser) finish() (*Program, error) {
	return p.prog, nil
}

func (p *programParser) parseSource(file, text string) error {
	seenFile := false
	for _, f := range p.prog.Files {
		if f == file {
			seenFile = true
			break
		}
	}
	if !seenFile {
		p.prog.Files = append(p.prog.Files, file)
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if i := strings.Index(raw, "//"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fields := strings.Fields(raw)
		cmd, err := p.parseLine(file, lineNo, fields)
		if err != nil {
			return err
		}
		idx := len(p.prog.Commands)
		p.prog.Commands = append(p.prog.Commands, cmd)
		switch cmd.Kind {
		case KindFunction:
			if _, dup := p.prog.Functions[cmd.Name]; dup {
				return hack.ParseErr(file, lineNo, "duplicate function definition %q", cmd.Name)
			}
			p.prog.Functions[cmd.Name] = idx
			p.currentFunc = cmd.Name
		case KindLabel:
			fn := p.currentFunc
			if p.funcLabels[fn] == nil {
				p.funcLabels[fn] = make(map[string]bool)
			}
			if p.funcLabels[fn][cmd.Name] {
				return hack.ParseErr(file, lineNo, "duplicate label %q in function %q", cmd.Name, fn)
			}
			p.funcLabels[fn][cmd.Name] = true
			if fn == "" {
				p.prog.Labels[cmd.Name] = idx
			} else {
				p.prog.Labels[fn+"$"+cmd.Name] = idx
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return hack.FileErr(file, err)
	}
	return nil
}

func (p *programParser) parseLine(file string, line int, f []string) (Command, error) {
	cmd := Command{Source: file, Line: line, File: file}

	head := f[0]
	if op, ok := arithNames[head]; ok {
		if len(f) != 1 {
			return Command{}, hack.ParseErr(file, line, "%q takes no arguments", head)
		}
		cmd.Kind = KindArith
		cmd.Arith = op
		return cmd, nil
	}

	switch head {
	case "push", "pop":
		if len(f) != 3 {
			return Command{}, hack.ParseErr(file, line, "%q requires exactly two arguments", head)
		}
		seg, ok := segmentNames[f[1]]
		if !ok {
			return Command{}, typoOrUnknown(file, line, f[1], "segment")
		}
		if head == "pop" && seg == SegConstant {
			return Command{}, hack.ParseErr(file, line, "pop to constant is not allowed")
		}
		idx, err := parseIndex(file, line, f[2])
		if err != nil {
			return Command{}, err
		}
		switch seg {
		case SegTemp:
			if idx < 0 || idx > 7 {
				return Command{}, hack.ParseErr(file, line, "temp index %d out of range 0..7", idx)
			}
		case SegPointer:
			if idx < 0 || idx > 1 {
				return Command{}, hack.ParseErr(file, line, "pointer index %d out of range 0..1", idx)
			}
		}
		if head == "push" {
			cmd.Kind = KindPush
		} else {
			cmd.Kind = KindPop
		}
		cmd.Segment = seg
		cmd.Index = idx
		return cmd, nil

	case "label":
		if len(f) != 2 {
			return Command{}, hack.ParseErr(file, line, "label requires exactly one argument")
		}
		if err := validLabelIdent(file, line, f[1]); err != nil {
			return Command{}, err
		}
		cmd.Kind = KindLabel
		cmd.Name = f[1]
		return cmd, nil

	case "goto", "if-goto":
		if len(f) != 2 {
			return Command{}, hack.ParseErr(file, line, "%q requires exactly one argument", head)
		}
		if err := validLabelIdent(file, line, f[1]); err != nil {
			return Command{}, err
		}
		if head == "goto" {
			cmd.Kind = KindGoto
		} else {
			cmd.Kind = KindIfGoto
		}
		cmd.Name = f[1]
		return cmd, nil

	case "function":
		if len(f) != 3 {
			return Command{}, hack.ParseErr(file, line, "function requires exactly two arguments")
		}
		if err := validIdent(file, line, f[1]); err != nil {
			return Command{}, err
		}
		n, err := parseIndex(file, line, f[2])
		if err != nil {
			return Command{}, err
		}
		cmd.Kind = KindFunction
		cmd.Name = f[1]
		cmd.NLocals = n
		return cmd, nil

	case "call":
		if len(f) != 3 {
			return Command{}, hack.ParseErr(file, line, "call requires exactly two arguments")
		}
		if err := validIdent(file, line, f[1]); err != nil {
			return Command{}, err
		}
		n, err := parseIndex(file, line, f[2])
		if err != nil {
			return Command{}, err
		}
		cmd.Kind = KindCall
		cmd.Name = f[1]
		cmd.NArgs = n
		return cmd, nil

	case "return":
		if len(f) != 1 {
			return Command{}, hack.ParseErr(file, line, "return takes no arguments")
		}
		cmd.Kind = KindReturn
		return cmd, nil
	}

	return Command{}, typoOrUnknown(file, line, head, "command")
}

func typoOrUnknown(file string, line int, word, what string) error {
	if suggestion, ok := commonTypos[word]; ok {
		return hack.ParseErr(file, line, "unknown %s %q, did you mean %q?", what, word, suggestion)
	}
	return hack.ParseErr(file, line, "unknown %s %q", what, word)
}

func parseIndex(file string, line int, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 32767 {
		return 0, hack.ParseErr(file, line, "index %q must be a non-negative decimal within 0..32767", s)
	}
	return n, nil
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '.'
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func validIdent(file string, line int, name string) error {
	if name == "" || !isIdentStart(name[0]) {
		return hack.ParseErr(file, line, "invalid identifier %q", name)
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return hack.ParseErr(file, line, "invalid identifier %q", name)
		}
	}
	return nil
}

func validLabelIdent(file string, line int, name string) error {
	if name == "" || !isIdentStart(name[0]) {
		return hack.ParseErr(file, line, "invalid label %q", name)
	}
	for i := 1; i < len(name); i++ {
		b := name[i]
		if !isIdentChar(b) && b != ':' {
			return hack.ParseErr(file, line, "invalid label %q", name)
		}
	}
	return nil
}
