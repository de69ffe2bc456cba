package hdltest

import (
	"strconv"
	"strings"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

type cmdKind int

const (
	cmdLoad cmdKind = iota
	cmdOutputFile
	cmdCompareTo
	cmdOutputList
	cmdSet
	cmdEval
	cmdTick
	cmdTock
	cmdOutput
)

type command struct {
	kind cmdKind
	args []string
	line int
}

// parseCommands strips comments, splits the script on ',' and ';' (both
// terminate a command per §4.6), and dispatches each resulting command by
// its first whitespace-separated field.
func parseCommands(source, script string) ([]command, error) {
	stripped, lineOf := stripComments(script)

	var cmds []command
	start := 0
	for i := 0; i <= len(stripped); i++ {
		if i == len(stripped) || stripped[i] == ',' || stripped[i] == ';' {
			text := strings.TrimSpace(stripped[start:i])
			line := lineOf(start)
			start = i + 1
			if text == "" {
				continue
			}
			cmd, err := parseOne(source, line, text)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, cmd)
		}
	}
	return cmds, nil
}

// stripComments removes // line comments and /* */ block comments,
// replacing their bytes with spaces (except newlines) so byte offsets
// continue to map onto the same line numbers.
func stripComments(s string) (string, func(int) int) {
	out := []byte(s)
	lineStarts := []int{0}
	for i, c := range s {
		if c == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	n := len(out)
	for i := 0; i < n; i++ {
		if out[i] == '/' && i+1 < n && out[i+1] == '/' {
			for i < n && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		} else if out[i] == '/' && i+1 < n && out[i+1] == '*' {
			j := i
			for j < n && !(out[j] == '*' && j+1 < n && out[j+1] == '/') {
				if out[j] != '\n' {
					out[j] = ' '
				}
				j++
			}
			if j+1 < n {
				out[j], out[j+1] = ' ', ' '
				j++
			}
			i = j
		}
	}
	lineOf := func(pos int) int {
		line := 1
		for _, s := range lineStarts {
			if s <= pos {
				line = indexLine(lineStarts, s)
			}
		}
		return line
	}
	return string(out), lineOf
}

func indexLine(lineStarts []int, start int) int {
	for i, s := range lineStarts {
		if s == start {
			return i + 1
		}
	}
	return 1
}

func fields(s string) []string {
	return strings.Fields(s)
}

func parseOne(source string, line int, text string) (command, error) {
	f := fields(text)
	if len(f) == 0 {
		return command{}, hack.ParseErr(source, line, "empty command")
	}
	switch strings.ToLower(f[0]) {
	case "load":
		if len(f) != 2 {
			return command{}, hack.ParseErr(source, line, "load expects one argument")
		}
		return command{kind: cmdLoad, args: f[1:], line: line}, nil
	case "output-file":
		if len(f) != 2 {
			return command{}, hack.ParseErr(source, line, "output-file expects one argument")
		}
		return command{kind: cmdOutputFile, args: f[1:], line: line}, nil
	case "compare-to":
		if len(f) != 2 {
			return command{}, hack.ParseErr(source, line, "compare-to expects one argument")
		}
		return command{kind: cmdCompareTo, args: f[1:], line: line}, nil
	case "output-list":
		return command{kind: cmdOutputList, args: f[1:], line: line}, nil
	case "set":
		if len(f) != 3 {
			return command{}, hack.ParseErr(source, line, "set expects pin and value")
		}
		return command{kind: cmdSet, args: f[1:], line: line}, nil
	case "eval":
		return command{kind: cmdEval, line: line}, nil
	case "tick":
		return command{kind: cmdTick, line: line}, nil
	case "tock":
		return command{kind: cmdTock, line: line}, nil
	case "output":
		return command{kind: cmdOutput, line: line}, nil
	default:
		return command{}, hack.ParseErr(source, line, "unknown command %q", f[0])
	}
}

// parsePinSpec parses a "set" target: pin, pin[lo], or pin[lo..hi].
func parsePinSpec(source string, line int, spec string) (name string, lo, hi int, err error) {
	b := strings.IndexByte(spec, '[')
	if b < 0 {
		return spec, -1, -1, nil
	}
	if !strings.HasSuffix(spec, "]") {
		return "", 0, 0, hack.ParseErr(source, line, "malformed subscript in %q", spec)
	}
	name = spec[:b]
	inner := spec[b+1 : len(spec)-1]
	if i := strings.Index(inner, ".."); i >= 0 {
		lo, err1 := strconv.Atoi(inner[:i])
		hi, err2 := strconv.Atoi(inner[i+2:])
		if err1 != nil || err2 != nil {
			return "", 0, 0, hack.ParseErr(source, line, "malformed bit range in %q", spec)
		}
		return name, lo, hi, nil
	}
	idx, err2 := strconv.Atoi(inner)
	if err2 != nil {
		return "", 0, 0, hack.ParseErr(source, line, "malformed bit index in %q", spec)
	}
	return name, idx, idx, nil
}

// parseValue parses a set command's value: %Bbits, %Xhex, or a (possibly
// negative) decimal literal.
func parseValue(source string, line int, spec string) (int, error) {
	switch {
	case strings.HasPrefix(spec, "%B"):
		v, err := strconv.ParseInt(spec[2:], 2, 64)
		if err != nil {
			return 0, hack.ParseErr(source, line, "malformed binary value %q", spec)
		}
		return int(v), nil
	case strings.HasPrefix(spec, "%X"):
		v, err := strconv.ParseInt(spec[2:], 16, 64)
		if err != nil {
			return 0, hack.ParseErr(source, line, "malformed hex value %q", spec)
		}
		return int(v), nil
	default:
		v, err := strconv.Atoi(spec)
		if err != nil {
			return 0, hack.ParseErr(source, line, "malformed decimal value %q", spec)
		}
		return v, nil
	}
}

// parseColumns parses an output-list's column specifications,
// "pinName%M.L.W.R"; the pseudo-pin "time" is written the same way (e.g.
// "time%S1.4.1"), and a spec without '%' is rejected.
func parseColumns(source string, line int, specs []string) ([]Column, error) {
	cols := make([]Column, 0, len(specs))
	for _, spec := range specs {
		pct := strings.IndexByte(spec, '%')
		if pct < 0 {
			return nil, hack.ParseErr(source, line, "malformed column spec %q", spec)
		}
		pinPart, fmtPart := spec[:pct], spec[pct+1:]
		name, lo, hi, err := parsePinSpec(source, line, pinPart)
		if err != nil {
			return nil, err
		}
		if len(fmtPart) < 1 {
			return nil, hack.ParseErr(source, line, "malformed column spec %q", spec)
		}
		format := Format(fmtPart[0])
		switch format {
		case FormatBinary, FormatDecimal, FormatHex, FormatLiteral:
		default:
			return nil, hack.ParseErr(source, line, "unknown column format %q", string(fmtPart[0]))
		}
		parts := strings.Split(fmtPart[1:], ".")
		col := Column{Pin: name, Lo: lo, Hi: hi, Format: format}
		if len(parts) == 3 {
			l, e1 := strconv.Atoi(parts[0])
			w, e2 := strconv.Atoi(parts[1])
			r, e3 := strconv.Atoi(parts[2])
			if e1 != nil || e2 != nil || e3 != nil {
				return nil, hack.ParseErr(source, line, "malformed column padding in %q", spec)
			}
			col.Left, col.Width, col.Right = l, w, r
		} else if len(parts) != 1 || parts[0] != "" {
			return nil, hack.ParseErr(source, line, "malformed column padding in %q", spec)
		} else {
			col.Width = len(name)
		}
		cols = append(cols, col)
	}
	return cols, nil
}
