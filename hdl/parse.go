package hdl

import (
	"github.com/aviyewolf/nand2tetris-suite/hack"
	"github.com/aviyewolf/nand2tetris-suite/hdl/internal/hdllex"
)

// Parse parses the text of a single .hdl file. source is used only to
// annotate errors (§4.4: "a parse-class error carries file name, line, and
// a short expectation message").
func Parse(source, text string) (*ChipAST, error) {
	p := &parser{lx: hdllex.New(text), source: source}
	p.advance()
	return p.chip()
}

type parser struct {
	lx     *hdllex.Lexer
	tok    hdllex.Item
	source string
}

func (p *parser) advance() { p.tok = p.lx.Next() }

func (p *parser) errf(format string, args ...interface{}) error {
	return hack.ParseErr(p.source, p.tok.Line, format, args...)
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok.Type != hdllex.Keyword || p.tok.Value != kw {
		return p.errf("expected %q, got %q", kw, p.tok.Value)
	}
	p.advance()
	return nil
}

func (p *parser) expect(t hdllex.Type, what string) (hdllex.Item, error) {
	if p.tok.Type != t {
		return hdllex.Item{}, p.errf("expected %s, got %q", what, p.tok.Value)
	}
	tok := p.tok
	p.advance()
	return tok, nil
}

func (p *parser) chip() (*ChipAST, error) {
	if err := p.expectKeyword("CHIP"); err != nil {
		return nil, err
	}
	name, err := p.expect(hdllex.Ident, "chip name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(hdllex.LBrace, "'{'"); err != nil {
		return nil, err
	}
	c := &ChipAST{Name: name.Value, Source: p.source}

	if err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	ins, err := p.ports()
	if err != nil {
		return nil, err
	}
	c.Inputs = ins
	if _, err := p.expect(hdllex.Semi, "';'"); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("OUT"); err != nil {
		return nil, err
	}
	outs, err := p.ports()
	if err != nil {
		return nil, err
	}
	c.Outputs = outs
	if _, err := p.expect(hdllex.Semi, "';'"); err != nil {
		return nil, err
	}

	if p.tok.Type == hdllex.Keyword && p.tok.Value == "BUILTIN" {
		p.advance()
		bn, err := p.expect(hdllex.Ident, "builtin chip name")
		if err != nil {
			return nil, err
		}
		c.Builtin = true
		c.BuiltinName = bn.Value
		if _, err := p.expect(hdllex.Semi, "';'"); err != nil {
			return nil, err
		}
		if p.tok.Type == hdllex.Keyword && p.tok.Value == "CLOCKED" {
			p.advance()
			for {
				id, err := p.expect(hdllex.Ident, "clocked pin name")
				if err != nil {
					return nil, err
				}
				c.Clocked = append(c.Clocked, id.Value)
				if p.tok.Type == hdllex.Comma {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(hdllex.Semi, "';'"); err != nil {
				return nil, err
			}
		}
	} else {
		if err := p.expectKeyword("PARTS"); err != nil {
			return nil, err
		}
		if _, err := p.expect(hdllex.Colon, "':'"); err != nil {
			return nil, err
		}
		for p.tok.Type == hdllex.Ident {
			part, err := p.part()
			if err != nil {
				return nil, err
			}
			c.Parts = append(c.Parts, part)
		}
	}

	if _, err := p.expect(hdllex.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) ports() ([]Port, error) {
	var out []Port
	if p.tok.Type == hdllex.Semi {
		return out, nil
	}
	for {
		id, err := p.expect(hdllex.Ident, "port name")
		if err != nil {
			return nil, err
		}
		width := 1
		if p.tok.Type == hdllex.LBracket {
			p.advance()
			n, err := p.expect(hdllex.Int, "bus width")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(hdllex.RBracket, "']'"); err != nil {
				return nil, err
			}
			width = n.Int
		}
		out = append(out, Port{Name: id.Value, Width: width})
		if p.tok.Type == hdllex.Comma {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) part() (PartDecl, error) {
	line := p.tok.Line
	name, err := p.expect(hdllex.Ident, "part name")
	if err != nil {
		return PartDecl{}, err
	}
	if _, err := p.expect(hdllex.LParen, "'('"); err != nil {
		return PartDecl{}, err
	}
	pd := PartDecl{ChipName: name.Value, Line: line}
	for {
		conn, err := p.connection()
		if err != nil {
			return PartDecl{}, err
		}
		pd.Conns = append(pd.Conns, conn)
		if p.tok.Type == hdllex.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(hdllex.RParen, "')'"); err != nil {
		return PartDecl{}, err
	}
	if _, err := p.expect(hdllex.Semi, "';'"); err != nil {
		return PartDecl{}, err
	}
	return pd, nil
}

func (p *parser) connection() (Connection, error) {
	internal, err := p.pinref()
	if err != nil {
		return Connection{}, err
	}
	if _, err := p.expect(hdllex.Equal, "'='"); err != nil {
		return Connection{}, err
	}
	external, err := p.pinref()
	if err != nil {
		return Connection{}, err
	}
	return Connection{Internal: internal, External: external}, nil
}

func (p *parser) pinref() (PinRef, error) {
	id, err := p.expect(hdllex.Ident, "pin reference")
	if err != nil {
		return PinRef{}, err
	}
	switch id.Value {
	case "true":
		return PinRef{Const: true, ConstVal: true, Lo: -1, Hi: -1}, nil
	case "false":
		return PinRef{Const: true, ConstVal: false, Lo: -1, Hi: -1}, nil
	}
	ref := PinRef{Name: id.Value, Lo: -1, Hi: -1}
	if p.tok.Type != hdllex.LBracket {
		return ref, nil
	}
	p.advance()
	lo, err := p.expect(hdllex.Int, "bit index")
	if err != nil {
		return PinRef{}, err
	}
	ref.Lo, ref.Hi = lo.Int, lo.Int
	if p.tok.Type == hdllex.Range {
		p.advance()
		hi, err := p.expect(hdllex.Int, "bit index")
		if err != nil {
			return PinRef{}, err
		}
		ref.Hi = hi.Int
	}
	if _, err := p.expect(hdllex.RBracket, "']'"); err != nil {
		return PinRef{}, err
	}
	return ref, nil
}
