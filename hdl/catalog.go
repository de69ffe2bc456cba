package hdl

import (
	"os"
	"path/filepath"

	"github.com/aviyewolf/nand2tetris-suite/hack"
)

// Catalog is the immutable-after-construction Resolver §9 calls for: "a
// registry is acceptable only as an immutable built-in catalog loaded
// once." It layers a fixed set of builtin ChipDefs over on-demand parsing
// of sibling .hdl files found in its search paths, caching each chip the
// first time it is resolved.
type Catalog struct {
	builtins map[string]*ChipDef
	paths    []string
	cache    map[string]*ChipDef
}

// NewCatalog returns a Catalog backed by builtins (keyed by chip name) and
// searched, for anything else, in paths (in order) for a "<name>.hdl" file.
func NewCatalog(builtins map[string]*ChipDef, paths ...string) *Catalog {
	return &Catalog{builtins: builtins, paths: paths, cache: make(map[string]*ChipDef)}
}

// Resolve implements Resolver.
func (c *Catalog) Resolve(name string) (*ChipDef, error) {
	if d, ok := c.cache[name]; ok {
		return d, nil
	}
	if d, ok := c.builtins[name]; ok {
		c.cache[name] = d
		return d, nil
	}
	for _, dir := range c.paths {
		path := filepath.Join(dir, name+".hdl")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ast, err := Parse(path, string(data))
		if err != nil {
			return nil, err
		}
		if ast.Builtin {
			builtin, ok := c.builtins[ast.BuiltinName]
			if !ok {
				return nil, hack.ParseErr(path, 0, "unknown BUILTIN implementation %q", ast.BuiltinName)
			}
			c.cache[name] = builtin
			return builtin, nil
		}
		def := NewUserDef(ast)
		c.cache[name] = def
		return def, nil
	}
	return nil, hack.RuntimeErr(-1, "unknown chip %q", name)
}
