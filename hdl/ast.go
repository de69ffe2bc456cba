package hdl

// Port is a declared input or output pin, with its bit width.
type Port struct {
	Name  string
	Width int
}

// PinRef is a reference to a pin or a bit range of a pin, as it appears on
// either side of a connection. A constant reference (true/false) carries
// Const=true and no Name.
type PinRef struct {
	Name     string
	Lo, Hi   int // -1,-1 means "full width"; Lo==Hi means a single bit
	Const    bool
	ConstVal bool
}

// FullWidth reports whether the reference has no subscript.
func (p PinRef) FullWidth() bool { return p.Lo < 0 }

// Connection binds an internal (sub-chip) pin to an external reference.
type Connection struct {
	Internal PinRef
	External PinRef
}

// PartDecl is one PARTS entry: a sub-chip name plus its connections.
type PartDecl struct {
	ChipName string
	Conns    []Connection
	Line     int
}

// ChipAST is the parsed, unresolved form of a CHIP declaration.
type ChipAST struct {
	Name    string
	Inputs  []Port
	Outputs []Port

	Builtin     bool
	BuiltinName string
	Clocked     []string

	Parts []PartDecl

	Source string
}
