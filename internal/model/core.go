package model

import "image/color"

// Function is the logic function a core performs.
type Function int

const (
	FunctionIO Function = iota
	FunctionAND
	FunctionOR
	FunctionNOT
)

// String returns the short name of the function.
func (f Function) String() string {
	switch f {
	case FunctionIO:
		return "io"
	case FunctionAND:
		return "and"
	case FunctionOR:
		return "or"
	case FunctionNOT:
		return "not"
	}
	return "unknown"
}

// IsValid reports whether f is one of the four known functions.
func (f Function) IsValid() bool {
	return f >= FunctionIO && f <= FunctionNOT
}

// FunctionFor maps a snapshot sub-kind to a function. Inputs, outputs and
// plain io cores are all IO; unrecognized sub-kinds are NOT gates.
func FunctionFor(subkind string) Function {
	switch subkind {
	case "input", "output", "io":
		return FunctionIO
	case "selector_0":
		return FunctionAND
	case "selector_1":
		return FunctionOR
	default:
		return FunctionNOT
	}
}

// Style describes how a core of a given function is drawn.
type Style struct {
	Fill  color.RGBA
	Glyph string // empty for IO cores, which are labelled by id
}

// Styles is the fixed style table, indexed by Function.
var Styles = [...]Style{
	FunctionIO:  {Fill: color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}},
	FunctionAND: {Fill: color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, Glyph: "∧"},
	FunctionOR:  {Fill: color.RGBA{R: 0x80, G: 0x00, B: 0x80, A: 0xff}, Glyph: "∨"},
	FunctionNOT: {Fill: color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, Glyph: "¬"},
}

// Style returns the style table entry for f. Unknown values fall back to NOT.
func (f Function) Style() Style {
	if !f.IsValid() {
		return Styles[FunctionNOT]
	}
	return Styles[f]
}

// Core is a single logic or IO node of the circuit.
type Core struct {
	ID       string
	Function Function
	Depth    int
}

// Label returns the text drawn inside the core: the id for IO cores and the
// function glyph for gates.
func (c Core) Label() string {
	if c.Function == FunctionIO {
		return c.ID
	}
	return c.Function.Style().Glyph
}
