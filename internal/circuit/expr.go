package circuit

import (
	"fmt"
	"math"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/pulsekit/internal/ir"
)

// exprLexer tokenizes symbolic parameter expressions such as "-pi/2 + theta*2".
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expr is a parsed symbolic parameter: a sum of terms.
type Expr struct {
	Head *Term    `parser:"@@"`
	Tail []*OpTerm `parser:"@@*"`
}

// OpTerm is an additive operator and its right operand.
type OpTerm struct {
	Op   string `parser:"@('+' | '-')"`
	Term *Term  `parser:"@@"`
}

// Term is a product of factors.
type Term struct {
	Head *Factor     `parser:"@@"`
	Tail []*OpFactor `parser:"@@*"`
}

// OpFactor is a multiplicative operator and its right operand.
type OpFactor struct {
	Op     string  `parser:"@('*' | '/')"`
	Factor *Factor `parser:"@@"`
}

// Factor is an optionally negated value.
type Factor struct {
	Neg   bool   `parser:"@'-'?"`
	Value *Value `parser:"@@"`
}

// Value is a number, function call, symbol or parenthesized expression.
type Value struct {
	Number *float64 `parser:"  @Number"`
	Call   *Call    `parser:"| @@"`
	Symbol *string  `parser:"| @Ident"`
	Sub    *Expr    `parser:"| '(' @@ ')'"`
}

// Call applies a unary math function.
type Call struct {
	Func string `parser:"@Ident '('"`
	Arg  *Expr  `parser:"@@ ')'"`
}

var exprParser = participle.MustBuild[Expr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

var functions = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
}

// ParseExpr parses a symbolic parameter expression.
func ParseExpr(src string) (*Expr, error) {
	e, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, ir.ValidationErrorf("invalid parameter expression %q: %v", src, err)
	}
	return e, nil
}

// Symbols returns the free symbols of e in first-use order, excluding pi.
func (e *Expr) Symbols() []string {
	var out []string
	seen := map[string]bool{}
	var walkExpr func(*Expr)
	walkFactor := func(f *Factor) {
		v := f.Value
		switch {
		case v.Symbol != nil:
			if *v.Symbol != "pi" && !seen[*v.Symbol] {
				seen[*v.Symbol] = true
				out = append(out, *v.Symbol)
			}
		case v.Call != nil:
			walkExpr(v.Call.Arg)
		case v.Sub != nil:
			walkExpr(v.Sub)
		}
	}
	walkTerm := func(t *Term) {
		walkFactor(t.Head)
		for _, of := range t.Tail {
			walkFactor(of.Factor)
		}
	}
	walkExpr = func(e *Expr) {
		walkTerm(e.Head)
		for _, ot := range e.Tail {
			walkTerm(ot.Term)
		}
	}
	walkExpr(e)
	return out
}

// Eval evaluates e with the given symbol bindings.
func (e *Expr) Eval(bind map[string]float64) (float64, error) {
	v, err := e.Head.eval(bind)
	if err != nil {
		return 0, err
	}
	for _, ot := range e.Tail {
		r, err := ot.Term.eval(bind)
		if err != nil {
			return 0, err
		}
		if ot.Op == "+" {
			v += r
		} else {
			v -= r
		}
	}
	return v, nil
}

func (t *Term) eval(bind map[string]float64) (float64, error) {
	v, err := t.Head.eval(bind)
	if err != nil {
		return 0, err
	}
	for _, of := range t.Tail {
		r, err := of.Factor.eval(bind)
		if err != nil {
			return 0, err
		}
		if of.Op == "*" {
			v *= r
		} else {
			if r == 0 {
				return 0, ir.ValidationErrorf("division by zero in parameter expression")
			}
			v /= r
		}
	}
	return v, nil
}

func (f *Factor) eval(bind map[string]float64) (float64, error) {
	var (
		v   float64
		err error
		val = f.Value
	)
	switch {
	case val.Number != nil:
		v = *val.Number
	case val.Symbol != nil:
		v, err = lookupSymbol(*val.Symbol, bind)
	case val.Call != nil:
		fn, ok := functions[val.Call.Func]
		if !ok {
			return 0, ir.ValidationErrorf("unknown function %q in parameter expression", val.Call.Func)
		}
		var arg float64
		arg, err = val.Call.Arg.Eval(bind)
		v = fn(arg)
	case val.Sub != nil:
		v, err = val.Sub.Eval(bind)
	}
	if err != nil {
		return 0, err
	}
	if f.Neg {
		v = -v
	}
	return v, nil
}

func lookupSymbol(name string, bind map[string]float64) (float64, error) {
	if v, ok := bind[name]; ok {
		return v, nil
	}
	if strings.EqualFold(name, "pi") {
		return math.Pi, nil
	}
	return 0, ir.ValidationErrorf("unbound parameter %q", name)
}

// String renders e back to source form.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	e.Head.write(b)
	for _, ot := range e.Tail {
		fmt.Fprintf(b, " %s ", ot.Op)
		ot.Term.write(b)
	}
}

func (t *Term) write(b *strings.Builder) {
	t.Head.write(b)
	for _, of := range t.Tail {
		b.WriteString(of.Op)
		of.Factor.write(b)
	}
}

func (f *Factor) write(b *strings.Builder) {
	if f.Neg {
		b.WriteByte('-')
	}
	v := f.Value
	switch {
	case v.Number != nil:
		fmt.Fprintf(b, "%g", *v.Number)
	case v.Symbol != nil:
		b.WriteString(*v.Symbol)
	case v.Call != nil:
		b.WriteString(v.Call.Func + "(")
		v.Call.Arg.write(b)
		b.WriteByte(')')
	case v.Sub != nil:
		b.WriteByte('(')
		v.Sub.write(b)
		b.WriteByte(')')
	}
}
