package expr

import (
	"reflect"
	"strings"
)

// P returns a reference to the lambda parameter name.
func P(name string) *Param { return &Param{Name: name} }

// F returns the member chain `param.path`, where path may be dotted to reach
// into owned objects: F("x", "Address.City").
func F(param, path string) Node {
	var n Node = P(param)
	for _, name := range strings.Split(path, ".") {
		n = &Member{X: n, Name: name}
	}
	return n
}

// Field accesses path on p, like F.
func (p *Param) Field(path string) Node { return F(p.Name, path) }

// C returns a constant.
func C(v any) *Const { return &Const{Value: v} }

// V captures the variable at ref, read when the expression is compiled.
func V(name string, ref any) *Captured { return &Captured{Name: name, Ref: ref} }

// Fn binds params for body.
func Fn(body Node, params ...string) *Lambda { return &Lambda{Params: params, Body: body} }

// Get accesses the member name of x.
func Get(x Node, name string) *Member { return &Member{X: x, Name: name} }

// Comparison builders. A nil constant on either side of EQ or NE compiles to
// IS NULL / IS NOT NULL.
func EQ(x, y Node) *Binary { return &Binary{Op: OpEQ, X: x, Y: y} }
func NE(x, y Node) *Binary { return &Binary{Op: OpNE, X: x, Y: y} }
func LT(x, y Node) *Binary { return &Binary{Op: OpLT, X: x, Y: y} }
func LE(x, y Node) *Binary { return &Binary{Op: OpLE, X: x, Y: y} }
func GT(x, y Node) *Binary { return &Binary{Op: OpGT, X: x, Y: y} }
func GE(x, y Node) *Binary { return &Binary{Op: OpGE, X: x, Y: y} }

// Arithmetic builders.
func Add(x, y Node) *Binary { return &Binary{Op: OpAdd, X: x, Y: y} }
func Sub(x, y Node) *Binary { return &Binary{Op: OpSub, X: x, Y: y} }
func Mul(x, y Node) *Binary { return &Binary{Op: OpMul, X: x, Y: y} }
func Div(x, y Node) *Binary { return &Binary{Op: OpDiv, X: x, Y: y} }
func Mod(x, y Node) *Binary { return &Binary{Op: OpMod, X: x, Y: y} }

// And folds xs with AND, left to right. It panics without operands.
func And(xs ...Node) Node { return fold(OpAnd, xs) }

// Or folds xs with OR, left to right. It panics without operands.
func Or(xs ...Node) Node { return fold(OpOr, xs) }

func fold(op Op, xs []Node) Node {
	if len(xs) == 0 {
		panic("expr: " + op.String() + " without operands")
	}
	n := xs[0]
	for _, x := range xs[1:] {
		n = &Binary{Op: op, X: n, Y: x}
	}
	return n
}

// Not negates a predicate.
func Not(x Node) *Unary { return &Unary{Op: OpNot, X: x} }

// Neg negates a number.
func Neg(x Node) *Unary { return &Unary{Op: OpNeg, X: x} }

// In returns `item IN (collection)`; coll must evaluate to a slice or array
// at compile time.
func In(item, coll Node) *Call { return &Call{Method: "Contains", Recv: coll, Args: []Node{item}} }

// Set returns the assignment `target = value`.
func Set(target, value Node) *Assign { return &Assign{Target: target, Value: value} }

// As converts x to the type of the sample value.
func As(x Node, sample any) *Convert { return &Convert{X: x, Type: reflect.TypeOf(sample)} }
