package expr

import (
	"reflect"
	"strconv"
	"strings"
)

// Node is an expression tree node. The set of implementations is closed:
// Param, Member, Const, Captured, Binary, Unary, Call, Assign, Convert and
// Lambda.
type Node interface {
	node()
}

type (
	// Param references a lambda parameter, i.e. a row of the statement.
	Param struct {
		Name string
	}

	// Member accesses the named member of X. A chain of members rooted at a
	// Param addresses a column (through owned objects); rooted at a Captured
	// or Const it is evaluated at compile time.
	Member struct {
		X    Node
		Name string
	}

	// Const is a literal value.
	Const struct {
		Value any
	}

	// Captured is a variable closed over by the expression. Ref is the
	// address of the variable; it is read when the expression is compiled,
	// and its value is inlined as a literal.
	Captured struct {
		Name string
		Ref  any
	}

	// Binary is a binary operation.
	Binary struct {
		Op   Op
		X, Y Node
	}

	// Unary is a unary operation.
	Unary struct {
		Op UnaryOp
		X  Node
	}

	// Call is a method call. Contains is the only supported method: either
	// Recv is the collection and Args holds the item, or Recv is nil and Args
	// holds the collection and the item.
	Call struct {
		Method string
		Recv   Node
		Args   []Node
	}

	// Assign is the pseudo-expression `Target = Value` of a SET clause.
	// Each side is compiled with its own copy of the context, so each may be
	// a Lambda binding its own parameters.
	Assign struct {
		Target Node
		Value  Node
	}

	// Convert is a type conversion. It is transparent to SQL; constant
	// operands are converted at compile time.
	Convert struct {
		X    Node
		Type reflect.Type
	}

	// Lambda binds parameter names, positionally mapped to aliases, for Body.
	Lambda struct {
		Params []string
		Body   Node
	}
)

func (*Param) node()    {}
func (*Member) node()   {}
func (*Const) node()    {}
func (*Captured) node() {}
func (*Binary) node()   {}
func (*Unary) node()    {}
func (*Call) node()     {}
func (*Assign) node()   {}
func (*Convert) node()  {}
func (*Lambda) node()   {}

// Op is a binary operator.
type Op int

// Binary operators.
const (
	OpEQ Op = iota + 1
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
)

var ops = [...]string{
	OpEQ:  "=",
	OpNE:  "<>",
	OpLT:  "<",
	OpLE:  "<=",
	OpGT:  ">",
	OpGE:  ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpAnd: "AND",
	OpOr:  "OR",
}

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	if o > 0 && int(o) < len(ops) {
		return ops[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

func (o Op) comparison() bool { return o >= OpEQ && o <= OpGE }
func (o Op) arithmetic() bool { return o >= OpAdd && o <= OpMod }
func (o Op) logical() bool    { return o == OpAnd || o == OpOr }

// precedence of arithmetic operators; higher binds tighter.
func (o Op) precedence() int {
	switch o {
	case OpMul, OpDiv, OpMod:
		return 2
	case OpAdd, OpSub:
		return 1
	}
	return 0
}

// UnaryOp is a unary operator.
type UnaryOp int

// Unary operators.
const (
	OpNot UnaryOp = iota + 1
	OpNeg
)

// kind returns the printable node kind used in error messages.
func kind(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return strings.ToLower(strings.TrimPrefix(reflect.TypeOf(n).String(), "*expr."))
}
