package expr

import (
	"errors"
	"reflect"
	"strings"

	"github.com/syssam/bulkwrite"
)

const null = "NULL"

// Compile translates an expression tree into a SQL fragment. Captured values
// and constants are inlined as literals, not bound as parameters: expressions
// are written by developers, never built from end-user input.
//
// Compile fails with a *bulkwrite.CompilerError on unsupported node shapes,
// unsupported method calls, Contains without a collection, ambiguous NULL
// comparisons, parameters beyond the alias table and values without a
// literal form. With an entity in ctx, a member path that maps to no column
// is a *bulkwrite.ConfigurationError. It never returns partial SQL.
func Compile(n Node, ctx Context) (Fragment, error) {
	c := &compiler{}
	s, err := c.compile(n, ctx)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: s, Constants: c.consts}, nil
}

type compiler struct {
	consts []any
}

func (c *compiler) compile(n Node, ctx Context) (string, error) {
	switch n := n.(type) {
	case nil:
		return "", bulkwrite.NewCompilerError("", "nil expression")
	case *Lambda:
		return c.compile(n.Body, ctx.WithParams(n.Params...))
	case *Param:
		return "", bulkwrite.NewCompilerError("param", "row parameter %q cannot be used as a value", n.Name)
	case *Member:
		return c.member(n, ctx)
	case *Const:
		return c.literal(n.Value, ctx)
	case *Captured:
		v, err := capturedValue(n)
		if err != nil {
			return "", err
		}
		return c.literal(v, ctx)
	case *Convert:
		return c.convert(n, ctx)
	case *Binary:
		return c.binary(n, ctx)
	case *Unary:
		return c.unary(n, ctx)
	case *Call:
		return c.call(n, ctx)
	case *Assign:
		return c.assign(n, ctx)
	default:
		return "", bulkwrite.NewCompilerError(kind(n), "unsupported expression node %T", n)
	}
}

func (c *compiler) literal(v any, ctx Context) (string, error) {
	s, err := Literal(v, ctx.formatter())
	if err != nil {
		return "", err
	}
	c.consts = append(c.consts, v)
	return s, nil
}

// member compiles a member chain. Chains rooted at a parameter address a
// column; chains rooted at a value are folded.
func (c *compiler) member(n *Member, ctx Context) (string, error) {
	path, root := memberPath(n)
	switch root := root.(type) {
	case *Param:
		return column(root.Name, path, ctx)
	case *Captured, *Const:
		v, err := eval(n)
		if err != nil {
			return "", err
		}
		return c.literal(v, ctx)
	default:
		return "", bulkwrite.NewCompilerError("member", "member %s of %s is not supported", strings.Join(path, "."), kind(root))
	}
}

// memberPath unwinds a member chain, skipping conversions, and returns the
// member names from the root outwards together with the root node.
func memberPath(n Node) ([]string, Node) {
	var path []string
loop:
	for {
		switch m := n.(type) {
		case *Member:
			path = append(path, m.Name)
			n = m.X
		case *Convert:
			n = m.X
		default:
			break loop
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, n
}

func column(param string, path []string, ctx Context) (string, error) {
	idx := -1
	for i, p := range ctx.Params {
		if p == param {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", bulkwrite.NewCompilerError("param", "parameter %q is not in scope", param)
	}
	name, err := columnName(path, ctx)
	if err != nil {
		return "", err
	}
	col := ctx.formatter().Quote(name)
	if ctx.NoAlias {
		return col, nil
	}
	aliases := ctx.aliases()
	if idx >= len(aliases) {
		return "", bulkwrite.NewCompilerError("param", "parameter %q at position %d exceeds the %d available aliases", param, idx, len(aliases))
	}
	return aliases[idx] + "." + col, nil
}

// columnName maps a member path to its column. Without an entity the path
// segments are joined with "_".
func columnName(path []string, ctx Context) (string, error) {
	if ctx.Entity == nil {
		return strings.Join(path, "_"), nil
	}
	e, member := ctx.Entity, strings.Join(path, ".")
	if f, ok := e.Field(member); ok && f.Column != "" {
		return f.Column, nil
	}
	if e.Owned(member) {
		return "", bulkwrite.NewCompilerError("member", "%s.%s is an owned object, not a column; address one of its members", e.Name(), member)
	}
	if _, ok := e.Field(member); ok || e.Ignored(member) {
		return "", bulkwrite.NewMemberConfigurationError(e.Name(), member, "member is not stored")
	}
	return "", bulkwrite.NewMemberConfigurationError(e.Name(), member, "no column mapping")
}

func (c *compiler) convert(n *Convert, ctx Context) (string, error) {
	v, err := eval(n)
	switch {
	case err == nil:
		return c.literal(v, ctx)
	case errors.Is(err, errNotConstant):
		return c.compile(n.X, ctx)
	default:
		return "", err
	}
}

func (c *compiler) binary(n *Binary, ctx Context) (string, error) {
	l, err := c.compile(n.X, ctx)
	if err != nil {
		return "", err
	}
	r, err := c.compile(n.Y, ctx)
	if err != nil {
		return "", err
	}
	switch {
	case n.Op == OpEQ || n.Op == OpNE:
		lnull, rnull := l == null, r == null
		if lnull && rnull {
			return "", bulkwrite.NewCompilerError("binary", "comparison NULL %s NULL is ambiguous", n.Op)
		}
		if lnull {
			l, rnull = r, true
		}
		if rnull {
			if n.Op == OpEQ {
				return l + " IS NULL", nil
			}
			return l + " IS NOT NULL", nil
		}
		return l + " " + n.Op.String() + " " + r, nil
	case n.Op.comparison():
		return l + " " + n.Op.String() + " " + r, nil
	case n.Op.logical():
		return "(" + l + ") " + n.Op.String() + " (" + r + ")", nil
	case n.Op.arithmetic():
		if needParens(n.Op, n.X, false) {
			l = "(" + l + ")"
		}
		if needParens(n.Op, n.Y, true) {
			r = "(" + r + ")"
		}
		return l + " " + n.Op.String() + " " + r, nil
	default:
		return "", bulkwrite.NewCompilerError("binary", "unsupported operator %s", n.Op)
	}
}

// needParens reports whether the operand of an arithmetic operator must be
// parenthesized to keep the tree's grouping.
func needParens(parent Op, operand Node, right bool) bool {
	b, ok := operand.(*Binary)
	if !ok {
		return false
	}
	if !b.Op.arithmetic() {
		return true
	}
	if b.Op.precedence() < parent.precedence() {
		return true
	}
	return right && b.Op.precedence() == parent.precedence() && (parent == OpSub || parent == OpDiv || parent == OpMod)
}

func (c *compiler) unary(n *Unary, ctx Context) (string, error) {
	x, err := c.compile(n.X, ctx)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case OpNot:
		return "NOT (" + x + ")", nil
	case OpNeg:
		if _, ok := n.X.(*Binary); ok {
			return "-(" + x + ")", nil
		}
		return "-" + x, nil
	default:
		return "", bulkwrite.NewCompilerError("unary", "unsupported operator %d", n.Op)
	}
}

func (c *compiler) call(n *Call, ctx Context) (string, error) {
	if n.Method != "Contains" {
		return "", bulkwrite.NewCompilerError("call", "method %s is not supported", n.Method)
	}
	var coll, item Node
	switch {
	case n.Recv != nil && len(n.Args) == 1:
		coll, item = n.Recv, n.Args[0]
	case n.Recv == nil && len(n.Args) == 2:
		coll, item = n.Args[0], n.Args[1]
	default:
		return "", bulkwrite.NewCompilerError("call", "Contains has no collection operand")
	}
	v, err := eval(coll)
	if errors.Is(err, errNotConstant) {
		return "", bulkwrite.NewCompilerError("call", "Contains has no collection operand: %s is not a captured collection", kind(coll))
	}
	if err != nil {
		return "", err
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", bulkwrite.NewCompilerError("call", "Contains has no collection operand: got %T", v)
	}
	left, err := c.compile(item, ctx)
	if err != nil {
		return "", err
	}
	if rv.Len() == 0 {
		return "1 = 0", nil
	}
	elems := make([]string, rv.Len())
	for i := range elems {
		if elems[i], err = c.literal(rv.Index(i).Interface(), ctx); err != nil {
			return "", err
		}
	}
	return left + " IN (" + strings.Join(elems, ", ") + ")", nil
}

func (c *compiler) assign(n *Assign, ctx Context) (string, error) {
	if path, root := memberPath(unwrapLambda(n.Target)); len(path) == 0 || !isParam(root) {
		return "", bulkwrite.NewCompilerError("assign", "assignment target must be a member of a row parameter, got %s", kind(n.Target))
	}
	tctx := ctx
	if ctx.BareTarget {
		tctx.NoAlias = true
	}
	l, err := c.compile(n.Target, tctx)
	if err != nil {
		return "", err
	}
	r, err := c.compile(n.Value, ctx)
	if err != nil {
		return "", err
	}
	return l + " = " + r, nil
}

func unwrapLambda(n Node) Node {
	if l, ok := n.(*Lambda); ok {
		return l.Body
	}
	return n
}

func isParam(n Node) bool {
	_, ok := n.(*Param)
	return ok
}

var errNotConstant = errors.New("expr: not a constant expression")

// eval evaluates a value-rooted expression: constants, captured variables,
// their members and conversions of them.
func eval(n Node) (any, error) {
	switch n := n.(type) {
	case *Const:
		return n.Value, nil
	case *Captured:
		return capturedValue(n)
	case *Convert:
		v, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		return convertValue(v, n.Type)
	case *Member:
		v, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		return memberValue(v, n.Name)
	}
	return nil, errNotConstant
}

func capturedValue(n *Captured) (any, error) {
	if n.Ref == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(n.Ref)
	switch {
	case rv.Kind() == reflect.Pointer:
		if rv.IsNil() {
			return nil, bulkwrite.NewCompilerError("captured", "variable %s has a nil address", n.Name)
		}
		return rv.Elem().Interface(), nil
	case rv.Kind() == reflect.Func && rv.Type().NumIn() == 0 && rv.Type().NumOut() == 1:
		return rv.Call(nil)[0].Interface(), nil
	}
	return n.Ref, nil
}

func memberValue(v any, name string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, bulkwrite.NewCompilerError("member", "member %s of a nil value", name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	if m := reflect.ValueOf(v).MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
		return m.Call(nil)[0].Interface(), nil
	}
	return nil, bulkwrite.NewCompilerError("member", "%T has no member %s", v, name)
}

func convertValue(v any, t reflect.Type) (any, error) {
	if v == nil || t == nil {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().ConvertibleTo(t) {
		return nil, bulkwrite.NewCompilerError("convert", "cannot convert %T to %s", v, t)
	}
	return rv.Convert(t).Interface(), nil
}
