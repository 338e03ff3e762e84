// Package ast holds the expression tree the analyser works on.
//
// Nodes are produced by the php package from tree-sitter syntax trees and are
// never mutated after conversion.
package ast

// Expr is any PHP expression
type Expr interface {
	Line() int
	exprNode()
}

// Position records where a node starts in its file
type Position struct {
	StartLine int
}

func (p Position) Line() int { return p.StartLine }

func (Position) exprNode() {}

// Arg is a single call argument
type Arg struct {
	Value  Expr
	Unpack bool
	ByRef  bool
	Name   string
}

// Variable is $name. Dynamic variables ($$x) carry NameExpr instead of Name.
type Variable struct {
	Position
	Name     string
	NameExpr Expr
}

// PropertyFetch is $var->name
type PropertyFetch struct {
	Position
	Var      Expr
	Name     string
	NameExpr Expr
}

// NullsafePropertyFetch is $var?->name
type NullsafePropertyFetch struct {
	Position
	Var      Expr
	Name     string
	NameExpr Expr
}

// StaticPropertyFetch is Class::$name
type StaticPropertyFetch struct {
	Position
	Class Expr
	Name  string
}

// MethodCall is $var->name(args)
type MethodCall struct {
	Position
	Var      Expr
	Name     string
	NameExpr Expr
	Args     []Arg
}

// NullsafeMethodCall is $var?->name(args)
type NullsafeMethodCall struct {
	Position
	Var      Expr
	Name     string
	NameExpr Expr
	Args     []Arg
}

// StaticCall is Class::name(args)
type StaticCall struct {
	Position
	Class    Expr
	Name     string
	NameExpr Expr
	Args     []Arg
}

// FuncCall is name(args) or $callable(args)
type FuncCall struct {
	Position
	Name Expr
	Args []Arg
}

// Name is a class, function or constant reference.
// Value is the name as written without a leading backslash. Resolved holds the
// fully qualified class name for class references and is empty for function and
// constant names, which PHP resolves at runtime with a global fallback.
type Name struct {
	Position
	Value          string
	Resolved       string
	FullyQualified bool
	Namespace      string
}

// IsSpecial reports whether the name is self, static or parent
func (n *Name) IsSpecial() bool {
	switch n.Resolved {
	case "self", "static", "parent":
		return true
	}
	return false
}

// AnonymousClass points at the declaration of a `new class {}` expression
type AnonymousClass struct {
	File      string
	StartLine int
}

// New is new Class(args) or new class(args) {}
type New struct {
	Position
	Class     Expr
	Anonymous *AnonymousClass
	Args      []Arg
}

// ClassConstFetch is Class::NAME, including Class::class
type ClassConstFetch struct {
	Position
	Class Expr
	Name  string
}

// ConstFetch is a bare constant such as PHP_EOL, true or null
type ConstFetch struct {
	Position
	Name *Name
}

// String is a string literal. Interpolated strings keep their raw source.
type String struct {
	Position
	Value        string
	Interpolated bool
}

// Int is an integer literal
type Int struct {
	Position
	Value int64
}

// Float is a float literal
type Float struct {
	Position
	Value float64
}

// ArrayItem is one element of an array literal
type ArrayItem struct {
	Key    Expr
	Value  Expr
	ByRef  bool
	Unpack bool
}

// Array is an array literal
type Array struct {
	Position
	Items []ArrayItem
}

// ArrayDimFetch is $var[dim]. Dim is nil for $var[].
type ArrayDimFetch struct {
	Position
	Var Expr
	Dim Expr
}

// BinaryOp covers arithmetic, comparison, logical and coalesce operators.
// The keyword forms and, or are normalized to && and ||.
type BinaryOp struct {
	Position
	Op    string
	Left  Expr
	Right Expr
}

// Instanceof is $expr instanceof Class
type Instanceof struct {
	Position
	Expr  Expr
	Class Expr
}

// BooleanNot is !$expr
type BooleanNot struct {
	Position
	Expr Expr
}

// UnaryOp is -$expr, +$expr or ~$expr
type UnaryOp struct {
	Position
	Op   string
	Expr Expr
}

// Isset is isset($a, $b)
type Isset struct {
	Position
	Vars []Expr
}

// Empty is empty($a)
type Empty struct {
	Position
	Expr Expr
}

// Assign is $var = $expr, or a compound assignment when Op is set (e.g. "+=")
type Assign struct {
	Position
	Var   Expr
	Expr  Expr
	Op    string
	ByRef bool
}

// Ternary is $cond ? $if : $else. If is nil for the short form ?:
type Ternary struct {
	Position
	Cond Expr
	If   Expr
	Else Expr
}

// Cast is (type) $expr with Type one of int, float, string, bool, array, object, unset
type Cast struct {
	Position
	Type string
	Expr Expr
}

// Clone is clone $expr
type Clone struct {
	Position
	Expr Expr
}

// ClosureParam is a parameter of a closure or arrow function
type ClosureParam struct {
	Name       string
	Type       string
	ByRef      bool
	Variadic   bool
	HasDefault bool
	Default    Expr
}

// ClosureUse is one variable of a closure's use clause
type ClosureUse struct {
	Name  string
	ByRef bool
}

// Closure is function () use () {} or fn () => expr
type Closure struct {
	Position
	Params     []ClosureParam
	Uses       []ClosureUse
	ReturnType string
	Static     bool
	Arrow      bool
	Expr       Expr
}

// Unknown stands for any syntax the analyser does not model
type Unknown struct {
	Position
	Kind string
	Text string
}
