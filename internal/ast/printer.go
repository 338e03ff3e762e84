package ast

import (
	"strconv"
	"strings"
)

// Print renders expr as normalized PHP source. Two expressions that read the
// same value print the same, which makes the result usable as a map key.
func Print(expr Expr) string {
	var sb strings.Builder
	printExpr(&sb, expr)
	return sb.String()
}

func printExpr(sb *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case nil:
		return
	case *Variable:
		if e.NameExpr != nil {
			sb.WriteString("${")
			printExpr(sb, e.NameExpr)
			sb.WriteString("}")
			return
		}
		sb.WriteString("$")
		sb.WriteString(e.Name)
	case *PropertyFetch:
		printExpr(sb, e.Var)
		sb.WriteString("->")
		printMemberName(sb, e.Name, e.NameExpr)
	case *NullsafePropertyFetch:
		printExpr(sb, e.Var)
		sb.WriteString("?->")
		printMemberName(sb, e.Name, e.NameExpr)
	case *StaticPropertyFetch:
		printExpr(sb, e.Class)
		sb.WriteString("::$")
		sb.WriteString(e.Name)
	case *MethodCall:
		printExpr(sb, e.Var)
		sb.WriteString("->")
		printMemberName(sb, e.Name, e.NameExpr)
		printArgs(sb, e.Args)
	case *NullsafeMethodCall:
		printExpr(sb, e.Var)
		sb.WriteString("?->")
		printMemberName(sb, e.Name, e.NameExpr)
		printArgs(sb, e.Args)
	case *StaticCall:
		printExpr(sb, e.Class)
		sb.WriteString("::")
		printMemberName(sb, e.Name, e.NameExpr)
		printArgs(sb, e.Args)
	case *FuncCall:
		printExpr(sb, e.Name)
		printArgs(sb, e.Args)
	case *Name:
		switch {
		case e.IsSpecial():
			sb.WriteString(e.Resolved)
		case e.Resolved != "":
			sb.WriteString("\\")
			sb.WriteString(e.Resolved)
		case e.FullyQualified:
			sb.WriteString("\\")
			sb.WriteString(e.Value)
		default:
			sb.WriteString(e.Value)
		}
	case *New:
		sb.WriteString("new ")
		if e.Anonymous != nil {
			sb.WriteString("class@")
			sb.WriteString(e.Anonymous.File)
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(e.Anonymous.StartLine))
		} else {
			printExpr(sb, e.Class)
		}
		printArgs(sb, e.Args)
	case *ClassConstFetch:
		printExpr(sb, e.Class)
		sb.WriteString("::")
		sb.WriteString(e.Name)
	case *ConstFetch:
		printExpr(sb, e.Name)
	case *String:
		if e.Interpolated {
			sb.WriteString(e.Value)
			return
		}
		sb.WriteString("'")
		sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(e.Value, "\\", "\\\\"), "'", "\\'"))
		sb.WriteString("'")
	case *Int:
		sb.WriteString(strconv.FormatInt(e.Value, 10))
	case *Float:
		sb.WriteString(strconv.FormatFloat(e.Value, 'g', -1, 64))
	case *Array:
		sb.WriteString("[")
		for i, item := range e.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			if item.Unpack {
				sb.WriteString("...")
			}
			if item.Key != nil {
				printExpr(sb, item.Key)
				sb.WriteString(" => ")
			}
			if item.ByRef {
				sb.WriteString("&")
			}
			printExpr(sb, item.Value)
		}
		sb.WriteString("]")
	case *ArrayDimFetch:
		printExpr(sb, e.Var)
		sb.WriteString("[")
		printExpr(sb, e.Dim)
		sb.WriteString("]")
	case *BinaryOp:
		printOperand(sb, e.Left)
		sb.WriteString(" ")
		sb.WriteString(e.Op)
		sb.WriteString(" ")
		printOperand(sb, e.Right)
	case *Instanceof:
		printOperand(sb, e.Expr)
		sb.WriteString(" instanceof ")
		printExpr(sb, e.Class)
	case *BooleanNot:
		sb.WriteString("!")
		printOperand(sb, e.Expr)
	case *UnaryOp:
		sb.WriteString(e.Op)
		printOperand(sb, e.Expr)
	case *Isset:
		sb.WriteString("isset(")
		for i, v := range e.Vars {
			if i > 0 {
				sb.WriteString(", ")
			}
			printExpr(sb, v)
		}
		sb.WriteString(")")
	case *Empty:
		sb.WriteString("empty(")
		printExpr(sb, e.Expr)
		sb.WriteString(")")
	case *Assign:
		printExpr(sb, e.Var)
		op := e.Op
		if op == "" {
			op = "="
		}
		sb.WriteString(" ")
		sb.WriteString(op)
		sb.WriteString(" ")
		if e.ByRef {
			sb.WriteString("&")
		}
		printExpr(sb, e.Expr)
	case *Ternary:
		printOperand(sb, e.Cond)
		if e.If == nil {
			sb.WriteString(" ?: ")
		} else {
			sb.WriteString(" ? ")
			printOperand(sb, e.If)
			sb.WriteString(" : ")
		}
		printOperand(sb, e.Else)
	case *Cast:
		sb.WriteString("(")
		sb.WriteString(e.Type)
		sb.WriteString(") ")
		printOperand(sb, e.Expr)
	case *Clone:
		sb.WriteString("clone ")
		printOperand(sb, e.Expr)
	case *Closure:
		printClosure(sb, e)
	case *Unknown:
		sb.WriteString(e.Text)
	}
}

func printMemberName(sb *strings.Builder, name string, nameExpr Expr) {
	if nameExpr != nil {
		sb.WriteString("{")
		printExpr(sb, nameExpr)
		sb.WriteString("}")
		return
	}
	sb.WriteString(name)
}

func printArgs(sb *strings.Builder, args []Arg) {
	sb.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if arg.Name != "" {
			sb.WriteString(arg.Name)
			sb.WriteString(": ")
		}
		if arg.Unpack {
			sb.WriteString("...")
		}
		if arg.ByRef {
			sb.WriteString("&")
		}
		printExpr(sb, arg.Value)
	}
	sb.WriteString(")")
}

// printOperand wraps compound operands so precedence survives printing
func printOperand(sb *strings.Builder, expr Expr) {
	switch expr.(type) {
	case *BinaryOp, *Ternary, *Assign, *Instanceof:
		sb.WriteString("(")
		printExpr(sb, expr)
		sb.WriteString(")")
	default:
		printExpr(sb, expr)
	}
}

func printClosure(sb *strings.Builder, c *Closure) {
	if c.Static {
		sb.WriteString("static ")
	}
	if c.Arrow {
		sb.WriteString("fn")
	} else {
		sb.WriteString("function")
	}
	sb.WriteString(" (")
	for i, p := range c.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Type != "" {
			sb.WriteString(p.Type)
			sb.WriteString(" ")
		}
		if p.ByRef {
			sb.WriteString("&")
		}
		if p.Variadic {
			sb.WriteString("...")
		}
		sb.WriteString("$")
		sb.WriteString(p.Name)
		if p.HasDefault {
			sb.WriteString(" = ")
			printExpr(sb, p.Default)
		}
	}
	sb.WriteString(")")
	if len(c.Uses) > 0 {
		sb.WriteString(" use (")
		for i, u := range c.Uses {
			if i > 0 {
				sb.WriteString(", ")
			}
			if u.ByRef {
				sb.WriteString("&")
			}
			sb.WriteString("$")
			sb.WriteString(u.Name)
		}
		sb.WriteString(")")
	}
	if c.ReturnType != "" {
		sb.WriteString(": ")
		sb.WriteString(c.ReturnType)
	}
	if c.Arrow {
		sb.WriteString(" => ")
		printExpr(sb, c.Expr)
		return
	}
	sb.WriteString(" {@")
	sb.WriteString(strconv.Itoa(c.StartLine))
	sb.WriteString("}")
}
