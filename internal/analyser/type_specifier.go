package analyser

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/observability"
	"github.com/shopware/php-analyser/internal/types"
)

// SpecifiedType is a type an expression is known to have, or known not to have
type SpecifiedType struct {
	Expr ast.Expr
	Type types.PHPType
}

// SpecifiedTypes is what a condition tells about its operands
type SpecifiedTypes struct {
	SureTypes    []SpecifiedType
	SureNotTypes []SpecifiedType
}

// TypeSpecifier narrows scopes by conditions
type TypeSpecifier struct {
	broker *broker.Broker

	functionExtensions     []FunctionTypeSpecifyingExtension
	methodExtensions       []MethodTypeSpecifyingExtension
	staticMethodExtensions []StaticMethodTypeSpecifyingExtension
}

func NewTypeSpecifier(
	b *broker.Broker,
	functionExtensions []FunctionTypeSpecifyingExtension,
	methodExtensions []MethodTypeSpecifyingExtension,
	staticMethodExtensions []StaticMethodTypeSpecifyingExtension,
) *TypeSpecifier {
	ts := &TypeSpecifier{
		broker:                 b,
		functionExtensions:     functionExtensions,
		methodExtensions:       methodExtensions,
		staticMethodExtensions: staticMethodExtensions,
	}

	var aware []any
	for _, extension := range functionExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range methodExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range staticMethodExtensions {
		aware = append(aware, extension)
	}
	for _, candidate := range aware {
		if extension, ok := candidate.(TypeSpecifierAwareExtension); ok {
			extension.SetTypeSpecifier(ts)
		}
	}
	return ts
}

// SpecifyTypesInCondition returns the scope in which expr is truthy, or falsey when
// negated is set. Conditions that tell nothing return scope itself.
func (ts *TypeSpecifier) SpecifyTypesInCondition(scope *Scope, expr ast.Expr, negated bool) *Scope {
	timer := prometheus.NewTimer(observability.NarrowingDuration)
	defer timer.ObserveDuration()

	return ts.specify(scope, expr, negated)
}

func (ts *TypeSpecifier) specify(scope *Scope, expr ast.Expr, negated bool) *Scope {
	switch e := expr.(type) {
	case *ast.Instanceof:
		className, ok := instanceofClass(scope, e.Class)
		if !ok {
			return scope
		}
		return ts.narrow(scope, e.Expr, types.NewObjectType(className), negated)

	case *ast.BooleanNot:
		return ts.specify(scope, e.Expr, !negated)

	case *ast.BinaryOp:
		return ts.specifyBinaryOp(scope, e, negated)

	case *ast.FuncCall:
		return ts.specifyFunctionCall(scope, e, negated)

	case *ast.MethodCall:
		return ts.specifyMethodCall(scope, e, negated)

	case *ast.StaticCall:
		return ts.specifyStaticCall(scope, e, negated)

	case *ast.Isset:
		if negated {
			return scope
		}
		for _, v := range e.Vars {
			scope = ts.removeNull(scope, v)
		}
		return scope

	case *ast.Empty:
		if negated {
			scope = ts.removeNull(scope, e.Expr)
		}
		return ts.specifyTruthiness(scope, e.Expr, !negated)

	case *ast.Assign:
		if e.Op != "" {
			return scope
		}
		return ts.specifyTruthiness(scope, e.Var, negated)

	case *ast.Variable, *ast.PropertyFetch, *ast.NullsafePropertyFetch, *ast.StaticPropertyFetch, *ast.ArrayDimFetch:
		return ts.specifyTruthiness(scope, expr, negated)
	}

	return scope
}

func (ts *TypeSpecifier) specifyBinaryOp(scope *Scope, op *ast.BinaryOp, negated bool) *Scope {
	switch op.Op {
	case "&&":
		if !negated {
			return ts.specify(ts.specify(scope, op.Left, false), op.Right, false)
		}
		leftFalse := ts.specify(scope, op.Left, true)
		rightFalse := ts.specify(ts.specify(scope, op.Left, false), op.Right, true)
		return leftFalse.MergeWith(rightFalse)

	case "||":
		if negated {
			return ts.specify(ts.specify(scope, op.Left, true), op.Right, true)
		}
		leftTrue := ts.specify(scope, op.Left, false)
		rightTrue := ts.specify(ts.specify(scope, op.Left, true), op.Right, false)
		return leftTrue.MergeWith(rightTrue)

	case "===", "!==":
		return ts.specifyIdentical(scope, op, negated != (op.Op == "!=="))

	case "==", "!=":
		return ts.specifyEqual(scope, op, negated != (op.Op == "!="))
	}
	return scope
}

// comparedOperands splits a comparison into the compared expression and the
// constant it is compared with
func comparedOperands(op *ast.BinaryOp) (ast.Expr, ast.Expr, bool) {
	if isLiteral(op.Right) {
		return op.Left, op.Right, true
	}
	if isLiteral(op.Left) {
		return op.Right, op.Left, true
	}
	return nil, nil, false
}

func isLiteral(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.ConstFetch:
		return constantKeyword(e) != ""
	case *ast.Int, *ast.Float:
		return true
	case *ast.String:
		return !e.Interpolated
	}
	return false
}

// constantKeyword is true, false or null for those constants and empty otherwise
func constantKeyword(constant *ast.ConstFetch) string {
	if constant.Name == nil {
		return ""
	}
	switch keyword := strings.ToLower(constant.Name.Value); keyword {
	case "true", "false", "null":
		return keyword
	}
	return ""
}

func (ts *TypeSpecifier) specifyIdentical(scope *Scope, op *ast.BinaryOp, negated bool) *Scope {
	expr, literal, ok := comparedOperands(op)
	if !ok {
		if negated {
			return scope
		}
		// identical operands share a type, each side narrows the other
		leftType, rightType := scope.GetType(op.Left), scope.GetType(op.Right)
		scope = ts.narrow(scope, op.Left, rightType, false)
		return ts.narrow(scope, op.Right, leftType, false)
	}

	if constant, ok := literal.(*ast.ConstFetch); ok {
		keyword := constantKeyword(constant)
		if keyword != "null" && !isNarrowable(expr) {
			// is_int($a) === true is is_int($a)
			return ts.specify(scope, expr, negated != (keyword == "false"))
		}
		return ts.narrow(scope, expr, scope.GetType(literal), negated)
	}

	if negated {
		return scope
	}
	return ts.narrow(scope, expr, scope.GetType(literal), false)
}

func (ts *TypeSpecifier) specifyEqual(scope *Scope, op *ast.BinaryOp, negated bool) *Scope {
	expr, literal, ok := comparedOperands(op)
	if !ok {
		return scope
	}
	constant, ok := literal.(*ast.ConstFetch)
	if !ok {
		return scope
	}

	switch constantKeyword(constant) {
	case "null":
		if negated {
			return ts.removeNull(scope, expr)
		}
		return scope
	case "true":
		return ts.specify(scope, expr, negated)
	case "false":
		return ts.specify(scope, expr, !negated)
	}
	return scope
}

func (ts *TypeSpecifier) specifyFunctionCall(scope *Scope, call *ast.FuncCall, negated bool) *Scope {
	name, ok := call.Name.(*ast.Name)
	if !ok || ts.broker == nil {
		return scope
	}
	function, err := ts.broker.GetFunction(functionReference(name), scope)
	if err != nil {
		return scope
	}

	if strings.EqualFold(function.Name(), "is_a") && len(call.Args) >= 2 {
		className, ok := classNameArgument(scope, call.Args[1].Value)
		if !ok {
			return scope
		}
		return ts.narrow(scope, call.Args[0].Value, types.NewObjectType(className), negated)
	}

	for _, extension := range ts.functionExtensions {
		if extension.IsFunctionSupported(function, call, negated) {
			return ts.apply(scope, extension.SpecifyTypes(function, call, scope, negated))
		}
	}
	return scope
}

func (ts *TypeSpecifier) specifyMethodCall(scope *Scope, call *ast.MethodCall, negated bool) *Scope {
	if call.NameExpr != nil || len(ts.methodExtensions) == 0 {
		return scope
	}
	classes, ok := scope.classesOf(scope.GetType(call.Var))
	if !ok {
		return scope
	}

	for _, class := range classes {
		method, ok := class.GetMethod(call.Name)
		if !ok {
			continue
		}
		for _, extension := range ts.methodExtensions {
			if !class.Is(extension.GetClass()) || !extension.IsMethodSupported(method, call, negated) {
				continue
			}
			return ts.apply(scope, extension.SpecifyTypes(method, call, scope, negated))
		}
	}
	return scope
}

func (ts *TypeSpecifier) specifyStaticCall(scope *Scope, call *ast.StaticCall, negated bool) *Scope {
	if call.NameExpr != nil || len(ts.staticMethodExtensions) == 0 {
		return scope
	}
	className, ok := scope.classReferenceName(call.Class)
	if !ok {
		return scope
	}
	class, ok := scope.getClass(className)
	if !ok {
		return scope
	}
	method, ok := class.GetMethod(call.Name)
	if !ok {
		return scope
	}

	for _, extension := range ts.staticMethodExtensions {
		if !class.Is(extension.GetClass()) || !extension.IsStaticMethodSupported(method, call, negated) {
			continue
		}
		return ts.apply(scope, extension.SpecifyTypes(method, call, scope, negated))
	}
	return scope
}

// apply narrows scope by what an extension found out
func (ts *TypeSpecifier) apply(scope *Scope, specified SpecifiedTypes) *Scope {
	for _, sure := range specified.SureTypes {
		scope = ts.narrow(scope, sure.Expr, sure.Type, false)
	}
	for _, sureNot := range specified.SureNotTypes {
		scope = ts.narrow(scope, sureNot.Expr, sureNot.Type, true)
	}
	return scope
}

// narrow intersects expr with t, or removes t from it when negated
func (ts *TypeSpecifier) narrow(scope *Scope, expr ast.Expr, t types.PHPType, negated bool) *Scope {
	if expr == nil || isLiteral(expr) {
		return scope
	}
	current := scope.GetType(expr)
	var narrowed types.PHPType
	if negated {
		narrowed = types.Remove(scope.hierarchy(), current, t)
	} else {
		narrowed = types.Intersect(scope.hierarchy(), current, t)
	}
	return withNarrowedType(scope, expr, current, narrowed)
}

func withNarrowedType(scope *Scope, expr ast.Expr, current, narrowed types.PHPType) *Scope {
	if narrowed.Equals(current) {
		return scope
	}
	return scope.SpecifyExpressionType(expr, narrowed)
}

// removeNull narrows expr to its non-null values and defines variables
func (ts *TypeSpecifier) removeNull(scope *Scope, expr ast.Expr) *Scope {
	t := types.Remove(scope.hierarchy(), scope.GetType(expr), types.NewNullType())
	if variable, ok := expr.(*ast.Variable); ok && variable.NameExpr == nil {
		if scope.VariableCertainty(variable.Name).IsYes() && t.Equals(scope.GetVariableType(variable.Name)) {
			return scope
		}
		return scope.AssignVariable(variable.Name, t)
	}
	return withNarrowedType(scope, expr, scope.GetType(expr), t)
}

func (ts *TypeSpecifier) specifyTruthiness(scope *Scope, expr ast.Expr, negated bool) *Scope {
	if !isNarrowable(expr) {
		return scope
	}
	current := scope.GetType(expr)
	if negated {
		return withNarrowedType(scope, expr, current, falseyType(current))
	}
	return withNarrowedType(scope, expr, current, truthyType(scope.hierarchy(), current))
}

func isNarrowable(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Variable:
		return e.NameExpr == nil
	case *ast.PropertyFetch, *ast.NullsafePropertyFetch, *ast.StaticPropertyFetch, *ast.ArrayDimFetch:
		return true
	}
	return false
}

// truthyType drops the values of t that are always falsey
func truthyType(h types.ClassHierarchy, t types.PHPType) types.PHPType {
	t = types.Remove(h, t, types.NewNullType())
	return types.Remove(h, t, types.NewConstantBoolType(false))
}

// falseyType drops the values of t that are always truthy
func falseyType(t types.PHPType) types.PHPType {
	members := []types.PHPType{t}
	if union, ok := t.(*types.UnionType); ok {
		members = union.Types()
	}

	kept := make([]types.PHPType, 0, len(members))
	for _, member := range members {
		switch m := member.(type) {
		case *types.ObjectType, *types.GenericObjectType, *types.StaticType, *types.ThisType,
			*types.ObjectWithoutClassType, *types.IntersectionType, *types.ResourceType:
			continue
		case *types.BoolType:
			if value, constant := m.Constant(); constant {
				if !value {
					kept = append(kept, m)
				}
				continue
			}
			kept = append(kept, types.NewConstantBoolType(false))
			continue
		}
		kept = append(kept, member)
	}
	return types.Union(kept...)
}

// instanceofClass resolves the right hand side of instanceof to a class name
func instanceofClass(scope *Scope, class ast.Expr) (string, bool) {
	name, ok := class.(*ast.Name)
	if !ok {
		return "", false
	}
	if name.IsSpecial() && scope.ClassReflection() == nil {
		return "", false
	}
	return scope.ResolveName(name), true
}

// classNameArgument reads a class name passed as 'Foo' or Foo::class
func classNameArgument(scope *Scope, expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.String:
		if e.Interpolated || e.Value == "" {
			return "", false
		}
		return strings.TrimPrefix(e.Value, "\\"), true
	case *ast.ClassConstFetch:
		if !strings.EqualFold(e.Name, "class") {
			return "", false
		}
		return instanceofClass(scope, e.Class)
	}
	return "", false
}
