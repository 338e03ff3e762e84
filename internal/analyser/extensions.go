package analyser

import (
	"strings"

	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// TypeSpecifierAwareExtension is implemented by narrowing extensions that recurse
// into the type specifier
type TypeSpecifierAwareExtension interface {
	SetTypeSpecifier(typeSpecifier *TypeSpecifier)
}

// FunctionTypeSpecifyingExtension narrows the arguments of calls to a function used
// as a condition. negated is set for the branch in which the call is falsey.
type FunctionTypeSpecifyingExtension interface {
	IsFunctionSupported(function reflection.FunctionReflection, call *ast.FuncCall, negated bool) bool
	SpecifyTypes(function reflection.FunctionReflection, call *ast.FuncCall, scope *Scope, negated bool) SpecifiedTypes
}

type MethodTypeSpecifyingExtension interface {
	GetClass() string
	IsMethodSupported(method reflection.MethodReflection, call *ast.MethodCall, negated bool) bool
	SpecifyTypes(method reflection.MethodReflection, call *ast.MethodCall, scope *Scope, negated bool) SpecifiedTypes
}

type StaticMethodTypeSpecifyingExtension interface {
	GetClass() string
	IsStaticMethodSupported(method reflection.MethodReflection, call *ast.StaticCall, negated bool) bool
	SpecifyTypes(method reflection.MethodReflection, call *ast.StaticCall, scope *Scope, negated bool) SpecifiedTypes
}

// isTypeFunctions maps the is_* functions to the type they check for
var isTypeFunctions = map[string]func() types.PHPType{
	"is_int":      intType,
	"is_integer":  intType,
	"is_long":     intType,
	"is_string":   stringType,
	"is_float":    floatType,
	"is_double":   floatType,
	"is_bool":     func() types.PHPType { return types.NewBoolType() },
	"is_array":    func() types.PHPType { return types.NewArrayType(nil, nil) },
	"is_null":     func() types.PHPType { return types.NewNullType() },
	"is_object":   func() types.PHPType { return types.NewObjectWithoutClassType() },
	"is_callable": func() types.PHPType { return types.NewCallableType() },
	"is_iterable": func() types.PHPType { return types.NewIterableType(nil) },
	"is_resource": func() types.PHPType { return types.NewResourceType() },
	"is_numeric":  numberType,
	"is_scalar":   scalarType,
}

func numberType() types.PHPType {
	return types.Union(types.NewIntType(), types.NewFloatType(), types.NewStringType())
}

func scalarType() types.PHPType {
	return types.Union(types.NewIntType(), types.NewFloatType(), types.NewStringType(), types.NewBoolType())
}

// IsTypeFunctionExtension narrows the argument of the is_* type check functions
type IsTypeFunctionExtension struct{}

func NewIsTypeFunctionExtension() *IsTypeFunctionExtension {
	return &IsTypeFunctionExtension{}
}

func (e *IsTypeFunctionExtension) IsFunctionSupported(function reflection.FunctionReflection, call *ast.FuncCall, negated bool) bool {
	_, ok := isTypeFunctions[strings.ToLower(function.Name())]
	return ok && len(call.Args) > 0 && !call.Args[0].Unpack
}

func (e *IsTypeFunctionExtension) SpecifyTypes(function reflection.FunctionReflection, call *ast.FuncCall, scope *Scope, negated bool) SpecifiedTypes {
	name := strings.ToLower(function.Name())
	arg := call.Args[0].Value

	if !negated {
		return SpecifiedTypes{SureTypes: []SpecifiedType{{Expr: arg, Type: isTypeFunctions[name]()}}}
	}
	if name == "is_numeric" {
		// numeric strings cannot be told apart from other strings
		return SpecifiedTypes{SureNotTypes: []SpecifiedType{{Expr: arg, Type: types.Union(types.NewIntType(), types.NewFloatType())}}}
	}
	return SpecifiedTypes{SureNotTypes: []SpecifiedType{{Expr: arg, Type: isTypeFunctions[name]()}}}
}
