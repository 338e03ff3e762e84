// Package reflection describes classes, functions and their members the way the
// analyser sees them: native declarations combined with doc comment types.
package reflection

import (
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.reflection")

// Registry resolves classes by name and owns the member extension chains.
// It also answers the class hierarchy questions of the type system.
type Registry interface {
	types.ClassHierarchy

	GetClass(name string) (*ClassReflection, error)
	HasClass(name string) bool
	PropertiesExtensions() []PropertiesClassReflectionExtension
	MethodsExtensions() []MethodsClassReflectionExtension
}

// BrokerAwareExtension is implemented by extensions that need the registry after it is built
type BrokerAwareExtension interface {
	SetBroker(registry Registry)
}

// Scope is the view of a program point that return type extensions get
type Scope interface {
	GetType(expr ast.Expr) types.PHPType
	GetVariableType(name string) types.PHPType
	Namespace() string
	File() string
	IsDeclareStrictTypes() bool
}

type ParameterReflection interface {
	Name() string
	// Type is the effective type, NativeType and PhpDocType its sources
	Type() types.PHPType
	NativeType() types.PHPType
	// PhpDocType is nil when the parameter has no @param tag
	PhpDocType() types.PHPType
	IsOptional() bool
	PassedByReference() bool
	IsVariadic() bool
	HasDefault() bool
}

// ParametersAcceptor is anything that can be called
type ParametersAcceptor interface {
	Parameters() []ParameterReflection
	IsVariadic() bool
	ReturnType() types.PHPType
}

type FunctionReflection interface {
	ParametersAcceptor

	Name() string
	// ThrowType is nil when nothing is documented
	ThrowType() types.PHPType
	IsDeprecated() bool
	IsInternal() bool
	IsFinal() bool
}

type ClassMemberReflection interface {
	DeclaringClass() *ClassReflection
	IsStatic() bool
	IsPrivate() bool
	IsPublic() bool
}

type MethodReflection interface {
	ClassMemberReflection
	FunctionReflection
}

type PropertyReflection interface {
	ClassMemberReflection

	Type() types.PHPType
	IsReadable() bool
	IsWritable() bool
}

type ConstantReflection interface {
	ClassMemberReflection

	Name() string
	// Value is the initializer as written
	Value() string
}

// PropertiesClassReflectionExtension contributes properties to classes. The first
// extension that has a property provides it.
type PropertiesClassReflectionExtension interface {
	HasProperty(class *ClassReflection, propertyName string) bool
	GetProperty(class *ClassReflection, propertyName string) PropertyReflection
}

// UniversalObjectCrateExtension is a properties extension that knows which classes
// are universal object crates
type UniversalObjectCrateExtension interface {
	IsCrate(class *ClassReflection) bool
}

// MethodsClassReflectionExtension contributes methods to classes. The first
// extension that has a method provides it.
type MethodsClassReflectionExtension interface {
	HasMethod(class *ClassReflection, methodName string) bool
	GetMethod(class *ClassReflection, methodName string) MethodReflection
}

// DynamicMethodReturnTypeExtension computes the return type of instance method calls
// from their arguments
type DynamicMethodReturnTypeExtension interface {
	GetClass() string
	IsMethodSupported(method MethodReflection) bool
	GetTypeFromMethodCall(method MethodReflection, call *ast.MethodCall, scope Scope) types.PHPType
}

// DynamicStaticMethodReturnTypeExtension computes the return type of static calls
type DynamicStaticMethodReturnTypeExtension interface {
	GetClass() string
	IsStaticMethodSupported(method MethodReflection) bool
	GetTypeFromStaticMethodCall(method MethodReflection, call *ast.StaticCall, scope Scope) types.PHPType
}

// DynamicFunctionReturnTypeExtension computes the return type of function calls
type DynamicFunctionReturnTypeExtension interface {
	IsFunctionSupported(function FunctionReflection) bool
	GetTypeFromFunctionCall(function FunctionReflection, call *ast.FuncCall, scope Scope) types.PHPType
}
