package native

import (
	"strings"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// MethodReflection is a method declared in PHP source. Parameters, return type and
// variadic detection are computed on first use.
type MethodReflection struct {
	declaringClass *reflection.ClassReflection
	declaringTrait *reflection.ClassReflection
	decl           *php.MethodDecl
	body           *bodyAnalyser

	phpDocParameterTypes map[string]types.PHPType
	phpDocReturnType     types.PHPType
	phpDocThrowType      types.PHPType
	deprecated           bool
	internal             bool
	final                bool

	parameters []reflection.ParameterReflection
	returnType types.PHPType
	variadic   *bool
}

func (m *MethodReflection) DeclaringClass() *reflection.ClassReflection { return m.declaringClass }

// DeclaringTrait is the trait the method was copied from, nil for methods written in the class
func (m *MethodReflection) DeclaringTrait() *reflection.ClassReflection { return m.declaringTrait }

func (m *MethodReflection) Decl() *php.MethodDecl { return m.decl }
func (m *MethodReflection) Name() string          { return m.decl.Name }
func (m *MethodReflection) IsStatic() bool        { return m.decl.Static }
func (m *MethodReflection) IsPrivate() bool       { return m.decl.Visibility == php.Private }
func (m *MethodReflection) IsPublic() bool        { return m.decl.Visibility == php.Public }
func (m *MethodReflection) IsAbstract() bool {
	return m.decl.Abstract || m.declaringClass.IsInterface()
}
func (m *MethodReflection) ReturnsByReference() bool { return m.decl.ByRefReturn }
func (m *MethodReflection) ThrowType() types.PHPType { return m.phpDocThrowType }
func (m *MethodReflection) IsDeprecated() bool       { return m.deprecated }
func (m *MethodReflection) IsInternal() bool         { return m.internal }
func (m *MethodReflection) IsFinal() bool            { return m.final || m.decl.Final }

func (m *MethodReflection) Parameters() []reflection.ParameterReflection {
	if m.parameters == nil {
		m.parameters = buildParameters(m.hierarchy(), m.decl.Params, m.phpDocParameterTypes, m.declaringClass.Name(), m.declaringClass.ParentClassName())
	}
	return m.parameters
}

// IsVariadic is true for a variadic last parameter and for bodies that read their
// arguments with func_get_args and friends
func (m *MethodReflection) IsVariadic() bool {
	if m.variadic != nil {
		return *m.variadic
	}

	variadic := false
	for _, param := range m.decl.Params {
		if param.Variadic {
			variadic = true
			break
		}
	}
	if !variadic {
		variadic = m.body.callsVariadicFunctions(m.declaringClass.Name()+"::"+m.decl.Name, m.fileName(), &m.decl.FunctionLike)
	}

	m.variadic = &variadic
	return variadic
}

func (m *MethodReflection) ReturnType() types.PHPType {
	if m.returnType != nil {
		return m.returnType
	}

	if strings.EqualFold(m.decl.Name, "__construct") && m.decl.ReturnType == "" {
		m.returnType = types.NewVoidType()
		return m.returnType
	}

	native := nativeType(m.decl.ReturnType, m.declaringClass.Name(), m.declaringClass.ParentClassName())
	m.returnType = mergeTypes(m.hierarchy(), native, m.phpDocReturnType)
	return m.returnType
}

// NativeReturnType is the declared return type alone
func (m *MethodReflection) NativeReturnType() types.PHPType {
	return nativeType(m.decl.ReturnType, m.declaringClass.Name(), m.declaringClass.ParentClassName())
}

// PhpDocReturnType is nil without an @return tag
func (m *MethodReflection) PhpDocReturnType() types.PHPType {
	return m.phpDocReturnType
}

func (m *MethodReflection) fileName() string {
	if m.declaringTrait != nil {
		return m.declaringTrait.FileName()
	}
	return m.declaringClass.FileName()
}

func (m *MethodReflection) hierarchy() types.ClassHierarchy {
	return m.declaringClass.Registry()
}
